package cookie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatemGhorbel/rapache/internal/status"
)

func TestParseCookieHeader(t *testing.T) {
	// RFC 2109 header: $Version applies to following cookies, $Path
	// attaches to the most recent one.
	jar, st := ParseHeader([]byte(`$Version="1"; foo="bar"; $Path=/; baz=qux`))
	require.Equal(t, status.OK, st)
	require.Len(t, jar, 2)

	foo, baz := jar[0], jar[1]
	assert.Equal(t, "foo", foo.Name)
	assert.Equal(t, "bar", foo.Value)
	assert.Equal(t, 1, foo.Version)
	assert.Equal(t, "/", foo.Path)

	assert.Equal(t, "baz", baz.Name)
	assert.Equal(t, "qux", baz.Value)
	assert.Equal(t, 1, baz.Version)
	assert.Equal(t, "", baz.Path)

	// Netscape header: no version attrs, ';' separated
	jar, st = ParseHeader([]byte("a=1; b=2;c=3"))
	require.Equal(t, status.OK, st)
	require.Len(t, jar, 3)
	assert.Equal(t, 0, jar[0].Version)
	assert.Equal(t, "2", jar[1].Value)

	// ',' is also a pair separator (RFC 2109)
	jar, st = ParseHeader([]byte("a=1, b=2"))
	require.Equal(t, status.OK, st)
	require.Len(t, jar, 2)

	// A reserved attribute other than $Version before any cookie
	_, st = ParseHeader([]byte("$Path=/; foo=bar"))
	assert.Equal(t, status.BadHeader, st)

	// $Domain and $Port attach too
	jar, st = ParseHeader([]byte(`$Version=1; c=v; $Domain=.example.com; $Port="80"`))
	require.Equal(t, status.OK, st)
	require.Len(t, jar, 1)
	assert.Equal(t, ".example.com", jar[0].Domain)
	assert.Equal(t, "80", jar[0].Port)

	// a U-label $Domain is stored in A-label form
	jar, st = ParseHeader([]byte(`$Version=1; c=v; $Domain=münchen.example`))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "xn--mnchen-3ya.example", jar[0].Domain)
}

func TestSerializeOrder(t *testing.T) {
	// Version-1 cookies emit Version first and prefer max-age.
	c := New("foo", "bar")
	c.Version = 1
	c.Path = "/app"
	c.Domain = "example.com"
	c.Port = "8080"
	c.Comment = "test"
	c.MaxAge = 3600
	c.Expires = time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)
	c.Secure = true
	c.HttpOnly = true
	assert.Equal(t,
		"foo=bar; Version=1; path=/app; domain=example.com; port=8080; comment=test; max-age=3600; secure; HttpOnly",
		c.Serialize())

	// Version-0 cookies never emit Version and fall back to expires.
	n := New("sid", "abc123")
	n.Path = "/"
	n.Expires = time.Date(1999, 11, 9, 23, 12, 40, 0, time.UTC)
	assert.Equal(t,
		"sid=abc123; path=/; expires=Tue, 09-Nov-1999 23:12:40 GMT",
		n.Serialize())
}

func TestSetCookieRoundTrip(t *testing.T) {
	// version 1: serialize then reparse yields an equal record
	c := New("foo", "bar")
	c.Version = 1
	c.Path = "/app"
	c.Domain = "example.com"
	c.MaxAge = 60
	c.Secure = true

	got, st := ParseSetCookie([]byte(c.Serialize()))
	require.Equal(t, status.OK, st)
	assert.Equal(t, c, got)

	// version 0 with expires
	n := New("sid", "xyz")
	n.Path = "/"
	n.Expires = time.Date(2027, 1, 2, 15, 4, 5, 0, time.UTC)
	n.HttpOnly = true

	got, st = ParseSetCookie([]byte(n.Serialize()))
	require.Equal(t, status.OK, st)
	assert.Equal(t, n.Name, got.Name)
	assert.Equal(t, n.Value, got.Value)
	assert.Equal(t, 0, got.Version)
	assert.Equal(t, n.Path, got.Path)
	assert.True(t, got.Expires.Equal(n.Expires))
	assert.True(t, got.HttpOnly)
	assert.Equal(t, -1, got.MaxAge)
}

func TestParseSetCookieAttrs(t *testing.T) {
	c, st := ParseSetCookie([]byte(`lang=en-US; Path=/; Domain=example.com; Expires=Wed, 09-Jun-2021 10:18:14 GMT; Secure; HttpOnly`))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "lang", c.Name)
	assert.Equal(t, "en-US", c.Value)
	assert.Equal(t, 0, c.Version)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "example.com", c.Domain)
	assert.Equal(t, time.Date(2021, 6, 9, 10, 18, 14, 0, time.UTC), c.Expires.UTC())
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)

	// quoted values are unwrapped
	c, st = ParseSetCookie([]byte(`q="a b"; CommentURL="http://x/y"`))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "a b", c.Value)
	assert.Equal(t, "http://x/y", c.CommentURL)

	// malformed max-age
	_, st = ParseSetCookie([]byte("a=b; max-age=later"))
	assert.Equal(t, status.BadAttr, st)

	// the domain attribute is normalized to its A-label form
	c, st = ParseSetCookie([]byte("a=b; Domain=bücher.example"))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "xn--bcher-kva.example", c.Domain)
}

func TestSetDomain(t *testing.T) {
	c := New("a", "b")
	c.SetDomain("bücher.example")
	assert.Equal(t, "xn--bcher-kva.example", c.Domain)
	c.SetDomain(".münchen.example")
	assert.Equal(t, ".xn--mnchen-3ya.example", c.Domain)
	c.SetDomain("plain.example")
	assert.Equal(t, "plain.example", c.Domain)
}

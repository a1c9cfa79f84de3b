package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatemGhorbel/rapache/internal/status"
)

func TestParseHeaderValue(t *testing.T) {
	// Test: Content-Disposition with quoted attributes
	main, attrs, st := Parse([]byte(`form-data; name="field1"; filename="file.txt"`))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "form-data", main)
	require.Len(t, attrs, 2)
	assert.Equal(t, "name", attrs[0].Name)
	assert.Equal(t, "field1", attrs[0].Value)
	assert.True(t, attrs[0].Quoted)
	assert.Equal(t, "filename", attrs[1].Name)
	assert.Equal(t, "file.txt", attrs[1].Value)

	// Test: media type with unquoted token attribute
	main, attrs, st = Parse([]byte("multipart/form-data; boundary=AaB03x"))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "multipart/form-data", main)
	b, ok := attrs.Get("BOUNDARY") // lookup is case-insensitive
	require.True(t, ok)
	assert.Equal(t, "AaB03x", b.Value)
	assert.False(t, b.Quoted)

	// Test: whitespace inside a quoted string is preserved byte-for-byte
	_, attrs, st = Parse([]byte(`text/plain; note="a  b	c"`))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "a  b\tc", attrs[0].Value)

	// Test: backslash escapes inside quoted strings
	_, attrs, st = Parse([]byte(`v; q="say \"hi\" \\ there"`))
	require.Equal(t, status.OK, st)
	assert.Equal(t, `say "hi" \ there`, attrs[0].Value)

	// Test: OWS around ';' and '=' is skipped
	main, attrs, st = Parse([]byte("v ;  a = 1 ; b=2"))
	require.Equal(t, status.OK, st)
	assert.Equal(t, "v", main)
	require.Len(t, attrs, 2)
	assert.Equal(t, "1", attrs[0].Value)

	// Test: trailing ';' is tolerated
	_, attrs, st = Parse([]byte("v; a=1;"))
	require.Equal(t, status.OK, st)
	assert.Len(t, attrs, 1)
}

func TestParseFailures(t *testing.T) {
	// missing closing quote
	_, _, st := Parse([]byte(`v; a="unterminated`))
	assert.Equal(t, status.BadSeq, st)

	// attribute without '='
	_, _, st = Parse([]byte("v; standalone"))
	assert.Equal(t, status.BadAttr, st)

	// attribute name is not a token
	_, _, st = Parse([]byte(`v; ="x"`))
	assert.Equal(t, status.BadAttr, st)

	// control byte in the main value
	_, _, st = Parse([]byte("va\x01lue"))
	assert.Equal(t, status.BadChar, st)
}

func TestScanners(t *testing.T) {
	tok, rest, st := ScanToken([]byte("abc;def"))
	require.Equal(t, status.OK, st)
	assert.Equal(t, []byte("abc"), tok)
	assert.Equal(t, []byte(";def"), rest)

	_, _, st = ScanToken([]byte(";x"))
	assert.Equal(t, status.NoToken, st)

	val, rest, st := ScanQuoted([]byte(`"a;b" tail`))
	require.Equal(t, status.OK, st)
	assert.Equal(t, []byte("a;b"), val)
	assert.Equal(t, []byte(" tail"), rest)

	_, _, st = ScanQuoted([]byte(`"dangling\`))
	assert.Equal(t, status.BadSeq, st)

	assert.Equal(t, []byte("x"), SkipOWS([]byte(" \t x"))[0:1])
}

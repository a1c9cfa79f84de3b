// Package cookie parses and serializes RFC 2109 and Netscape cookies.
package cookie

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/HatemGhorbel/rapache/internal/attr"
	"github.com/HatemGhorbel/rapache/internal/status"
)

// Cookie is one cookie record. Version 0 is Netscape, version 1 is
// RFC 2109; serialization picks the format from the version.
type Cookie struct {
	Name    string
	Value   string
	Version int

	Path       string
	Domain     string
	Port       string
	Comment    string
	CommentURL string

	// MaxAge in seconds; negative means unset. Expires zero means unset.
	MaxAge  int
	Expires time.Time

	Secure   bool
	HttpOnly bool

	// Flags is application-defined cookie state; the parser and
	// serializer never touch it.
	Flags uint
}

// Netscape expires timestamp format.
const expiresLayout = "Mon, 02-Jan-2006 15:04:05 GMT"

func New(name, value string) *Cookie {
	return &Cookie{Name: name, Value: value, MaxAge: -1}
}

// SetDomain stores the domain normalized to its A-label (punycode)
// form. An unconvertible domain is stored raw.
func (c *Cookie) SetDomain(domain string) {
	if ascii, err := idna.Lookup.ToASCII(strings.TrimPrefix(domain, ".")); err == nil {
		if strings.HasPrefix(domain, ".") {
			ascii = "." + ascii
		}
		c.Domain = ascii
		return
	}
	c.Domain = domain
}

// scanValue reads a cookie value: a quoted-string, or a raw run ending
// at ';' or ',' with trailing whitespace trimmed. Raw values may hold
// separator bytes like '/' ($Path=/), but never controls.
func scanValue(b []byte) (val, rest []byte, st status.ParseStatus) {
	return scanUntil(b, true)
}

// scanAttrValue is scanValue with ',' allowed inside the raw run;
// Set-Cookie attribute values such as expires timestamps contain one.
func scanAttrValue(b []byte) (val, rest []byte, st status.ParseStatus) {
	return scanUntil(b, false)
}

func scanUntil(b []byte, commaEnds bool) (val, rest []byte, st status.ParseStatus) {
	if len(b) > 0 && b[0] == '"' {
		return attr.ScanQuoted(b)
	}
	i := 0
	for i < len(b) && b[i] != ';' && !(commaEnds && b[i] == ',') {
		if b[i] < 0x20 || b[i] == 0x7f {
			return nil, b, status.BadChar
		}
		i++
	}
	val = b[:i]
	for len(val) > 0 && (val[len(val)-1] == ' ' || val[len(val)-1] == '\t') {
		val = val[:len(val)-1]
	}
	return val, b[i:], status.OK
}

func skipPairSeps(b []byte) []byte {
	for len(b) > 0 && (b[0] == ';' || b[0] == ',' || b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}

// ParseHeader parses a client Cookie: header value into cookie
// records. Pairs are split at unquoted ';' and ','. The RFC 2109
// reserved attributes $Path, $Domain and $Port attach to the most
// recent cookie; $Version applies to every cookie that follows it. A
// reserved attribute other than $Version arriving before any cookie
// fails with BadHeader.
func ParseHeader(b []byte) ([]*Cookie, status.ParseStatus) {
	var (
		jar     []*Cookie
		cur     *Cookie
		version int
	)

	b = skipPairSeps(b)
	for len(b) > 0 {
		name, rest, st := attr.ScanToken(b)
		if st != status.OK {
			return jar, status.BadChar
		}
		rest = attr.SkipOWS(rest)
		if len(rest) == 0 || rest[0] != '=' {
			return jar, status.BadHeader
		}
		val, rest, st := scanValue(attr.SkipOWS(rest[1:]))
		if st != status.OK {
			return jar, st
		}
		b = skipPairSeps(rest)

		if name[0] == '$' {
			switch {
			case strings.EqualFold(string(name), "$Version"):
				v, err := strconv.Atoi(string(val))
				if err != nil {
					return jar, status.BadAttr
				}
				version = v
				if cur != nil {
					cur.Version = v
				}
			case cur == nil:
				return jar, status.BadHeader
			case strings.EqualFold(string(name), "$Path"):
				cur.Path = string(val)
			case strings.EqualFold(string(name), "$Domain"):
				cur.SetDomain(string(val))
			case strings.EqualFold(string(name), "$Port"):
				cur.Port = string(val)
			default:
				return jar, status.BadAttr
			}
			continue
		}

		cur = New(string(name), string(val))
		cur.Version = version
		jar = append(jar, cur)
	}
	return jar, status.OK
}

// ParseSetCookie parses one Set-Cookie header value into a record. The
// cookie's version is the value of its Version attribute, or 0 when
// there is none.
func ParseSetCookie(b []byte) (*Cookie, status.ParseStatus) {
	name, rest, st := attr.ScanToken(attr.SkipOWS(b))
	if st != status.OK {
		return nil, status.NoToken
	}
	rest = attr.SkipOWS(rest)
	if len(rest) == 0 || rest[0] != '=' {
		return nil, status.BadHeader
	}
	val, rest, st := scanValue(attr.SkipOWS(rest[1:]))
	if st != status.OK {
		return nil, st
	}
	c := New(string(name), string(val))

	for {
		rest = attr.SkipOWS(rest)
		if len(rest) == 0 {
			return c, status.OK
		}
		if rest[0] != ';' {
			return c, status.BadChar
		}
		rest = attr.SkipOWS(rest[1:])
		if len(rest) == 0 {
			return c, status.OK
		}

		aname, r, st := attr.ScanToken(rest)
		if st != status.OK {
			return c, status.BadAttr
		}
		rest = attr.SkipOWS(r)

		var aval []byte
		if len(rest) > 0 && rest[0] == '=' {
			aval, rest, st = scanAttrValue(attr.SkipOWS(rest[1:]))
			if st != status.OK {
				return c, st
			}
		}

		switch strings.ToLower(string(aname)) {
		case "version":
			v, err := strconv.Atoi(string(aval))
			if err != nil {
				return c, status.BadAttr
			}
			c.Version = v
		case "path":
			c.Path = string(aval)
		case "domain":
			c.SetDomain(string(aval))
		case "port":
			c.Port = string(aval)
		case "comment":
			c.Comment = string(aval)
		case "commenturl":
			c.CommentURL = string(aval)
		case "max-age":
			age, err := strconv.Atoi(string(aval))
			if err != nil || age < 0 {
				return c, status.BadAttr
			}
			c.MaxAge = age
		case "expires":
			t, err := time.Parse(expiresLayout, string(aval))
			if err != nil {
				t, err = time.Parse(time.RFC1123, string(aval))
			}
			if err != nil {
				return c, status.BadAttr
			}
			c.Expires = t
		case "secure":
			c.Secure = true
		case "httponly":
			c.HttpOnly = true
		}
	}
}

// Serialize renders the cookie for a Set-Cookie header. Attributes are
// emitted in a fixed order: Version, path, domain, port, comment,
// commentURL, max-age/expires, secure, HttpOnly. Version-0 cookies
// never carry a Version attribute; version >= 1 cookies do, and prefer
// max-age over expires.
func (c *Cookie) Serialize() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('=')
	sb.WriteString(c.Value)

	if c.Version >= 1 {
		sb.WriteString("; Version=")
		sb.WriteString(strconv.Itoa(c.Version))
	}
	if c.Path != "" {
		sb.WriteString("; path=")
		sb.WriteString(c.Path)
	}
	if c.Domain != "" {
		sb.WriteString("; domain=")
		sb.WriteString(c.Domain)
	}
	if c.Port != "" {
		sb.WriteString("; port=")
		sb.WriteString(c.Port)
	}
	if c.Comment != "" {
		sb.WriteString("; comment=")
		sb.WriteString(c.Comment)
	}
	if c.CommentURL != "" {
		sb.WriteString("; commentURL=\"")
		sb.WriteString(c.CommentURL)
		sb.WriteByte('"')
	}
	switch {
	case c.Version >= 1 && c.MaxAge >= 0:
		sb.WriteString("; max-age=")
		sb.WriteString(strconv.Itoa(c.MaxAge))
	case !c.Expires.IsZero():
		sb.WriteString("; expires=")
		sb.WriteString(c.Expires.UTC().Format(expiresLayout))
	}
	if c.Secure {
		sb.WriteString("; secure")
	}
	if c.HttpOnly {
		sb.WriteString("; HttpOnly")
	}
	return sb.String()
}

// Package attr tokenizes the structured header-value grammar shared by
// Cookie, Content-Type, and Content-Disposition:
//
//	value  := main-value ( OWS ";" OWS attr )*
//	attr   := token "=" token-or-quoted
//	token  := 1*<VCHAR except separators>
//
// Whitespace inside quoted strings is preserved byte for byte;
// backslash continuation is honored only inside quoted strings.
package attr

import "github.com/HatemGhorbel/rapache/internal/status"

const separators = "()<>@,;:\\\"/[]?={} \t"

type octetClass byte

const (
	classToken octetClass = 1 << iota // token constituent
	classSep                          // separator
	classSpace                        // SP / HT
	classCtl                          // control or DEL
)

var classes [256]octetClass

func init() {
	for c := 0; c < 256; c++ {
		switch {
		case c == ' ' || c == '\t':
			classes[c] = classSep | classSpace
		case c < 0x20 || c == 0x7f:
			classes[c] = classCtl
		}
	}
	for _, c := range []byte(separators) {
		classes[c] |= classSep
	}
	for c := 0x21; c < 0x7f; c++ {
		if classes[c]&classSep == 0 {
			classes[c] = classToken
		}
	}
}

func isToken(c byte) bool { return classes[c]&classToken != 0 }
func isOWS(c byte) bool   { return classes[c]&classSpace != 0 }
func isCtl(c byte) bool   { return classes[c]&classCtl != 0 }

// Attr is one parsed name=value attribute.
type Attr struct {
	Name   string
	Value  string
	Quoted bool // value came from a quoted-string
}

// Attrs is the attribute list of one header value.
type Attrs []Attr

// Get returns the first attribute whose name matches case-insensitively.
func (as Attrs) Get(name string) (Attr, bool) {
	for _, a := range as {
		if equalFold(a.Name, name) {
			return a, true
		}
	}
	return Attr{}, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// SkipOWS returns b without its leading SP/HT run.
func SkipOWS(b []byte) []byte {
	for len(b) > 0 && isOWS(b[0]) {
		b = b[1:]
	}
	return b
}

// ScanToken splits a leading token off b. NoToken when b does not start
// with a token byte.
func ScanToken(b []byte) (tok, rest []byte, st status.ParseStatus) {
	i := 0
	for i < len(b) && isToken(b[i]) {
		i++
	}
	if i == 0 {
		return nil, b, status.NoToken
	}
	return b[:i], b[i:], status.OK
}

// ScanQuoted splits a leading quoted-string off b and returns its
// unescaped contents. BadSeq when the closing quote (or the byte after
// a backslash) is missing.
func ScanQuoted(b []byte) (val, rest []byte, st status.ParseStatus) {
	if len(b) == 0 || b[0] != '"' {
		return nil, b, status.NoToken
	}
	var out []byte
	escaped := false
	for i := 1; i < len(b); i++ {
		c := b[i]
		switch {
		case escaped:
			out = append(out, c)
			escaped = false
		case c == '\\':
			if out == nil {
				out = append(out, b[1:i]...)
			}
			escaped = true
		case c == '"':
			if out == nil {
				return b[1:i], b[i+1:], status.OK
			}
			return out, b[i+1:], status.OK
		default:
			if out != nil {
				out = append(out, c)
			}
		}
	}
	return nil, b, status.BadSeq
}

// ScanWord splits a leading token-or-quoted off b.
func ScanWord(b []byte) (val, rest []byte, quoted bool, st status.ParseStatus) {
	if len(b) > 0 && b[0] == '"' {
		val, rest, st = ScanQuoted(b)
		return val, rest, true, st
	}
	val, rest, st = ScanToken(b)
	return val, rest, false, st
}

// scanMain consumes the main value: everything before the first ';',
// with surrounding OWS trimmed. Media types ("multipart/form-data")
// contain separator bytes, so the main value is deliberately looser
// than a token; control bytes still fail with BadChar.
func scanMain(b []byte) (main, rest []byte, st status.ParseStatus) {
	i := 0
	for i < len(b) && b[i] != ';' {
		if isCtl(b[i]) {
			return nil, b, status.BadChar
		}
		i++
	}
	main = b[:i]
	for len(main) > 0 && isOWS(main[0]) {
		main = main[1:]
	}
	for len(main) > 0 && isOWS(main[len(main)-1]) {
		main = main[:len(main)-1]
	}
	return main, b[i:], status.OK
}

// Parse tokenizes one full header value into its main value and
// attribute list.
func Parse(b []byte) (main string, attrs Attrs, st status.ParseStatus) {
	mb, rest, st := scanMain(b)
	if st != status.OK {
		return "", nil, st
	}
	main = string(mb)

	for {
		rest = SkipOWS(rest)
		if len(rest) == 0 {
			return main, attrs, status.OK
		}
		if rest[0] != ';' {
			return main, attrs, status.BadChar
		}
		rest = SkipOWS(rest[1:])
		if len(rest) == 0 {
			// trailing ";" is tolerated
			return main, attrs, status.OK
		}

		name, r, st := ScanToken(rest)
		if st != status.OK {
			return main, attrs, status.BadAttr
		}
		rest = SkipOWS(r)
		if len(rest) == 0 || rest[0] != '=' {
			// bare attribute without a value
			return main, attrs, status.BadAttr
		}
		rest = SkipOWS(rest[1:])

		val, r2, quoted, st := ScanWord(rest)
		if st == status.BadSeq {
			return main, attrs, status.BadSeq
		}
		if st != status.OK {
			return main, attrs, status.BadAttr
		}
		rest = r2
		attrs = append(attrs, Attr{Name: string(name), Value: string(val), Quoted: quoted})
	}
}

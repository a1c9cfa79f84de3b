package table

import "unicode/utf8"

// Charset classifies the bytes of a parameter value. The sniff is a
// heuristic over the raw bytes, not a declaration by the peer.
type Charset int

const (
	CharsetUnknown Charset = iota
	CharsetASCII
	CharsetUTF8
	CharsetLatin1
	CharsetCP1252
)

var CharsetName = map[Charset]string{
	CharsetUnknown: "unknown",
	CharsetASCII:   "ascii",
	CharsetUTF8:    "utf-8",
	CharsetLatin1:  "iso-8859-1",
	CharsetCP1252:  "cp1252",
}

func (c Charset) String() string {
	if name, ok := CharsetName[c]; ok {
		return name
	}
	return "unknown"
}

// Sniff reports the narrowest charset the bytes are valid in: ASCII,
// then UTF-8, then CP1252 (high bytes including the 0x80-0x9F block),
// then Latin-1. Any embedded C0 control other than tab, CR and LF makes
// the result unknown.
func Sniff(b []byte) Charset {
	ascii := true
	cp1252 := false
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			if c <= 0x9f {
				cp1252 = true
			}
		} else if c < 0x20 && c != '\t' && c != '\r' && c != '\n' {
			return CharsetUnknown
		}
	}
	switch {
	case ascii:
		return CharsetASCII
	case utf8.Valid(b):
		return CharsetUTF8
	case cp1252:
		return CharsetCP1252
	}
	return CharsetLatin1
}

package status

import "errors"

// ParseStatus is the outcome code shared by every parser in the module.
// Zero value is OK, so a parameter that carries no explicit status reads
// as complete.
type ParseStatus int

const (
	OK         ParseStatus = iota // fully consumed, parser terminal
	Incomplete                    // need more bytes
	NoData                        // no bytes were available
	BadChar                       // disallowed byte in a token
	BadSeq                        // malformed byte sequence (escape, quoting)
	BadData                       // structurally malformed input
	BadHeader                     // malformed or missing header
	BadAttr                       // malformed attribute
	BadUTF8                       // invalid UTF-8 where UTF-8 was claimed
	Mismatch                      // input does not match the expected grammar
	OverLimit                     // a configured limit was exceeded
	NoToken                       // expected token was absent
	NoAttr                        // expected attribute was absent
	NoHeader                      // expected header was absent
	NoParser                      // no parser available for the content type
	Generic                       // unclassified failure
	Interrupt                     // a hook requested abort
)

var ParseStatusName = map[ParseStatus]string{
	OK:         "ok",
	Incomplete: "incomplete",
	NoData:     "nodata",
	BadChar:    "badchar",
	BadSeq:     "badseq",
	BadData:    "baddata",
	BadHeader:  "badheader",
	BadAttr:    "badattr",
	BadUTF8:    "badutf8",
	Mismatch:   "mismatch",
	OverLimit:  "overlimit",
	NoToken:    "notoken",
	NoAttr:     "noattr",
	NoHeader:   "noheader",
	NoParser:   "noparser",
	Generic:    "generic",
	Interrupt:  "interrupt",
}

func (s ParseStatus) String() string {
	if name, ok := ParseStatusName[s]; ok {
		return name
	}
	return "unknown"
}

// Fatal reports whether s is a terminal failure. OK means success and
// Incomplete/NoData mean the parser is merely starved; everything else
// is sticky on the parser that raised it.
func (s ParseStatus) Fatal() bool {
	switch s {
	case OK, Incomplete, NoData:
		return false
	}
	return true
}

// Done reports whether the parser has reached a terminal state,
// successfully or not.
func (s ParseStatus) Done() bool {
	return s == OK || s.Fatal()
}

var statusErrs = map[ParseStatus]error{}

func init() {
	for s, name := range ParseStatusName {
		if s != OK {
			statusErrs[s] = errors.New("parse: " + name)
		}
	}
}

// Err bridges a status to the error domain for callers that prefer
// errors.Is over status comparison. OK maps to nil. The returned error
// is a fixed sentinel per status value.
func (s ParseStatus) Err() error {
	if s == OK {
		return nil
	}
	if err, ok := statusErrs[s]; ok {
		return err
	}
	return statusErrs[Generic]
}

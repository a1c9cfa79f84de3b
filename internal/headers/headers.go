package headers

import (
	"bytes"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/table"
)

// Headers incrementally scans a CRLF-terminated header block into an
// insertion-ordered bag. Duplicate field names are kept as separate
// entries in arrival order; Get is case-insensitive. Folded lines
// (continuations starting with SP/HT) are unfolded into the previous
// field with a single SP replacing the fold.
type Headers struct {
	Bag *table.Table

	maxCount int
	pendName string
	pendVal  []byte
	havePend bool
}

var separator = []byte("\r\n")

// Per-line cap; the per-block count cap is passed by the caller.
const maxHeaderLine = 8 * 1024 // 8 KiB

const DefaultMaxHeaders = 64

func NewHeaders(maxCount int) *Headers {
	if maxCount <= 0 {
		maxCount = DefaultMaxHeaders
	}
	return &Headers{Bag: table.New(), maxCount: maxCount}
}

// Get is case-insensitive and returns the first value for name.
func (h *Headers) Get(name string) string {
	return h.Bag.Get(name)
}

func (h *Headers) flush() status.ParseStatus {
	if !h.havePend {
		return status.OK
	}
	if h.Bag.Len() >= h.maxCount {
		return status.OverLimit
	}
	h.Bag.Add(h.pendName, string(bytes.Trim(h.pendVal, " \t")))
	h.pendName, h.pendVal, h.havePend = "", nil, false
	return status.OK
}

// Parse consumes complete header lines from data. It returns the byte
// count consumed, whether the blank terminator line was reached, and a
// status. A field line is not committed until the start of the next
// line has been seen, so folded continuations can be joined; the
// pending field survives across calls, making Parse resumable.
func (h *Headers) Parse(data []byte) (n int, done bool, st status.ParseStatus) {
	off := 0
	for {
		idx := bytes.Index(data[off:], separator)
		if idx == -1 {
			// If the current unterminated line exceeds the cap, fail.
			if len(data)-off > maxHeaderLine {
				return 0, false, status.OverLimit
			}
			return off, false, status.Incomplete
		}
		if idx > maxHeaderLine {
			return 0, false, status.OverLimit
		}

		line := data[off : off+idx]
		off += idx + len(separator)

		// Blank line => end of headers
		if len(line) == 0 {
			if st := h.flush(); st != status.OK {
				return 0, false, st
			}
			return off, true, status.OK
		}

		// Folded continuation: joined to the pending field with one SP.
		if line[0] == ' ' || line[0] == '\t' {
			if !h.havePend {
				return 0, false, status.BadHeader
			}
			h.pendVal = append(h.pendVal, ' ')
			h.pendVal = append(h.pendVal, bytes.Trim(line, " \t")...)
			continue
		}

		if st := h.flush(); st != status.OK {
			return 0, false, st
		}

		// Find first colon (values may contain additional colons)
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 { // no colon or empty field-name
			return 0, false, status.BadHeader
		}

		name := string(line[:colon])
		if !httpguts.ValidHeaderFieldName(name) {
			return 0, false, status.BadHeader
		}
		val := bytes.Trim(line[colon+1:], " \t")
		if !httpguts.ValidHeaderFieldValue(string(val)) {
			return 0, false, status.BadHeader
		}

		h.pendName = strings.ToLower(name)
		h.pendVal = append([]byte(nil), val...)
		h.havePend = true
	}
}

package response

import (
	"fmt"
	"io"
	"net/textproto"
	"strconv"

	"github.com/HatemGhorbel/rapache/internal/table"
)

type StatusCode int

const (
	OK                    StatusCode = 200
	BAD_REQUEST           StatusCode = 400
	PAYLOAD_TOO_LARGE     StatusCode = 413
	INTERNAL_SERVER_ERROR StatusCode = 500
)

var StatusCodeName = map[StatusCode]string{
	OK:                    "OK",
	BAD_REQUEST:           "Bad Request",
	PAYLOAD_TOO_LARGE:     "Payload Too Large",
	INTERNAL_SERVER_ERROR: "Internal Server Error",
}

const httpVersion = "HTTP/1.1"

// GetDefaultHeaders returns a fresh ordered header table with sensible
// defaults. Keys are stored lowercase.
func GetDefaultHeaders(contentLen int) *table.Table {
	h := table.New()
	h.Add("content-length", strconv.Itoa(contentLen))
	h.Add("connection", "close")
	h.Add("content-type", "text/plain")
	return h
}

func WriteStatusLine(w io.Writer, statusCode StatusCode) error {
	reason, ok := StatusCodeName[statusCode]
	if !ok {
		reason = "Unknown"
	}
	_, err := fmt.Fprintf(w, "%s %d %s\r\n", httpVersion, int(statusCode), reason)
	return err
}

// WriteHeaders emits the table in insertion order with canonicalized
// display names, followed by the blank line ending the header block.
func WriteHeaders(w io.Writer, headers *table.Table) error {
	if headers != nil {
		var werr error
		headers.Each(func(p *table.Param) bool {
			display := textproto.CanonicalMIMEHeaderKey(p.Name)
			_, werr = fmt.Fprintf(w, "%s: %s\r\n", display, p.Value)
			return werr == nil
		})
		if werr != nil {
			return werr
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

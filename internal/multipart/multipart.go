// Package multipart implements a resumable multipart/form-data parser
// with brigade-buffered boundary scanning and upload spooling.
package multipart

import (
	"strings"

	"github.com/HatemGhorbel/rapache/internal/attr"
	"github.com/HatemGhorbel/rapache/internal/brigade"
	"github.com/HatemGhorbel/rapache/internal/headers"
	"github.com/HatemGhorbel/rapache/internal/parser"
	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/table"
	"github.com/HatemGhorbel/rapache/internal/upload"
)

type mpState int

const (
	statePreamble mpState = iota + 1
	stateBoundary    // delimiter matched; classifying terminal vs next part
	statePartHeaders // scanning one part's header block
	statePartBody    // committing body bytes up to the next delimiter
	stateNested      // a sub-parser owns the stream
	stateComplete    // terminal boundary seen
)

var mpStateName = map[mpState]string{
	statePreamble:    "preamble",
	stateBoundary:    "boundary",
	statePartHeaders: "part_headers",
	statePartBody:    "part_body",
	stateNested:      "nested",
	stateComplete:    "complete",
}

// RFC 2046: boundary tokens are at most 70 bytes.
const maxBoundaryLen = 70

// Parser is one multipart/form-data stream parser. Nested multipart
// parts push a sub-parser; depth tracks nesting against MaxNesting.
type Parser struct {
	cfg   parser.Config
	st    status.ParseStatus
	state mpState
	depth uint8

	boundary []byte
	dash     []byte // "--" boundary
	delim    []byte // CRLF "--" boundary

	hdrs *headers.Headers

	// current part
	inPart   bool
	partName string
	partInfo *table.Table
	up       *upload.Upload
	valBuf   []byte

	sub   *Parser
	pairs uint32
	hooks []parser.Hook
}

// New builds a parser from the request's Content-Type value, which
// must name a multipart/* media type carrying a boundary attribute.
func New(contentType []byte, cfg parser.Config) (*Parser, status.ParseStatus) {
	main, attrs, st := attr.Parse(contentType)
	if st.Fatal() {
		return nil, st
	}
	if !strings.HasPrefix(strings.ToLower(main), "multipart/") {
		return nil, status.Mismatch
	}
	b, ok := attrs.Get("boundary")
	if !ok {
		return nil, status.NoAttr
	}
	if b.Value == "" || len(b.Value) > maxBoundaryLen {
		return nil, status.BadAttr
	}
	return newParser([]byte(b.Value), cfg.WithDefaults(), 0), status.OK
}

func newParser(boundary []byte, cfg parser.Config, depth uint8) *Parser {
	p := &Parser{
		cfg:      cfg,
		st:       status.Incomplete,
		state:    statePreamble,
		depth:    depth,
		boundary: boundary,
	}
	p.dash = append([]byte("--"), boundary...)
	p.delim = append([]byte("\r\n"), p.dash...)
	return p
}

func (p *Parser) Status() status.ParseStatus { return p.st }

func (p *Parser) AddHook(h parser.Hook) { p.hooks = append(p.hooks, h) }

func (p *Parser) fail(st status.ParseStatus) status.ParseStatus {
	p.st = st
	return st
}

// Abort poisons the parser, committing the in-flight part to out
// marked with st.
func (p *Parser) Abort(st status.ParseStatus, out *table.Table) status.ParseStatus {
	if p.st.Done() {
		return p.st
	}
	if p.sub != nil {
		p.sub.Abort(st, out)
		p.sub = nil
	}
	p.abortPart(st, out)
	return p.fail(st)
}

// holdback is how many pending tail bytes may still turn out to be the
// start of a boundary delimiter and must not be committed to a part.
func (p *Parser) holdback() int {
	return len(p.delim) + 4
}

// Feed consumes whatever it can classify from in. Body bytes are
// committed to the current part only once they provably cannot belong
// to a boundary delimiter.
func (p *Parser) Feed(in *brigade.Brigade, out *table.Table) status.ParseStatus {
	if p.st.Done() {
		return p.st
	}
	if in.Len() == 0 && !in.EOS() {
		return status.NoData
	}

	for {
		switch p.state {
		case statePreamble:
			i := in.FindDelim(p.dash)
			if i < 0 {
				if excess := in.Len() - p.holdback(); excess > 0 {
					in.Consume(excess)
				}
				if in.EOS() {
					return p.fail(status.BadData)
				}
				return status.Incomplete
			}
			// Everything before the first delimiter is preamble.
			in.Consume(i + len(p.dash))
			p.state = stateBoundary

		case stateBoundary:
			st := p.afterBoundary(in)
			if st != status.OK {
				return st
			}

		case statePartHeaders:
			data := in.Peek(in.Len())
			n, done, st := p.hdrs.Parse(data)
			in.Consume(n)
			if st.Fatal() {
				return p.fail(st)
			}
			if !done {
				if in.EOS() {
					return p.fail(status.BadHeader)
				}
				return status.Incomplete
			}
			if st := p.classifyPart(); st != status.OK {
				return st
			}

		case statePartBody:
			i := in.FindDelim(p.delim)
			if i >= 0 {
				if st := p.appendChunk(in.Pull(i), out); st != status.OK {
					return st
				}
				in.Consume(len(p.delim))
				if st := p.finishPart(out); st != status.OK {
					return st
				}
				p.state = stateBoundary
				continue
			}
			if excess := in.Len() - p.holdback(); excess > 0 {
				if st := p.appendChunk(in.Pull(excess), out); st != status.OK {
					return st
				}
			}
			if in.EOS() {
				// Truncated stream: what remains is body content by
				// default, the structural meaning is gone either way.
				if st := p.appendChunk(in.Pull(in.Len()), out); st != status.OK {
					return st
				}
				p.abortPart(status.Incomplete, out)
				return p.fail(status.BadData)
			}
			return status.Incomplete

		case stateNested:
			st := p.sub.Feed(in, out)
			if st.Fatal() {
				return p.fail(st)
			}
			if st != status.OK {
				return st
			}
			// Inner parser is terminal; bytes up to our own next
			// boundary are its epilogue and are discarded.
			p.sub = nil
			p.inPart = false
			p.state = statePartBody

		case stateComplete:
			p.st = status.OK
			return p.st
		}
	}
}

// afterBoundary classifies what follows a matched delimiter: "--"
// closes the stream, otherwise optional padding and CRLF open the next
// part's headers.
func (p *Parser) afterBoundary(in *brigade.Brigade) status.ParseStatus {
	data := in.Peek(in.Len())
	if len(data) >= 2 && data[0] == '-' && data[1] == '-' {
		in.Consume(2)
		// Terminal boundary. Anything further is epilogue; only the
		// top-level parser owns the rest of the stream.
		if p.depth == 0 {
			in.Consume(in.Len())
		}
		p.state = stateComplete
		return status.OK
	}

	// Transport padding before the CRLF is tolerated.
	i := 0
	for i < len(data) && (data[i] == ' ' || data[i] == '\t') {
		i++
	}
	switch {
	case len(data) < i+2:
		if in.EOS() {
			return p.fail(status.BadData)
		}
		return status.Incomplete
	case data[i] == '\r' && data[i+1] == '\n':
		in.Consume(i + 2)
		p.hdrs = headers.NewHeaders(int(p.cfg.MaxHeaders))
		p.state = statePartHeaders
		return status.OK
	}
	return p.fail(status.BadData)
}

// Package request is the module façade. A Request owns the parsed
// query-string table, the parsed body table and the body parser for
// one HTTP request. Query parsing is eager on first access; body
// parsing is lazy and driven by parameter lookups.
package request

import (
	"io"
	"strings"

	"github.com/HatemGhorbel/rapache/internal/brigade"
	"github.com/HatemGhorbel/rapache/internal/cookie"
	"github.com/HatemGhorbel/rapache/internal/multipart"
	"github.com/HatemGhorbel/rapache/internal/parser"
	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/table"
	"github.com/HatemGhorbel/rapache/internal/upload"
	"github.com/HatemGhorbel/rapache/internal/urlenc"
)

// Env is the environment handle: the request metadata and body source
// an adapter hands to the façade. Body bytes arrive in arbitrary
// chunks from the reader; a nil Body means the request has none.
type Env struct {
	Method        string
	RequestTarget string // "/path?query", or a bare query string
	ContentType   string
	CookieHeaders []string
	Body          io.Reader
}

type RequestState int

const (
	RequestInitialized RequestState = iota + 1
	RequestParsingBody
	RequestDone
	RequestError
)

var RequestStateName = map[RequestState]string{
	RequestInitialized: "initialized",
	RequestParsingBody: "parsing_body",
	RequestDone:        "done",
	RequestError:       "error",
}

type Request struct {
	cfg parser.Config
	env Env

	args       *table.Table
	argsStatus status.ParseStatus
	argsParsed bool

	body       *table.Table
	bodyStatus status.ParseStatus
	bp         parser.Parser
	bpChosen   bool
	in         *brigade.Brigade
	fed        uint64
	block      []byte
	state      RequestState

	pendHooks []parser.Hook

	jar       []*cookie.Cookie
	jarStatus status.ParseStatus
	jarParsed bool
}

func New(env Env, cfg parser.Config) *Request {
	return &Request{
		cfg:        cfg.WithDefaults(),
		env:        env,
		body:       table.New(),
		bodyStatus: status.Incomplete,
		in:         brigade.New(),
		state:      RequestInitialized,
	}
}

func (r *Request) State() RequestState { return r.state }

// AddHook registers an upload hook. Hooks added before the body parser
// exists are replayed onto it at construction.
func (r *Request) AddHook(h parser.Hook) {
	if r.bp != nil {
		r.bp.AddHook(h)
		return
	}
	r.pendHooks = append(r.pendHooks, h)
}

// queryString extracts the query portion of the request target. A
// target starting with '/' is a path whose query follows '?'; anything
// else is taken to be a raw query string.
func (r *Request) queryString() string {
	target := r.env.RequestTarget
	if strings.HasPrefix(target, "/") {
		i := strings.IndexByte(target, '?')
		if i < 0 {
			return ""
		}
		return target[i+1:]
	}
	return target
}

// Args returns the query-string table, parsing it on first access.
func (r *Request) Args() (*table.Table, status.ParseStatus) {
	if r.argsParsed {
		return r.args, r.argsStatus
	}
	r.argsParsed = true
	r.args = table.New()
	qs := r.queryString()
	if qs == "" {
		r.argsStatus = status.OK
		return r.args, r.argsStatus
	}
	in := brigade.New()
	in.Append([]byte(qs))
	in.Close()
	r.argsStatus = urlenc.New(r.cfg).Feed(in, r.args)
	return r.args, r.argsStatus
}

// chooseParser picks the body parser from the Content-Type, once.
func (r *Request) chooseParser() {
	if r.bpChosen {
		return
	}
	r.bpChosen = true
	ct := r.env.ContentType
	switch {
	case r.env.Body == nil:
		// An absent body is not a parse failure; the body table is
		// simply empty.
		r.bodyStatus = status.OK
		r.state = RequestDone
		return
	case ct == "":
		r.bodyStatus = status.NoParser
		r.state = RequestDone
		return
	case strings.HasPrefix(strings.ToLower(ct), "application/x-www-form-urlencoded"):
		r.bp = urlenc.New(r.cfg)
	case strings.HasPrefix(strings.ToLower(ct), "multipart/"):
		mp, st := multipart.New([]byte(ct), r.cfg)
		if st != status.OK {
			r.bodyStatus = st
			r.state = RequestError
			return
		}
		r.bp = mp
	default:
		r.bodyStatus = status.NoParser
		r.state = RequestDone
		return
	}
	if r.cfg.UploadHook != nil {
		r.bp.AddHook(parser.Hook{Name: "config", Fn: r.cfg.UploadHook, Data: r.cfg.HookData})
	}
	for _, h := range r.pendHooks {
		r.bp.AddHook(h)
	}
	r.pendHooks = nil
	r.state = RequestParsingBody
	r.block = make([]byte, r.cfg.ReadBlockSize)
}

// feedBlock reads one block from the body source into the brigade and
// feeds the parser. The configured body ceiling is enforced here: the
// parser is never handed more than MaxBodyBytes in total, and the
// first byte past the ceiling poisons it with OverLimit.
func (r *Request) feedBlock() {
	if r.state != RequestParsingBody {
		return
	}

	n, err := r.env.Body.Read(r.block)
	if n > 0 {
		chunk := r.block[:n]
		if max := r.cfg.MaxBodyBytes; max > 0 && r.fed+uint64(n) > max {
			// Hand the parser exactly the bytes under the ceiling so
			// parts completed within them stay intact, then poison it.
			allow := max - r.fed
			r.in.Append(append([]byte(nil), chunk[:allow]...))
			r.fed = max
			r.bp.Feed(r.in, r.body)
			r.bodyStatus = r.bp.Abort(status.OverLimit, r.body)
			r.state = RequestError
			return
		}
		r.fed += uint64(n)
		r.in.Append(append([]byte(nil), chunk...))
	}
	if err != nil {
		r.in.Close()
		if err != io.EOF {
			r.bodyStatus = r.bp.Abort(status.Generic, r.body)
			r.state = RequestError
			return
		}
	}

	st := r.bp.Feed(r.in, r.body)
	switch {
	case st == status.OK:
		r.bodyStatus = status.OK
		r.state = RequestDone
	case st.Fatal():
		r.bodyStatus = st
		r.state = RequestError
	case r.in.EOS():
		// End of stream with the parser still mid-token.
		r.bodyStatus = status.Incomplete
		r.state = RequestDone
	}
}

// Body parses the full body and returns the body table. Once the body
// parser has terminated, repeated calls do not re-parse.
func (r *Request) Body() (*table.Table, status.ParseStatus) {
	r.chooseParser()
	for r.bp != nil && r.state == RequestParsingBody {
		r.feedBlock()
	}
	return r.body, r.bodyStatus
}

// Param looks up name in args first, then in the body table, feeding
// the body parser block by block until the name appears or the parser
// terminates. A miss whose responsible parser has failed surfaces that
// parser's status.
func (r *Request) Param(name string) (*table.Param, status.ParseStatus) {
	args, _ := r.Args()
	if p := args.First(name); p != nil {
		return p, status.OK
	}
	if p := r.body.First(name); p != nil {
		return p, status.OK
	}
	r.chooseParser()
	for r.bp != nil && r.state == RequestParsingBody {
		r.feedBlock()
		if p := r.body.First(name); p != nil {
			return p, status.OK
		}
	}
	if r.bodyStatus.Fatal() {
		return nil, r.bodyStatus
	}
	if r.argsStatus.Fatal() {
		return nil, r.argsStatus
	}
	return nil, status.OK
}

// Params returns the union view args + body as a fresh overlay table;
// inserts into it never affect args or body.
func (r *Request) Params() (*table.Table, status.ParseStatus) {
	args, ast := r.Args()
	body, bst := r.Body()
	overlay := args.MergeOverlay(body)
	switch {
	case ast.Fatal():
		return overlay, ast
	case bst.Fatal():
		return overlay, bst
	}
	return overlay, status.OK
}

// Uploads returns every file-upload parameter of the body, in order.
func (r *Request) Uploads() []*upload.Upload {
	body, _ := r.Body()
	var ups []*upload.Upload
	body.Each(func(p *table.Param) bool {
		if p.Upload != nil {
			ups = append(ups, p.Upload)
		}
		return true
	})
	return ups
}

// Upload returns the upload handle for the named file part, or nil.
func (r *Request) Upload(name string) *upload.Upload {
	body, _ := r.Body()
	if p := body.First(name); p != nil {
		return p.Upload
	}
	return nil
}

// Cookies parses every Cookie header of the environment on first
// access and returns the records.
func (r *Request) Cookies() ([]*cookie.Cookie, status.ParseStatus) {
	if r.jarParsed {
		return r.jar, r.jarStatus
	}
	r.jarParsed = true
	r.jarStatus = status.OK
	for _, h := range r.env.CookieHeaders {
		cs, st := cookie.ParseHeader([]byte(h))
		r.jar = append(r.jar, cs...)
		if st.Fatal() && !r.jarStatus.Fatal() {
			r.jarStatus = st
		}
	}
	return r.jar, r.jarStatus
}

// Cookie returns the first cookie with the given name, or nil.
func (r *Request) Cookie(name string) *cookie.Cookie {
	jar, _ := r.Cookies()
	for _, c := range jar {
		if c.Name == name {
			return c
		}
	}
	return nil
}

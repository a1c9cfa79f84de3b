package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/HatemGhorbel/rapache/internal/headers"
	"github.com/HatemGhorbel/rapache/internal/parser"
	"github.com/HatemGhorbel/rapache/internal/request"
	"github.com/HatemGhorbel/rapache/internal/response"
	"github.com/HatemGhorbel/rapache/internal/status"
)

// Server is a demo environment adapter: it reads the request head off
// the wire, hands the body reader to the request façade and lets the
// handler query parsed parameters.
type Server struct {
	Port     int
	Config   parser.Config
	listener net.Listener
	closed   atomic.Bool
	handler  Handler
}

type HandlerError struct {
	StatusCode response.StatusCode
	Message    string
}

type Handler func(w io.Writer, req *request.Request) *HandlerError

var (
	ErrMalformedRequestLine = errors.New("malformed request-line")
	ErrMalformedHeaders     = errors.New("malformed request headers")

	separator = []byte("\r\n")
)

// Maximum allowed size of the start-line, per RFC 9112 recommendations.
const maxStartLine = 8 * 1024 // 8 KiB cap

func Serve(port int, cfg parser.Config, handler Handler) (*Server, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	s := &Server{
		Port:     port,
		Config:   cfg.WithDefaults(),
		listener: l,
		handler:  handler,
	}
	go s.listen()
	return s, nil
}

func (s *Server) Close() error {
	// Make Close idempotent.
	if s.closed.Swap(true) {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) listen() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			// transient accept error; keep going
			continue
		}
		go s.handle(conn)
	}
}

// helper: format duration compactly
func fmtDur(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

// ReadEnv consumes the request head from conn and builds the façade's
// environment handle. The body reader hands back any bytes read past
// the head, then the rest of the connection up to Content-Length.
func ReadEnv(conn io.Reader, cfg parser.Config) (request.Env, error) {
	var env request.Env

	buf := make([]byte, 0, 1024)
	tmp := make([]byte, 1024)
	hdrs := headers.NewHeaders(int(cfg.MaxHeaders))

	lineDone := false
	for {
		if !lineDone {
			if idx := bytes.Index(buf, separator); idx >= 0 {
				tokens := bytes.Fields(buf[:idx])
				if len(tokens) != 3 {
					return env, ErrMalformedRequestLine
				}
				env.Method = string(tokens[0])
				env.RequestTarget = string(tokens[1])
				buf = buf[idx+len(separator):]
				lineDone = true
			} else if len(buf) > maxStartLine {
				return env, ErrMalformedRequestLine
			}
		}
		if lineDone {
			n, done, st := hdrs.Parse(buf)
			if st.Fatal() {
				return env, ErrMalformedHeaders
			}
			buf = buf[n:]
			if done {
				break
			}
		}

		n, err := conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			continue
		}
		if err != nil {
			if err == io.EOF {
				return env, io.ErrUnexpectedEOF
			}
			return env, err
		}
	}

	env.ContentType = hdrs.Get("content-type")
	for _, p := range hdrs.Bag.All("cookie") {
		env.CookieHeaders = append(env.CookieHeaders, p.Value)
	}

	cl, _ := strconv.ParseInt(hdrs.Get("content-length"), 10, 64)
	if cl > 0 {
		head := buf
		if int64(len(head)) > cl {
			head = head[:cl]
		}
		env.Body = io.MultiReader(
			bytes.NewReader(head),
			io.LimitReader(conn, cl-int64(len(head))),
		)
	}
	return env, nil
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	start := time.Now()

	remoteHost, _, _ := net.SplitHostPort(conn.RemoteAddr().String())

	env, err := ReadEnv(conn, s.Config)
	if err != nil {
		log.Printf("%s\t%s\t%s\t%d\t%s\terr=%q",
			remoteHost, "-", "-", 400, fmtDur(time.Since(start)), err.Error(),
		)
		_, _ = io.WriteString(conn, "HTTP/1.1 400 Bad Request\r\nConnection: close\r\nContent-Length: 0\r\n\r\n")
		return
	}

	req := request.New(env, s.Config)

	// Build the response body
	writer := bytes.NewBuffer([]byte{})
	handleError := s.handler(writer, req)
	body := writer.Bytes()

	st := response.OK

	if handleError != nil {
		st = handleError.StatusCode
		body = []byte(handleError.Message)
	} else if _, bst := req.Body(); bst == status.OverLimit {
		st = response.PAYLOAD_TOO_LARGE
	}

	// 1) status line
	if err := response.WriteStatusLine(conn, st); err != nil {
		log.Printf("%s\t%s\t%s\t%d\t%s\terr=%q",
			remoteHost, env.Method, env.RequestTarget, 500, fmtDur(time.Since(start)), err.Error(),
		)
		return
	}

	// 2) headers (with correct Content-Length)
	h := response.GetDefaultHeaders(len(body))
	if err := response.WriteHeaders(conn, h); err != nil {
		log.Printf("%s\t%s\t%s\t%d\t%s\terr=%q",
			remoteHost, env.Method, env.RequestTarget, 500, fmtDur(time.Since(start)), err.Error(),
		)
		return
	}

	// 3) body
	if _, err := conn.Write(body); err != nil {
		log.Printf("%s\t%s\t%s\t%d\t%s\terr=%q",
			remoteHost, env.Method, env.RequestTarget, 500, fmtDur(time.Since(start)), err.Error(),
		)
		return
	}

	// Access log (success)
	log.Printf("%s\t%s\t%s\t%d\t%s",
		remoteHost, env.Method, env.RequestTarget, int(st), fmtDur(time.Since(start)),
	)
}

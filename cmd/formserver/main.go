package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HatemGhorbel/rapache/internal/parser"
	"github.com/HatemGhorbel/rapache/internal/request"
	"github.com/HatemGhorbel/rapache/internal/response"
	"github.com/HatemGhorbel/rapache/internal/server"
	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/table"
)

const PORT = 42069

func main() {
	cfg := parser.Config{
		MaxBodyBytes: 32 * 1024 * 1024, // 32 MiB
	}

	srv, err := server.Serve(PORT, cfg, func(w io.Writer, req *request.Request) *server.HandlerError {
		params, st := req.Params()
		if st.Fatal() {
			return &server.HandlerError{
				StatusCode: response.BAD_REQUEST,
				Message:    fmt.Sprintf("parse failed: %s\n", st),
			}
		}

		params.Each(func(p *table.Param) bool {
			fmt.Fprintf(w, "%s=%s\n", p.Name, p.Value)
			return true
		})
		for _, up := range req.Uploads() {
			fmt.Fprintf(w, "upload %s (%s, %d bytes) status=%s\n",
				up.Filename, up.ContentType, up.Size, up.Status)
		}
		if jar, jst := req.Cookies(); jst == status.OK {
			for _, c := range jar {
				fmt.Fprintf(w, "cookie %s=%s\n", c.Name, c.Value)
			}
		}
		return nil
	})

	if err != nil {
		log.Fatalf("Error starting server: %v", err)
	}

	defer srv.Close()
	log.Println("Server started on port:", PORT)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Server gracefully stopped")
}

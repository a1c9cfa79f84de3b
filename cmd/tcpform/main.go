package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/HatemGhorbel/rapache/internal/parser"
	"github.com/HatemGhorbel/rapache/internal/request"
	"github.com/HatemGhorbel/rapache/internal/server"
	"github.com/HatemGhorbel/rapache/internal/table"
)

const PORT = ":42069"

func main() {
	tcp, err := net.Listen("tcp", PORT)
	if err != nil {
		fmt.Println("ERROR: failed to open.\n", err.Error())
		os.Exit(1)
	}
	defer tcp.Close()

	fmt.Println("Listening for TCP traffic on", PORT)
	for {
		conn, err := tcp.Accept()
		if err != nil {
			fmt.Println("ERROR: failed to accept.\n", err)
			continue
		}
		go handleConn(conn)
	}
}

func handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second)) // optional safety

	cfg := parser.Config{}
	env, err := server.ReadEnv(conn, cfg.WithDefaults())
	if err != nil {
		fmt.Println("ERROR: failed to read request head:", err)
		return
	}

	req := request.New(env, cfg)

	fmt.Printf("Request:\n- Method: %s\n- Target: %s\n", env.Method, env.RequestTarget)

	args, ast := req.Args()
	fmt.Println("Query args:", ast)
	args.Each(func(p *table.Param) bool {
		fmt.Printf("- %s = %q (charset %s)\n", p.Name, p.Value, p.Charset)
		return true
	})

	body, bst := req.Body()
	fmt.Println("Body params:", bst)
	body.Each(func(p *table.Param) bool {
		if p.Upload != nil {
			fmt.Printf("- %s = upload %q, %d bytes, status %s\n",
				p.Name, p.Upload.Filename, p.Upload.Size, p.Upload.Status)
		} else {
			fmt.Printf("- %s = %q\n", p.Name, p.Value)
		}
		return true
	})

	jar, _ := req.Cookies()
	for _, c := range jar {
		fmt.Printf("Cookie: %s=%s (v%d)\n", c.Name, c.Value, c.Version)
	}

	// Minimal HTTP/1.1 response; tell client we're closing the connection.
	resp := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 2\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"OK"
	_, _ = io.WriteString(conn, resp)
}

package upload

import (
	"bytes"
	"io"
	"os"

	"github.com/HatemGhorbel/rapache/internal/status"
)

// Upload describes one file part of a multipart body. Size counts the
// bytes written to the spool so far; Status starts Incomplete and is
// settled when the part's closing boundary (or a failure) is seen.
type Upload struct {
	Name        string // form field name
	Filename    string
	ContentType string
	Size        uint64
	Status      status.ParseStatus
	Spool       *Spool
}

// Spool buffers an upload body in memory until threshold bytes have
// accumulated, then promotes itself to a temp file in dir. Promotion is
// one-way.
type Spool struct {
	mem       bytes.Buffer
	file      *os.File
	size      uint64
	threshold uint64
	dir       string
}

func NewSpool(threshold uint64, dir string) *Spool {
	return &Spool{threshold: threshold, dir: dir}
}

func (s *Spool) Size() uint64 { return s.size }

// InMemory reports whether the spool has not been promoted to disk.
func (s *Spool) InMemory() bool { return s.file == nil }

// Path returns the temp-file path, or "" while the spool is in memory.
func (s *Spool) Path() string {
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

// Write appends p, promoting to a temp file once the threshold is
// crossed. The memory buffer is drained into the file on promotion.
func (s *Spool) Write(p []byte) (int, error) {
	if s.file == nil && s.threshold > 0 && s.size+uint64(len(p)) > s.threshold {
		f, err := os.CreateTemp(s.dir, "rapache-upload-*")
		if err != nil {
			return 0, err
		}
		if _, err := f.Write(s.mem.Bytes()); err != nil {
			f.Close()
			os.Remove(f.Name())
			return 0, err
		}
		s.mem.Reset()
		s.file = f
	}
	if s.file != nil {
		n, err := s.file.Write(p)
		s.size += uint64(n)
		return n, err
	}
	n, err := s.mem.Write(p)
	s.size += uint64(n)
	return n, err
}

// Bytes returns the spooled content when it is still in memory.
func (s *Spool) Bytes() ([]byte, bool) {
	if s.file != nil {
		return nil, false
	}
	return s.mem.Bytes(), true
}

// WriteTo drains the full spooled content to w, from memory or disk.
func (s *Spool) WriteTo(w io.Writer) (int64, error) {
	if s.file == nil {
		n, err := w.Write(s.mem.Bytes())
		return int64(n), err
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return io.Copy(w, s.file)
}

// Remove closes and deletes any backing temp file. Applications that
// want to keep a spooled upload rename or link the path first.
func (s *Spool) Remove() error {
	if s.file == nil {
		return nil
	}
	name := s.file.Name()
	s.file.Close()
	s.file = nil
	return os.Remove(name)
}

package brigade

import "bytes"

// Brigade is a FIFO of byte chunks. Producers Append chunks as they
// arrive from the wire; parsers Peek and Consume without forcing a copy
// when the requested span lies inside one chunk. When a span straddles
// chunk seams the brigade coalesces on demand.
//
// A Brigade is not safe for concurrent use; each request owns its own.
type Brigade struct {
	chunks [][]byte
	off    int // consumed prefix of chunks[0]
	length int
	eos    bool
}

func New() *Brigade { return &Brigade{} }

// Append adds a chunk to the tail. The brigade keeps a reference to p;
// the producer must not reuse the backing array afterwards.
func (b *Brigade) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.chunks = append(b.chunks, p)
	b.length += len(p)
}

// Close marks end-of-stream. Parsers treat an empty closed brigade as
// the end of input rather than starvation.
func (b *Brigade) Close() { b.eos = true }

func (b *Brigade) EOS() bool { return b.eos }

func (b *Brigade) Len() int { return b.length }

// compact merges every pending chunk into a single one so that peeks
// and searches see one contiguous region. Called lazily; the common
// single-chunk path never copies.
func (b *Brigade) compact() {
	if len(b.chunks) <= 1 {
		return
	}
	merged := make([]byte, 0, b.length)
	merged = append(merged, b.chunks[0][b.off:]...)
	for _, c := range b.chunks[1:] {
		merged = append(merged, c...)
	}
	b.chunks = b.chunks[:0]
	b.chunks = append(b.chunks, merged)
	b.off = 0
}

// Peek returns the first n pending bytes without consuming them. It may
// return fewer than n only when fewer remain. The returned slice is
// valid until the next mutation of the brigade.
func (b *Brigade) Peek(n int) []byte {
	if n > b.length {
		n = b.length
	}
	if n == 0 {
		return nil
	}
	if len(b.chunks[0])-b.off < n {
		b.compact()
	}
	return b.chunks[0][b.off : b.off+n]
}

// Consume discards the first n pending bytes. n beyond Len is clamped.
func (b *Brigade) Consume(n int) {
	if n > b.length {
		n = b.length
	}
	b.length -= n
	for n > 0 {
		head := len(b.chunks[0]) - b.off
		if n < head {
			b.off += n
			return
		}
		n -= head
		b.chunks = b.chunks[1:]
		b.off = 0
	}
	if len(b.chunks) == 0 {
		b.chunks = nil
	}
}

// Pull returns the first n pending bytes and consumes them.
func (b *Brigade) Pull(n int) []byte {
	p := b.Peek(n)
	b.Consume(len(p))
	return p
}

// Find returns the offset of the first occurrence of c among the
// pending bytes, or -1.
func (b *Brigade) Find(c byte) int {
	base := 0
	for i, chunk := range b.chunks {
		if i == 0 {
			chunk = chunk[b.off:]
		}
		if j := bytes.IndexByte(chunk, c); j >= 0 {
			return base + j
		}
		base += len(chunk)
	}
	return -1
}

// FindDelim returns the offset of the first occurrence of needle among
// the pending bytes, or -1. A match straddling a chunk seam is found;
// the brigade compacts first when more than one chunk is pending.
func (b *Brigade) FindDelim(needle []byte) int {
	if len(needle) == 0 || b.length < len(needle) {
		return -1
	}
	b.compact()
	return bytes.Index(b.chunks[0][b.off:], needle)
}

// SplitAt consumes and returns the first off bytes, leaving the rest
// pending. Equivalent to Pull but named for callers that think in
// head/tail terms after a FindDelim.
func (b *Brigade) SplitAt(off int) []byte {
	return b.Pull(off)
}

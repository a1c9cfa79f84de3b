// Package urlenc implements a resumable parser for
// application/x-www-form-urlencoded input. ';' is accepted as a pair
// separator alongside '&', '+' decodes to SP in the value position
// only, and a percent escape split across feeds is carried over.
package urlenc

import (
	"github.com/HatemGhorbel/rapache/internal/brigade"
	"github.com/HatemGhorbel/rapache/internal/parser"
	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/table"
)

type phase int

const (
	phaseKey phase = iota + 1 // accumulating until '=', '&' or ';'
	phaseVal                  // accumulating until '&' or ';'
)

var phaseName = map[phase]string{
	phaseKey: "key",
	phaseVal: "value",
}

// Parser is the URL-encoded body parser. The zero value is not usable;
// call New.
type Parser struct {
	cfg   parser.Config
	st    status.ParseStatus
	phase phase

	// pending partial pair, carried across feeds
	key []byte
	val []byte

	// pending percent escape: escLen counts hex digits seen, -1 means
	// no escape is open
	esc    byte
	escLen int

	seen  bool // any input byte processed yet
	pairs uint32
	hooks []parser.Hook
}

func New(cfg parser.Config) *Parser {
	return &Parser{
		cfg:    cfg.WithDefaults(),
		st:     status.Incomplete,
		phase:  phaseKey,
		escLen: -1,
	}
}

func (p *Parser) Status() status.ParseStatus { return p.st }

func (p *Parser) AddHook(h parser.Hook) { p.hooks = append(p.hooks, h) }

func (p *Parser) fail(st status.ParseStatus) status.ParseStatus {
	p.st = st
	return st
}

// Abort poisons the parser. The pending partial pair is dropped; only
// fully delimited pairs ever reach the table.
func (p *Parser) Abort(st status.ParseStatus, _ *table.Table) status.ParseStatus {
	if p.st.Done() {
		return p.st
	}
	return p.fail(st)
}

func (p *Parser) commit(out *table.Table) status.ParseStatus {
	if p.pairs >= p.cfg.MaxParams {
		return p.fail(status.OverLimit)
	}
	p.pairs++
	out.Insert(table.NewParam(string(p.key), string(p.val)))
	p.key = p.key[:0]
	p.val = p.val[:0]
	p.phase = phaseKey
	return status.OK
}

func (p *Parser) push(c byte) {
	if p.phase == phaseKey {
		p.key = append(p.key, c)
	} else {
		p.val = append(p.val, c)
	}
}

func hexVal(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Feed consumes every pending byte of in. It returns Incomplete until
// the brigade is closed and fully drained, then OK; failures are
// sticky and further feeds are no-ops.
func (p *Parser) Feed(in *brigade.Brigade, out *table.Table) status.ParseStatus {
	if p.st.Done() {
		return p.st
	}
	if in.Len() == 0 && !in.EOS() {
		return status.NoData
	}

	data := in.Pull(in.Len())
	for _, c := range data {
		p.seen = true

		if p.escLen >= 0 {
			v, ok := hexVal(c)
			if !ok {
				return p.fail(status.BadSeq)
			}
			if p.escLen == 0 {
				p.esc = v << 4
				p.escLen = 1
				continue
			}
			p.push(p.esc | v)
			p.escLen = -1
			continue
		}

		switch c {
		case '%':
			p.escLen = 0
		case '&', ';':
			if st := p.commit(out); st != status.OK {
				return st
			}
		case '=':
			if p.phase == phaseKey {
				p.phase = phaseVal
			} else {
				p.val = append(p.val, c)
			}
		case '+':
			if p.phase == phaseVal {
				p.val = append(p.val, ' ')
			} else {
				p.key = append(p.key, c)
			}
		default:
			p.push(c)
		}
	}

	if !in.EOS() {
		return status.Incomplete
	}
	if p.escLen >= 0 {
		// A '%' (or '%H') against end of stream: the escape was cut
		// short, but the bytes seen so far are not provably malformed.
		return status.Incomplete
	}
	if p.seen {
		if st := p.commit(out); st != status.OK {
			return st
		}
	}
	p.st = status.OK
	return p.st
}

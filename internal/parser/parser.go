// Package parser defines the contract shared by the body parsers and
// the configuration record plumbed through them.
package parser

import (
	"github.com/HatemGhorbel/rapache/internal/brigade"
	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/table"
	"github.com/HatemGhorbel/rapache/internal/upload"
)

// Parser is the common body-parser contract. Feed consumes whatever it
// can classify from in, appends finished parameters to out, and
// reports its status. Feed never blocks: a starved parser returns
// Incomplete and the caller reads more bytes. Once a parser reports a
// fatal status it is sticky; further feeds return it without consuming
// input.
type Parser interface {
	Feed(in *brigade.Brigade, out *table.Table) status.ParseStatus

	// Abort poisons the parser with st, committing any partially
	// parsed part to out marked with st so downstream code can tell
	// complete parts from truncated ones.
	Abort(st status.ParseStatus, out *table.Table) status.ParseStatus

	AddHook(h Hook)
	Status() status.ParseStatus
}

// HookFunc observes one chunk of an upload part's body before the
// chunk is appended to the spool. A non-OK return aborts parsing; the
// parser transitions to Interrupt.
type HookFunc func(up *upload.Upload, chunk []byte, data any) status.ParseStatus

// Hook is one (callback, data) pair in a parser's hook chain.
type Hook struct {
	Name string
	Fn   HookFunc
	Data any
}

// RunHooks invokes hooks in registration order; the first non-OK
// return halts the chain.
func RunHooks(hooks []Hook, up *upload.Upload, chunk []byte) status.ParseStatus {
	for _, h := range hooks {
		if st := h.Fn(up, chunk, h.Data); st != status.OK {
			return st
		}
	}
	return status.OK
}

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/upload"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, uint64(0), cfg.MaxBodyBytes) // unbounded by default
	assert.Equal(t, uint64(DefaultBrigadeBytes), cfg.MaxBrigadeBytes)
	assert.Equal(t, uint32(DefaultReadBlockSize), cfg.ReadBlockSize)
	assert.Equal(t, uint32(DefaultMaxParams), cfg.MaxParams)
	assert.Equal(t, uint32(DefaultMaxHeaders), cfg.MaxHeaders)
	assert.Equal(t, uint8(DefaultMaxNesting), cfg.MaxNesting)
	assert.NotEmpty(t, cfg.TempDir)

	// explicit settings survive
	cfg = Config{MaxParams: 7, TempDir: "/tmp/x"}.WithDefaults()
	assert.Equal(t, uint32(7), cfg.MaxParams)
	assert.Equal(t, "/tmp/x", cfg.TempDir)
}

func TestRunHooks(t *testing.T) {
	var order []string
	mk := func(name string, st status.ParseStatus) Hook {
		return Hook{
			Name: name,
			Fn: func(up *upload.Upload, chunk []byte, data any) status.ParseStatus {
				order = append(order, name)
				return st
			},
		}
	}

	// invoked in registration order
	st := RunHooks([]Hook{mk("a", status.OK), mk("b", status.OK)}, nil, nil)
	require.Equal(t, status.OK, st)
	assert.Equal(t, []string{"a", "b"}, order)

	// the first non-OK return halts the chain
	order = nil
	st = RunHooks([]Hook{mk("a", status.Interrupt), mk("b", status.OK)}, nil, nil)
	require.Equal(t, status.Interrupt, st)
	assert.Equal(t, []string{"a"}, order)
}

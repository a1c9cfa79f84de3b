package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOrderAndLookup(t *testing.T) {
	// Duplicate names keep insertion order; lookup is case-insensitive.
	tab := New()
	tab.Add("a", "1")
	tab.Add("b", "2")
	tab.Add("A", "3")

	require.Equal(t, 3, tab.Len())
	assert.Equal(t, "1", tab.Get("a"))
	assert.Equal(t, "1", tab.Get("A"))
	assert.Equal(t, []string{"1", "3"}, tab.Values("a"))
	assert.Equal(t, []string{"2"}, tab.Values("B"))
	assert.Nil(t, tab.Values("missing"))
	assert.Nil(t, tab.First("missing"))

	// Iteration respects insertion order, mixed case included.
	var names []string
	tab.Each(func(p *Param) bool {
		names = append(names, p.Name)
		return true
	})
	assert.Equal(t, []string{"a", "b", "A"}, names)
}

func TestTableCloneIsIndependent(t *testing.T) {
	tab := New()
	tab.Add("x", "1")
	derived := tab.Clone()
	derived.Add("x", "2")
	derived.Add("y", "3")

	assert.Equal(t, 1, tab.Len())
	assert.Equal(t, []string{"1"}, tab.Values("x"))
	assert.Equal(t, []string{"1", "2"}, derived.Values("x"))
}

func TestMergeOverlay(t *testing.T) {
	args := New()
	args.Add("a", "1")
	args.Add("c", "3")
	body := New()
	body.Add("b", "2")
	body.Add("a", "4")

	params := args.MergeOverlay(body)
	require.Equal(t, 4, params.Len())
	// element-wise: args then body, no dedup
	assert.Equal(t, "a", params.At(0).Name)
	assert.Equal(t, "c", params.At(1).Name)
	assert.Equal(t, "b", params.At(2).Name)
	assert.Equal(t, "4", params.At(3).Value)
	assert.Equal(t, []string{"1", "4"}, params.Values("a"))

	// the overlay is fresh: inserts don't touch the sources
	params.Add("z", "9")
	assert.Equal(t, 2, args.Len())
	assert.Equal(t, 2, body.Len())

	// nil overlay operand
	assert.Equal(t, 2, args.MergeOverlay(nil).Len())
}

func TestCharsetSniff(t *testing.T) {
	assert.Equal(t, CharsetASCII, Sniff([]byte("hello")))
	assert.Equal(t, CharsetUTF8, Sniff([]byte("héllo")))
	// 0xE9 alone is latin-1, not valid UTF-8
	assert.Equal(t, CharsetLatin1, Sniff([]byte{'h', 0xE9}))
	// 0x93 sits in the CP1252 punctuation block
	assert.Equal(t, CharsetCP1252, Sniff([]byte{0x93, 'q', 0x94}))
	// stray NUL is nothing we can name
	assert.Equal(t, CharsetUnknown, Sniff([]byte{0x00, 0xFF}))

	p := NewParam("q", "héllo")
	assert.Equal(t, CharsetUTF8, p.Charset)
	assert.False(t, p.Tainted)

	p = NewParam("q", string([]byte{0xE9}))
	assert.Equal(t, CharsetLatin1, p.Charset)
	assert.True(t, p.Tainted)
}

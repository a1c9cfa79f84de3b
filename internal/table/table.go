package table

import (
	"github.com/HatemGhorbel/rapache/internal/status"
	"github.com/HatemGhorbel/rapache/internal/upload"
)

// Table is an insertion-ordered multimap of parameters with
// case-insensitive name lookup. Duplicate names are allowed and keep
// their order. An auxiliary index keyed by the case-folded name gives
// O(1) first-match and O(k) all-match lookups.
type Table struct {
	elems []*Param
	index map[string][]int
}

func New() *Table {
	return &Table{index: map[string][]int{}}
}

// fold is ASCII case folding; parameter names are byte strings and only
// A-Z/a-z participate in the comparison.
func fold(name string) string {
	for i := 0; i < len(name); i++ {
		if 'A' <= name[i] && name[i] <= 'Z' {
			b := []byte(name)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return name
}

// Insert appends p. Parameters are treated as immutable once inserted.
func (t *Table) Insert(p *Param) {
	key := fold(p.Name)
	t.index[key] = append(t.index[key], len(t.elems))
	t.elems = append(t.elems, p)
}

// Add is shorthand for inserting a plain name/value parameter.
func (t *Table) Add(name, value string) {
	t.Insert(NewParam(name, value))
}

// First returns the earliest-inserted parameter with the given name,
// or nil.
func (t *Table) First(name string) *Param {
	hits := t.index[fold(name)]
	if len(hits) == 0 {
		return nil
	}
	return t.elems[hits[0]]
}

// Get returns the first value for name, or "" when absent.
func (t *Table) Get(name string) string {
	if p := t.First(name); p != nil {
		return p.Value
	}
	return ""
}

// All returns every parameter whose case-folded name matches, in
// insertion order.
func (t *Table) All(name string) []*Param {
	hits := t.index[fold(name)]
	if len(hits) == 0 {
		return nil
	}
	out := make([]*Param, len(hits))
	for i, j := range hits {
		out[i] = t.elems[j]
	}
	return out
}

// Values returns every value for name, in insertion order.
func (t *Table) Values(name string) []string {
	ps := t.All(name)
	if ps == nil {
		return nil
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Value
	}
	return out
}

func (t *Table) Len() int { return len(t.elems) }

// At returns the i-th parameter in insertion order.
func (t *Table) At(i int) *Param { return t.elems[i] }

// Each calls fn for every parameter in insertion order until fn
// returns false.
func (t *Table) Each(fn func(*Param) bool) {
	for _, p := range t.elems {
		if !fn(p) {
			return
		}
	}
}

// Clone returns a derived table sharing the (immutable) parameters but
// owning its own sequence and index, so inserts into the clone never
// affect the source.
func (t *Table) Clone() *Table {
	c := &Table{
		elems: make([]*Param, len(t.elems)),
		index: make(map[string][]int, len(t.index)),
	}
	copy(c.elems, t.elems)
	for k, v := range t.index {
		c.index[k] = append([]int(nil), v...)
	}
	return c
}

// MergeOverlay returns a fresh table whose entries are t's followed by
// other's, with no deduplication. Neither input is mutated.
func (t *Table) MergeOverlay(other *Table) *Table {
	out := New()
	for _, p := range t.elems {
		out.Insert(p)
	}
	if other != nil {
		for _, p := range other.elems {
			out.Insert(p)
		}
	}
	return out
}

// Param is one parsed parameter. Info carries the attribute bag of the
// originating header block (multipart part headers); Upload is non-nil
// for file parts.
type Param struct {
	Name    string
	Value   string
	Info    *Table
	Upload  *upload.Upload
	Tainted bool
	Charset Charset
	Status  status.ParseStatus
}

// NewParam builds a parameter, sniffing the value's charset. Values
// whose bytes could not be validated as ASCII or UTF-8 are tainted.
func NewParam(name, value string) *Param {
	cs := Sniff([]byte(value))
	return &Param{
		Name:    name,
		Value:   value,
		Charset: cs,
		Tainted: cs != CharsetASCII && cs != CharsetUTF8,
	}
}

package domain

import (
	"cmp"
	"slices"
)

// SampleKey identifies one history row.
type SampleKey struct {
	Site     string
	Category RainCategory
}

// Cell is one history value; OK is false where the round has no sample
// for the row.
type Cell struct {
	Value int
	OK    bool
}

type column struct {
	label string
	cells map[SampleKey]int
}

// HistoryTable is a sparse, append-only table of rain counts: one row per
// (site, category), one column per round. Tables are immutable; every
// update returns a new table that shares the unchanged columns.
type HistoryTable struct {
	keys    map[SampleKey]struct{}
	columns []*column
}

// NewHistoryTable returns an empty table.
func NewHistoryTable() *HistoryTable {
	return &HistoryTable{keys: map[SampleKey]struct{}{}}
}

// Accumulate outer-joins a round onto t as a new column labelled by the
// round. Every sample contributes its three row keys; failed samples leave
// their cells absent. Rows missing from either side stay absent, never
// zero-filled. Site names within a round must be distinct; a repeated site
// overwrites the earlier sample's cells. t is not modified.
func Accumulate(t *HistoryTable, r Round) *HistoryTable {
	keys := make([]SampleKey, 0, len(r.Samples)*3)
	cells := make(map[SampleKey]int, len(r.Samples)*3)
	for _, s := range r.Samples {
		for _, cat := range Categories() {
			k := SampleKey{Site: s.Site, Category: cat}
			keys = append(keys, k)
			if s.OK() {
				cells[k] = s.Rain.Get(cat)
			}
		}
	}
	return t.AppendColumn(r.Label, cells, keys...)
}

// AppendColumn returns a copy of t with one more column. keys are added to
// the row set alongside every key present in cells. A label that already
// exists is suffixed with "_new" until it is unique.
func (t *HistoryTable) AppendColumn(label string, cells map[SampleKey]int, keys ...SampleKey) *HistoryTable {
	if t == nil {
		t = NewHistoryTable()
	}

	next := &HistoryTable{
		keys:    make(map[SampleKey]struct{}, len(t.keys)+len(keys)),
		columns: make([]*column, len(t.columns), len(t.columns)+1),
	}
	copy(next.columns, t.columns)
	for k := range t.keys {
		next.keys[k] = struct{}{}
	}
	for _, k := range keys {
		next.keys[k] = struct{}{}
	}

	col := &column{label: t.uniqueLabel(label), cells: make(map[SampleKey]int, len(cells))}
	for k, v := range cells {
		col.cells[k] = v
		next.keys[k] = struct{}{}
	}
	next.columns = append(next.columns, col)
	return next
}

func (t *HistoryTable) uniqueLabel(label string) string {
	for t.hasColumn(label) {
		label += "_new"
	}
	return label
}

func (t *HistoryTable) hasColumn(label string) bool {
	for _, c := range t.columns {
		if c.label == label {
			return true
		}
	}
	return false
}

// Columns returns the column labels in the order they were appended.
func (t *HistoryTable) Columns() []string {
	if t == nil {
		return nil
	}
	labels := make([]string, len(t.columns))
	for i, c := range t.columns {
		labels[i] = c.label
	}
	return labels
}

// Keys returns every row key sorted by site, then category name.
func (t *HistoryTable) Keys() []SampleKey {
	if t == nil {
		return nil
	}
	keys := make([]SampleKey, 0, len(t.keys))
	for k := range t.keys {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b SampleKey) int {
		if c := cmp.Compare(a.Site, b.Site); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return keys
}

// Len is the number of rows.
func (t *HistoryTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Cell looks up a single value by row key and column label.
func (t *HistoryTable) Cell(key SampleKey, label string) (int, bool) {
	if t == nil {
		return 0, false
	}
	for _, c := range t.columns {
		if c.label == label {
			v, ok := c.cells[key]
			return v, ok
		}
	}
	return 0, false
}

// Row returns key's cells in column order.
func (t *HistoryTable) Row(key SampleKey) []Cell {
	if t == nil {
		return nil
	}
	row := make([]Cell, len(t.columns))
	for i, c := range t.columns {
		v, ok := c.cells[key]
		row[i] = Cell{Value: v, OK: ok}
	}
	return row
}

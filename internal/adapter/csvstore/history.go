// Package csvstore encodes rain history and batch summaries as CSV and
// persists them to disk.
package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
)

const (
	colCity     = "City"
	colRainType = "Rain Type"
)

// WriteHistory writes t as "City,Rain Type,<labels...>" with one row per
// (site, category) in sorted order. Absent cells are empty.
func WriteHistory(w io.Writer, t *domain.HistoryTable) error {
	return WriteHistoryRows(w, t, t.Keys())
}

// WriteHistoryRows writes only the given rows of t, in the order given.
func WriteHistoryRows(w io.Writer, t *domain.HistoryTable, keys []domain.SampleKey) error {
	cw := csv.NewWriter(w)

	labels := t.Columns()
	header := make([]string, 0, len(labels)+2)
	header = append(header, colCity, colRainType)
	header = append(header, labels...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for _, key := range keys {
		record[0] = key.Site
		record[1] = string(key.Category)
		for i, cell := range t.Row(key) {
			record[i+2] = ""
			if cell.OK {
				record[i+2] = strconv.Itoa(cell.Value)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s/%s: %w", key.Site, key.Category, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadHistory parses a table written by WriteHistory. Rows whose cells are
// all empty are kept.
func ReadHistory(r io.Reader) (*domain.HistoryTable, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.NewHistoryTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 || header[0] != colCity || header[1] != colRainType {
		return nil, fmt.Errorf("unexpected header %q", header)
	}
	labels := header[2:]

	columns := make([]map[domain.SampleKey]int, len(labels))
	for i := range columns {
		columns[i] = map[domain.SampleKey]int{}
	}
	var keys []domain.SampleKey

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		key := domain.SampleKey{Site: record[0], Category: domain.RainCategory(record[1])}
		keys = append(keys, key)
		for i, cell := range record[2:] {
			if cell == "" {
				continue
			}
			v, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, labels[i], err)
			}
			columns[i][key] = v
		}
	}

	t := domain.NewHistoryTable()
	for i, label := range labels {
		if i == 0 {
			t = t.AppendColumn(label, columns[i], keys...)
			continue
		}
		t = t.AppendColumn(label, columns[i])
	}
	return t, nil
}

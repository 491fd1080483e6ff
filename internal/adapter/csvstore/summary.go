package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
)

// WriteSummary writes one row per sample under
// "City,Light Rain,Moderate Rain,Heavy Rain", in sample order.
func WriteSummary(w io.Writer, samples []domain.SiteSample) error {
	cw := csv.NewWriter(w)

	header := []string{colCity}
	for _, cat := range domain.Categories() {
		header = append(header, string(cat))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range samples {
		if !s.OK() {
			return fmt.Errorf("sample %s has no counts: %w", s.Site, s.Err)
		}
		record := []string{s.Site}
		for _, cat := range domain.Categories() {
			record = append(record, strconv.Itoa(s.Rain.Get(cat)))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", s.Site, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

package vocabulary

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// csvHeader is the column layout of the history export.
var csvHeader = []string{"german", "english", "article", "category", "level"}

// ErrInvalidCSV is returned when an export cannot be parsed back.
var ErrInvalidCSV = errors.New("invalid vocabulary CSV")

// ExportCSV serializes entries, in order, as UTF-8 CSV with a header row.
func ExportCSV(entries []domain.VocabularyEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		record := []string{e.German, e.English, string(e.Article), e.Category, string(e.Level)}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record for %q: %w", e.German, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportHistory serializes the full history of s.
func (s *Store) ExportHistory() ([]byte, error) {
	return ExportCSV(s.entries)
}

// ParseCSV reads an export produced by ExportCSV.
func ParseCSV(r io.Reader) ([]domain.VocabularyEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidCSV, err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrInvalidCSV, i, header[i], col)
		}
	}

	var entries []domain.VocabularyEntry
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		entries = append(entries, domain.VocabularyEntry{
			German:   record[0],
			English:  record[1],
			Article:  domain.Article(record[2]),
			Category: record[3],
			Level:    domain.Level(record[4]),
		})
	}
	return entries, nil
}

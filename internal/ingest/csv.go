package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSV column headers recognized in support exports
const (
	colSender   = "sender"
	colSubject  = "subject"
	colBody     = "body"
	colSentDate = "sent_date"
)

// LoadCSV reads a support email export into ingestion tuples. The first row
// is the header; unrecognized columns are ignored. Rows shorter than the
// header are skipped, not fatal.
func LoadCSV(path string) ([]Incoming, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	return readCSV(f)
}

func readCSV(r io.Reader) ([]Incoming, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var batch []Incoming
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row: skip it, keep the batch going
			continue
		}
		batch = append(batch, Incoming{
			Sender:     field(row, colSender),
			Subject:    field(row, colSubject),
			Body:       field(row, colBody),
			ReceivedAt: field(row, colSentDate),
		})
	}
	return batch, nil
}

package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/mnohosten/heapindex/pkg/tuple"
)

// ImportCSV reads a headerless CSV file at path, coerces each row against
// schema's declared column types, encodes the resulting tuple, and
// inserts it into container. A row whose column count or value text
// cannot be coerced is logged and skipped; already-inserted rows are not
// rolled back. Only a failure to read the file itself is returned as an
// error.
func (m *Manager) ImportCSV(schema tuple.Schema, path string, tid string, containerID ContainerID) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("storage: open csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("storage: read csv %s: %w", path, err)
		}
		row++

		tup, err := tuple.CoerceCSVRow(schema, record)
		if err != nil {
			m.log.Warn("storage: skipping unparseable csv row", "path", path, "row", row, "error", err)
			continue
		}

		encoded, err := tuple.Encode(tup)
		if err != nil {
			m.log.Warn("storage: skipping row that failed to encode", "path", path, "row", row, "error", err)
			continue
		}

		if _, err := m.InsertValue(containerID, encoded, tid); err != nil {
			m.log.Warn("storage: skipping row that failed to insert", "path", path, "row", row, "error", err)
			continue
		}
	}

	return nil
}

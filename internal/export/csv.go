package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("failed to write CSV row for event %s: %w", r.EventID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeCSVFile creates path and writes records to it. A failed write
// removes the file so no partial export is left behind.
func writeCSVFile(path string, records []Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return WriteCSV(f, records)
}

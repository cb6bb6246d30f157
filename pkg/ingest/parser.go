// Package ingest lands raw source rows in staging.
package ingest

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileSpec describes how to read one source file. Bulk files carry no header
// row, so Headers names the columns positionally; a file with HasHeader set
// uses its own first row instead.
type FileSpec struct {
	Path       string
	RecordType string
	Delimiter  rune
	Headers    []string
	HasHeader  bool
}

// Row is one parsed source row ready for staging.
type Row struct {
	LineNumber int
	Data       json.RawMessage
}

// ParseFile reads a delimited file, or every entry of a zip archive, and
// yields each row to fn. Rows with more or fewer columns than headers are
// padded or truncated rather than rejected; downstream normalization decides
// what is usable.
func ParseFile(spec FileSpec, fn func(Row) error) error {
	if strings.EqualFold(filepath.Ext(spec.Path), ".zip") {
		return parseZip(spec, fn)
	}

	f, err := os.Open(spec.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", spec.Path, err)
	}
	defer f.Close()

	return parseDelimited(spec, f, fn)
}

func parseZip(spec FileSpec, fn func(Row) error) error {
	r, err := zip.OpenReader(spec.Path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", spec.Path, err)
	}
	defer r.Close()

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
		}
		err = parseDelimited(spec, rc, fn)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func parseDelimited(spec FileSpec, r io.Reader, fn func(Row) error) error {
	reader := csv.NewReader(r)
	reader.Comma = spec.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers := spec.Headers
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read row %d of %s: %w", line+1, spec.Path, err)
		}
		line++

		if line == 1 && spec.HasHeader {
			headers = record
			continue
		}
		if len(headers) == 0 {
			return fmt.Errorf("no headers for %s", spec.Path)
		}

		data := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				data[header] = strings.TrimSpace(record[i])
			} else {
				data[header] = ""
			}
		}

		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode row %d of %s: %w", line, spec.Path, err)
		}
		if err := fn(Row{LineNumber: line, Data: raw}); err != nil {
			return err
		}
	}
}

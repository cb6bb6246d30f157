package ingest

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, spec FileSpec) []map[string]string {
	t.Helper()
	var rows []map[string]string
	err := ParseFile(spec, func(row Row) error {
		var data map[string]string
		require.NoError(t, json.Unmarshal(row.Data, &data))
		rows = append(rows, data)
		return nil
	})
	require.NoError(t, err)
	return rows
}

func TestParseFilePipeDelimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cn.txt")
	content := "H0CA01234|DOE, JANE|DEM\nS4TX00100|ROE, RICHARD|REP\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows := collectRows(t, FileSpec{
		Path:       path,
		RecordType: "candidate",
		Delimiter:  '|',
		Headers:    []string{"fec_id", "name", "party"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "H0CA01234", rows[0]["fec_id"])
	assert.Equal(t, "DOE, JANE", rows[0]["name"])
	assert.Equal(t, "REP", rows[1]["party"])
}

func TestParseFileHeaderRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.csv")
	content := "transaction_id,amount,employer\nSA1,250.00,Initech\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows := collectRows(t, FileSpec{
		Path:       path,
		RecordType: "receipt",
		Delimiter:  ',',
		HasHeader:  true,
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "SA1", rows[0]["transaction_id"])
	assert.Equal(t, "250.00", rows[0]["amount"])
}

func TestParseFileRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.txt")
	content := "H0CA01234|DOE, JANE\nS4TX00100|ROE, RICHARD|REP|EXTRA\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows := collectRows(t, FileSpec{
		Path:      path,
		Delimiter: '|',
		Headers:   []string{"fec_id", "name", "party"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0]["party"])
	assert.Equal(t, "REP", rows[1]["party"])
}

func TestParseFileZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bulk.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("cn.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("H0CA01234|DOE, JANE|DEM\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	rows := collectRows(t, FileSpec{
		Path:      path,
		Delimiter: '|',
		Headers:   []string{"fec_id", "name", "party"},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "DEM", rows[0]["party"])
}

func TestParseFileMissingHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nohead.txt")
	require.NoError(t, os.WriteFile(path, []byte("a|b\n"), 0o644))

	err := ParseFile(FileSpec{Path: path, Delimiter: '|'}, func(Row) error { return nil })
	require.Error(t, err)
}

func TestParseFileMissingFile(t *testing.T) {
	err := ParseFile(FileSpec{Path: "/does/not/exist.txt", Delimiter: '|', Headers: []string{"a"}}, func(Row) error { return nil })
	require.Error(t, err)
}

package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestDownloaderSuccess(t *testing.T) {
	body := []byte("H0CA01234|DOE, JANE|DEM\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	sum := sha256.Sum256(body)
	d := NewDownloader(testLogger(), t.TempDir(), 5*time.Second, 2)
	path, err := d.Download(context.Background(), RemoteFile{
		URL:      srv.URL + "/cn24.zip",
		Filename: "cn24.zip",
		Checksum: hex.EncodeToString(sum[:]),
	})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestDownloaderRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := NewDownloader(testLogger(), t.TempDir(), 5*time.Second, 3)
	_, err := d.Download(context.Background(), RemoteFile{URL: srv.URL, Filename: "f.txt"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloaderChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered"))
	}))
	defer srv.Close()

	d := NewDownloader(testLogger(), t.TempDir(), 5*time.Second, 0)
	_, err := d.Download(context.Background(), RemoteFile{
		URL:      srv.URL,
		Filename: "f.txt",
		Checksum: "deadbeef",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestBulkCatalogFiles(t *testing.T) {
	catalog := NewBulkCatalog("https://example.test/bulk")
	files := catalog.Files(2024)
	require.Len(t, files, 3)

	assert.Equal(t, "https://example.test/bulk/2024/cn24.zip", files[0].URL)
	assert.Equal(t, "candidate", files[0].RecordType)
	assert.Equal(t, "committee", files[1].RecordType)
	assert.Equal(t, "https://example.test/bulk/2024/indiv24.zip", files[2].URL)
	assert.Equal(t, "receipt", files[2].RecordType)
	for _, f := range files {
		assert.Equal(t, '|', f.Delimiter)
		assert.NotEmpty(t, f.Headers)
	}
}

func TestOpenFECFetchPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"pagination":{"page":%s,"pages":2,"per_page":1,"count":2},"results":[{"transaction_id":"SA%s"}]}`, page, page)
	}))
	defer srv.Close()

	client := NewOpenFECClient(testLogger(), srv.URL, "test-key", 5*time.Second)

	var seen []string
	err := client.FetchPages(context.Background(), "/schedules/schedule_a/", nil, func(results []map[string]any) error {
		for _, row := range results {
			raw, _ := json.Marshal(row["transaction_id"])
			seen = append(seen, string(raw))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`"SA1"`, `"SA2"`}, seen)
}

func TestOpenFECErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewOpenFECClient(testLogger(), srv.URL, "", 5*time.Second)
	err := client.FetchPages(context.Background(), "/candidates/", nil, func([]map[string]any) error { return nil })
	require.Error(t, err)
}

package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/metrics"
)

// Downloader fetches remote files to a local directory with retries and
// checksum verification.
type Downloader struct {
	client     *http.Client
	logger     ectologger.Logger
	dir        string
	maxRetries int
}

// NewDownloader creates a downloader writing into dir.
func NewDownloader(logger ectologger.Logger, dir string, timeout time.Duration, maxRetries int) *Downloader {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Downloader{
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		dir:        dir,
		maxRetries: maxRetries,
	}
}

// Download fetches one remote file and returns its local path. Transient
// failures are retried with linear backoff; a checksum mismatch is terminal.
func (d *Downloader) Download(ctx context.Context, rf RemoteFile) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.Downloader.Download")
	defer span.End()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}
	dest := filepath.Join(d.dir, rf.Filename)

	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		err := d.fetch(ctx, rf, dest)
		if err == nil {
			return dest, nil
		}
		lastErr = err
		d.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"url":     rf.URL,
			"attempt": attempt + 1,
		}).Warn("Download attempt failed")
	}
	return "", fmt.Errorf("download of %s failed after %d attempts: %w", rf.URL, d.maxRetries+1, lastErr)
}

func (d *Downloader) fetch(ctx context.Context, rf RemoteFile, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rf.URL, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rf.URL)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(f, hasher), resp.Body)
	closeErr := f.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	metrics.DownloadBytesTotal.WithLabelValues(rf.RecordType).Add(float64(written))

	if rf.Checksum != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if got != rf.Checksum {
			os.Remove(dest)
			return fmt.Errorf("checksum mismatch for %s: got %s want %s", rf.Filename, got, rf.Checksum)
		}
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"url":   rf.URL,
		"dest":  dest,
		"bytes": written,
	}).Info("Downloaded source file")
	return nil
}

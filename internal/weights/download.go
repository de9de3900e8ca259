package weights

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

const (
	downloadRetries    = 3
	downloadRetryDelay = 2 * time.Second
	downloadTimeout    = 15 * time.Minute // weight files run to a few hundred MB
)

// downloader fetches weight files over plain HTTPS GET. Progress output can
// be disabled for non-interactive runs.
type downloader struct {
	client   *http.Client
	progress bool
}

func newDownloader(progress bool) *downloader {
	return &downloader{
		client:   &http.Client{},
		progress: progress,
	}
}

// fetch downloads url into dest. The body streams into a temp file in the
// destination directory which is renamed into place only on success, so a
// partial download never masquerades as a weight file.
func (d *downloader) fetch(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := range downloadRetries {
		if attempt > 0 {
			slog.Info("retrying download", "url", url, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-time.After(downloadRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := d.fetchOnce(ctx, url, dest); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return fmt.Errorf("download canceled: %w", err)
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("download %s failed after %d attempts: %w", url, downloadRetries, lastErr)
}

func (d *downloader) fetchOnce(ctx context.Context, url, dest string) error {
	reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	if d.progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(dest))
		w = io.MultiWriter(tmp, bar)
	}

	n, err := io.Copy(w, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if n == 0 {
		return fmt.Errorf("empty response body for %s", url)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("move into place: %w", err)
	}
	return nil
}

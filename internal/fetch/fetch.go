// Package fetch retrieves release artifacts over HTTP. A destination
// path either holds a complete, fully written artifact or nothing at
// all; partial downloads are removed on every failure path.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// maxRedirects caps the redirect chain before giving up.
const maxRedirects = 10

// DownloadError reports a non-2xx, non-redirect response.
type DownloadError struct {
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %d - %s", e.Status, http.StatusText(e.Status))
}

// Progress receives the download completion percentage in [0, 100].
// It is only called when the server provides a Content-Length.
type Progress func(percent float64)

// Fetch downloads rawURL to dest, following 3xx redirects itself and
// discarding anything written to dest between hops. A prior file at
// dest is truncated, so re-running after an interrupted download never
// appends to stale bytes.
func Fetch(ctx context.Context, client *http.Client, rawURL string, dest string, progress Progress) error {
	current, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	for hop := 0; ; hop++ {
		if hop > maxRedirects {
			return fmt.Errorf("too many redirects: %s", rawURL)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			_ = os.Remove(dest)
			return fmt.Errorf("network error: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
			http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
			location := resp.Header.Get("Location")
			_ = resp.Body.Close()
			if location == "" {
				return fmt.Errorf("redirect without location: %s", current)
			}
			next, err := current.Parse(location)
			if err != nil {
				return fmt.Errorf("parse redirect location: %w", err)
			}
			// Anything a prior hop may have left behind must not
			// survive into the next attempt.
			_ = os.Remove(dest)
			current = next
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close()
			return &DownloadError{Status: resp.StatusCode}
		}

		err = writeBody(resp, dest, progress)
		_ = resp.Body.Close()
		if err != nil {
			_ = os.Remove(dest)
			return err
		}
		return nil
	}
}

func writeBody(resp *http.Response, dest string, progress Progress) error {
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	var out io.Writer = file
	if progress != nil && resp.ContentLength > 0 {
		out = io.MultiWriter(file, &progressWriter{
			total:    resp.ContentLength,
			progress: progress,
		})
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = file.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	return file.Close()
}

type progressWriter struct {
	total    int64
	received int64
	progress Progress
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.received += int64(len(p))
	w.progress(100 * float64(w.received) / float64(w.total))
	return len(p), nil
}

package simfin

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// datasetPath is where the extracted CSV of ds lives:
// <data dir>/<market>/<market>-<name>-<variant>.csv.
func (c *Client) datasetPath(ds Dataset) string {
	return filepath.Join(c.dataDir, ds.Market, ds.FileName())
}

// fetchArchive downloads the bulk archive of ds and atomically replaces the
// CSV at path with the one inside it. Readers holding the previous file open
// keep reading the old copy.
func (c *Client) fetchArchive(ctx context.Context, ds Dataset, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	archive, err := os.CreateTemp(dir, ds.String()+".*.zip")
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	defer os.Remove(archive.Name())

	size, err := c.doRequest(ctx, ds, archive)
	if closeErr := archive.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	return extractCSV(archive.Name(), size, ds.FileName(), path)
}

// doRequest streams the archive of ds into w and returns its size.
func (c *Client) doRequest(ctx context.Context, ds Dataset, w io.Writer) (int64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("dataset", ds.Name)
	q.Set("variant", ds.Variant)
	q.Set("market", ds.Market)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "api-key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("reading response: %w", err)
	}
	return n, nil
}

// extractCSV copies the entry named name (or the only CSV entry) out of the
// archive at archivePath into dest via a temporary file and a rename.
func extractCSV(archivePath string, size int64, name, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	zr, err := zip.NewReader(f, size)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	var entry *zip.File
	for _, zf := range zr.File {
		base := filepath.Base(zf.Name)
		if base == name {
			entry = zf
			break
		}
		if entry == nil && strings.HasSuffix(base, ".csv") {
			entry = zf
		}
	}
	if entry == nil {
		return fmt.Errorf("archive has no %s", name)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", entry.Name, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("extracting %s: %w", entry.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("installing %s: %w", dest, err)
	}
	return nil
}

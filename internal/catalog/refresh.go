package catalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// Refresh Downloads the remote catalog and replaces the local file when their MD5
// digests differ. It reports whether the local file changed. The downloaded document must
// parse and contain at least one usable site before it replaces anything.
func Refresh(ctx context.Context, client *http.Client, url, path string) (bool, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to download site catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("failed to download site catalog: status code %d", resp.StatusCode)
	}

	remote, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read site catalog: %w", err)
	}

	local, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to read local site catalog: %w", err)
	}
	if err == nil && Digest(local) == Digest(remote) {
		return false, nil
	}

	if _, err := parseFor(path, remote); err != nil {
		return false, fmt.Errorf("remote site catalog rejected: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(remote); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("failed to replace site catalog: %w", err)
	}
	return true, nil
}

// Digest MD5 hex digest used to compare catalog revisions
func Digest(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Package checksum computes SHA-256 content digests for staging files and
// answers the "has this file changed since we last processed it" question.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

const chunkSize = 8192

// File returns the hex-encoded SHA-256 digest of the file at path. The file
// is read in bounded chunks so large staging files never load wholesale.
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Matches reports whether the file at path currently hashes to expected.
// Any error reading the file counts as a mismatch.
func Matches(path, expected string) bool {
	actual, err := File(path)
	if err != nil {
		return false
	}
	return actual == expected
}

// HasChanged reports whether the file at path differs from the stored
// digest. An empty stored digest, a missing file, or an unreadable file all
// count as changed so the caller can re-examine (or clean up) the entry
// instead of failing hard.
func HasChanged(path, stored string) bool {
	if stored == "" {
		return true
	}
	if _, err := os.Stat(path); err != nil {
		return true
	}
	actual, err := File(path)
	if err != nil {
		return true
	}
	return actual != stored
}

// Directory hashes every regular file under dir matching the glob pattern
// and returns a path -> digest map. Unreadable files are skipped.
func Directory(dir, pattern string) (map[string]string, error) {
	sums := make(map[string]string)

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return sums, nil
		}
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		sum, err := File(path)
		if err != nil {
			continue
		}
		sums[path] = sum
	}

	return sums, nil
}

package kodi

import (
	"crypto/md5" //nolint:gosec // Kodi verifies repository files with MD5.
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChecksumSuffix is appended to a file name to name its checksum sidecar.
const ChecksumSuffix = ".md5"

// DefaultFileMode is used for every generated file.
const DefaultFileMode os.FileMode = 0o644

// MD5Hex returns the hex MD5 digest of data.
func MD5Hex(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // See import.

	return hex.EncodeToString(sum[:])
}

// MD5File returns the hex MD5 digest of the file at path.
func MD5File(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := md5.New() //nolint:gosec // See import.
	if _, err = io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// WriteChecksumFile writes the MD5 sidecar of path and returns the digest.
func WriteChecksumFile(path string) (string, error) {
	digest, err := MD5File(path)
	if err != nil {
		return "", err
	}

	if err = os.WriteFile(path+ChecksumSuffix, []byte(digest), DefaultFileMode); err != nil {
		return "", fmt.Errorf("write checksum of %s: %w", path, err)
	}

	return digest, nil
}

package kodi

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/addon-repository/internal/domain/addon"
)

// maxMetadataSize caps how much of an archived addon.xml is read.
const maxMetadataSize = 4 << 20

var errMetadataTooLarge = errors.New("metadata file too large")

// ExtractMetadata returns the addon.xml stored in the zip at zipPath, either
// at the archive root or in the addonID directory.
func ExtractMetadata(zipPath, addonID string) ([]byte, error) {
	reader, err := zip.OpenReader(filepath.Clean(zipPath))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", addon.ErrParse, filepath.Base(zipPath), err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		dir, base := path.Split(file.Name)
		if base != MetadataFilename {
			continue
		}

		if dir != "" && path.Clean(dir) != addonID {
			continue
		}

		return readZipFile(file)
	}

	return nil, fmt.Errorf("%w: no %s in %s", addon.ErrParse, MetadataFilename, filepath.Base(zipPath))
}

// readZipFile reads a single archive member.
func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", addon.ErrParse, file.Name, err)
	}

	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(rc, maxMetadataSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", addon.ErrParse, file.Name, err)
	}

	if len(data) > maxMetadataSize {
		return nil, fmt.Errorf("%w: %s: %w", addon.ErrParse, file.Name, errMetadataTooLarge)
	}

	return data, nil
}

// ZipDirectory packs every file below srcDir into a new archive at dest,
// storing each one under prefix/<path relative to srcDir>.
func ZipDirectory(srcDir, dest, prefix string) (err error) {
	out, err := os.OpenFile(filepath.Clean(dest), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, DefaultFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", dest, closeErr)
		}
	}()

	writer := zip.NewWriter(out)

	err = filepath.WalkDir(srcDir, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(srcDir, current)
		if relErr != nil {
			return relErr
		}

		return addZipFile(writer, current, path.Join(prefix, filepath.ToSlash(rel)))
	})
	if err != nil {
		_ = writer.Close()

		return fmt.Errorf("pack %s: %w", srcDir, err)
	}

	if err = writer.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", dest, err)
	}

	return nil
}

// addZipFile copies the file at source into the archive as name.
func addZipFile(writer *zip.Writer, source, name string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = name
	header.Method = zip.Deflate

	entry, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(source))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	_, err = io.Copy(entry, in)

	return err
}

package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/addon-repository/internal/domain/addon"
	"github.com/oshokin/addon-repository/internal/kodi"
	"github.com/oshokin/addon-repository/internal/logger"
)

// publishedDirMode is applied to the staging directory before it becomes the output.
const publishedDirMode os.FileMode = 0o755

// defaultRepositoryAddonVersion is used when the repository addon declares no version.
const defaultRepositoryAddonVersion = "1.0.0"

// repositoryAddon is the packed repository addon.
type repositoryAddon struct {
	id       string
	document []byte
}

// outputPath resolves dir and rejects locations that must never be replaced
// wholesale: the filesystem root, the working directory or one of its
// ancestors, and anything overlapping the inputs in keep.
func outputPath(dir string, keep ...string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %v", addon.ErrWrite, dir, err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	if abs == filepath.Dir(abs) || within(abs, cwd) {
		return "", fmt.Errorf("%w: %w: %s", addon.ErrWrite, errUnsafeOutput, abs)
	}

	for _, input := range keep {
		if input == "" {
			continue
		}

		kept, absErr := filepath.Abs(input)
		if absErr != nil {
			return "", fmt.Errorf("%w: resolve %s: %v", addon.ErrWrite, input, absErr)
		}

		if within(abs, kept) || within(kept, abs) {
			return "", fmt.Errorf("%w: %w: %s overlaps %s", addon.ErrWrite, errUnsafeOutput, abs, kept)
		}
	}

	return abs, nil
}

// within reports whether target is parent or lies below it.
func within(parent, target string) bool {
	rel, err := filepath.Rel(parent, target)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// newStaging creates an empty directory next to output.
func newStaging(output string) (string, error) {
	parent := filepath.Dir(output)

	if err := os.MkdirAll(parent, publishedDirMode); err != nil {
		return "", fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(output)+"-staging-")
	if err != nil {
		return "", fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	if err = os.Chmod(staging, publishedDirMode); err != nil {
		_ = os.RemoveAll(staging)

		return "", fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	return staging, nil
}

// publish replaces output with staging.
func publish(staging, output string) error {
	if err := os.RemoveAll(output); err != nil {
		return fmt.Errorf("%w: remove previous output: %v", addon.ErrWrite, err)
	}

	if err := os.Rename(staging, output); err != nil {
		return fmt.Errorf("%w: publish %s: %v", addon.ErrWrite, output, err)
	}

	return nil
}

// packRepositoryAddon zips the repository addon into staging when its
// addon.xml exists. It returns nil when there is no repository addon.
func (g *generator) packRepositoryAddon(ctx context.Context, staging string) (*repositoryAddon, error) {
	source := g.cfg.RepositoryAddonDir

	if _, err := os.Stat(filepath.Join(source, kodi.MetadataFilename)); errors.Is(err, os.ErrNotExist) {
		logger.DebugKV(ctx, "No repository addon found", "dir", source)
		return nil, nil //nolint:nilnil // Absence is not an error.
	}

	document, err := os.ReadFile(filepath.Join(source, kodi.MetadataFilename))
	if err != nil {
		return nil, fmt.Errorf("%w: read repository addon: %v", addon.ErrParse, err)
	}

	meta, err := kodi.ParseMetadata(document)
	if err != nil {
		return nil, fmt.Errorf("repository addon: %w", err)
	}

	if meta.ID != filepath.Base(meta.ID) || meta.ID == ".." {
		return nil, fmt.Errorf("%w: repository addon id %q is not a valid directory name", addon.ErrParse, meta.ID)
	}

	addonVersion := meta.Version
	if addonVersion == "" {
		addonVersion = defaultRepositoryAddonVersion
	}

	dir := filepath.Join(staging, meta.ID)
	if err = os.MkdirAll(dir, publishedDirMode); err != nil {
		return nil, fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	zipName := fmt.Sprintf("%s-%s.zip", meta.ID, addonVersion)
	zipPath := filepath.Join(dir, zipName)

	if err = kodi.ZipDirectory(source, zipPath, meta.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	if _, err = kodi.WriteChecksumFile(zipPath); err != nil {
		return nil, fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	// A copy at the root serves Kodi's "install from zip" browser.
	if err = copyFile(zipPath, filepath.Join(staging, zipName)); err != nil {
		return nil, fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	logger.InfoKV(ctx, "Packed repository addon", "addon_id", meta.ID, "version", addonVersion)

	return &repositoryAddon{
		id:       meta.ID,
		document: document,
	}, nil
}

// copyFile copies src to dst.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, kodi.DefaultFileMode)
}

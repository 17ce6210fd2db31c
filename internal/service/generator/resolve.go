package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/addon-repository/internal/domain/addon"
	"github.com/oshokin/addon-repository/internal/kodi"
	"github.com/oshokin/addon-repository/internal/logger"
	"github.com/oshokin/addon-repository/internal/release"
)

// resolution is the outcome of a single listing entry.
type resolution struct {
	manifest addon.ManifestEntry
	// document is the addon.xml taken from the mirrored asset.
	document []byte
}

// resolveAll resolves entries with at most cfg.Concurrency in flight.
// Results are indexed like entries; a nil result marks a skipped entry.
// In strict mode the first failure cancels the others and is returned.
func (g *generator) resolveAll(ctx context.Context, entries []addon.Entry, staging string) ([]*resolution, error) {
	results := make([]*resolution, len(entries))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.cfg.Concurrency)

	for i, entry := range entries {
		i, entry := i, entry

		group.Go(func() error {
			entryCtx := logger.WithKV(groupCtx, "addon_id", entry.AddonID, "repo", entry.Repo)

			res, err := g.resolve(entryCtx, entry, staging)
			if err == nil {
				results[i] = res
				return nil
			}

			if g.cfg.Strict {
				return fmt.Errorf("addon %s (%s): %w", entry.AddonID, entry.Repo, err)
			}

			logger.WarnKV(entryCtx, "Skipping addon", "error", err)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// A cancelled run would otherwise look like a run where every addon was skipped.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// resolve fetches the latest release of entry and, in mirror mode, mirrors its asset.
func (g *generator) resolve(ctx context.Context, entry addon.Entry, staging string) (*resolution, error) {
	logger.Info(ctx, "Fetching latest release")

	rel, err := g.fetcher.LatestRelease(ctx, entry.Repo)
	if err != nil {
		return nil, err
	}

	asset, err := release.SelectAsset(rel, entry.AssetPattern)
	if err != nil {
		return nil, err
	}

	res := &resolution{
		manifest: addon.ManifestEntry{
			Version:     rel.Tag,
			DownloadURL: asset.DownloadURL,
		},
	}

	if !g.cfg.Mirror {
		logger.InfoKV(ctx, "Resolved addon", "version", rel.Tag, "asset", asset.Name)
		return res, nil
	}

	dir := filepath.Join(staging, entry.AddonID)

	if err = g.mirror(ctx, entry, asset, dir, res); err != nil {
		// Nothing of a failed addon may be published.
		_ = os.RemoveAll(dir)

		return nil, err
	}

	logger.InfoKV(ctx, "Mirrored addon", "version", rel.Tag, "asset", asset.Name, "checksum", res.manifest.Checksum)

	return res, nil
}

// mirror downloads asset into dir, writes its checksum sidecar and extracts its addon.xml.
func (g *generator) mirror(
	ctx context.Context,
	entry addon.Entry,
	asset release.Asset,
	dir string,
	res *resolution,
) error {
	name := filepath.Base(asset.Name)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return fmt.Errorf("%w: asset name %q", addon.ErrParse, asset.Name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	dest := filepath.Join(dir, name)

	if err := g.downloader.Download(ctx, asset.DownloadURL, dest); err != nil {
		return err
	}

	checksum, err := kodi.WriteChecksumFile(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	document, err := kodi.ExtractMetadata(dest, entry.AddonID)
	if err != nil {
		return err
	}

	meta, err := kodi.ParseMetadata(document)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if meta.ID != entry.AddonID {
		logger.WarnKV(ctx, "Archived addon.xml declares a different id", "declared_id", meta.ID)
	}

	res.manifest.Checksum = checksum
	res.document = document

	return nil
}

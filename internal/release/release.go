package release

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/oshokin/addon-repository/internal/domain/addon"
)

// Release is the latest published release of a repository.
type Release struct {
	// Tag is the release tag, used as the addon version in the manifest.
	Tag string
	// Assets are the files attached to the release.
	Assets []Asset
}

// Asset is a file attached to a release.
type Asset struct {
	// Name is the file name of the asset.
	Name string
	// DownloadURL is where the asset can be fetched from.
	DownloadURL string
	// Size is the size of the asset in bytes, zero when unknown.
	Size int64
}

// Fetcher returns the latest release of an owner/name repository.
type Fetcher interface {
	LatestRelease(ctx context.Context, repo string) (*Release, error)
}

// Downloader stores the file behind url at dest.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

var (
	// ErrReleaseNotFound is returned when a repository has no published release.
	ErrReleaseNotFound = fmt.Errorf("%w: no published release", addon.ErrRemoteResolution)
	// ErrNoMatchingAsset is returned when no asset of a release matches the pattern.
	ErrNoMatchingAsset = fmt.Errorf("%w: no asset matches the pattern", addon.ErrRemoteResolution)
)

// SelectAsset returns the asset whose name matches pattern.
// Assets are considered in ascending name order and the first match wins,
// so the result does not depend on the order the API listed them in.
func SelectAsset(rel *Release, pattern string) (Asset, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return Asset{}, fmt.Errorf("%w: asset pattern %q: %v", addon.ErrParse, pattern, err)
	}

	if rel == nil {
		return Asset{}, ErrReleaseNotFound
	}

	assets := slices.Clone(rel.Assets)
	slices.SortStableFunc(assets, func(a, b Asset) int {
		return strings.Compare(a.Name, b.Name)
	})

	for _, asset := range assets {
		if asset.DownloadURL == "" {
			continue
		}

		// The pattern was validated above, so Match cannot fail here.
		if matched, _ := path.Match(pattern, asset.Name); matched {
			return asset, nil
		}
	}

	return Asset{}, fmt.Errorf("%w: %q in release %s", ErrNoMatchingAsset, pattern, rel.Tag)
}

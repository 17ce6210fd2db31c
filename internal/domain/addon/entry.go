package addon

import (
	"fmt"
	"strings"
)

// Entry is one addon known to the repository.
type Entry struct {
	// Repo is the owner/name of the repository publishing releases.
	Repo string `json:"repo"`
	// AddonID is the identifier of the addon, unique within a listing.
	AddonID string `json:"addon_id"`
	// AssetPattern is the glob selecting the release asset.
	AssetPattern string `json:"asset_pattern"`
}

// NewEntry returns the entry registered for an addon found in repo.
// The asset pattern matches every asset named after the addon.
func NewEntry(repo, addonID string) Entry {
	return Entry{
		Repo:         repo,
		AddonID:      addonID,
		AssetPattern: DefaultAssetPattern(addonID),
	}
}

// DefaultAssetPattern returns the asset pattern derived from an addon id.
func DefaultAssetPattern(addonID string) string {
	return addonID + "-*"
}

// Validate checks that every field is set and that Repo is owner/name.
func (e Entry) Validate() error {
	switch {
	case strings.TrimSpace(e.AddonID) == "":
		return fmt.Errorf("%w: entry for %q has no addon_id", ErrParse, e.Repo)
	case e.AddonID == "." || e.AddonID == ".." || strings.ContainsAny(e.AddonID, `/\`):
		return fmt.Errorf("%w: addon_id %q is not a valid directory name", ErrParse, e.AddonID)
	case strings.TrimSpace(e.AssetPattern) == "":
		return fmt.Errorf("%w: addon %s has no asset_pattern", ErrParse, e.AddonID)
	}

	if _, _, err := SplitRepo(e.Repo); err != nil {
		return fmt.Errorf("addon %s: %w", e.AddonID, err)
	}

	return nil
}

// SplitRepo splits an owner/name repository identifier.
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, found := strings.Cut(strings.TrimSpace(repo), "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: repository %q is not in owner/name form", ErrParse, repo)
	}

	return owner, name, nil
}

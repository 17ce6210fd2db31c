package addon

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ManifestEntry is the resolved state of one addon.
type ManifestEntry struct {
	// Version is the tag of the latest release.
	Version string `json:"version"`
	// DownloadURL points at the selected release asset.
	DownloadURL string `json:"download_url"`
	// Checksum is the MD5 hex digest of the asset, set when it was downloaded.
	Checksum string `json:"checksum,omitempty"`
}

// Manifest maps addon ids to their resolved state.
type Manifest map[string]ManifestEntry

// Add records entry for addonID. Records without a download URL or version are rejected.
func (m Manifest) Add(addonID string, entry ManifestEntry) error {
	if entry.DownloadURL == "" {
		return fmt.Errorf("%w: addon %s has no download url", ErrRemoteResolution, addonID)
	}

	if entry.Version == "" {
		return fmt.Errorf("%w: addon %s has no version", ErrRemoteResolution, addonID)
	}

	m[addonID] = entry

	return nil
}

// Marshal renders the manifest with sorted keys, two-space indentation and a trailing newline.
func (m Manifest) Marshal() ([]byte, error) {
	if m == nil {
		m = Manifest{}
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(m); err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	return buf.Bytes(), nil
}

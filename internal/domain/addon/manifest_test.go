package addon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestManifestMarshal checks the stable output format consumed downstream.
func TestManifestMarshal(t *testing.T) {
	t.Parallel()

	m := Manifest{}
	require.NoError(t, m.Add("plugin.x", ManifestEntry{Version: "v1.2.0", DownloadURL: "U"}))
	require.NoError(t, m.Add("a.first", ManifestEntry{Version: "1.0", DownloadURL: "V", Checksum: "abc"}))

	data, err := m.Marshal()
	require.NoError(t, err)

	expected := `{
  "a.first": {
    "version": "1.0",
    "download_url": "V",
    "checksum": "abc"
  },
  "plugin.x": {
    "version": "v1.2.0",
    "download_url": "U"
  }
}
`
	require.Equal(t, expected, string(data))
}

// TestManifestRejectsEmptyRecords ensures no record without a download url is ever stored.
func TestManifestRejectsEmptyRecords(t *testing.T) {
	t.Parallel()

	m := Manifest{}
	require.ErrorIs(t, m.Add("plugin.x", ManifestEntry{Version: "v1"}), ErrRemoteResolution)
	require.ErrorIs(t, m.Add("plugin.x", ManifestEntry{DownloadURL: "U"}), ErrRemoteResolution)
	require.Empty(t, m)
}

// TestManifestMarshalEmpty renders an empty object.
func TestManifestMarshalEmpty(t *testing.T) {
	t.Parallel()

	var m Manifest

	data, err := m.Marshal()
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(data))
}

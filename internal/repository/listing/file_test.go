package listing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/addon-repository/internal/domain/addon"
)

const sampleListing = `{
  "addons": [
    {
      "repo": "a/b",
      "addon_id": "plugin.x",
      "asset_pattern": "plugin.x-*.zip"
    }
  ]
}
`

// TestFileRepository_LoadMissing maps a missing file to ErrConfigNotFound.
func TestFileRepository_LoadMissing(t *testing.T) {
	t.Parallel()

	r := NewFileRepository(filepath.Join(t.TempDir(), "addons.json"))

	_, err := r.Load(context.Background())
	require.ErrorIs(t, err, addon.ErrConfigNotFound)
}

// TestFileRepository_SaveLoadRoundtrip writes a listing and reads back identical bytes and values.
func TestFileRepository_SaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "addons.json")
	r := NewFileRepository(path)

	listing := &addon.Listing{
		Addons: []addon.Entry{
			{Repo: "a/b", AddonID: "plugin.x", AssetPattern: "plugin.x-*.zip"},
		},
	}

	ctx := context.Background()
	require.NoError(t, r.Save(ctx, listing))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, sampleListing, string(contents))

	loaded, err := r.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, listing, loaded)

	// Saving over an existing file replaces it.
	listing.Addons = append(listing.Addons, addon.NewEntry("c/d", "plugin.y"))
	require.NoError(t, r.Save(ctx, listing))

	loaded, err = r.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Addons, 2)

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestFileRepository_SaveRejectsInvalid refuses listings that break the uniqueness invariant.
func TestFileRepository_SaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "addons.json")
	r := NewFileRepository(path)

	listing := &addon.Listing{
		Addons: []addon.Entry{
			addon.NewEntry("a/b", "plugin.x"),
			addon.NewEntry("c/d", "plugin.x"),
		},
	}

	require.ErrorIs(t, r.Save(context.Background(), listing), addon.ErrParse)
	require.ErrorIs(t, r.Save(context.Background(), nil), addon.ErrWrite)

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDecode covers schema and invariant violations.
func TestDecode(t *testing.T) {
	t.Parallel()

	listing, err := Decode("inline", []byte(sampleListing))
	require.NoError(t, err)
	require.Len(t, listing.Addons, 1)

	cases := map[string]string{
		"not json":          `{"addons": [`,
		"missing addons":    `{}`,
		"wrong type":        `{"addons": {}}`,
		"missing pattern":   `{"addons": [{"repo": "a/b", "addon_id": "x"}]}`,
		"empty id":          `{"addons": [{"repo": "a/b", "addon_id": "", "asset_pattern": "*"}]}`,
		"repo without name": `{"addons": [{"repo": "a", "addon_id": "x", "asset_pattern": "*"}]}`,
		"unknown entry key": `{"addons": [{"repo": "a/b", "addon_id": "x", "asset_pattern": "*", "name": "X"}]}`,
		"unknown top key":   `{"addons": [], "maintainer": "me"}`,
		"duplicate ids": `{"addons": [
			{"repo": "a/b", "addon_id": "x", "asset_pattern": "*"},
			{"repo": "c/d", "addon_id": "x", "asset_pattern": "*"}]}`,
	}

	for name, doc := range cases {
		_, err = Decode(name, []byte(doc))
		require.ErrorIs(t, err, addon.ErrParse, name)
	}
}

// TestEncodeEmpty writes an empty array instead of null.
func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	data, err := Encode(new(addon.Listing))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"addons\": []\n}\n", string(data))
}

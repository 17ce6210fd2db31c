package addon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleListing returns a listing with two valid entries.
func sampleListing() *Listing {
	return &Listing{
		Addons: []Entry{
			{Repo: "a/b", AddonID: "plugin.x", AssetPattern: "plugin.x-*.zip"},
			{Repo: "c/d", AddonID: "plugin.y", AssetPattern: "plugin.y-*"},
		},
	}
}

// TestNewEntry checks the derived asset pattern.
func TestNewEntry(t *testing.T) {
	t.Parallel()

	e := NewEntry("owner/repo", "script.module.example")
	require.Equal(t, "owner/repo", e.Repo)
	require.Equal(t, "script.module.example", e.AddonID)
	require.Equal(t, "script.module.example-*", e.AssetPattern)
	require.NoError(t, e.Validate())
}

// TestEntryValidate rejects entries with missing fields or malformed repositories.
func TestEntryValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]Entry{
		"no id":        {Repo: "a/b", AssetPattern: "*"},
		"no pattern":   {Repo: "a/b", AddonID: "x"},
		"no repo":      {AddonID: "x", AssetPattern: "*"},
		"no owner":     {Repo: "/b", AddonID: "x", AssetPattern: "*"},
		"nested repo":  {Repo: "a/b/c", AddonID: "x", AssetPattern: "*"},
		"blank fields": {Repo: "a/b", AddonID: "  ", AssetPattern: "*"},
		"path in id":   {Repo: "a/b", AddonID: "../x", AssetPattern: "*"},
		"dot dot id":   {Repo: "a/b", AddonID: "..", AssetPattern: "*"},
	}

	for name, e := range cases {
		err := e.Validate()
		require.ErrorIs(t, err, ErrParse, name)
	}
}

// TestListingValidate detects duplicate addon ids.
func TestListingValidate(t *testing.T) {
	t.Parallel()

	l := sampleListing()
	require.NoError(t, l.Validate())

	l.Addons = append(l.Addons, Entry{Repo: "e/f", AddonID: "plugin.x", AssetPattern: "*"})
	require.ErrorIs(t, l.Validate(), ErrParse)
}

// TestRegisterAppends verifies that a new entry is appended without touching the input.
func TestRegisterAppends(t *testing.T) {
	t.Parallel()

	original := sampleListing()
	before := append([]Entry(nil), original.Addons...)

	entry := NewEntry("g/h", "plugin.z")

	updated, err := Register(original, entry)
	require.NoError(t, err)
	require.Len(t, updated.Addons, 3)
	require.Equal(t, before, updated.Addons[:2])
	require.Equal(t, entry, updated.Addons[2])

	// Input is untouched.
	require.Equal(t, before, original.Addons)
}

// TestRegisterIsIdempotent checks that a second registration is a no-op.
func TestRegisterIsIdempotent(t *testing.T) {
	t.Parallel()

	first, err := Register(sampleListing(), NewEntry("g/h", "plugin.z"))
	require.NoError(t, err)

	second, err := Register(first, NewEntry("other/place", "plugin.z"))
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	require.Same(t, first, second)
}

// TestRegisterNilListing starts a listing from nothing.
func TestRegisterNilListing(t *testing.T) {
	t.Parallel()

	l, err := Register(nil, NewEntry("a/b", "plugin.x"))
	require.NoError(t, err)
	require.Len(t, l.Addons, 1)

	_, err = Register(nil, Entry{Repo: "a/b"})
	require.ErrorIs(t, err, ErrParse)
}

// TestFind looks up entries by id.
func TestFind(t *testing.T) {
	t.Parallel()

	l := sampleListing()

	e, ok := l.Find("plugin.y")
	require.True(t, ok)
	require.Equal(t, "c/d", e.Repo)

	_, ok = l.Find("missing")
	require.False(t, ok)
}

package integration

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/addon-repository/internal/config"
	"github.com/oshokin/addon-repository/internal/domain/addon"
	"github.com/oshokin/addon-repository/internal/repository/listing"
)

// fakeRelease is a release served by the fake GitHub API.
type fakeRelease struct {
	tag    string
	assets map[string][]byte
}

// fakeGitHub serves latest releases and their assets like api.github.com does.
type fakeGitHub struct {
	server    *httptest.Server
	releases  map[string]fakeRelease
	downloads atomic.Int32
}

// newFakeGitHub starts a fake API serving releases keyed by owner/name.
func newFakeGitHub(t *testing.T, releases map[string]fakeRelease) *fakeGitHub {
	t.Helper()

	api := &fakeGitHub{releases: releases}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/releases/latest", api.latestRelease)
	mux.HandleFunc("GET /assets/{owner}/{repo}/{name}", api.asset)

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	return api
}

// latestRelease renders the release payload of the requested repository.
func (f *fakeGitHub) latestRelease(w http.ResponseWriter, r *http.Request) {
	repo := r.PathValue("owner") + "/" + r.PathValue("repo")

	rel, ok := f.releases[repo]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))

		return
	}

	type asset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int    `json:"size"`
	}

	payload := struct {
		TagName string  `json:"tag_name"`
		Assets  []asset `json:"assets"`
	}{TagName: rel.tag}

	for name, body := range rel.assets {
		payload.Assets = append(payload.Assets, asset{
			Name:               name,
			BrowserDownloadURL: f.server.URL + "/assets/" + repo + "/" + name,
			Size:               len(body),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// asset serves the body of a release asset.
func (f *fakeGitHub) asset(w http.ResponseWriter, r *http.Request) {
	rel, ok := f.releases[r.PathValue("owner")+"/"+r.PathValue("repo")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	body, ok := rel.assets[r.PathValue("name")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	f.downloads.Add(1)

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(body)
}

// addonArchive returns an addon zip with its addon.xml under the id directory.
func addonArchive(t *testing.T, id, addonVersion string) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)

	files := map[string]string{
		id + "/addon.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<addon id="` + id + `" name="` + id + `" version="` + addonVersion + `" provider-name="tests">
  <extension point="xbmc.python.pluginsource" library="default.py"/>
</addon>`,
		id + "/default.py": "print('hello')\n",
	}

	for name, contents := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)

		_, err = entry.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return buf.Bytes()
}

// workspace lays out a listing and settings pointing at api.
func workspace(t *testing.T, api *fakeGitHub, entries ...addon.Entry) *config.Config {
	t.Helper()

	dir := t.TempDir()

	data, err := listing.Encode(&addon.Listing{Addons: entries})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.AddonsFile = filepath.Join(dir, "addons.json")
	cfg.OutputDir = filepath.Join(dir, "dist")
	cfg.RepositoryAddonDir = filepath.Join(dir, "repository")
	cfg.APIURL = api.server.URL
	cfg.Concurrency = 2

	require.NoError(t, os.WriteFile(cfg.AddonsFile, data, 0o600))

	return cfg
}

// readOutput returns the contents of a published file given by a slash separated path.
func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, filepath.FromSlash(name)))
	require.NoError(t, err)

	return string(data)
}

// requireMD5Sidecar checks that the sidecar of a published file holds digest.
func requireMD5Sidecar(t *testing.T, cfg *config.Config, digest, name string) {
	t.Helper()

	require.Equal(t, digest, strings.TrimSpace(readOutput(t, cfg, name+".md5")))
}

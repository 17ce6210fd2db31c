package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/addon-repository/internal/kodi"
	"github.com/oshokin/addon-repository/internal/service/generator"
	"github.com/oshokin/addon-repository/internal/service/register"
)

// TestRegisteredAddonIsPublished registers an addon from its checkout and
// publishes it with the next generator run.
func TestRegisteredAddonIsPublished(t *testing.T) {
	t.Parallel()

	api := newFakeGitHub(t, map[string]fakeRelease{
		"someone/plugin.video.three": {
			tag: "v0.3.0",
			assets: map[string][]byte{
				"plugin.video.three-0.3.0.zip": addonArchive(t, "plugin.video.three", "0.3.0"),
			},
		},
	})
	cfg := workspace(t, api)
	cfg.Mirror = false

	checkout := t.TempDir()

	repo, err := git.PlainInit(checkout, false)
	require.NoError(t, err)

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name:  register.DefaultRemoteName,
		URLs:  []string{"https://github.com/someone/plugin.video.three.git"},
		Fetch: []gitconfig.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(
		filepath.Join(checkout, kodi.MetadataFilename),
		[]byte(`<addon id="plugin.video.three" name="Three" version="0.3.0" provider-name="someone"></addon>`),
		0o600,
	))

	options := &register.Options{
		CheckoutDir:  checkout,
		AddonsFile:   cfg.AddonsFile,
		UpstreamRepo: "owner/addon-repository",
	}

	result, err := register.Run(context.Background(), options)
	require.NoError(t, err)
	require.True(t, result.Registered)
	require.True(t, result.TriggerCreated)

	listed, err := os.ReadFile(cfg.AddonsFile)
	require.NoError(t, err)

	again, err := register.Run(context.Background(), options)
	require.NoError(t, err)
	require.False(t, again.Registered)

	unchanged, err := os.ReadFile(cfg.AddonsFile)
	require.NoError(t, err)
	require.Equal(t, string(listed), string(unchanged))

	summary, err := generator.Run(context.Background(), &generator.Options{Config: cfg})
	require.NoError(t, err)
	require.Empty(t, summary.Skipped)

	records := manifestRecords(t, readOutput(t, cfg, generator.ManifestFilename))
	require.Equal(t, "v0.3.0", records["plugin.video.three"].Version)
	require.Equal(t,
		api.server.URL+"/assets/someone/plugin.video.three/plugin.video.three-0.3.0.zip",
		records["plugin.video.three"].DownloadURL)
}

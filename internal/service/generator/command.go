package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/addon-repository/internal/config"
	"github.com/oshokin/addon-repository/internal/domain/addon"
	"github.com/oshokin/addon-repository/internal/kodi"
	"github.com/oshokin/addon-repository/internal/logger"
	"github.com/oshokin/addon-repository/internal/release"
	"github.com/oshokin/addon-repository/internal/repository/listing"
)

// ManifestFilename is the manifest written into the output directory.
const ManifestFilename = "manifest.json"

// Options contains inputs for the generator entry point.
type Options struct {
	// Config holds the validated run settings.
	Config *config.Config
	// Fetcher resolves latest releases. Defaults to a GitHub client built from Config.
	Fetcher release.Fetcher
	// Downloader fetches assets in mirror mode. Defaults to the GitHub client.
	Downloader release.Downloader
}

// Summary describes a finished run.
type Summary struct {
	// OutputDir is where the repository was published.
	OutputDir string
	// Manifest holds every resolved addon.
	Manifest addon.Manifest
	// Skipped lists the ids of addons left out of the outputs.
	Skipped []string
	// RepositoryAddon is the id of the packed repository addon, empty when there is none.
	RepositoryAddon string
}

// generator holds the collaborators of a single run.
// It is unexported; callers should use Run.
type generator struct {
	cfg        *config.Config
	listing    listing.Repository
	fetcher    release.Fetcher
	downloader release.Downloader
}

var (
	errSettingsNotInitialised = errors.New("settings are not initialized")
	errNoDownloader           = errors.New("mirror mode needs a downloader")
	errUnsafeOutput           = errors.New("refusing to replace output directory")
	errRepositoryAddonListed  = errors.New("repository addon id is also listed as an addon")

	// ErrNoAddonsResolved is returned when a non-empty listing produced no addon at all.
	ErrNoAddonsResolved = fmt.Errorf("%w: no addons resolved", addon.ErrRemoteResolution)
)

// Run executes the generation workflow.
func Run(ctx context.Context, opts *Options) (*Summary, error) {
	ctx = logger.WithName(ctx, "repo-generator")

	gen, err := newGenerator(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("initialize generator: %w", err)
	}

	summary, err := gen.Run(ctx)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Repository generated",
		"output", summary.OutputDir,
		"addons", len(summary.Manifest),
		"skipped", len(summary.Skipped))

	return summary, nil
}

// newGenerator validates the settings and wires default collaborators.
func newGenerator(ctx context.Context, opts *Options) (*generator, error) {
	if opts == nil || opts.Config == nil {
		return nil, errSettingsNotInitialised
	}

	cfg := opts.Config
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	gen := &generator{
		cfg:        cfg,
		listing:    listing.NewFileRepository(cfg.AddonsFile),
		fetcher:    opts.Fetcher,
		downloader: opts.Downloader,
	}

	if gen.fetcher == nil {
		client := release.NewGitHubClient(cfg.APIURL,
			release.WithToken(cfg.Token),
			release.WithTimeout(cfg.Timeout),
			release.WithLogger(logger.FromContext(ctx)),
			release.WithDebug(logger.Level() == zapcore.DebugLevel),
		)

		gen.fetcher = client

		if gen.downloader == nil {
			gen.downloader = client
		}
	}

	if gen.downloader == nil {
		if d, ok := gen.fetcher.(release.Downloader); ok {
			gen.downloader = d
		}
	}

	if cfg.Mirror && gen.downloader == nil {
		return nil, errNoDownloader
	}

	return gen, nil
}

// Run resolves the listing and publishes the outputs.
func (g *generator) Run(ctx context.Context) (*Summary, error) {
	addons, err := g.listing.Load(ctx)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Loaded configuration listing",
		"path", g.cfg.AddonsFile,
		"addons", len(addons.Addons),
		"mirror", g.cfg.Mirror,
		"strict", g.cfg.Strict)

	output, err := outputPath(g.cfg.OutputDir, g.cfg.AddonsFile, g.cfg.RepositoryAddonDir)
	if err != nil {
		return nil, err
	}

	staging, err := newStaging(output)
	if err != nil {
		return nil, err
	}

	// Removes the staging directory of a failed run. After a successful
	// publish the path no longer exists.
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	summary := &Summary{
		OutputDir: output,
		Manifest:  make(addon.Manifest, len(addons.Addons)),
	}

	var documents [][]byte

	if g.cfg.Mirror {
		repoAddon, packErr := g.packRepositoryAddon(ctx, staging)
		if packErr != nil {
			return nil, packErr
		}

		if repoAddon != nil {
			// Both would be mirrored into the same directory.
			if _, listed := addons.Find(repoAddon.id); listed {
				return nil, fmt.Errorf("%w: %w: %s", addon.ErrParse, errRepositoryAddonListed, repoAddon.id)
			}

			summary.RepositoryAddon = repoAddon.id
			documents = append(documents, repoAddon.document)
		}
	}

	results, err := g.resolveAll(ctx, addons.Addons, staging)
	if err != nil {
		return nil, err
	}

	for i, entry := range addons.Addons {
		res := results[i]
		if res == nil {
			summary.Skipped = append(summary.Skipped, entry.AddonID)
			continue
		}

		if err = summary.Manifest.Add(entry.AddonID, res.manifest); err != nil {
			return nil, err
		}

		if res.document != nil {
			documents = append(documents, res.document)
		}
	}

	if len(addons.Addons) > 0 && len(summary.Manifest) == 0 {
		return nil, ErrNoAddonsResolved
	}

	if len(addons.Addons) == 0 {
		logger.Warn(ctx, "The configuration listing is empty")
	}

	if err = g.writeOutputs(staging, summary.Manifest, documents); err != nil {
		return nil, err
	}

	if err = publish(staging, output); err != nil {
		return nil, err
	}

	return summary, nil
}

// writeOutputs writes the manifest and, in mirror mode, the Kodi index files into dir.
func (g *generator) writeOutputs(dir string, manifest addon.Manifest, documents [][]byte) error {
	data, err := manifest.Marshal()
	if err != nil {
		return err
	}

	if err = os.WriteFile(filepath.Join(dir, ManifestFilename), data, kodi.DefaultFileMode); err != nil {
		return fmt.Errorf("%w: %s: %v", addon.ErrWrite, ManifestFilename, err)
	}

	if !g.cfg.Mirror {
		return nil
	}

	if err = kodi.WriteIndex(dir, documents); err != nil {
		return fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	if err = kodi.WritePages(dir); err != nil {
		return fmt.Errorf("%w: %v", addon.ErrWrite, err)
	}

	return nil
}

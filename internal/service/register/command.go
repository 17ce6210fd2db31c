package register

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/oshokin/addon-repository/internal/config"
	"github.com/oshokin/addon-repository/internal/domain/addon"
	"github.com/oshokin/addon-repository/internal/kodi"
	"github.com/oshokin/addon-repository/internal/logger"
	"github.com/oshokin/addon-repository/internal/repository/listing"
)

// Options contains inputs for the registration entry point.
type Options struct {
	// CheckoutDir is the local addon checkout holding addon.xml.
	CheckoutDir string
	// AddonsFile is the configuration listing to register into.
	AddonsFile string
	// UpstreamRepo is the owner/name the scaffolded workflow dispatches to.
	UpstreamRepo string
	// RemoteName is the git remote naming the hosting repository. Defaults to origin.
	RemoteName string
}

// Result describes what a registration changed.
type Result struct {
	// Entry is the listing entry of the addon.
	Entry addon.Entry
	// Registered is false when the addon was already listed.
	Registered bool
	// TriggerPath is the scaffolded workflow file.
	TriggerPath string
	// TriggerCreated is false when the workflow already existed.
	TriggerCreated bool
}

var (
	errCheckoutRequired = errors.New("addon checkout directory must be provided")
	errUpstreamRequired = errors.New("upstream repository must be provided")
)

// Run registers the addon found in opts.CheckoutDir.
// Every precondition is checked before the first file is written.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "addon-register")

	if opts == nil || opts.CheckoutDir == "" {
		return nil, errCheckoutRequired
	}

	if opts.UpstreamRepo == "" {
		return nil, errUpstreamRequired
	}

	if _, _, err := addon.SplitRepo(opts.UpstreamRepo); err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}

	addonsFile := opts.AddonsFile
	if addonsFile == "" {
		addonsFile = config.DefaultAddonsFilename
	}

	meta, err := kodi.ReadMetadata(opts.CheckoutDir)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "addon_id", meta.ID)

	repo, err := RemoteRepository(opts.CheckoutDir, opts.RemoteName)
	if err != nil {
		return nil, err
	}

	trigger, err := RenderTrigger(opts.UpstreamRepo)
	if err != nil {
		return nil, fmt.Errorf("render trigger: %w", err)
	}

	store := listing.NewFileRepository(addonsFile)

	current, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Entry:       addon.NewEntry(repo, meta.ID),
		TriggerPath: filepath.Join(opts.CheckoutDir, TriggerPath),
	}

	updated, err := addon.Register(current, result.Entry)

	switch {
	case errors.Is(err, addon.ErrAlreadyRegistered):
		existing, _ := current.Find(meta.ID)
		result.Entry = existing

		logger.InfoKV(ctx, "Addon is already registered, listing left unchanged", "repo", existing.Repo)
	case err != nil:
		return nil, err
	default:
		if err = store.Save(ctx, updated); err != nil {
			return nil, err
		}

		result.Registered = true

		logger.InfoKV(ctx, "Registered addon",
			"repo", repo,
			"asset_pattern", result.Entry.AssetPattern,
			"listing", store.Path())
	}

	created, err := writeTrigger(result.TriggerPath, trigger)
	if err != nil {
		return nil, fmt.Errorf("%w: trigger %s: %v", addon.ErrWrite, result.TriggerPath, err)
	}

	result.TriggerCreated = created

	if created {
		logger.InfoKV(ctx, "Scaffolded release trigger", "path", result.TriggerPath, "upstream", opts.UpstreamRepo)
	} else {
		logger.InfoKV(ctx, "Release trigger already exists, left unchanged", "path", result.TriggerPath)
	}

	return result, nil
}

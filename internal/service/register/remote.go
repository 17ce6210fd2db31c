package register

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/oshokin/addon-repository/internal/domain/addon"
)

// DefaultRemoteName is the remote the hosting repository is derived from.
const DefaultRemoteName = "origin"

// RemoteRepository returns the owner/name of the repository behind the named
// remote of the git checkout containing dir.
func RemoteRepository(dir, remoteName string) (string, error) {
	if remoteName == "" {
		remoteName = DefaultRemoteName
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("%w: open git repository at %s: %v", addon.ErrParse, dir, err)
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", fmt.Errorf("%w: %s has no %q remote", addon.ErrRemoteResolution, dir, remoteName)
		}

		return "", fmt.Errorf("%w: read remote %q: %v", addon.ErrRemoteResolution, remoteName, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: remote %q has no url", addon.ErrRemoteResolution, remoteName)
	}

	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner/name from a hosted remote url such as
// git@github.com:owner/name.git or https://github.com/owner/name.
func ParseRemoteURL(raw string) (string, error) {
	endpoint, err := transport.NewEndpoint(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: remote url %q: %v", addon.ErrRemoteResolution, raw, err)
	}

	if endpoint.Protocol == "file" || endpoint.Host == "" {
		return "", fmt.Errorf("%w: remote url %q does not point at a hosted repository", addon.ErrRemoteResolution, raw)
	}

	repoPath := strings.TrimSuffix(strings.Trim(endpoint.Path, "/"), ".git")

	owner, name, err := addon.SplitRepo(repoPath)
	if err != nil {
		return "", fmt.Errorf("%w: remote url %q: %v", addon.ErrRemoteResolution, raw, err)
	}

	return owner + "/" + name, nil
}

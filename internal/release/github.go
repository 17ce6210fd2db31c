package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oshokin/addon-repository/internal/domain/addon"
	"github.com/oshokin/addon-repository/internal/version"
)

const (
	// DefaultTimeout bounds a single request when no other timeout is given.
	DefaultTimeout = 30 * time.Second

	// apiVersion pins the GitHub REST API version.
	apiVersion = "2022-11-28"

	latestReleasePath = "/repos/{owner}/{repo}/releases/latest"

	redacted = "<redacted>"
)

var errBadHTTPStatus = errors.New("unexpected http status")

// GitHubClient reads releases from the GitHub REST API.
type GitHubClient struct {
	client *resty.Client
}

// Option configures the client.
type Option func(*GitHubClient)

// WithToken authenticates requests with a bearer token. Empty tokens are ignored.
func WithToken(token string) Option {
	return func(c *GitHubClient) {
		if token != "" {
			c.client.SetAuthToken(token)
		}
	}
}

// WithTimeout sets the timeout of every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *GitHubClient) {
		if timeout > 0 {
			c.client.SetTimeout(timeout)
		}
	}
}

// WithLogger routes resty's own diagnostics to l.
func WithLogger(l resty.Logger) Option {
	return func(c *GitHubClient) {
		if l != nil {
			c.client.SetLogger(l)
		}
	}
}

// WithDebug logs every request and response through the client logger.
// The Authorization header is redacted from the request log.
func WithDebug(enabled bool) Option {
	return func(c *GitHubClient) {
		if !enabled {
			return
		}

		c.client.SetDebug(true).OnRequestLog(func(rl *resty.RequestLog) error {
			if rl.Header.Get("Authorization") != "" {
				rl.Header.Set("Authorization", redacted)
			}

			return nil
		})
	}
}

// githubRelease is the subset of the release payload the generator reads.
type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// NewGitHubClient creates a client for the API served at baseURL.
func NewGitHubClient(baseURL string, opts ...Option) *GitHubClient {
	c := &GitHubClient{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/vnd.github+json").
			SetHeader("X-GitHub-Api-Version", apiVersion).
			SetHeader("User-Agent", version.UserAgent()),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// LatestRelease fetches the latest published release of repo.
func (c *GitHubClient) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	owner, name, err := addon.SplitRepo(repo)
	if err != nil {
		return nil, err
	}

	var payload githubRelease

	response, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"owner": owner,
			"repo":  name,
		}).
		SetResult(&payload).
		Get(latestReleasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", addon.ErrRemoteResolution, repo, err)
	}

	switch {
	case response.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrReleaseNotFound, repo)
	case response.IsError():
		return nil, fmt.Errorf("%w: %s: %w: %s", addon.ErrRemoteResolution, repo, errBadHTTPStatus, response.Status())
	case payload.TagName == "":
		return nil, fmt.Errorf("%w: %s: release has no tag", ErrReleaseNotFound, repo)
	}

	rel := &Release{
		Tag:    payload.TagName,
		Assets: make([]Asset, 0, len(payload.Assets)),
	}

	for _, asset := range payload.Assets {
		rel.Assets = append(rel.Assets, Asset{
			Name:        asset.Name,
			DownloadURL: asset.BrowserDownloadURL,
			Size:        asset.Size,
		})
	}

	return rel, nil
}

// Download stores the asset at url in dest, creating parent directories.
// A partial or error body is removed before returning an error.
func (c *GitHubClient) Download(ctx context.Context, url, dest string) error {
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/octet-stream").
		SetOutput(dest).
		Get(url)
	if err != nil {
		_ = os.Remove(dest)

		return fmt.Errorf("%w: download %s: %v", addon.ErrRemoteResolution, url, err)
	}

	if response.IsError() {
		_ = os.Remove(dest)

		return fmt.Errorf("%w: download %s: %w: %s", addon.ErrRemoteResolution, url, errBadHTTPStatus, response.Status())
	}

	return nil
}

// Package release talks to the remote release API.
//
// Fetcher and Downloader are the capabilities the generator depends on;
// GitHubClient implements both against the GitHub REST API. SelectAsset picks
// the asset of a release that matches an entry's asset pattern.
package release

// Package generator builds the static addon repository.
//
// It resolves every entry of the configuration listing to the matching asset
// of its latest release, writes manifest.json and, in mirror mode, downloads
// the assets and produces the Kodi index files. Everything is assembled in a
// staging directory that replaces the output directory only when the run
// succeeds.
package generator

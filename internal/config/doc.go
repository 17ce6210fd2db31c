// Package config defines the settings shared by the generator and the
// registration utility and provides helpers to load, validate and save them
// in YAML format.
//
// Flags given on the command line take precedence over the settings file;
// the release API token is only ever read from the environment.
package config

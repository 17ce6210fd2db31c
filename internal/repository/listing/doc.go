// Package listing persists the configuration listing.
//
// The FileRepository reads the JSON listing, validates it against an
// embedded JSON schema and the uniqueness invariant, and replaces it
// atomically on save.
package listing

// Package kodi reads and writes the files of a Kodi addon repository:
// addon.xml metadata, addon zip archives, the aggregated addons.xml index
// with its MD5 sidecar and the index.html pages Kodi's HTTP browser walks.
package kodi

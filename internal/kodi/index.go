package kodi

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flosch/pongo2/v6"
)

const (
	// IndexFilename is the generated aggregate of every addon.xml.
	IndexFilename = "addons.xml"

	// PageFilename is the directory listing written into every directory.
	PageFilename = "index.html"

	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
)

//nolint:gochecknoglobals // Parsed once from a constant.
var pageTemplate = pongo2.Must(pongo2.FromString(
	"<html><body>\n" +
		"{% for entry in entries %}<a href=\"{{ entry }}\">{{ entry }}</a>\n{% endfor %}" +
		"</body></html>\n",
))

// BuildIndex wraps the given addon.xml documents into a single addons.xml.
// Each document loses its own XML declaration.
func BuildIndex(documents [][]byte) []byte {
	parts := make([]string, 0, len(documents)+2)
	parts = append(parts, xmlDeclaration+"\n<addons>")

	for _, doc := range documents {
		lines := strings.Split(strings.TrimSpace(string(doc)), "\n")
		kept := lines[:0]

		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "<?xml") {
				continue
			}

			kept = append(kept, strings.TrimRight(line, "\r"))
		}

		parts = append(parts, strings.Join(kept, "\n"))
	}

	parts = append(parts, "</addons>\n")

	return []byte(strings.Join(parts, "\n"))
}

// WriteIndex writes addons.xml and its MD5 sidecar into dir.
func WriteIndex(dir string, documents [][]byte) error {
	index := BuildIndex(documents)
	path := filepath.Join(dir, IndexFilename)

	if err := os.WriteFile(path, index, DefaultFileMode); err != nil {
		return fmt.Errorf("write %s: %w", IndexFilename, err)
	}

	if err := os.WriteFile(path+ChecksumSuffix, []byte(MD5Hex(index)), DefaultFileMode); err != nil {
		return fmt.Errorf("write %s%s: %w", IndexFilename, ChecksumSuffix, err)
	}

	return nil
}

// WritePages writes an index.html listing into root and every directory below it.
// The root page links zip files only, for Kodi's "install from zip" browser;
// other pages link subdirectories and then files.
func WritePages(root string) error {
	var dirs []string

	err := filepath.WalkDir(root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			dirs = append(dirs, current)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	for _, dir := range dirs {
		if err = writePage(dir, dir == root); err != nil {
			return err
		}
	}

	return nil
}

// writePage renders the listing of a single directory.
func writePage(dir string, isRoot bool) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	var subdirs, files []string

	for _, child := range children {
		name := child.Name()

		switch {
		case child.IsDir():
			if !isRoot {
				subdirs = append(subdirs, name+"/")
			}
		case name == PageFilename:
		case isRoot && !strings.HasSuffix(name, ".zip"):
		default:
			files = append(files, name)
		}
	}

	page, err := pageTemplate.ExecuteBytes(pongo2.Context{
		"entries": append(subdirs, files...),
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", filepath.Join(dir, PageFilename), err)
	}

	if err = os.WriteFile(filepath.Join(dir, PageFilename), page, DefaultFileMode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Join(dir, PageFilename), err)
	}

	return nil
}

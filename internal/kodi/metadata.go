package kodi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/addon-repository/internal/domain/addon"
)

// MetadataFilename is the descriptor every addon carries at its root.
const MetadataFilename = "addon.xml"

// Metadata holds the root attributes of an addon.xml.
type Metadata struct {
	XMLName  xml.Name `xml:"addon"`
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr"`
	Version  string   `xml:"version,attr"`
	Provider string   `xml:"provider-name,attr"`
}

// ParseMetadata decodes an addon.xml document. The id attribute is required.
func ParseMetadata(data []byte) (*Metadata, error) {
	var meta Metadata

	decoder := xml.NewDecoder(bytes.NewReader(data))
	// addon.xml files in the wild declare encodings other than UTF-8 but use ASCII ids.
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	if err := decoder.Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", addon.ErrParse, MetadataFilename, err)
	}

	meta.ID = strings.TrimSpace(meta.ID)
	if meta.ID == "" {
		return nil, fmt.Errorf("%w: %s has no id attribute", addon.ErrParse, MetadataFilename)
	}

	meta.Version = strings.TrimSpace(meta.Version)

	return &meta, nil
}

// ReadMetadata parses the addon.xml at the root of dir.
func ReadMetadata(dir string) (*Metadata, error) {
	path := filepath.Join(dir, MetadataFilename)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", addon.ErrParse, path)
		}

		return nil, fmt.Errorf("%w: read %s: %v", addon.ErrParse, path, err)
	}

	meta, err := ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return meta, nil
}

package listing

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/xeipuuv/gojsonschema"

	"github.com/oshokin/addon-repository/internal/domain/addon"
)

// Repository defines persistence operations for the configuration listing.
type Repository interface {
	Load(ctx context.Context) (*addon.Listing, error)
	Save(ctx context.Context, listing *addon.Listing) error
}

// FileRepository stores the listing as an indented JSON file.
type FileRepository struct {
	// path is the filesystem location of the listing.
	path string
	// mu serializes access to the file within the process.
	mu sync.Mutex
}

// DefaultFileMode is applied to a listing written by Save.
const DefaultFileMode os.FileMode = 0o644

//go:embed schema.json
var schemaDocument string

//nolint:gochecknoglobals // Compiled once, read-only afterwards.
var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaDocument))
})

// NewFileRepository creates a repository reading and writing the listing at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the listing.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and validates the listing.
func (r *FileRepository) Load(_ context.Context) (*addon.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", addon.ErrConfigNotFound, r.path)
		}

		return nil, fmt.Errorf("read listing %s: %w", r.path, err)
	}

	return Decode(r.path, contents)
}

// Save replaces the listing on disk. The new contents are written next to the
// target and renamed over it once their checksum has been verified.
func (r *FileRepository) Save(_ context.Context, listing *addon.Listing) error {
	if listing == nil {
		return fmt.Errorf("%w: listing is not set", addon.ErrWrite)
	}

	if err := listing.Validate(); err != nil {
		return err
	}

	data, err := Encode(listing)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// go-update renames the current file aside, so it has to exist.
	if _, err = os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(r.path, nil, DefaultFileMode); err != nil {
			return fmt.Errorf("%w: create %s: %v", addon.ErrWrite, r.path, err)
		}
	}

	checksum := sha256.Sum256(data)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: DefaultFileMode,
		Checksum:   checksum[:],
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("%w: replace %s: %v", addon.ErrWrite, r.path, err)
	}

	return nil
}

// Decode validates contents against the listing schema and parses them.
// name identifies the source in error messages.
func Decode(name string, contents []byte) (*addon.Listing, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile listing schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(contents))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", addon.ErrParse, name, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, fmt.Errorf("%w: %s: %s", addon.ErrParse, name, strings.Join(problems, "; "))
	}

	var listing addon.Listing
	if err = json.Unmarshal(contents, &listing); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", addon.ErrParse, name, err)
	}

	if err = listing.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &listing, nil
}

// Encode renders the listing the way it is stored on disk.
func Encode(listing *addon.Listing) ([]byte, error) {
	if listing.Addons == nil {
		listing = &addon.Listing{Addons: []addon.Entry{}}
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(listing); err != nil {
		return nil, fmt.Errorf("encode listing: %w", err)
	}

	return buf.Bytes(), nil
}

package addon

import (
	"fmt"
	"slices"
)

// Listing is the configuration listing: the ordered set of known addons.
type Listing struct {
	Addons []Entry `json:"addons"`
}

// Validate checks every entry and the uniqueness of addon ids.
func (l *Listing) Validate() error {
	seen := make(map[string]struct{}, len(l.Addons))

	for i, entry := range l.Addons {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("addons[%d]: %w", i, err)
		}

		if _, dup := seen[entry.AddonID]; dup {
			return fmt.Errorf("%w: addon_id %s is listed more than once", ErrParse, entry.AddonID)
		}

		seen[entry.AddonID] = struct{}{}
	}

	return nil
}

// Find returns the entry with the given addon id.
func (l *Listing) Find(addonID string) (Entry, bool) {
	i := slices.IndexFunc(l.Addons, func(e Entry) bool {
		return e.AddonID == addonID
	})
	if i < 0 {
		return Entry{}, false
	}

	return l.Addons[i], true
}

// Register returns a copy of listing with entry appended.
// The input is never modified. When an entry with the same addon id exists
// the input is returned as is together with ErrAlreadyRegistered.
func Register(listing *Listing, entry Entry) (*Listing, error) {
	if err := entry.Validate(); err != nil {
		return listing, err
	}

	if listing == nil {
		listing = new(Listing)
	}

	if existing, found := listing.Find(entry.AddonID); found {
		return listing, fmt.Errorf("%w: %s from %s", ErrAlreadyRegistered, existing.AddonID, existing.Repo)
	}

	addons := make([]Entry, 0, len(listing.Addons)+1)
	addons = append(addons, listing.Addons...)
	addons = append(addons, entry)

	return &Listing{Addons: addons}, nil
}

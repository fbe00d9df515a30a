package store

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh identifier for collections and saved requests.
func NewID() string {
	return uuid.New().String()
}

// UpsertRequest replaces the saved request whose id matches req.ID. Collections
// are searched first, in order, then the top-level requests; the first match
// wins. When nothing matches the document is left untouched and ErrNotFound is
// returned.
func (d *Document) UpsertRequest(req SavedRequest) error {
	for ci := range d.Collections {
		apis := d.Collections[ci].APIs
		for ai := range apis {
			if apis[ai].ID == req.ID {
				apis[ai] = req
				return nil
			}
		}
	}

	for ai := range d.APIs {
		if d.APIs[ai].ID == req.ID {
			d.APIs[ai] = req
			return nil
		}
	}

	return fmt.Errorf("request %q: %w", req.ID, ErrNotFound)
}

// FindRequest looks a saved request up with the same search order as
// UpsertRequest. collectionID is empty for top-level requests.
func (d *Document) FindRequest(id string) (req SavedRequest, collectionID string, err error) {
	for _, c := range d.Collections {
		for _, api := range c.APIs {
			if api.ID == id {
				return api, c.ID, nil
			}
		}
	}

	for _, api := range d.APIs {
		if api.ID == id {
			return api, "", nil
		}
	}

	return SavedRequest{}, "", fmt.Errorf("request %q: %w", id, ErrNotFound)
}

// AddCollection appends an empty collection and returns it.
func (d *Document) AddCollection(name string) Collection {
	c := Collection{ID: NewID(), Name: name, APIs: []SavedRequest{}}
	d.Collections = append(d.Collections, c)
	return c
}

// AddRequest appends req to the collection with the given id, or to the
// top-level requests when collectionID is empty. An id is generated when req
// has none.
func (d *Document) AddRequest(collectionID string, req SavedRequest) (SavedRequest, error) {
	if req.ID == "" {
		req.ID = NewID()
	}
	normalizeRequest(&req)

	if collectionID == "" {
		d.APIs = append(d.APIs, req)
		return req, nil
	}

	for ci := range d.Collections {
		if d.Collections[ci].ID == collectionID {
			d.Collections[ci].APIs = append(d.Collections[ci].APIs, req)
			return req, nil
		}
	}

	return SavedRequest{}, fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
}

// RequestCount returns the number of saved requests, nested ones included.
func (d *Document) RequestCount() int {
	n := len(d.APIs)
	for _, c := range d.Collections {
		n += len(c.APIs)
	}
	return n
}

// normalize replaces nil slices with empty ones so every document serializes
// with explicit arrays.
func (d *Document) normalize() {
	if d.Collections == nil {
		d.Collections = []Collection{}
	}
	if d.APIs == nil {
		d.APIs = []SavedRequest{}
	}
	for ci := range d.Collections {
		if d.Collections[ci].APIs == nil {
			d.Collections[ci].APIs = []SavedRequest{}
		}
		for ai := range d.Collections[ci].APIs {
			normalizeRequest(&d.Collections[ci].APIs[ai])
		}
	}
	for ai := range d.APIs {
		normalizeRequest(&d.APIs[ai])
	}
}

func normalizeRequest(r *SavedRequest) {
	if r.Headers == nil {
		r.Headers = []Header{}
	}
	if r.Parameters == nil {
		r.Parameters = []Parameter{}
	}
}

// Package resolve produces the authoritative agreement view for a given id
// and location. Embedded link data is preferred over the local store so a
// second party with no shared storage can still view and approve.
package resolve

import (
	"github.com/sahid-app/sah/internal/linkcode"
	"github.com/sahid-app/sah/internal/models"
	"github.com/sahid-app/sah/internal/store"
)

// Source identifies which channel produced an agreement view.
type Source string

const (
	// SourceEmbedded means the view was reconstructed from a share-link
	// token. Such views are detached pending projections: they never reflect
	// approvals or payments recorded elsewhere.
	SourceEmbedded Source = "embedded"

	// SourceStore means the view came from the local store.
	SourceStore Source = "store"

	// SourceNone means neither channel had the agreement.
	SourceNone Source = "none"
)

// Result is the outcome of a resolution.
type Result struct {
	Agreement models.Agreement
	Source    Source
}

// Found reports whether either channel produced a record. A false result is
// a terminal, user-visible "not found" state, not a retryable error.
func (r Result) Found() bool {
	return r.Source != SourceNone
}

// Resolver resolves agreements against a store and optional embedded data.
type Resolver struct {
	store *store.Store
}

// New creates a Resolver over the given store.
func New(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve inspects rawURL for an embedded token first; a decodable token
// wins over any store record for the same id, even a later-state one. A
// malformed token is treated as "no embedded data" and falls through to the
// store. rawURL and id may each be empty.
func (r *Resolver) Resolve(rawURL, id string) Result {
	if rawURL != "" {
		if payload := linkcode.Decode(linkcode.TokenFromURL(rawURL)); payload != nil {
			return Result{Agreement: payload.Detached(), Source: SourceEmbedded}
		}
		if id == "" {
			id = linkcode.IDFromURL(rawURL)
		}
	}

	if agreement, ok := r.store.Get(id); ok {
		return Result{Agreement: agreement, Source: SourceStore}
	}

	return Result{Source: SourceNone}
}

// Package repolookup defines the port for querying public stock
// repositories (BDSC, VDRC, Kyoto etc.) during imports.
package repolookup

import "context"

// RemoteStock is a single stock as published by a repository.
type RemoteStock struct {
	ExternalID string
	Genotype   string
	Repository string
	Metadata   map[string]string
}

// Service resolves stocks against repository catalogs. Implementations must
// be safe for concurrent use; imports fan lookups out per distinct stock id.
type Service interface {
	// LookupByID returns the stock with the given repository stock id, or
	// nil when not found. repository narrows the search when non-empty.
	LookupByID(ctx context.Context, externalID, repository string) (*RemoteStock, error)
	// FindByGenotype returns stocks whose genotype matches, exact
	// (normalized) matches first, capped at maxResults.
	FindByGenotype(ctx context.Context, genotype string, maxResults int) ([]RemoteStock, error)
}

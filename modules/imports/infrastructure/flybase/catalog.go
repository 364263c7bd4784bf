package flybase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/flyroom/flyroom/modules/imports/domain/repolookup"
)

// Stock is one catalog entry as loaded from the FlyBase stocks dump.
type Stock struct {
	ExternalID string
	FlyBaseID  string
	Genotype   string
	Species    string
	StockType  string
	Collection string
	Repository string
}

// Catalog is an in-memory index over the FlyBase stocks dump. It implements
// repolookup.Service. Loading replaces the whole index atomically, so lookups
// may run concurrently with a refresh.
type Catalog struct {
	mu           sync.RWMutex
	byRepository map[string]map[string]Stock
	dataVersion  string
}

func NewCatalog() *Catalog {
	return &Catalog{byRepository: make(map[string]map[string]Stock)}
}

// Replace swaps the index for a freshly loaded one.
func (c *Catalog) Replace(stocks []Stock, dataVersion string) {
	byRepository := make(map[string]map[string]Stock)
	for _, s := range stocks {
		if s.ExternalID == "" {
			continue
		}
		repo := s.Repository
		if repo == "" {
			repo = "other"
		}
		if byRepository[repo] == nil {
			byRepository[repo] = make(map[string]Stock)
		}
		byRepository[repo][s.ExternalID] = s
	}

	c.mu.Lock()
	c.byRepository = byRepository
	c.dataVersion = dataVersion
	c.mu.Unlock()
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, stocks := range c.byRepository {
		total += len(stocks)
	}
	return total
}

func (c *Catalog) DataVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dataVersion
}

// LookupByID finds a stock by its repository stock number. When repository is
// empty every repository is searched.
func (c *Catalog) LookupByID(_ context.Context, externalID, repository string) (*repolookup.RemoteStock, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if repository != "" {
		if s, ok := c.byRepository[repository][externalID]; ok {
			return c.toRemote(s), nil
		}
		return nil, nil
	}
	for _, repo := range c.sortedRepositories() {
		if s, ok := c.byRepository[repo][externalID]; ok {
			return c.toRemote(s), nil
		}
	}
	return nil, nil
}

// FindByGenotype returns stocks matching the genotype: normalized-exact
// matches first, then containment matches, then fuzzy matches, capped at
// maxResults.
func (c *Catalog) FindByGenotype(_ context.Context, genotype string, maxResults int) ([]repolookup.RemoteStock, error) {
	query := normalizeGenotype(genotype)
	if query == "" || maxResults <= 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var exact, partial, fuzzyMatches []repolookup.RemoteStock
	for _, repo := range c.sortedRepositories() {
		for _, s := range c.byRepository[repo] {
			candidate := normalizeGenotype(s.Genotype)
			if candidate == "" {
				continue
			}
			switch {
			case candidate == query:
				exact = append(exact, *c.toRemote(s))
				if len(exact) >= maxResults {
					return exact[:maxResults], nil
				}
			case len(partial) < maxResults &&
				(strings.Contains(candidate, query) || strings.Contains(query, candidate)):
				partial = append(partial, *c.toRemote(s))
			case len(fuzzyMatches) < maxResults && fuzzy.MatchNormalizedFold(query, candidate):
				fuzzyMatches = append(fuzzyMatches, *c.toRemote(s))
			}
		}
	}

	results := append(exact, partial...)
	results = append(results, fuzzyMatches...)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func (c *Catalog) sortedRepositories() []string {
	repos := make([]string, 0, len(c.byRepository))
	for repo := range c.byRepository {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	return repos
}

func (c *Catalog) toRemote(s Stock) *repolookup.RemoteStock {
	metadata := map[string]string{
		"repository":      s.Repository,
		"repository_name": repositoryName(s.Repository),
		"collection":      s.Collection,
		"species":         s.Species,
		"stock_type":      s.StockType,
	}
	if s.FlyBaseID != "" {
		metadata["flybase_id"] = s.FlyBaseID
		metadata["flybase_url"] = flyBaseURL(s.FlyBaseID)
	}
	if url := repositoryURL(s.Repository, s.ExternalID); url != "" {
		metadata["repository_url"] = url
	}
	if c.dataVersion != "" {
		metadata["data_version"] = c.dataVersion
	}
	return &repolookup.RemoteStock{
		ExternalID: s.ExternalID,
		Genotype:   s.Genotype,
		Repository: s.Repository,
		Metadata:   metadata,
	}
}

func normalizeGenotype(genotype string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(genotype)), " ")
	return strings.ReplaceAll(normalized, ";", ",")
}

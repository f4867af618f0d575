package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
)

// maxCategoryEdits is the edit distance tolerated by the search tier.
const maxCategoryEdits = 2

// categoryDoc is what the search tier indexes per category.
type categoryDoc struct {
	Name string `json:"name"`
}

// categoryResolver maps category texts from a statement to the owner's
// categories. Tiers, in order: case-insensitive exact match, subsequence
// match ranked by distance, then a full-text search tolerating typos.
type categoryResolver struct {
	names []string
	ids   []uuid.UUID
	cache map[string]*uuid.UUID

	index     bleve.Index
	indexErr  error
	indexOnce bool
}

func newCategoryResolver(categories []repository.Category) *categoryResolver {
	r := &categoryResolver{
		names: make([]string, len(categories)),
		ids:   make([]uuid.UUID, len(categories)),
		cache: make(map[string]*uuid.UUID),
	}
	for i, c := range categories {
		r.names[i] = c.Name
		r.ids[i] = c.ID
	}
	return r
}

// Resolve returns the matching category id, or nil.
func (r *categoryResolver) Resolve(text string) *uuid.UUID {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" || len(r.names) == 0 {
		return nil
	}
	if id, ok := r.cache[key]; ok {
		return id
	}

	var match *uuid.UUID
	for i, name := range r.names {
		if strings.EqualFold(strings.TrimSpace(name), key) {
			match = &r.ids[i]
			break
		}
	}
	if match == nil {
		ranks := fuzzy.RankFindNormalizedFold(key, r.names)
		if len(ranks) > 0 {
			sort.Stable(ranks)
			match = &r.ids[ranks[0].OriginalIndex]
		}
	}
	if match == nil {
		match = r.search(key)
	}

	r.cache[key] = match
	return match
}

// search queries an in-memory index of the category names, built on first
// use. Index failures disable the tier.
func (r *categoryResolver) search(key string) *uuid.UUID {
	if !r.indexOnce {
		r.indexOnce = true
		r.index, r.indexErr = r.buildIndex()
	}
	if r.indexErr != nil {
		return nil
	}

	query := bleve.NewMatchQuery(key)
	query.SetField("name")
	query.SetFuzziness(maxCategoryEdits)

	req := bleve.NewSearchRequestOptions(query, 1, 0, false)
	res, err := r.index.Search(req)
	if err != nil || len(res.Hits) == 0 {
		return nil
	}
	i, err := strconv.Atoi(res.Hits[0].ID)
	if err != nil || i < 0 || i >= len(r.ids) {
		return nil
	}
	return &r.ids[i]
}

func (r *categoryResolver) buildIndex() (bleve.Index, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, err
	}
	batch := index.NewBatch()
	for i, name := range r.names {
		if err := batch.Index(strconv.Itoa(i), categoryDoc{Name: name}); err != nil {
			return nil, err
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, err
	}
	return index, nil
}

// Close releases the search index, if one was built.
func (r *categoryResolver) Close() error {
	if r.index == nil {
		return nil
	}
	return r.index.Close()
}

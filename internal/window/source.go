package window

import (
	"context"

	"github.com/csheth/artscout/internal/artic"
)

// Batch is one normalized page. TotalPages is only meaningful when
// TotalKnown is set.
type Batch struct {
	Records    []artic.Artwork
	TotalPages int
	TotalKnown bool
}

// PageSource loads a single page by number.
type PageSource interface {
	Page(ctx context.Context, page int) (Batch, error)
}

// Fetcher executes one catalog request. *artic.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, q artic.QueryDescriptor) (artic.Result, error)
}

// SearchSource pages through catalog search results.
type SearchSource struct {
	Fetcher Fetcher
	BaseURL string
	Term    string
	Filters artic.Filters
}

// Page implements PageSource.
func (s SearchSource) Page(ctx context.Context, page int) (Batch, error) {
	res, err := s.Fetcher.Fetch(ctx, artic.SearchQuery(s.BaseURL, s.Term, s.Filters, page))
	if err != nil {
		return Batch{}, err
	}
	batch := Batch{Records: artic.NormalizeBatch(res.Records)}
	if res.Pagination != nil {
		batch.TotalPages = res.Pagination.TotalPages
		batch.TotalKnown = true
	}
	return batch, nil
}

// IDListSource pages through a fixed list of artwork ids, such as favorites.
type IDListSource struct {
	Fetcher Fetcher
	BaseURL string
	IDs     []int
}

// Page implements PageSource.
func (s IDListSource) Page(ctx context.Context, page int) (Batch, error) {
	res, err := s.Fetcher.Fetch(ctx, artic.IDQuery(s.BaseURL, s.IDs, page))
	if err != nil {
		return Batch{}, err
	}
	return Batch{
		Records:    artic.NormalizeBatch(res.Records),
		TotalPages: s.PageLimit(),
		TotalKnown: true,
	}, nil
}

// PageLimit is the number of pages the id list spans.
func (s IDListSource) PageLimit() int {
	return artic.IDPageCount(len(s.IDs))
}

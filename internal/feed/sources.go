package feed

import (
	"context"
	"log"
)

// CandidateSource supplies raw pairs for one scan tick.
type CandidateSource interface {
	// Name identifies the source in logs.
	Name() string

	// Fetch returns raw pairs. May include pairs from other chains; the
	// normalizer filters by chain. Returns ErrUnavailable on transient failure.
	Fetch(ctx context.Context) ([]Pair, error)
}

// TrendingSource fetches the trending token list and resolves each token to
// its pairs on the target chain. Primary source.
type TrendingSource struct {
	client  *Client
	chainID string
}

// NewTrendingSource creates a trending-tokens source for the given chain.
func NewTrendingSource(client *Client, chainID string) *TrendingSource {
	return &TrendingSource{client: client, chainID: chainID}
}

// Name identifies the source in logs.
func (s *TrendingSource) Name() string { return "trending" }

// Fetch resolves trending tokens on the target chain to their pairs.
func (s *TrendingSource) Fetch(ctx context.Context) ([]Pair, error) {
	boosts, err := s.client.TrendingTokens(ctx)
	if err != nil {
		return nil, err
	}

	var addresses []string
	for _, b := range boosts {
		if b.ChainID == s.chainID && b.TokenAddress != "" {
			addresses = append(addresses, b.TokenAddress)
		}
	}
	if len(addresses) == 0 {
		return nil, nil
	}

	return s.client.TokenPairs(ctx, s.chainID, addresses)
}

// SearchSource fetches pairs through the free-text search endpoint.
// Fallback when the trending list yields nothing for the target chain.
type SearchSource struct {
	client *Client
	query  string
}

// NewSearchSource creates a search-backed source with the given query.
func NewSearchSource(client *Client, query string) *SearchSource {
	return &SearchSource{client: client, query: query}
}

// Name identifies the source in logs.
func (s *SearchSource) Name() string { return "search" }

// Fetch returns pairs matching the configured query.
func (s *SearchSource) Fetch(ctx context.Context) ([]Pair, error) {
	return s.client.SearchPairs(ctx, s.query)
}

// Sources tries candidate sources in priority order until one yields pairs.
type Sources struct {
	sources []CandidateSource
	logger  *log.Logger
}

// NewSources creates a prioritized source chain.
func NewSources(logger *log.Logger, sources ...CandidateSource) *Sources {
	if logger == nil {
		logger = log.Default()
	}
	return &Sources{sources: sources, logger: logger}
}

// Fetch returns the pairs of the first source that yields any. A failing
// source is logged and skipped; only all sources failing is an error.
func (s *Sources) Fetch(ctx context.Context) ([]Pair, error) {
	var lastErr error
	for _, src := range s.sources {
		pairs, err := src.Fetch(ctx)
		if err != nil {
			s.logger.Printf("source %s failed: %v", src.Name(), err)
			lastErr = err
			continue
		}
		if len(pairs) > 0 {
			return pairs, nil
		}
		s.logger.Printf("source %s returned no pairs, trying next", src.Name())
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

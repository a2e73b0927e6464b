package domain

// Candidate is a normalized, single-tick snapshot of a tradeable token.
// Built by the normalizer from raw feed pairs and discarded after one
// evaluation pass; never retained across ticks.
type Candidate struct {
	Address        string  // token mint address, unique per candidate
	Symbol         string  // ticker symbol, as reported by the feed
	PriceUSD       float64 // spot price in USD, > 0 after normalization
	PriceChange24h float64 // 24h change in percent, signed
	Volume24h      float64 // 24h traded volume in USD
	Liquidity      float64 // pool liquidity depth in USD
	MarketCap      float64 // fully-diluted market cap in USD
	Pool           string  // pool (pair) address, deduplication key
}

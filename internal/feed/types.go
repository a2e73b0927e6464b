// Package feed talks to the market-data provider: a DexScreener-style HTTP
// API serving trending tokens and live pair snapshots. The feed is noisy by
// nature; callers treat missing fields and transient failures as expected.
package feed

// Token identifies one side of a trading pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// PairVolume holds rolling traded volume in USD.
type PairVolume struct {
	H24 float64 `json:"h24"`
	H6  float64 `json:"h6"`
	H1  float64 `json:"h1"`
}

// PairLiquidity holds pool depth.
type PairLiquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// PriceChange holds rolling price change in percent, signed.
type PriceChange struct {
	H24 float64 `json:"h24"`
	H6  float64 `json:"h6"`
	H1  float64 `json:"h1"`
}

// Pair is one raw market record as served by the feed. Numeric price comes
// as a string; nested objects may be absent entirely. The normalizer decides
// what is usable.
type Pair struct {
	ChainID     string         `json:"chainId"`
	DexID       string         `json:"dexId"`
	PairAddress string         `json:"pairAddress"`
	BaseToken   Token          `json:"baseToken"`
	QuoteToken  Token          `json:"quoteToken"`
	PriceUSD    string         `json:"priceUsd"`
	PriceChange *PriceChange   `json:"priceChange"`
	Volume      *PairVolume    `json:"volume"`
	Liquidity   *PairLiquidity `json:"liquidity"`
	FDV         float64        `json:"fdv"`
}

// TokenBoost is one entry of the trending (boosted) tokens endpoint.
type TokenBoost struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

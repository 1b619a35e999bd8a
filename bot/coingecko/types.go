package coingecko

// Market is a single row of the /coins/markets listing.
type Market struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	CurrentPrice float64  `json:"current_price"`
	MarketCap    *float64 `json:"market_cap"`
	MarketCapRnk int      `json:"market_cap_rank"`
}

// TrendingCoin is one entry of the /search/trending response.
type TrendingCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

type trendingItem struct {
	Item TrendingCoin `json:"item"`
}

type trendingResponse struct {
	Coins []trendingItem `json:"coins"`
}

// SearchCoin is one coin entry of the /search response.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

type searchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// Quote holds a single asset/currency price snapshot. Optional fields stay
// nil when the upstream omits them.
type Quote struct {
	AssetID  string
	Currency string

	Price     float64
	Change24h *float64
	MarketCap *float64
	Volume24h *float64
}

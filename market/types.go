package market

import "time"

// Coin is one row of the coins/markets listing.
type Coin struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
	PriceChange24h           float64 `json:"price_change_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	CirculatingSupply        float64 `json:"circulating_supply"`
	TotalSupply              float64 `json:"total_supply"`
	ATH                      float64 `json:"ath"`
	ATHChangePercentage      float64 `json:"ath_change_percentage"`
	LastUpdated              string  `json:"last_updated"`
	SparklineIn7d            *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d,omitempty"`
}

// SearchResult is the response of the /search endpoint.
type SearchResult struct {
	Coins []SearchCoin `json:"coins"`
}

// SearchCoin is one coin hit from /search.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

// GlobalData is the payload of the /global endpoint.
type GlobalData struct {
	Data struct {
		ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
		Markets                int                `json:"markets"`
		TotalMarketCap         map[string]float64 `json:"total_market_cap"`
		TotalVolume            map[string]float64 `json:"total_volume"`
		MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
		MarketCapChange24hUSD  float64            `json:"market_cap_change_percentage_24h_usd"`
		UpdatedAt              int64              `json:"updated_at"`
	} `json:"data"`
}

// CoinDetail is the /coins/{id} payload with the fields the dashboard uses,
// including the developer and community stats.
type CoinDetail struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage []string `json:"homepage"`
		ReposURL struct {
			Github []string `json:"github"`
		} `json:"repos_url"`
		TwitterScreenName string `json:"twitter_screen_name"`
		SubredditURL      string `json:"subreddit_url"`
	} `json:"links"`
	MarketCapRank int `json:"market_cap_rank"`
	MarketData    struct {
		CurrentPrice             map[string]float64 `json:"current_price"`
		MarketCap                map[string]float64 `json:"market_cap"`
		TotalVolume              map[string]float64 `json:"total_volume"`
		PriceChangePercentage24h float64            `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  float64            `json:"price_change_percentage_7d"`
		PriceChangePercentage30d float64            `json:"price_change_percentage_30d"`
		CirculatingSupply        float64            `json:"circulating_supply"`
		TotalSupply              float64            `json:"total_supply"`
	} `json:"market_data"`
	CommunityData struct {
		TwitterFollowers         int `json:"twitter_followers"`
		RedditSubscribers        int `json:"reddit_subscribers"`
		TelegramChannelUserCount int `json:"telegram_channel_user_count"`
	} `json:"community_data"`
	DeveloperData struct {
		Forks              int `json:"forks"`
		Stars              int `json:"stars"`
		Subscribers        int `json:"subscribers"`
		TotalIssues        int `json:"total_issues"`
		ClosedIssues       int `json:"closed_issues"`
		PullRequestsMerged int `json:"pull_requests_merged"`
		CommitCount4Weeks  int `json:"commit_count_4_weeks"`
	} `json:"developer_data"`
	LastUpdated string `json:"last_updated"`
}

// OHLCEntry is one candle from /coins/{id}/ohlc.
type OHLCEntry struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// MarketChart is the /coins/{id}/market_chart payload. Each entry is a
// [unix_ms, value] pair.
type MarketChart struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// Category is one row of /coins/categories.
type Category struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	MarketCap          float64 `json:"market_cap"`
	MarketCapChange24h float64 `json:"market_cap_change_24h"`
	Volume24h          float64 `json:"volume_24h"`
	Content            string  `json:"content"`
}

// StatusUpdate is one project status update entry.
type StatusUpdate struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
	User        string `json:"user"`
	UserTitle   string `json:"user_title"`
	Project     struct {
		Type   string `json:"type"`
		ID     string `json:"id"`
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"project"`
}

package tools

import (
	"github.com/marketmind/marketmind/models"
)

// GetTokenPriceTool returns a FunctionDeclaration for the token price lookup.
func (t *Toolbox) GetTokenPriceTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_token_price",
		Description: "Get the current price, 24h change, volume and market cap for a cryptocurrency.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"token_id": map[string]interface{}{
					"type":        "string",
					"description": "CoinGecko token id, e.g. 'bitcoin' or 'ethereum'",
				},
			},
			Required: []string{"token_id"},
		},
		Callable: t.GetTokenPrice,
	}
}

// GetMarketDataTool returns a FunctionDeclaration for the market overview.
func (t *Toolbox) GetMarketDataTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_market_data",
		Description: "Get an overview of the crypto market: top coins by market cap plus global statistics.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of top coins to return (default 10, max 50)",
				},
			},
		},
		Callable: t.GetMarketData,
	}
}

// SearchTokensTool returns a FunctionDeclaration for token search.
func (t *Toolbox) SearchTokensTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "search_tokens",
		Description: "Search for cryptocurrencies by name or ticker symbol. Returns matching token ids.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Name or symbol to search for",
				},
			},
			Required: []string{"query"},
		},
		Callable: t.SearchTokens,
	}
}

// GetHistoricalDataTool returns a FunctionDeclaration for OHLC history.
func (t *Toolbox) GetHistoricalDataTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_historical_data",
		Description: "Get historical OHLC candle data for a cryptocurrency over a number of days.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"token_id": map[string]interface{}{
					"type":        "string",
					"description": "CoinGecko token id",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Number of days of history (default 14)",
				},
			},
			Required: []string{"token_id"},
		},
		Callable: t.GetHistoricalData,
	}
}

// GetCryptoNewsTool returns a FunctionDeclaration for the news lookup.
func (t *Toolbox) GetCryptoNewsTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_crypto_news",
		Description: "Get recent cryptocurrency news articles, optionally filtered by topic.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Topic or token to filter news by",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of articles (default 5)",
				},
			},
		},
		Callable: t.GetCryptoNews,
	}
}

// AnalyzeTrendTool returns a FunctionDeclaration for trend analysis.
func (t *Toolbox) AnalyzeTrendTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "analyze_trend",
		Description: "Analyze recent price action for a token: trend direction, momentum and moving average.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"token_id": map[string]interface{}{
					"type":        "string",
					"description": "CoinGecko token id",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Lookback window in days (default 14)",
				},
			},
			Required: []string{"token_id"},
		},
		Callable: t.AnalyzeTrend,
	}
}

// GenerateTradingSignalTool returns a FunctionDeclaration for signal
// generation.
func (t *Toolbox) GenerateTradingSignalTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "generate_trading_signal",
		Description: "Generate a buy/sell/hold trading signal with confidence for a cryptocurrency.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"token_id": map[string]interface{}{
					"type":        "string",
					"description": "CoinGecko token id",
				},
			},
			Required: []string{"token_id"},
		},
		Callable: t.GenerateTradingSignal,
	}
}

// ConnectWebsocketTool returns a FunctionDeclaration for live feed
// subscription.
func (t *Toolbox) ConnectWebsocketTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "connect_websocket",
		Description: "Subscribe to a live price feed for a token. Use get_websocket_data to read updates.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"token_id": map[string]interface{}{
					"type":        "string",
					"description": "Token id to stream prices for",
				},
			},
			Required: []string{"token_id"},
		},
		Callable: t.ConnectWebsocket,
	}
}

// DisconnectWebsocketTool returns a FunctionDeclaration for feed teardown.
func (t *Toolbox) DisconnectWebsocketTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "disconnect_websocket",
		Description: "Unsubscribe from a token's live price feed.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"token_id": map[string]interface{}{
					"type":        "string",
					"description": "Token id to stop streaming",
				},
			},
			Required: []string{"token_id"},
		},
		Callable: t.DisconnectWebsocket,
	}
}

// GetWebsocketDataTool returns a FunctionDeclaration for reading feed data.
func (t *Toolbox) GetWebsocketDataTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_websocket_data",
		Description: "Read the buffered live price updates for a connected token.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"token_id": map[string]interface{}{
					"type":        "string",
					"description": "Token id with an active feed connection",
				},
			},
			Required: []string{"token_id"},
		},
		Callable: t.GetWebsocketData,
	}
}

// Tools returns every dashboard tool declaration.
func (t *Toolbox) Tools() []models.FunctionDeclaration {
	return []models.FunctionDeclaration{
		t.GetTokenPriceTool(),
		t.GetMarketDataTool(),
		t.SearchTokensTool(),
		t.GetHistoricalDataTool(),
		t.GetCryptoNewsTool(),
		t.AnalyzeTrendTool(),
		t.GenerateTradingSignalTool(),
		t.ConnectWebsocketTool(),
		t.DisconnectWebsocketTool(),
		t.GetWebsocketDataTool(),
	}
}

package main

import (
	"log"

	marketmind "github.com/marketmind/marketmind"
	"github.com/marketmind/marketmind/market"
	"github.com/marketmind/marketmind/models/gemini"
	"github.com/marketmind/marketmind/models/groq"
	"github.com/marketmind/marketmind/models/perplexity"
	"github.com/marketmind/marketmind/news"
	"github.com/marketmind/marketmind/server"
	"github.com/marketmind/marketmind/sessions"
	"github.com/marketmind/marketmind/signals"
	"github.com/marketmind/marketmind/social"
	"github.com/marketmind/marketmind/stores"
	"github.com/marketmind/marketmind/tools"
)

const systemPrompt = `You are the assistant built into a cryptocurrency dashboard. You help users
understand prices, market trends, news and trading signals. Use the available
tools to fetch live data instead of guessing. Keep answers concise and note
that nothing you say is financial advice.`

const tokenHistoryFile = "marketmind_tokens.json"

func main() {
	cfg, err := marketmind.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, err := stores.NewStore(stores.NewStoreConfig(cfg.StoreType, cfg.StoreDSN))
	if err != nil {
		log.Fatalf("failed to open thread store: %v", err)
	}
	defer store.Close()

	tokenHistory, err := stores.NewTokenHistory(tokenHistoryFile)
	if err != nil {
		log.Fatalf("failed to open token history: %v", err)
	}

	marketClient := market.NewClient(cfg.CoinGeckoAPIKey)
	newsClient := news.NewClient(cfg.NewsPrimaryURL, cfg.NewsSecondaryURL, cfg.NewsAPIKey)
	socialClient := social.NewClient(cfg.SocialBaseURL, cfg.SocialBearer)

	generator := signals.NewGenerator(marketClient)
	refresher := signals.NewRefresher(generator, cfg.SignalTokens, cfg.SignalRefreshInterval, nil)
	if err := refresher.Start(); err != nil {
		log.Fatalf("failed to start signal refresher: %v", err)
	}
	defer refresher.Stop()

	feed := tools.NewFeed()
	defer feed.Close()

	toolbox := &tools.Toolbox{
		Market:    marketClient,
		News:      newsClient,
		Generator: generator,
		Feed:      feed,
		History:   tokenHistory,
	}
	registry := tools.NewRegistry(toolbox.Tools()...)

	model := buildModel(cfg, registry)
	agent := marketmind.Create_Agent(model, registry.Declarations())

	chat := sessions.NewChatService(store, &agent, sessions.DefaultResponseFilter(), nil)

	srv := server.New(chat, marketClient, newsClient, socialClient, refresher, tokenHistory, nil)
	router := srv.Router()

	log.Printf("marketmind listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// buildModel picks the chat provider from the configured keys: Groq when its
// key is present, Gemini otherwise, with Perplexity as the streaming
// fallback when configured.
func buildModel(cfg *marketmind.Config, registry *tools.Registry) marketmind.Model {
	var primary marketmind.Model
	if cfg.GroqAPIKey != "" || cfg.GeminiAPIKey == "" {
		primary = &groq.Groq_Model{
			Model:        cfg.GroqModel,
			APIKey:       cfg.GroqAPIKey,
			SystemPrompt: systemPrompt,
			Executor:     registry,
		}
	} else {
		primary = &gemini.Gemini_Model{
			SystemPrompt: systemPrompt,
		}
	}

	if cfg.PerplexityAPIKey == "" {
		return primary
	}
	return &marketmind.FallbackModel{
		Primary: primary,
		Fallback: &perplexity.Perplexity_Model{
			Model:        cfg.PerplexityModel,
			APIKey:       cfg.PerplexityAPIKey,
			SystemPrompt: systemPrompt,
		},
	}
}

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketmind/marketmind/market"
	"github.com/marketmind/marketmind/news"
	"github.com/marketmind/marketmind/social"
)

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// writeMarketError maps market client failures to HTTP statuses: 429 keeps
// its meaning so the frontend can back off.
func (s *Server) writeMarketError(c *gin.Context, err error) {
	var rlErr *market.RateLimitError
	if errors.As(err, &rlErr) {
		if rlErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(rlErr.RetryAfter.Seconds())))
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func (s *Server) handleMarketCoins(c *gin.Context) {
	var ids []string
	if raw := c.Query("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", 20)

	coins, err := s.Market.Markets(c.Request.Context(), c.Query("vs_currency"), ids, page, perPage)
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

func (s *Server) handleCoinDetail(c *gin.Context) {
	coinID := c.Param("coinID")
	detail, err := s.Market.CoinDetail(c.Request.Context(), coinID)
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "coin not found"})
		return
	}

	if s.History != nil {
		s.History.Record(detail.ID, detail.Symbol, detail.Name)
	}
	c.JSON(http.StatusOK, gin.H{"coin": detail})
}

func (s *Server) handleCoinOHLC(c *gin.Context) {
	coinID := c.Param("coinID")
	days := intQuery(c, "days", 14)

	candles, err := s.Market.OHLC(c.Request.Context(), coinID, c.Query("vs_currency"), days)
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	if candles == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "coin not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candles": candles})
}

// handleCoinChart serves price/cap/volume series for the chart widget.
func (s *Server) handleCoinChart(c *gin.Context) {
	coinID := c.Param("coinID")
	days := intQuery(c, "days", 7)
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	chart, err := s.Market.MarketChartRange(c.Request.Context(), coinID, c.Query("vs_currency"), from, to)
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	if chart == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "coin not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chart": chart})
}

func (s *Server) handleStatusUpdates(c *gin.Context) {
	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", 10)

	updates, err := s.Market.StatusUpdates(c.Request.Context(), page, perPage)
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status_updates": updates})
}

func (s *Server) handleMarketSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}

	result, err := s.Market.Search(c.Request.Context(), query)
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": result.Coins})
}

func (s *Server) handleMarketGlobal(c *gin.Context) {
	data, err := s.Market.Global(c.Request.Context())
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"global": data.Data})
}

func (s *Server) handleMarketCategories(c *gin.Context) {
	categories, err := s.Market.Categories(c.Request.Context())
	if err != nil {
		s.writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// handleNews serves provider articles, degrading to samples so the panel is
// never empty.
func (s *Server) handleNews(c *gin.Context) {
	limit := intQuery(c, "limit", 10)

	articles, err := s.News.Latest(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		s.Logger.Printf("news providers unavailable, serving samples: %v", err)
		c.JSON(http.StatusOK, gin.H{"articles": news.SampleArticles(), "sample": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// handleSocial serves timeline posts, degrading to samples on failure.
func (s *Server) handleSocial(c *gin.Context) {
	limit := intQuery(c, "limit", 10)

	var posts []social.Post
	var err error
	if query := c.Query("q"); query != "" {
		posts, err = s.Social.SearchPosts(c.Request.Context(), query, limit)
	} else {
		posts, err = s.Social.ListTimeline(c.Request.Context(), c.Query("topic"), limit)
	}
	if err != nil {
		s.Logger.Printf("social provider unavailable, serving samples: %v", err)
		c.JSON(http.StatusOK, gin.H{"posts": social.SamplePosts(), "sample": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleSignals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signals": s.Signals.Latest()})
}

func (s *Server) handleSignalForToken(c *gin.Context) {
	signal := s.Signals.Get(c.Param("tokenID"))
	if signal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no signal for token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signal": signal})
}

func (s *Server) handleTokenHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tokens": s.History.List()})
}

func (s *Server) handleClearTokenHistory(c *gin.Context) {
	s.History.Clear()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

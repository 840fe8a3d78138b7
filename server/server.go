// Package server exposes the dashboard backend over HTTP: chat (JSON, SSE
// and WebSocket), thread management, market data, news, social posts and
// trading signals.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/marketmind/marketmind/market"
	"github.com/marketmind/marketmind/models"
	"github.com/marketmind/marketmind/news"
	"github.com/marketmind/marketmind/sessions"
	"github.com/marketmind/marketmind/signals"
	"github.com/marketmind/marketmind/social"
	"github.com/marketmind/marketmind/stores"
)

// Server wires the dashboard services into gin routes.
type Server struct {
	Chat    *sessions.ChatService
	Market  *market.Client
	News    *news.Client
	Social  *social.Client
	Signals *signals.Refresher
	History *stores.TokenHistory
	Logger  *log.Logger

	upgrader websocket.Upgrader
}

func New(chat *sessions.ChatService, marketClient *market.Client, newsClient *news.Client, socialClient *social.Client, refresher *signals.Refresher, history *stores.TokenHistory, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Chat:    chat,
		Market:  marketClient,
		News:    newsClient,
		Social:  socialClient,
		Signals: refresher,
		History: history,
		Logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", s.handleWebSocket)

	r := router.Group("/api/v1")

	// Chat
	r.POST("/chat", s.handleChat)
	r.POST("/chat/:threadID", s.handleChatToThread)
	r.POST("/chat/stream", s.handleChatStream)
	r.POST("/chat/stream/:threadID", s.handleChatStreamToThread)

	// Threads
	r.GET("/threads", s.handleListThreads)
	r.GET("/threads/:threadID", s.handleGetThread)
	r.POST("/threads/:threadID/select", s.handleSelectThread)
	r.POST("/threads/:threadID/read", s.handleMarkRead)
	r.DELETE("/threads/:threadID", s.handleDeleteThread)
	r.GET("/threads/unread_count", s.handleUnreadCount)

	// Market data
	r.GET("/market/coins", s.handleMarketCoins)
	r.GET("/market/coins/:coinID", s.handleCoinDetail)
	r.GET("/market/coins/:coinID/ohlc", s.handleCoinOHLC)
	r.GET("/market/coins/:coinID/chart", s.handleCoinChart)
	r.GET("/market/search", s.handleMarketSearch)
	r.GET("/market/global", s.handleMarketGlobal)
	r.GET("/market/categories", s.handleMarketCategories)
	r.GET("/market/status_updates", s.handleStatusUpdates)

	// News, social, signals
	r.GET("/news", s.handleNews)
	r.GET("/social", s.handleSocial)
	r.GET("/signals", s.handleSignals)
	r.GET("/signals/:tokenID", s.handleSignalForToken)

	// Token selection history
	r.GET("/tokens/history", s.handleTokenHistory)
	r.DELETE("/tokens/history", s.handleClearTokenHistory)

	return router
}

// chatRequest is the inbound body for the chat endpoints.
type chatRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := s.Chat.SendMessage(c.Request.Context(), req.Content, nil)
	if err != nil {
		s.writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

func (s *Server) handleChatToThread(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := s.Chat.SendMessageToThread(c.Request.Context(), c.Param("threadID"), req.Content, nil)
	if err != nil {
		s.writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

func (s *Server) handleChatStream(c *gin.Context) {
	s.streamChat(c, "")
}

func (s *Server) handleChatStreamToThread(c *gin.Context) {
	s.streamChat(c, c.Param("threadID"))
}

// streamChat runs one turn and forwards stream events to the client as SSE.
func (s *Server) streamChat(c *gin.Context, threadID string) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writer := &GinSSEWriter{Context: c}
	sink := func(event models.StreamEvent) {
		if event.Type == models.StreamError {
			writer.WriteSSEError(event.Err)
			return
		}
		data, err := json.Marshal(event)
		if err != nil {
			s.Logger.Printf("failed to encode stream event: %v", err)
			return
		}
		writer.WriteSSE(string(data))
	}

	var thread *models.Thread
	var err error
	if threadID != "" {
		thread, err = s.Chat.SendMessageToThread(c.Request.Context(), threadID, req.Content, sink)
	} else {
		thread, err = s.Chat.SendMessage(c.Request.Context(), req.Content, sink)
	}
	if err != nil {
		writer.WriteSSEError(err)
		return
	}

	// Terminal event carrying the updated thread for the client to render.
	data, err := json.Marshal(gin.H{"type": "thread", "thread": thread})
	if err != nil {
		s.Logger.Printf("failed to encode thread event: %v", err)
		return
	}
	writer.WriteSSE(string(data))
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	session := sessions.NewSocketSession(s.Chat, conn, s.Logger)
	session.Run(c.Request.Context())
}

func (s *Server) writeChatError(c *gin.Context, err error) {
	switch {
	case err == sessions.ErrBusy:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err == stores.ErrThreadNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleListThreads(c *gin.Context) {
	infos, err := s.Chat.ListThreads()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": infos})
}

func (s *Server) handleGetThread(c *gin.Context) {
	thread, err := s.Chat.GetThread(c.Param("threadID"))
	if err != nil {
		if err == stores.ErrThreadNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

func (s *Server) handleSelectThread(c *gin.Context) {
	if err := s.Chat.SelectThread(c.Param("threadID")); err != nil {
		if err == stores.ErrThreadNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": c.Param("threadID")})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	// SelectThread already marks read; this endpoint covers marking without
	// switching the active thread.
	thread, err := s.Chat.GetThread(c.Param("threadID"))
	if err != nil {
		if err == stores.ErrThreadNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.Chat.SelectThread(thread.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (s *Server) handleDeleteThread(c *gin.Context) {
	if err := s.Chat.DeleteThread(c.Param("threadID")); err != nil {
		if err == stores.ErrThreadNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	count, err := s.Chat.UnreadCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// GinSSEWriter implements sessions.SSEWriter for a gin context.
type GinSSEWriter struct {
	Context *gin.Context
}

func (w *GinSSEWriter) WriteSSE(data string) error {
	w.Context.SSEvent("message", data)
	w.Context.Writer.Flush()
	return nil
}

func (w *GinSSEWriter) WriteSSEError(err error) error {
	w.Context.SSEvent("error", err.Error())
	w.Context.Writer.Flush()
	return nil
}

func (w *GinSSEWriter) Flush() {
	w.Context.Writer.Flush()
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleHealth reports process and database liveness.
func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}

// handleScannerStatus returns the scan loop snapshot.
func (s *Server) handleScannerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scanner.Status())
}

// handleTrendingList returns the persisted active watchlist.
func (s *Server) handleTrendingList(c *gin.Context) {
	tokens, err := s.repo.GetActiveWatchlist(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(tokens), "tokens": tokens})
}

// handleFetchTokens triggers an immediate trending fetch, bypassing the
// scanner cadence. Useful when ops wants fresh data now.
func (s *Server) handleFetchTokens(c *gin.Context) {
	trending, err := s.client.FetchTrendingPools(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(trending), "tokens": trending})
}

// telegramUpdate is the subset of the webhook payload we act on.
type telegramUpdate struct {
	Message struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// handleTelegramWebhook answers simple bot commands. Unknown updates
// are acknowledged and dropped.
func (s *Server) handleTelegramWebhook(c *gin.Context) {
	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}

	switch update.Message.Text {
	case "/status":
		st := s.scanner.Status()
		text := "Scanner stopped"
		if st.Running {
			text = "Scanner running"
		}
		if err := s.notifier.PublishText(c.Request.Context(), text); err != nil {
			s.logger.Warn().Err(err).Msg("status reply failed")
		}
	case "/start", "/help":
		if err := s.notifier.PublishText(c.Request.Context(),
			"Zone scanner bot. Commands: /status"); err != nil {
			s.logger.Warn().Err(err).Msg("help reply failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

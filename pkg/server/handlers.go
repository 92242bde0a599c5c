package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/runner"
	"github.com/webresearch/research-bridge/pkg/search"
	"github.com/webresearch/research-bridge/pkg/store"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
	triggerAPI       = "api"
)

type runResearchRequest struct {
	Topic *string `json:"topic"`
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

func errorBody(message string) gin.H {
	return gin.H{"status": runner.StatusError, "error": message}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRunResearch(c *gin.Context) {
	var body runResearchRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Topic == nil {
		c.JSON(http.StatusBadRequest, errorBody(runner.ErrMissingTopic.Error()))
		return
	}
	outcome, err := s.runner.Run(c.Request.Context(), runner.Request{Topic: *body.Topic, Trigger: triggerAPI})
	if errors.Is(err, runner.ErrMissingTopic) {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if outcome == nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}
	// Pipeline failures are reported in the body with a 200.
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleSearch(c *gin.Context) {
	var body searchRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		c.JSON(http.StatusBadRequest, errorBody("Missing query"))
		return
	}
	if body.NumResults <= 0 {
		body.NumResults = s.cfg.SearchResults
	}
	body.NumResults = min(body.NumResults, search.MaxSearchCount)
	report := s.searcher.Run(c.Request.Context(), strings.TrimSpace(body.Query), body.NumResults)
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorBody("Invalid limit"))
			return
		}
		limit = min(n, maxRunsLimit)
	}
	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Err(err).Msg("Failed to list runs")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody("Failed to list runs"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.runs.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("Run not found"))
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody("Failed to load run"))
	default:
		c.JSON(http.StatusOK, run)
	}
}

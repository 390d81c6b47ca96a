// Package handler exposes the agent-facing HTTP surface: tool discovery plus
// the read-only marketplace operations. Mutating wallet operations stay on
// the CLI, where the passphrase lives.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"aipseo/internal/core/domain"
	"aipseo/internal/core/ports"
	"aipseo/internal/toolspec"
	"aipseo/pkg/apperror"
	"aipseo/pkg/response"
)

// ToolHandler serves the tool schema and proxies the stateless lookups.
type ToolHandler struct {
	market ports.MarketplaceClient
	tools  []toolspec.Tool
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(market ports.MarketplaceClient, tools []toolspec.Tool) *ToolHandler {
	return &ToolHandler{
		market: market,
		tools:  tools,
	}
}

// ListTools handles GET /tools.
func (h *ToolHandler) ListTools(c *gin.Context) {
	response.OK(c, h.tools)
}

// Lookup handles GET /lookup?url=.
func (h *ToolHandler) Lookup(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		response.Error(c, apperror.ErrValidation("query parameter url is required"))
		return
	}

	metrics, err := h.market.Lookup(c.Request.Context(), url)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, metrics)
}

// SpamScore handles GET /spam-score?url=.
func (h *ToolHandler) SpamScore(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		response.Error(c, apperror.ErrValidation("query parameter url is required"))
		return
	}

	score, err := h.market.SpamScore(c.Request.Context(), url)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, score)
}

// SearchListings handles GET /market/search with optional dr_min, price_max
// and topic query parameters.
func (h *ToolHandler) SearchListings(c *gin.Context) {
	var filter domain.SearchFilter

	if raw := c.Query("dr_min"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.ErrValidation("dr_min must be an integer"))
			return
		}
		filter.DRMin = &v
	}
	if raw := c.Query("price_max"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, apperror.ErrValidation("price_max must be an integer amount of minor units"))
			return
		}
		filter.PriceMax = &v
	}
	filter.Topic = c.Query("topic")

	listings, err := h.market.SearchListings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, listings)
}

// Health handles GET /health.
func (h *ToolHandler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

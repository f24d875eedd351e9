package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dianehq/diane/internal/pkg/errcode"
	"github.com/dianehq/diane/internal/pkg/response"
	"github.com/dianehq/diane/internal/service"
)

type QueryHandler struct {
	search *service.SearchService
}

func NewQueryHandler(search *service.SearchService) *QueryHandler {
	return &QueryHandler{search: search}
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	resp, err := h.search.Query(c.Request.Context(), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// Parse exposes the structured parameters without running retrieval,
// handy for debugging what the model made of a question.
func (h *QueryHandler) Parse(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	params, err := h.search.ParseQuery(c.Request.Context(), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, params)
}

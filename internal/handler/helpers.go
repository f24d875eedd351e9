package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dianehq/diane/internal/ai"
	"github.com/dianehq/diane/internal/pkg/errcode"
	appErr "github.com/dianehq/diane/internal/pkg/errors"
	"github.com/dianehq/diane/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case err == appErr.ErrUnauthorized:
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case err == appErr.ErrNotFound:
		response.Error(c, errcode.ErrNotFound, "not found")
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case err == appErr.ErrConflict:
		response.Error(c, errcode.ErrConflict, "conflict")
	case err == appErr.ErrEmptyQuery:
		response.Error(c, errcode.ErrInvalid, "query is required")
	case err == appErr.ErrNoKeywords:
		response.Error(c, errcode.ErrInvalid, "count queries need at least one keyword")
	case err == appErr.ErrUnsupportedExt:
		response.Error(c, errcode.ErrInvalidFile, "unsupported file extension")
	case err == ai.ErrUnavailable:
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dianehq/diane/internal/model"
	"github.com/dianehq/diane/internal/pkg/errcode"
	"github.com/dianehq/diane/internal/pkg/response"
	"github.com/dianehq/diane/internal/service"
)

type TranscriptHandler struct {
	ingest *service.IngestService
}

func NewTranscriptHandler(ingest *service.IngestService) *TranscriptHandler {
	return &TranscriptHandler{ingest: ingest}
}

type transcriptItem struct {
	ID              string  `json:"id"`
	Filename        string  `json:"filename"`
	RecordingDate   string  `json:"recording_date"`
	WordCount       int     `json:"word_count"`
	DurationSeconds float64 `json:"duration_seconds"`
	Content         string  `json:"content,omitempty"`
}

func toTranscriptItem(item *model.Transcript, withContent bool) transcriptItem {
	out := transcriptItem{
		ID:              item.ID,
		Filename:        item.Filename,
		RecordingDate:   item.RecordingDate.Format("2006-01-02"),
		WordCount:       item.WordCount,
		DurationSeconds: item.DurationSeconds,
	}
	if withContent {
		out.Content = item.Content
	}
	return out
}

// Upload ingests a single audio recording or text note from a multipart
// form. Heavy work (transcription, embedding) happens inline, the client
// waits.
func (h *TranscriptHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	item, err := h.ingest.Ingest(c.Request.Context(), file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toTranscriptItem(item, false))
}

func (h *TranscriptHandler) List(c *gin.Context) {
	offset, _ := strconv.ParseUint(c.DefaultQuery("offset", "0"), 10, 32)
	limit, _ := strconv.ParseUint(c.DefaultQuery("limit", "50"), 10, 32)
	items, err := h.ingest.List(c.Request.Context(), uint(offset), uint(limit))
	if err != nil {
		handleError(c, err)
		return
	}
	total, err := h.ingest.Count(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	out := make([]transcriptItem, 0, len(items))
	for _, item := range items {
		out = append(out, toTranscriptItem(item, false))
	}
	response.Success(c, gin.H{"items": out, "total": total})
}

func (h *TranscriptHandler) Get(c *gin.Context) {
	item, err := h.ingest.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toTranscriptItem(item, true))
}

func (h *TranscriptHandler) Keywords(c *gin.Context) {
	items, err := h.ingest.Keywords(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	type keywordItem struct {
		Keyword   string `json:"keyword"`
		Frequency int    `json:"frequency"`
	}
	out := make([]keywordItem, 0, len(items))
	for _, item := range items {
		out = append(out, keywordItem{Keyword: item.Keyword, Frequency: item.Frequency})
	}
	response.Success(c, gin.H{"items": out})
}

func (h *TranscriptHandler) Delete(c *gin.Context) {
	if err := h.ingest.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

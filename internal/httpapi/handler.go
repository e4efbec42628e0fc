package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/service"
)

type handler struct {
	docs   *service.DocumentService
	chat   *service.ChatService
	logger *slog.Logger
}

func newHandler(docs *service.DocumentService, chat *service.ChatService) *handler {
	return &handler{docs: docs, chat: chat, logger: logger.ForComponent("handler")}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

func (h *handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Upload ingests one multipart file under the "file" form field.
func (h *handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	// Reject oversized uploads before buffering the body in memory.
	maxBytes := h.docs.MaxBytes()
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file size exceeds maximum %dMB", maxBytes/(1024*1024)),
		})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.docs.Ingest(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) ListDocuments(c *gin.Context) {
	docs := h.docs.List()
	c.JSON(http.StatusOK, gin.H{"documents": docs, "total": len(docs)})
}

func (h *handler) DeleteDocument(c *gin.Context) {
	msg, err := h.docs.Delete(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *handler) DeleteAllDocuments(c *gin.Context) {
	if err := h.docs.DeleteAll(); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents removed"})
}

func (h *handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp := h.chat.Respond(c.Request.Context(), req.Message, req.SessionID)
	c.JSON(http.StatusOK, resp)
}

func (h *handler) SessionInfo(c *gin.Context) {
	info, err := h.chat.Sessions().Info(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *handler) ClearSession(c *gin.Context) {
	if !h.chat.Sessions().Clear(c.Param("session_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session cleared"})
}

// writeError maps the error taxonomy onto status codes: validation errors
// are the caller's fault, stage errors are internal.
func (h *handler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}
	var serr *domain.StageError
	if errors.As(err, &serr) {
		h.logger.Error("ingestion failed",
			slog.String("stage", serr.Stage),
			slog.String("error", serr.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": serr.Error(), "stage": serr.Stage})
		return
	}
	h.logger.Error("request failed", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

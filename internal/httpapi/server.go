// Package httpapi exposes the document QA service over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docqa/internal/logger"
	"docqa/internal/service"
)

// Server wraps the gin router and the underlying http.Server.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer builds the router over the document and chat services.
func NewServer(host string, port int, docs *service.DocumentService, chat *service.ChatService) *Server {
	router := gin.Default()
	h := newHandler(docs, chat)

	router.GET("/health", h.Health)
	router.POST("/documents/upload", h.Upload)
	router.GET("/documents", h.ListDocuments)
	router.DELETE("/documents/:document_id", h.DeleteDocument)
	router.DELETE("/documents", h.DeleteAllDocuments)
	router.POST("/chat", h.Chat)
	router.GET("/sessions/:session_id", h.SessionInfo)
	router.DELETE("/sessions/:session_id", h.ClearSession)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.ForComponent("http"),
	}
}

// Router exposes the gin engine, used by tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Package server exposes a tree cache over HTTP. The tree/load and note
// content routes speak the same wire contract the remote adapter consumes,
// so one trilium process can serve another.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/introspection"
	"github.com/gin-gonic/gin"

	"github.com/dominic-sylvester/trilium/pkg/core"
	"github.com/dominic-sylvester/trilium/pkg/treecache"
)

// Server serves one TreeCache and the repository behind it.
type Server struct {
	cache  *treecache.TreeCache
	repo   core.Repository
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server over cache.
func New(cache *treecache.TreeCache, opts ...Option) *Server {
	s := &Server{
		cache:  cache,
		repo:   cache.Repository(),
		logger: cache.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	// note ids may contain escaped slashes
	r.UseRawPath = true
	r.Use(gin.Recovery(), s.logRequests())

	api := r.Group("/api")
	api.POST("/tree/load", s.LoadTree)
	api.GET("/notes/:id", s.NoteContent)
	api.GET("/notes/:id/attributes", s.NoteAttributes)
	api.GET("/notes/:id/children", s.NoteChildren)
	api.GET("/notes/:id/targets", s.NoteTargets)
	api.GET("/state", s.State)
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// LoadTree answers a LoadRequest straight from the repository.
func (s *Server) LoadTree(c *gin.Context) {
	var req core.LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid load request"})
		return
	}

	rows, err := s.repo.Load(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// NoteContent returns {"content": ...} for a note.
func (s *Server) NoteContent(c *gin.Context) {
	body, err := s.cache.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": body})
}

// NoteAttributes returns the attributes of a note, filtered by the optional
// type and name query parameters. owned=true skips inheritance.
func (s *Server) NoteAttributes(c *gin.Context) {
	q := core.Query{
		Type: core.AttributeType(c.Query("type")),
		Name: c.Query("name"),
	}
	if q.Type != "" && !q.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown attribute type %q", q.Type)})
		return
	}
	owned, _ := strconv.ParseBool(c.DefaultQuery("owned", "false"))

	ctx := c.Request.Context()
	if owned {
		n, ok := s.note(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, nonNil(n.OwnedAttributes(s.cache, q)))
		return
	}

	attrs, err := s.cache.ResolvedAttributes(ctx, c.Param("id"), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(attrs))
}

// NoteChildren returns the ordered children of a note.
func (s *Server) NoteChildren(c *gin.Context) {
	n, ok := s.note(c)
	if !ok {
		return
	}
	children, err := n.ChildNotes(c.Request.Context(), s.cache)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos(children))
}

// NoteTargets returns the targets of the relations named by the name query
// parameter. Missing or deleted targets come back as null.
func (s *Server) NoteTargets(c *gin.Context) {
	n, ok := s.note(c)
	if !ok {
		return
	}
	targets, err := n.RelationTargets(c.Request.Context(), s.cache, c.Query("name"))
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]*core.NoteDTO, len(targets))
	for i, t := range targets {
		if t != nil {
			dto := t.DTO()
			out[i] = &dto
		}
	}
	c.JSON(http.StatusOK, out)
}

// State reports cache and repository introspection state.
func (s *Server) State(c *gin.Context) {
	out := gin.H{
		"cache": s.cache.State(),
	}
	if i, ok := s.repo.(introspection.Introspectable); ok {
		out["repository"] = i.State()
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) note(c *gin.Context) (*core.Note, bool) {
	id := c.Param("id")
	n, err := s.cache.Note(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	if n == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("note %q not found", id)})
		return nil, false
	}
	return n, true
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrEmptyID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func dtos(notes []*core.Note) []core.NoteDTO {
	out := make([]core.NoteDTO, 0, len(notes))
	for _, n := range notes {
		if n != nil {
			out = append(out, n.DTO())
		}
	}
	return out
}

func nonNil(attrs []*core.Attribute) []*core.Attribute {
	if attrs == nil {
		return []*core.Attribute{}
	}
	return attrs
}

// Package api serves a read-only HTTP view over stored runs, usage logs,
// and generated question files.
package api

import (
	"errors"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/chestbench/internal/runstore"
)

type Server struct {
	router *gin.Engine
	runs   *runstore.Store

	logDir      string
	questionDir string
}

func NewServer(runs *runstore.Store, logDir, questionDir string) (*Server, error) {
	if runs == nil {
		return nil, errors.New("api: nil run store")
	}

	r := gin.New()
	s := &Server{
		router:      r,
		runs:        runs,
		logDir:      strings.TrimSpace(logDir),
		questionDir: strings.TrimSpace(questionDir),
	}
	s.registerMiddleware()
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerMiddleware() {
	if s == nil || s.router == nil {
		return
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	if key := strings.TrimSpace(os.Getenv("CHESTBENCH_API_KEY")); key != "" {
		s.router.Use(apiKeyAuthMiddleware(key))
	}
}

func (s *Server) registerRoutes() {
	if s == nil || s.router == nil {
		return
	}

	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/runs", s.handleListRuns)
	api.GET("/logs/:name", s.handleGetLog)
	api.GET("/questions/:case", s.handleListQuestions)
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/chestbench/internal/runstore"
	"github.com/stellarlinkco/chestbench/internal/usagelog"
)

func respondError(c *gin.Context, code int, err error) {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(code, gin.H{"error": msg})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.runs == nil {
		respondError(c, http.StatusInternalServerError, errors.New("run store not configured"))
		return
	}

	mode := strings.TrimSpace(c.Query("mode"))
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		if n > 200 {
			n = 200
		}
		limit = n
	}

	runs, err := s.runs.List(c.Request.Context(), mode, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetLog(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		respondError(c, http.StatusBadRequest, errors.New("invalid log name"))
		return
	}

	path := filepath.Join(s.logDir, name)
	entries, skipped, err := usagelog.ReadEntries(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(c, http.StatusNotFound, errors.New("log not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []usagelog.Entry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"name":          name,
		"entries":       entries,
		"skipped_lines": skipped,
	})
}

func (s *Server) handleListQuestions(c *gin.Context) {
	caseID := strings.TrimSpace(c.Param("case"))
	if caseID == "" || caseID != filepath.Base(caseID) || strings.HasPrefix(caseID, ".") {
		respondError(c, http.StatusBadRequest, errors.New("invalid case id"))
		return
	}

	caseDir := filepath.Join(s.questionDir, caseID)
	names, err := os.ReadDir(caseDir)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(c, http.StatusNotFound, errors.New("case not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	questions := make([]json.RawMessage, 0, len(names))
	for _, entry := range names {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(caseDir, entry.Name()))
		if err != nil || !json.Valid(b) {
			continue
		}
		questions = append(questions, json.RawMessage(b))
	}

	c.JSON(http.StatusOK, gin.H{
		"case_id":   caseID,
		"questions": questions,
	})
}

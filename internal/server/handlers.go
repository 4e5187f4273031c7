package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/vector"
)

type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit == 0 {
		req.Limit = 10
	}
	s.logger.Debug("query request", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	resp, err := s.engine.Query(r.Context(), req.Query, req.Limit)
	if err != nil {
		if errors.Is(err, vector.ErrInvalidLimit) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	docs, err := s.source.Collect()
	if err != nil {
		s.logger.Error("document collection failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("sync request", zap.Int("documents", len(docs)))
	report, err := s.syncer.Sync(r.Context(), docs)
	if err != nil {
		s.logger.Error("sync failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := s.manager.Stats()
	if err != nil {
		s.logger.Error("status: index stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"entries":          stats.EntryCount,
		"dimension":        stats.Dimension,
		"index_size_bytes": stats.IndexSizeBytes,
	}
	if !stats.LastSync.IsZero() {
		resp["last_sync"] = stats.LastSync
	}
	if s.storage != nil {
		if docCount, err := s.storage.CountDocuments(ctx); err == nil {
			resp["documents"] = docCount
		}
		if chunkCount, err := s.storage.CountChunks(ctx); err == nil {
			resp["chunks"] = chunkCount
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

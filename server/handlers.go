package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ceyewan/idlease/api"
	"github.com/ceyewan/idlease/clog"
	"github.com/ceyewan/idlease/lease/allocator"
)

// statusFor 把分配器错误映射成 HTTP 状态码和错误码
func statusFor(err error) (int, int) {
	switch {
	case errors.Is(err, allocator.ErrPoolExhausted):
		return http.StatusConflict, api.CodeNoIDAvailable
	case errors.Is(err, allocator.ErrNotLeased):
		return http.StatusGone, api.CodeIDExpired
	case errors.Is(err, allocator.ErrOutOfRange):
		return http.StatusNotFound, api.CodeIDNonexistent
	default:
		return http.StatusInternalServerError, api.CodeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	logger := clog.WithTrace(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", clog.String("path", r.URL.Path), clog.Err(err))
	} else {
		logger.Debug("request rejected", clog.String("path", r.URL.Path), clog.Int("code", code), clog.Err(err))
	}
	s.formatter.JSON(w, status, api.NewErrorBody(code))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	grant, err := s.alloc.Acquire(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.formatter.JSON(w, http.StatusOK, api.NewLease(grant.ID, grant.ExpiresAt))
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		clog.WithTrace(r.Context(), s.logger).Debug("invalid id in heartbeat",
			clog.String("id", raw))
		s.formatter.JSON(w, http.StatusBadRequest, api.NewErrorBody(api.CodeInvalidID))
		return
	}

	grant, err := s.alloc.Renew(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.formatter.JSON(w, http.StatusOK, api.NewLease(grant.ID, grant.ExpiresAt))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.alloc.Snapshot()
	s.formatter.JSON(w, http.StatusOK, api.Health{
		Status: "ok",
		Min:    snap.Min,
		Max:    snap.Max,
		Size:   snap.Size,
		Leased: snap.Leased,
	})
}

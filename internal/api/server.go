// internal/api/server.go

// Package api exposes the admission operations over HTTP. It is a thin
// translation layer: decode, execute, map errors to status codes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"admission-engine/internal/common/errors"
	"admission-engine/internal/common/logger"
	allocateseats "admission-engine/internal/operations/admission/allocate-seats"
	rankcourse "admission-engine/internal/operations/admission/rank-course"
	setstatus "admission-engine/internal/operations/admission/set-status"
	submitapplication "admission-engine/internal/operations/application/submit-application"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SubmitExecutor interface {
	Execute(ctx context.Context, input *submitapplication.Input) (*submitapplication.Output, error)
}

type RankExecutor interface {
	Execute(ctx context.Context, input *rankcourse.Input) (*rankcourse.Output, error)
}

type AllocateExecutor interface {
	Execute(ctx context.Context, input *allocateseats.Input) (*allocateseats.Output, error)
}

type SetStatusExecutor interface {
	Execute(ctx context.Context, input *setstatus.Input) (*setstatus.Output, error)
}

type Server struct {
	submit    SubmitExecutor
	rank      RankExecutor
	allocate  AllocateExecutor
	setStatus SetStatusExecutor
	logger    logger.Logger
}

func NewServer(submit SubmitExecutor, rank RankExecutor, allocate AllocateExecutor,
	setStatus SetStatusExecutor, log logger.Logger) *Server {
	return &Server{
		submit:    submit,
		rank:      rank,
		allocate:  allocate,
		setStatus: setStatus,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/applications", s.handleSubmit)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/courses/{courseID}/ranking", s.handleRanking)
			r.Post("/courses/{courseID}/allocate", s.handleAllocate)
			r.Put("/applications/{applicationID}/status", s.handleSetStatus)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var input submitapplication.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, errors.NewInvalidMarksError("malformed request body"))
		return
	}

	output, err := s.submit.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, output)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	input := rankcourse.Input{
		CourseID:     chi.URLParam(r, "courseID"),
		StatusFilter: r.URL.Query().Get("status"),
	}

	output, err := s.rank.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, output)
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	input := allocateseats.Input{CourseID: chi.URLParam(r, "courseID")}

	output, err := s.allocate.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, output)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status  string `json:"status"`
		Remarks string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errors.NewInvalidStatusError("malformed request body"))
		return
	}

	input := setstatus.Input{
		ApplicationID: chi.URLParam(r, "applicationID"),
		Status:        body.Status,
		Remarks:       body.Remarks,
	}

	output, err := s.setStatus.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, output)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response failed", map[string]interface{}{"error": err})
	}
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Code: "INTERNAL", Message: "internal error"}

	if code := errors.GetCode(err); code != "" {
		body.Code = string(code)
		switch {
		case errors.IsNotFound(err):
			status = http.StatusNotFound
		case code == errors.ErrCodeInvalidTransition:
			status = http.StatusUnprocessableEntity
		case errors.IsInvalidInput(err):
			status = http.StatusBadRequest
		}
	}
	if se, ok := err.(*errors.StandardError); ok {
		body.Message = se.Message
		body.Details = se.Details
	}

	s.writeJSON(w, status, errorResponse{Error: body})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request completed", map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
			"requestId": middleware.GetReqID(r.Context()),
		})
	})
}

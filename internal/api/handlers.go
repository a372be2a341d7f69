package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/itzleon156-collab/So-clip/internal/log"
	"github.com/itzleon156-collab/So-clip/internal/types"
	"github.com/itzleon156-collab/So-clip/internal/usecase"
)

// detach keeps request values such as the request id but drops cancellation,
// so a client that disconnects does not abort a download or render midway.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

type urlRequest struct {
	URL string `json:"url" validate:"required"`
}

// clipRequest keeps StartTime as a pointer so an explicit 0 passes "required".
type clipRequest struct {
	URL       string   `json:"url" validate:"required"`
	StartTime *float64 `json:"startTime" validate:"required"`
	Duration  float64  `json:"duration" validate:"required"`
	ClipName  string   `json:"clipName"`
}

type healthResponse struct {
	Status    string `json:"status"`
	AI        string `json:"ai"`
	Timestamp string `json:"timestamp"`
}

type videoInfoResponse struct {
	Success bool `json:"success"`
	types.VideoInfo
}

type analysisResponse struct {
	Success bool `json:"success"`
	types.Analysis
}

type clipResponse struct {
	Success bool `json:"success"`
	types.ClipResult
}

type errorResponse struct {
	Error string `json:"error"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ai := "disabled"
	if s.svc.AIEnabled() {
		ai = "enabled"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "online",
		AI:        ai,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !s.decode(w, r, &req) {
		return
	}
	info, err := s.svc.FetchInfo(detach(r), req.URL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videoInfoResponse{Success: true, VideoInfo: info})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Analyze(detach(r), req.URL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Success: true, Analysis: res})
}

func (s *Server) handleCreateClip(w http.ResponseWriter, r *http.Request) {
	var req clipRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.CreateClip(detach(r), types.ClipRequest{
		URL:       req.URL,
		StartTime: req.StartTime,
		Duration:  req.Duration,
		ClipName:  req.ClipName,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clipResponse{Success: true, ClipResult: res})
}

// decode parses and validates the JSON body. It writes the 400/413 response
// itself and returns false when the handler should stop.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	if len(fields) == 1 {
		return fmt.Sprintf("%s is required", fields[0])
	}
	return "missing required fields: " + strings.Join(fields, ", ")
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := usecase.KindOf(err)
	logger := log.WithContext(r.Context(), log.WithComponent("api"))
	logger.Error().
		Err(err).
		Str("kind", kind.String()).
		Str(log.FieldPath, r.URL.Path).
		Msg("request failed")
	writeError(w, kind.HTTPStatus(), usecase.PublicMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

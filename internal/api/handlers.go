package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ppiankov/petty/internal/model"
	"github.com/ppiankov/petty/internal/render"
	"github.com/ppiankov/petty/internal/source"
	"go.uber.org/zap"
)

// ExtractRequest is the body of POST /v1/extract
type ExtractRequest struct {
	Text string `json:"text" validate:"required"`
}

// ExtractResponse is returned for a single record
type ExtractResponse struct {
	Case  *model.Case `json:"case"`
	Error string      `json:"error,omitempty"`
}

// BatchRecord is one record of a batch request. A missing ID is generated.
type BatchRecord struct {
	ID   string `json:"id"`
	Text string `json:"text" validate:"required"`
}

// BatchRequest is the body of POST /v1/extract/batch
type BatchRequest struct {
	Records []BatchRecord `json:"records" validate:"required,min=1,max=1000,dive"`
}

// BatchResponse holds one result per record, in request order
type BatchResponse struct {
	Results []render.Item  `json:"results"`
	Summary render.Summary `json:"summary"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.extractor.Extract(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("extraction failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	if !c.Parsed() {
		writeJSON(w, http.StatusUnprocessableEntity, ExtractResponse{Case: c, Error: model.ErrNoDefendants.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Case: c})
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	records := make([]source.Record, len(req.Records))
	for i, rec := range req.Records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			id = uuid.NewString()
		}
		records[i] = source.Record{ID: id, Text: rec.Text}
	}

	results := s.batch.ProcessRecords(r.Context(), records)

	items := make([]render.Item, len(results))
	for i, res := range results {
		items[i] = render.NewItem(res.Record.ID, res.Case, res.Err)
	}
	writeJSON(w, http.StatusOK, BatchResponse{Results: items, Summary: render.Summarize(items)})
}

// decode reads and validates a JSON body, writing a 4xx on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}

	if err := s.validate.Struct(v); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return "validation: " + strings.Join(msgs, "; ")
}

// statusFor maps an extraction error to a status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

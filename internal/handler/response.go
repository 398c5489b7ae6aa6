package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/paging"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func newPagination(p paging.Page, count int) pagination {
	return pagination{Limit: p.Limit, Offset: p.Offset, Count: count}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

func writeValidation(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

var errInvalidBody = errors.New("invalid JSON body")

// decode reads a single JSON object from the request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errInvalidBody, err.Error())
	}
	return nil
}

// normalizer is implemented by requests that clean up their input before
// validation.
type normalizer interface {
	normalize()
}

// bind decodes and validates the request body. It writes the 400 response
// itself and reports false on failure.
func bind(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decode(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if n, ok := v.(normalizer); ok {
		n.normalize()
	}
	if errs := validate(v); len(errs) > 0 {
		writeValidation(w, errs)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter. It writes the 400
// response itself and reports false on failure.
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		writeValidation(w, []fieldError{{Field: name, Message: "Valid " + label + " ID is required"}})
		return 0, false
	}
	return id, true
}

// pageQuery reads limit and offset query parameters. Malformed values fall
// back to the defaults.
func pageQuery(r *http.Request, def int) paging.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return paging.New(limit, offset, def)
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

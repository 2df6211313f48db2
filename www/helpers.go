package www

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/mapview"
	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/share"
	"github.com/yonbergman/electric-planner/slots"
	"github.com/yonbergman/electric-planner/state"
)

const maxJSONBody = 1 << 20

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02 15:04:05")
		},
		"moduleLabel": func(t plan.ModuleType) string { return t.Label() },
		"itemLabel":   func(t plan.ItemType) string { return t.Label() },
		"add": func(a, b int) int {
			return a + b
		},
		// Floor plan images are stored as data URLs, which html/template
		// would otherwise replace.
		"imageURL": func(u string) template.URL {
			if strings.HasPrefix(u, "data:image/") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") {
				return template.URL(u)
			}
			return ""
		},
		"plural": func(n int, word string) string {
			if n == 1 {
				return fmt.Sprintf("%d %s", n, word)
			}
			if strings.HasSuffix(word, "x") || strings.HasSuffix(word, "s") {
				return fmt.Sprintf("%d %ses", n, word)
			}
			return fmt.Sprintf("%d %ss", n, word)
		},
	}
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	h.jsonStatus(w, http.StatusOK, data)
}

func (h *Handlers) jsonStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Debug("write json response", zap.Error(err))
	}
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	h.jsonStatus(w, code, map[string]string{"error": msg})
}

// apiError maps a domain error onto a status code: unknown ids are 404,
// slot conflicts 409, bad input 400 and anything else 500.
func (h *Handlers) apiError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	h.jsonError(w, err.Error(), code)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, state.ErrNotFound), errors.Is(err, share.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, slots.ErrSlotOccupied), errors.Is(err, slots.ErrInsufficientSpace):
		return http.StatusConflict
	case errors.Is(err, state.ErrInvalid),
		errors.Is(err, plan.ErrInvalidSnapshot),
		errors.Is(err, mapview.ErrNotImage),
		errors.Is(err, mapview.ErrBadDataURL):
		return http.StatusBadRequest
	case errors.Is(err, mapview.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		h.jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// floatParams parses required float query parameters.
func floatParams(r *http.Request, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		v, err := strconv.ParseFloat(r.URL.Query().Get(n), 64)
		if err != nil {
			return nil, fmt.Errorf("query parameter %s: %w", n, state.ErrInvalid)
		}
		out[i] = v
	}
	return out, nil
}

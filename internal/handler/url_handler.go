package handler

import (
	"encoding/json"
	stderrors "errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/darkodi/urlshorten/internal/errors"
	"github.com/darkodi/urlshorten/internal/logger"
	"github.com/darkodi/urlshorten/internal/middleware"
	"github.com/darkodi/urlshorten/internal/model"
	"github.com/darkodi/urlshorten/internal/service"
	"github.com/darkodi/urlshorten/internal/validator"
)

const maxBodyBytes = 1 << 20

// URLHandler handles HTTP requests for URL operations
type URLHandler struct {
	service   *service.URLService
	validator *validator.URLValidator
	log       *logger.Logger
}

// NewURLHandler creates a new handler instance
func NewURLHandler(svc *service.URLService, log *logger.Logger) *URLHandler {
	return &URLHandler{
		service:   svc,
		validator: validator.NewURLValidator(),
		log:       log,
	}
}

// ============ HANDLERS ============

// HandleCreate creates a new short URL
// POST /urls/
func (h *URLHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, appErr := parseCreateRequest(w, r)
	if appErr != nil {
		appErr.WriteJSON(w)
		return
	}

	if appErr := h.validator.ValidateURL(req.URL); appErr != nil {
		appErr.WriteJSON(w)
		return
	}

	code, err := h.service.CreateShortURL(r.Context(), req)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrEmptyURL):
			errors.MissingField("url").WriteJSON(w)
		case stderrors.Is(err, service.ErrInvalidURL):
			errors.InvalidURL(err.Error()).WriteJSON(w)
		default:
			h.internalError(w, r, "create short url", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, code)
}

// parseCreateRequest accepts a JSON body or form/query parameters.
func parseCreateRequest(w http.ResponseWriter, r *http.Request) (model.CreateURLRequest, *errors.AppError) {
	var req model.CreateURLRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.InvalidJSON(err.Error())
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, errors.BadRequest("Could not parse form")
	}
	req.URL = r.FormValue("url")
	if raw := r.FormValue("secret"); raw != "" {
		secret, err := strconv.ParseBool(raw)
		if err != nil {
			return req, errors.BadRequest("The argument `secret` must be a boolean")
		}
		req.Secret = secret
	}
	return req, nil
}

// HandleGet returns the original URL as JSON
// GET /urls/{code}
func (h *URLHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if appErr := h.validator.ValidateCode(code); appErr != nil {
		appErr.WriteJSON(w)
		return
	}

	original, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		if isNotFound(err) {
			errors.NotFound().WriteJSON(w)
			return
		}
		h.internalError(w, r, "resolve", err)
		return
	}

	writeJSON(w, http.StatusOK, original)
}

// HandleList returns a page of public URLs, newest first
// GET /urls/?page=N
func (h *URLHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			errors.BadRequest("The argument `page` must be a positive integer").WriteJSON(w)
			return
		}
		page = p
	}

	entries, err := h.service.List(r.Context(), page)
	if err != nil {
		h.internalError(w, r, "list", err)
		return
	}

	writeJSON(w, http.StatusOK, model.URLPage(entries))
}

// HandleRedirect redirects to the original URL
// GET /{code}
func (h *URLHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if h.validator.ValidateCode(code) != nil {
		http.Error(w, "404 Not found", http.StatusNotFound)
		return
	}

	original, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		if isNotFound(err) {
			http.Error(w, "404 Not found", http.StatusNotFound)
			return
		}
		h.internalError(w, r, "redirect", err)
		return
	}

	http.Redirect(w, r, original, http.StatusFound)
}

// HandleHealth returns service health status
// GET /health
func (h *URLHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

// HandleIndex describes the API
// GET /
func (h *URLHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"GET /{code}":       "redirect to the original URL",
		"GET /urls/{code}":  "look up the original URL",
		"GET /urls/?page=N": "list public URLs, newest first",
		"POST /urls/":       "shorten `url`; set `secret` for an unguessable code",
	})
}

// ============ HELPERS ============

func isNotFound(err error) bool {
	return stderrors.Is(err, service.ErrURLNotFound) || stderrors.Is(err, service.ErrInvalidCode)
}

func (h *URLHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.FromContext(r.Context(), h.log).Error(op+" failed", "error", err.Error())
	if stderrors.Is(err, service.ErrStorage) {
		errors.DatabaseError(err).WriteJSON(w)
		return
	}
	errors.Internal(err.Error()).WriteJSON(w)
}

func writeJSON(w http.ResponseWriter, status int, message any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Response{Status: status, Message: message})
}

// ============ ROUTER SETUP ============

// SetupRoutes configures all HTTP routes. The /urls/ API is wrapped by
// limit when it is non-nil.
func (h *URLHandler) SetupRoutes(limit middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	api := func(fn http.HandlerFunc) http.Handler {
		if limit == nil {
			return fn
		}
		return limit(fn)
	}

	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /health", h.HandleHealth)

	mux.Handle("GET /urls/{$}", api(h.HandleList))
	mux.Handle("POST /urls/{$}", api(h.HandleCreate))
	mux.Handle("GET /urls/{code}", api(h.HandleGet))

	// Catch-all for redirects
	mux.HandleFunc("GET /{code}", h.HandleRedirect)

	return mux
}

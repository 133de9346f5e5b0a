package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/darkodi/alias-shortener/internal/config"
	apperrors "github.com/darkodi/alias-shortener/internal/errors"
	"github.com/darkodi/alias-shortener/internal/logger"
	"github.com/darkodi/alias-shortener/internal/model"
	"github.com/darkodi/alias-shortener/internal/service"
	"github.com/darkodi/alias-shortener/internal/validator"
)

const maxBodyBytes = 1 << 20

// URLHandler handles HTTP requests for URL operations
type URLHandler struct {
	service     *service.URLService
	validator   *validator.URLValidator
	log         *logger.Logger
	baseURL     string // fixed base URL; empty means derive from the request
	contextPath string
	trustProxy  bool
}

// NewURLHandler creates a new handler instance
func NewURLHandler(svc *service.URLService, app *config.AppConfig, log *logger.Logger) *URLHandler {
	if log == nil {
		log = logger.Discard()
	}
	v := validator.NewURLValidator().
		WithMaxLength(app.MaxURLLength).
		WithBlockedDomains(app.BlockedDomains...)

	return &URLHandler{
		service:     svc,
		validator:   v,
		log:         log,
		baseURL:     strings.TrimRight(app.BaseURL, "/"),
		contextPath: strings.TrimRight(app.ContextPath, "/"),
		trustProxy:  app.TrustProxyHeaders,
	}
}

// ============ HANDLERS ============

// HandleShorten creates a new short URL
// POST /shorten
func (h *URLHandler) HandleShorten(w http.ResponseWriter, r *http.Request) {
	// Parse JSON body
	var req model.CreateURLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		apperrors.InvalidJSON(err.Error()).WriteJSON(w)
		return
	}

	if fields := h.validator.ValidateShortenRequest(req); fields != nil {
		apperrors.Validation(fields).WriteJSON(w)
		return
	}

	resp, err := h.service.Shorten(r.Context(), req, h.baseURLFor(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAliasTaken):
			apperrors.AliasTaken(req.CustomAlias).WriteJSON(w)
		case errors.Is(err, service.ErrEmptyURL):
			apperrors.Validation(map[string]string{validator.FieldFullURL: "must not be blank"}).WriteJSON(w)
		default:
			h.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleRedirect redirects to the full URL
// GET /{alias}
func (h *URLHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	alias := mux.Vars(r)["alias"]

	fullURL, err := h.service.Resolve(r.Context(), alias)
	if err != nil {
		if errors.Is(err, service.ErrAliasNotFound) {
			// the success path is a redirect, so is the failure path
			http.Redirect(w, r, h.contextPath+"/error", http.StatusNotFound)
			return
		}
		h.internalError(w, r, err)
		return
	}

	http.Redirect(w, r, fullURL, http.StatusFound)
}

// HandleDelete removes a short URL
// DELETE /{alias}
func (h *URLHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	alias := mux.Vars(r)["alias"]

	if err := h.service.Delete(r.Context(), alias); err != nil {
		if errors.Is(err, service.ErrAliasNotFound) {
			apperrors.AliasNotFound(alias).WriteJSON(w)
			return
		}
		h.internalError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleList returns every short URL
// GET /urls
func (h *URLHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	urls, err := h.service.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, urls)
}

// HandleHealth returns service health status
// GET /health
func (h *URLHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		h.log.FromContext(r.Context()).Error("health check failed", "error", err.Error())
		apperrors.Unavailable("dependency check failed").WriteJSON(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleError is where failed redirects land
// GET /error
func (h *URLHandler) HandleError(w http.ResponseWriter, r *http.Request) {
	apperrors.NotFound("Resource").WriteJSON(w)
}

// ============ ROUTER SETUP ============

// SetupRoutes configures all HTTP routes
func (h *URLHandler) SetupRoutes() http.Handler {
	root := mux.NewRouter()
	root.NotFoundHandler = http.HandlerFunc(h.HandleError)
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apperrors.MethodNotAllowed(r.Method).WriteJSON(w)
	})

	router := root
	if h.contextPath != "" {
		router = root.PathPrefix(h.contextPath).Subrouter()
	}

	// Fixed GET routes shadow aliases of the same name (e.g. "urls");
	// such aliases can still be created and deleted
	router.HandleFunc("/shorten", h.HandleShorten).Methods(http.MethodPost)
	router.HandleFunc("/urls", h.HandleList).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/error", h.HandleError).Methods(http.MethodGet)

	router.HandleFunc("/{alias}", h.HandleRedirect).Methods(http.MethodGet)
	router.HandleFunc("/{alias}", h.HandleDelete).Methods(http.MethodDelete)

	return root
}

// ============ HELPERS ============

// baseURLFor returns scheme://host[:port][/context-path] as the client sees it
func (h *URLHandler) baseURLFor(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	// forwarded headers are client-controlled unless a proxy rewrites them
	if h.trustProxy {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		}
		if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
			host = strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}

	// default ports are left out
	if hostname, port, err := net.SplitHostPort(host); err == nil {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			host = hostname
			if strings.Contains(hostname, ":") {
				host = "[" + hostname + "]"
			}
		}
	}

	return scheme + "://" + host + h.contextPath
}

func (h *URLHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.FromContext(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)

	// never leak driver errors to clients
	details := "internal server error"
	if errors.Is(err, service.ErrAliasSpaceExhausted) {
		details = service.ErrAliasSpaceExhausted.Error()
	}
	apperrors.Internal(details).WriteJSON(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

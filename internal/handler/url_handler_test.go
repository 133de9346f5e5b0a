package handler

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/darkodi/alias-shortener/internal/config"
	"github.com/darkodi/alias-shortener/internal/encoder"
	"github.com/darkodi/alias-shortener/internal/mocks"
	"github.com/darkodi/alias-shortener/internal/model"
	"github.com/darkodi/alias-shortener/internal/repository"
	"github.com/darkodi/alias-shortener/internal/service"
)

func setupTestRouter(t *testing.T, app config.AppConfig) http.Handler {
	t.Helper()
	return setupTestRouterWithRepo(t, repository.NewMemoryRepository(), app)
}

func setupTestRouterWithRepo(t *testing.T, repo repository.Repository, app config.AppConfig) http.Handler {
	t.Helper()
	svc := service.NewURLService(repo, encoder.NewGenerator(encoder.NewSeededSource(3)), service.Options{})
	return NewURLHandler(svc, &app, nil).SetupRoutes()
}

func do(h http.Handler, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Host = "localhost"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHandleShorten_CustomAlias(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})
	body := `{"fullUrl": "https://example.com", "customAlias": "custom"}`

	rec := do(h, http.MethodPost, "/shorten", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]string{"shortUrl": "http://localhost/custom"}, decodeMap(t, rec))

	rec = do(h, http.MethodPost, "/shorten", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"error": "Custom alias is already taken: custom"}, decodeMap(t, rec))
}

func TestHandleShorten_GeneratedAlias(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})

	rec := do(h, http.MethodPost, "/shorten", `{"fullUrl": "https://example.com/long/path"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	shortURL := decodeMap(t, rec)["shortUrl"]
	alias := strings.TrimPrefix(shortURL, "http://localhost/")
	assert.Len(t, alias, encoder.AliasLength)
	assert.True(t, encoder.InAlphabet(alias))

	rec = do(h, http.MethodGet, "/"+alias, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/long/path", rec.Header().Get("Location"))
}

func TestHandleShorten_BadRequests(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})

	tests := []struct {
		name     string
		body     string
		wantBody map[string]string
	}{
		{"missing fullUrl", `{"customAlias": "x"}`, map[string]string{"fullUrl": "must not be blank"}},
		{"blank fullUrl", `{"fullUrl": "  "}`, map[string]string{"fullUrl": "must not be blank"}},
		{"relative fullUrl", `{"fullUrl": "example.com"}`, map[string]string{"fullUrl": "must be a valid URL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/shorten", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantBody, decodeMap(t, rec))
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/shorten", `{"fullUrl":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.HasPrefix(decodeMap(t, rec)["error"], "Invalid JSON in request body"))
	})
}

func TestHandleShorten_ConfiguredValidation(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{
		MaxURLLength:   30,
		BlockedDomains: []string{"evil.test"},
	})

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"blocked domain", "https://evil.test/x", "domain is not allowed"},
		{"over configured length", "https://example.com/" + strings.Repeat("a", 20), "must be at most 30 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/shorten", `{"fullUrl": "`+tt.url+`"}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]string{"fullUrl": tt.want}, decodeMap(t, rec))
		})
	}
}

func TestHandleShorten_BaseURL(t *testing.T) {
	tests := []struct {
		name   string
		app    config.AppConfig
		mutate func(*http.Request)
		want   string
	}{
		{
			name:   "non-default port kept",
			mutate: func(r *http.Request) { r.Host = "localhost:8080" },
			want:   "http://localhost:8080/a",
		},
		{
			name:   "default http port dropped",
			mutate: func(r *http.Request) { r.Host = "localhost:80" },
			want:   "http://localhost/a",
		},
		{
			name: "tls",
			mutate: func(r *http.Request) {
				r.Host = "sho.rt:443"
				r.TLS = &tls.ConnectionState{}
			},
			want: "https://sho.rt/a",
		},
		{
			name: "behind a trusted proxy",
			app:  config.AppConfig{TrustProxyHeaders: true},
			mutate: func(r *http.Request) {
				r.Header.Set("X-Forwarded-Proto", "https")
				r.Header.Set("X-Forwarded-Host", "sho.rt")
			},
			want: "https://sho.rt/a",
		},
		{
			name: "forwarded headers ignored by default",
			mutate: func(r *http.Request) {
				r.Header.Set("X-Forwarded-Proto", "https")
				r.Header.Set("X-Forwarded-Host", "attacker.example")
			},
			want: "http://localhost/a",
		},
		{
			name: "context path",
			app:  config.AppConfig{ContextPath: "/s"},
			want: "http://localhost/s/a",
		},
		{
			name: "configured base url wins",
			app:  config.AppConfig{BaseURL: "https://links.example/"},
			want: "https://links.example/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupTestRouter(t, tt.app)
			mutate := func(*http.Request) {}
			if tt.mutate != nil {
				mutate = tt.mutate
			}

			rec := do(h, http.MethodPost, tt.app.ContextPath+"/shorten",
				`{"fullUrl": "https://example.com", "customAlias": "a"}`, mutate)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decodeMap(t, rec)["shortUrl"])
		})
	}
}

func TestHandleRedirect_NotFound(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})

	rec := do(h, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/error", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/error", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Resource not found", decodeMap(t, rec)["error"])
}

func TestHandleDelete(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})

	rec := do(h, http.MethodPost, "/shorten", `{"fullUrl": "https://example.com", "customAlias": "custom"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(h, http.MethodDelete, "/custom", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(h, http.MethodGet, "/custom", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodDelete, "/custom", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]string{"error": "Alias not found: custom"}, decodeMap(t, rec))
}

func TestHandleList(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})

	rec := do(h, http.MethodGet, "/urls", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, alias := range []string{"one", "two", "urls"} {
		rec = do(h, http.MethodPost, "/shorten", `{"fullUrl": "https://example.com/`+alias+`", "customAlias": "`+alias+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = do(h, http.MethodGet, "/urls", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.URLMappingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.ElementsMatch(t, []model.URLMappingView{
		{Alias: "one", FullURL: "https://example.com/one", ShortURL: "http://localhost/one"},
		{Alias: "two", FullURL: "https://example.com/two", ShortURL: "http://localhost/two"},
		{Alias: "urls", FullURL: "https://example.com/urls", ShortURL: "http://localhost/urls"},
	}, got)

	// only the public fields are exposed
	assert.NotContains(t, rec.Body.String(), "isCustomised")
	assert.NotContains(t, rec.Body.String(), "createdAt")

	// "urls" is shadowed for redirects but can still be deleted
	rec = do(h, http.MethodDelete, "/urls", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "healthy"}, decodeMap(t, rec))
}

func TestMethodNotAllowed(t *testing.T) {
	h := setupTestRouter(t, config.AppConfig{})

	rec := do(h, http.MethodPut, "/custom", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method PUT not allowed", decodeMap(t, rec)["error"])
}

func TestStoreFailuresAreOpaque(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	dbErr := context.DeadlineExceeded

	repo.EXPECT().Get(gomock.Any(), "abc").Return(nil, dbErr)
	repo.EXPECT().List(gomock.Any()).Return(nil, dbErr)
	repo.EXPECT().Exists(gomock.Any(), "abc").Return(false, dbErr)
	repo.EXPECT().Ping(gomock.Any()).Return(dbErr)

	h := setupTestRouterWithRepo(t, repo, config.AppConfig{})
	want := map[string]string{"error": "An unexpected error occurred: internal server error"}

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/abc"},
		{http.MethodGet, "/urls"},
		{http.MethodDelete, "/abc"},
	} {
		rec := do(h, tc.method, tc.target, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.target)
		assert.Equal(t, want, decodeMap(t, rec))
	}

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestShorten_ExhaustedAliasSpace(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	h := setupTestRouterWithRepo(t, repo, config.AppConfig{})

	rec := do(h, http.MethodPost, "/shorten", `{"fullUrl": "https://example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred: "+service.ErrAliasSpaceExhausted.Error(), decodeMap(t, rec)["error"])
}

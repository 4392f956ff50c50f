package router_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/auth"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/handlers"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/metrics"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/pptx/pptxtest"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/router"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/service"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage"
)

func newServer(t *testing.T, rate string) *httptest.Server {
	t.Helper()

	m := metrics.New()
	svc := service.NewGeneratorService(storage.NewMemoryStore(), m, zap.NewNop(), "", 1)
	h := handlers.NewHandler(svc, zap.NewNop(), 0)

	r, err := router.NewRouter(h, zap.NewNop(), router.Options{
		Auth:          auth.New("router-secret"),
		Metrics:       m.Handler(),
		TrustedSubnet: "127.0.0.0/8",
		RateLimit:     rate,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func generateRequest(t *testing.T, url string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("running_numbers", "1\n2"))
	fw, err := mw.CreateFormFile("template_file", "t.pptx")
	require.NoError(t, err)
	_, err = fw.Write(pptxtest.Template{Shapes: [][]string{{"{{NUM}}"}}}.Build())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/generate", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(t *testing.T, client *http.Client, req *http.Request) int {
	t.Helper()

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRouter_Routes(t *testing.T) {
	srv := newServer(t, "")
	client := srv.Client()

	tests := []struct {
		name   string
		method string
		path   string
		realIP string
		want   int
	}{
		{name: "index", method: http.MethodGet, path: "/", want: http.StatusOK},
		{name: "ping", method: http.MethodGet, path: "/ping", want: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", want: http.StatusOK},
		{name: "empty history", method: http.MethodGet, path: "/api/user/generations", want: http.StatusNoContent},
		{name: "stats trusted", method: http.MethodGet, path: "/api/internal/stats", realIP: "127.0.0.5", want: http.StatusOK},
		{name: "stats untrusted", method: http.MethodGet, path: "/api/internal/stats", realIP: "8.8.8.8", want: http.StatusForbidden},
		{name: "generate wrong method", method: http.MethodGet, path: "/generate", want: http.StatusMethodNotAllowed},
		{name: "unknown", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, do(t, client, req))
		})
	}
}

func TestRouter_HistoryFollowsSession(t *testing.T) {
	srv := newServer(t, "")
	client := srv.Client()

	resp, err := client.Do(generateRequest(t, srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/user/generations", nil)
	require.NoError(t, err)
	req.AddCookie(session)
	assert.Equal(t, http.StatusOK, do(t, client, req))
}

func TestRouter_GenerateRateLimited(t *testing.T) {
	srv := newServer(t, "1-M")
	client := srv.Client()

	assert.Equal(t, http.StatusOK, do(t, client, generateRequest(t, srv.URL)))
	assert.Equal(t, http.StatusTooManyRequests, do(t, client, generateRequest(t, srv.URL)))

	// Остальные маршруты лимит не затрагивает
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(t, client, req))
}

func TestRouter_InvalidRate(t *testing.T) {
	svc := service.NewGeneratorService(storage.NewMemoryStore(), nil, zap.NewNop(), "", 1)
	_, err := router.NewRouter(handlers.NewHandler(svc, zap.NewNop(), 0), zap.NewNop(), router.Options{
		Auth:      auth.New("x"),
		RateLimit: "fast",
	})
	assert.Error(t, err)
}

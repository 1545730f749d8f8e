package request

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgate/pkg/requestcontext"
)

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRequestID(t *testing.T) {
	capture := func(header string) (ctxID, respID string) {
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = requestcontext.RequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/auth/sign-in", nil)
		if header != "" {
			req.Header.Set("X-Request-ID", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return ctxID, w.Header().Get("X-Request-ID")
	}

	t.Run("mints a UUID when absent", func(t *testing.T) {
		ctxID, respID := capture("")
		assert.Len(t, ctxID, 36)
		assert.Equal(t, ctxID, respID)
	})

	t.Run("propagates a safe client ID", func(t *testing.T) {
		ctxID, respID := capture("edge.trace_42-a")
		assert.Equal(t, "edge.trace_42-a", ctxID)
		assert.Equal(t, ctxID, respID)
	})

	t.Run("replaces unsafe client IDs", func(t *testing.T) {
		for _, bad := range []string{
			"line\ninjected", `quo"te`, "semi;colon", "sp ace", strings.Repeat("a", MaxRequestIDLength+1),
		} {
			ctxID, _ := capture(bad)
			assert.NotEqual(t, bad, ctxID)
			assert.Len(t, ctxID, 36)
		}
	})

	t.Run("accepts the maximum length", func(t *testing.T) {
		id := strings.Repeat("x", MaxRequestIDLength)
		ctxID, _ := capture(id)
		assert.Equal(t, id, ctxID)
	})
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/account", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	t.Run("logs ordinary requests", func(t *testing.T) {
		logs.Reset()
		h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/sign-up", nil))
		assert.Contains(t, logs.String(), `"status":201`)
		assert.Contains(t, logs.String(), `"path":"/auth/sign-up"`)
	})

	t.Run("skips healthy probes", func(t *testing.T) {
		logs.Reset()
		h := Logger(logger)(http.HandlerFunc(okHandler))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Empty(t, logs.String())
	})
}

func TestRequireContentType(t *testing.T) {
	h := RequireContentType("image/*")(http.HandlerFunc(okHandler))

	cases := map[string]int{
		"image/png":        http.StatusOK,
		"image/webp":       http.StatusOK,
		"application/json": http.StatusUnsupportedMediaType,
		"text/plain":       http.StatusUnsupportedMediaType,
		"":                 http.StatusOK,
	}
	for ct, want := range cases {
		req := httptest.NewRequest(http.MethodPut, "/admin/account/avatar", strings.NewReader("x"))
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, ct)
	}

	t.Run("JSON helper accepts parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		w := httptest.NewRecorder()
		ContentTypeJSON(http.HandlerFunc(okHandler)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GET is never checked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/account", nil)
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		ContentTypeJSON(http.HandlerFunc(okHandler)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	require.Error(t, readErr)
}

func TestRequestTime(t *testing.T) {
	var first, second time.Time
	h := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, first, second)
}

func TestLatencyUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Delete("/admin/account/sessions/{session_id}", okHandler)

	for _, id := range []string{"sess_1", "sess_2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/admin/account/sessions/"+id, nil))
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

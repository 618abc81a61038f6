package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", "text").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("loud", "text").GetLevel())

	_, ok := New("info", "json").Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
	_, ok = New("info", "").Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/gone", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	e := hook.LastEntry()
	require.NotNil(t, e)
	assert.Equal(t, logrus.InfoLevel, e.Level)
	assert.Equal(t, http.StatusOK, e.Data["status"])
	assert.Equal(t, "/ok", e.Data["path"])
	assert.NotEmpty(t, e.Data["request_id"])

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/gone", nil))
	e = hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, e.Level)
	assert.Equal(t, http.StatusNotFound, e.Data["status"])
	assert.Len(t, hook.AllEntries(), 2)
}

package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_Healthz(t *testing.T) {
	tests := []struct {
		name   string
		health HealthFunc
		code   int
	}{
		{name: "no check", health: nil, code: http.StatusOK},
		{name: "healthy", health: func(context.Context) error { return nil }, code: http.StatusOK},
		{name: "unhealthy", health: func(context.Context) error { return errors.New("redis down") }, code: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handler(tt.health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandler_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

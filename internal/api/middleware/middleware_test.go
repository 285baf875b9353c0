package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

func echoSession() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(SessionID(r.Context())))
	})
}

func TestSessionIssuesCookie(t *testing.T) {
	h := Session(true)(echoSession())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookie, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, c.Value, rec.Body.String())
	_, err := uuid.Parse(c.Value)
	assert.NoError(t, err)
}

func TestSessionReusesValidCookie(t *testing.T) {
	h := Session(false)(echoSession())
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, id, rec.Body.String())
}

func TestSessionReplacesMalformedCookie(t *testing.T) {
	h := Session(false)(echoSession())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "../../etc", rec.Body.String())
}

type settingsFunc func(ctx context.Context) (*models.Settings, error)

func (f settingsFunc) Get(ctx context.Context) (*models.Settings, error) { return f(ctx) }

func TestMaintenance(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		src    settingsFunc
		status int
	}{
		{
			name: "off",
			src: func(context.Context) (*models.Settings, error) {
				return models.DefaultSettings("Shop"), nil
			},
			status: http.StatusOK,
		},
		{
			name: "on",
			src: func(context.Context) (*models.Settings, error) {
				st := models.DefaultSettings("Shop")
				st.Maintenance = true
				return st, nil
			},
			status: http.StatusServiceUnavailable,
		},
		{
			name: "settings unreadable",
			src: func(context.Context) (*models.Settings, error) {
				return nil, errors.New("db down")
			},
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Maintenance(tt.src)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusServiceUnavailable {
				assert.Equal(t, "300", rec.Header().Get("Retry-After"))
				assert.Contains(t, rec.Body.String(), `"error":"maintenance"`)
			}
		})
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

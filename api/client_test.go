package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		BaseURL:    srv.URL,
		RetryCount: 2,
		RetryWait:  time.Millisecond,
	}, opts...)
	require.NoError(t, err)
	return c, srv
}

func staticToken(tok string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, bool) { return tok, tok != "" })
}

func TestNew(t *testing.T) {
	t.Run("Should require a base URL", func(t *testing.T) {
		_, err := New(Config{})
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})
	t.Run("Should reject non-http schemes", func(t *testing.T) {
		_, err := New(Config{BaseURL: "ftp://campus.local"})
		assert.Error(t, err)
	})
	t.Run("Should trim the trailing slash", func(t *testing.T) {
		c, err := New(Config{BaseURL: "http://campus.local:3000/"})
		require.NoError(t, err)
		assert.Equal(t, "http://campus.local:3000", c.BaseURL())
	})
}

func TestLogin(t *testing.T) {
	t.Run("Should decode the reply and keep the raw body", func(t *testing.T) {
		const reply = `{"user":{"id":"u1","full_name":"Айгерим","email":"a@uni.kz","role":"Декан"},"session":{"access_token":"tok-1"},"extra":42}`
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/login", r.URL.Path)
			var creds Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "a@uni.kz", creds.Email)
			assert.Equal(t, "secret", creds.Password)
			_, _ = io.WriteString(w, reply)
		}))

		resp, err := c.Login(context.Background(), Credentials{Email: "a@uni.kz", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "tok-1", resp.Token())
		require.NotNil(t, resp.User)
		assert.Equal(t, "u1", resp.User.ID)
		assert.Equal(t, "Декан", resp.User.Role)
		assert.JSONEq(t, reply, string(resp.Raw))
	})

	t.Run("Should surface the server error message", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Неверный пароль"}`)
		}))

		_, err := c.Login(context.Background(), Credentials{Email: "a@uni.kz", Password: "x"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, "Неверный пароль", apiErr.Message)
	})

	t.Run("Should fall back to the generic message and never retry", func(t *testing.T) {
		var hits atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "upstream down")
		}))

		_, err := c.Login(context.Background(), Credentials{})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, LoginFallbackMessage, apiErr.Message)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestMe(t *testing.T) {
	t.Run("Should send the bearer token", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/me", r.URL.Path)
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"id":"u1","full_name":"Ерлан","email":"e@uni.kz","role":"студент","group_id":"g7"}`)
		}))

		id, err := c.Me(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, &Identity{ID: "u1", FullName: "Ерлан", Email: "e@uni.kz", Role: "студент", GroupID: "g7"}, id)
	})

	t.Run("Should reject a body without an id", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"full_name":"nobody"}`)
		}))
		_, err := c.Me(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("Should reject a non-object body", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `["u1"]`)
		}))
		_, err := c.Me(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("Should call the backend exactly once for an invalid token", func(t *testing.T) {
		var hits atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		_, err := c.Me(context.Background(), "stale")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("Should not call the backend without a token", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("unexpected request")
		}))
		_, err := c.Me(context.Background(), "")
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
}

func TestRetryingEndpoints(t *testing.T) {
	t.Run("Should retry transient failures", func(t *testing.T) {
		var hits atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, `[{"id":"d1","name":"ИТ"}]`)
		}))

		out, err := c.Departments(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"d1","name":"ИТ"}]`, string(out))
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("Should attach the stored token when available", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/marks/u%201", r.URL.EscapedPath())
			assert.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `[]`)
		}), WithTokenSource(staticToken("tok-9")))

		_, err := c.Marks(context.Background(), "u 1")
		require.NoError(t, err)
	})
}

func TestCheckRoomAvailability(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/admin/check-room", r.URL.Path)
		assert.Equal(t, "r-101", q.Get("room_id"))
		assert.Equal(t, "3", q.Get("day"))
		assert.Equal(t, "s2", q.Get("slot_id"))
		_, _ = io.WriteString(w, `{"isAvailable":true}`)
	}))

	ok, err := c.CheckRoomAvailability(context.Background(), "r-101", 3, "s2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthRequiredEndpoints(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request")
	}), WithTokenSource(staticToken("")))

	_, err := c.GenerateSchedule(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = c.RegisterPushToken(context.Background(), "ExponentPushToken[x]")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestDeleteScheduleItemError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}))

	err := c.DeleteScheduleItem(context.Background(), "l-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "not found", apiErr.Message)
	assert.Equal(t, "/api/admin/schedule/l-1", apiErr.Path)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "boom", ServerMessage([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "", ServerMessage([]byte(`<html>`)))
	assert.Equal(t, "", ServerMessage(nil))
}

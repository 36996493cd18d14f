package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moseb/config"
)

func completionBody(text string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + jsonString(text) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestRouter(routes []config.RouteConfig, keys map[string]string) *HTTPRouter {
	creds := config.NewCredentialStore()
	for id, key := range keys {
		creds.Set(id, key)
	}
	return New(routes, creds)
}

func TestInvokePayloadShapes(t *testing.T) {
	var captured struct {
		body    map[string]any
		auth    string
		referer string
		title   string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &captured.body))
		captured.auth = r.Header.Get("Authorization")
		captured.referer = r.Header.Get("HTTP-Referer")
		captured.title = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("hello back")))
	}))
	defer srv.Close()

	rt := newTestRouter([]config.RouteConfig{
		{ID: "moseb-ai", Endpoint: srv.URL, Model: "mistral-small", PayloadShape: config.PayloadShapeParts, Referer: "https://moseb.app", Title: "Moseb AI"},
		{ID: "moseb-reason", Endpoint: srv.URL, Model: "nemotron", PayloadShape: config.PayloadShapeFlat},
	}, map[string]string{"moseb-ai": "key-ai", "moseb-reason": "key-reason"})

	t.Run("parts shape wraps text in a typed content array", func(t *testing.T) {
		got := rt.Invoke(context.Background(), "what is Go?", "moseb-ai")
		assert.Equal(t, "hello back", got)
		assert.Equal(t, "Bearer key-ai", captured.auth)
		assert.Equal(t, "https://moseb.app", captured.referer)
		assert.Equal(t, "Moseb AI", captured.title)
		assert.Equal(t, "mistral-small", captured.body["model"])

		msgs, ok := captured.body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 1)
		msg := msgs[0].(map[string]any)
		assert.Equal(t, "user", msg["role"])

		parts, ok := msg["content"].([]any)
		require.True(t, ok, "parts shape must carry a nested content array")
		require.Len(t, parts, 1)
		part := parts[0].(map[string]any)
		assert.Equal(t, "text", part["type"])
		assert.Equal(t, "what is Go?", part["text"])
	})

	t.Run("flat shape sends content as a plain string", func(t *testing.T) {
		got := rt.Invoke(context.Background(), "what is Go?", "moseb-reason")
		assert.Equal(t, "hello back", got)
		assert.Equal(t, "Bearer key-reason", captured.auth)
		assert.Equal(t, "nemotron", captured.body["model"])

		msgs := captured.body["messages"].([]any)
		require.Len(t, msgs, 1)
		msg := msgs[0].(map[string]any)
		assert.Equal(t, "user", msg["role"])

		content, ok := msg["content"].(string)
		require.True(t, ok, "flat shape must carry content as a string")
		assert.Equal(t, "what is Go?", content)
	})
}

func TestInvokeNormalization(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "first completion text extracted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"first"}},{"message":{"content":"second"}}]}`))
			},
			want: "first",
		},
		{
			name: "empty choices yields no-response sentinel",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			want: EmptyReply,
		},
		{
			name: "empty content yields no-response sentinel",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
			},
			want: EmptyReply,
		},
		{
			name: "error status yields fallback",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
			want: FallbackReply,
		},
		{
			name: "malformed body yields fallback",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":`))
			},
			want: FallbackReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			rt := newTestRouter([]config.RouteConfig{
				{ID: "moseb-ai", Endpoint: srv.URL, Model: "m", PayloadShape: config.PayloadShapeFlat},
			}, map[string]string{"moseb-ai": "k"})

			assert.Equal(t, tt.want, rt.Invoke(context.Background(), "q", "moseb-ai"))
		})
	}
}

func TestInvokeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable endpoint

	rt := newTestRouter([]config.RouteConfig{
		{ID: "moseb-ai", Endpoint: srv.URL, Model: "m", PayloadShape: config.PayloadShapeFlat},
	}, map[string]string{"moseb-ai": "k"})

	assert.Equal(t, FallbackReply, rt.Invoke(context.Background(), "q", "moseb-ai"))
}

func TestInvokeUnknownModel(t *testing.T) {
	rt := newTestRouter(nil, nil)
	assert.Equal(t, FallbackReply, rt.Invoke(context.Background(), "q", "no-such-model"))
}

func TestValidate(t *testing.T) {
	routes := []config.RouteConfig{
		{ID: "moseb-ai", Endpoint: "https://example.com", Model: "m", PayloadShape: config.PayloadShapeParts},
	}

	assert.Error(t, newTestRouter(routes, nil).Validate())
	assert.NoError(t, newTestRouter(routes, map[string]string{"moseb-ai": "k"}).Validate())
}

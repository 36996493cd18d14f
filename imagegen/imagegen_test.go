package imagegen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moseb/chat"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrompt string
		wantOK     bool
	}{
		{"basic command", "create an image of a red fox in snow", "a red fox in snow", true},
		{"case insensitive prefix", "Create An Image Of a castle", "a castle", true},
		{"surrounding whitespace", "  create an image of  a boat  ", "a boat", true},
		{"empty prompt still a command", "create an image of", "", true},
		{"plain message", "tell me about foxes", "", false},
		{"prefix mid-sentence is not a command", "please create an image of a fox", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, ok := ParseCommand(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPrompt, prompt)
		})
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := New(srv.URL + "/prompt/")
	payload, err := g.Generate(context.Background(), "a red fox in snow")
	require.NoError(t, err)

	assert.Equal(t, "a red fox in snow", payload.Content)
	assert.Equal(t, srv.URL+"/prompt/a%20red%20fox%20in%20snow", payload.ImageURL)
	assert.Equal(t, chat.ImagePayloadType, payload.Type)

	// The payload round-trips through the message content contract.
	encoded, err := payload.Encode()
	require.NoError(t, err)
	kind, parsed := chat.ParseContent(encoded)
	assert.Equal(t, chat.ContentImage, kind)
	require.NotNil(t, parsed)
	assert.Equal(t, payload, *parsed)
}

func TestGenerateProbeFailureIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "warming up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := New(srv.URL)
	payload, err := g.Generate(context.Background(), "a castle")
	require.NoError(t, err, "a failed probe must not fail generation")
	assert.Equal(t, srv.URL+"/a%20castle", payload.ImageURL)
}

func TestGenerateUnreachableEndpointIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := New(srv.URL)
	payload, err := g.Generate(context.Background(), "a castle")
	require.NoError(t, err)
	assert.NotEmpty(t, payload.ImageURL)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	g := New("https://image.example/prompt")
	_, err := g.Generate(context.Background(), "   ")
	assert.Error(t, err)
}

// Package router maps logical model identifiers to backend invocations.
//
// Each model id is bound to a fixed route: endpoint, bearer credential,
// upstream model name and request payload shape. The shapes differ on
// purpose — one backend expects the user text wrapped in a multi-part
// content array, the others take a flat string — and the router preserves
// that asymmetry rather than normalizing it away.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"moseb/chat"
	"moseb/config"
)

const (
	// FallbackReply is returned for any failed invocation: transport error,
	// non-success status or undecodable payload. A failed call fails the
	// turn; there is no retry.
	FallbackReply = "Sorry, there was an error processing your request."

	// EmptyReply is returned when the backend answered but carried no
	// completion text.
	EmptyReply = "No response from the AI."
)

type route struct {
	endpoint string
	apiKey   string
	model    string
	shape    string
	referer  string
	title    string
}

// HTTPRouter implements chat.Router over HTTP POST backends.
type HTTPRouter struct {
	client *resty.Client
	routes map[chat.ModelID]route
}

var _ chat.Router = (*HTTPRouter)(nil)

// New builds a router from the configured route table, resolving each
// route's bearer credential from the credential store.
func New(routes []config.RouteConfig, creds *config.CredentialStore) *HTTPRouter {
	r := &HTTPRouter{
		client: resty.New(),
		routes: make(map[chat.ModelID]route, len(routes)),
	}
	for _, rc := range routes {
		r.routes[chat.ModelID(rc.ID)] = route{
			endpoint: rc.Endpoint,
			apiKey:   creds.Get(rc.ID),
			model:    rc.Model,
			shape:    rc.PayloadShape,
			referer:  rc.Referer,
			title:    rc.Title,
		}
	}
	return r
}

// Request body shapes. textPart/partsMessage produce the nested content
// array; flatMessage produces the plain string form.

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type partsMessage struct {
	Role    string     `json:"role"`
	Content []textPart `json:"content"`
}

type flatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Invoke sends content to the backend bound to model and returns the first
// completion's text. It never fails: errors of any kind come back as
// FallbackReply, an answered-but-empty completion as EmptyReply.
func (r *HTTPRouter) Invoke(ctx context.Context, content string, model chat.ModelID) string {
	rt, ok := r.routes[model]
	if !ok {
		log.Error().Str("model", string(model)).Msg("no route for model")
		return FallbackReply
	}

	body := map[string]any{"model": rt.model}
	switch rt.shape {
	case config.PayloadShapeParts:
		body["messages"] = []partsMessage{{
			Role:    "user",
			Content: []textPart{{Type: "text", Text: content}},
		}}
	default:
		body["messages"] = []flatMessage{{Role: "user", Content: content}}
	}

	req := r.client.R().
		SetContext(ctx).
		SetAuthToken(rt.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if rt.referer != "" {
		req.SetHeader("HTTP-Referer", rt.referer)
	}
	if rt.title != "" {
		req.SetHeader("X-Title", rt.title)
	}

	resp, err := req.Post(rt.endpoint)
	if err != nil {
		log.Error().Err(err).Str("model", string(model)).Msg("backend call failed")
		return FallbackReply
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("model", string(model)).
			Msg("backend returned error status")
		return FallbackReply
	}

	var out completionResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		log.Error().Err(err).Str("model", string(model)).Msg("malformed backend response")
		return FallbackReply
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return EmptyReply
	}
	return out.Choices[0].Message.Content
}

// Models returns the configured model ids, for driver-side validation.
func (r *HTTPRouter) Models() []chat.ModelID {
	out := make([]chat.ModelID, 0, len(r.routes))
	for id := range r.routes {
		out = append(out, id)
	}
	return out
}

// Validate checks that every configured route carries a credential.
func (r *HTTPRouter) Validate() error {
	for id, rt := range r.routes {
		if rt.apiKey == "" {
			return fmt.Errorf("no API key configured for model %s", id)
		}
	}
	return nil
}

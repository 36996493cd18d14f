// Package imagegen is the image-synthesis collaborator: it turns a prompt
// into the structured image-generation payload the chat core carries in a
// message's content. The actual pixels come from an external prompt-to-image
// endpoint that resolves URL-encoded prompts.
package imagegen

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"moseb/chat"
)

// CommandPrefix marks user input that requests image generation instead of
// a text turn.
const CommandPrefix = "create an image of"

// ParseCommand extracts the prompt from an image-generation command.
// Returns ok=false when the input is not such a command; an empty prompt
// after the prefix yields ok=true with an empty prompt, which Generate
// rejects.
func ParseCommand(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(strings.ToLower(trimmed), CommandPrefix) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(CommandPrefix):]), true
}

// Generator builds image-generation payloads against a fixed endpoint.
type Generator struct {
	endpoint string
	client   *resty.Client
}

// New creates a generator for the given prompt-to-image endpoint, e.g.
// "https://image.pollinations.ai/prompt".
func New(endpoint string) *Generator {
	return &Generator{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   resty.New().SetTimeout(5 * time.Second),
	}
}

// Generate encodes the prompt into a resolvable image URL and wraps it in
// the wire payload. The endpoint is probed so obviously dead endpoints get
// logged, but a failed probe is non-fatal: the URL is returned regardless,
// matching the upstream contract that images resolve lazily.
func (g *Generator) Generate(ctx context.Context, prompt string) (chat.ImagePayload, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return chat.ImagePayload{}, fmt.Errorf("empty image prompt")
	}

	imageURL := g.endpoint + "/" + url.PathEscape(prompt)

	if resp, err := g.client.R().SetContext(ctx).Head(imageURL); err != nil {
		log.Debug().Err(err).Msg("image endpoint probe failed")
	} else if resp.IsError() {
		log.Debug().Int("status", resp.StatusCode()).Msg("image endpoint probe rejected")
	}

	return chat.ImagePayload{
		Content:  prompt,
		ImageURL: imageURL,
		Type:     chat.ImagePayloadType,
	}, nil
}

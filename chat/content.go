package chat

import "encoding/json"

// ContentKind classifies a message's content once, at construction time,
// so readers never have to re-parse the raw string.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentImage
)

// ImagePayloadType is the discriminator value marking generated-image turns.
const ImagePayloadType = "image-generation"

// ImagePayload is the structured value carried inside a message's content
// field when the turn represents a generated image. It is the wire contract
// with the image-synthesis side (see the imagegen package), so the JSON field
// names are fixed.
type ImagePayload struct {
	Content  string `json:"content"` // the prompt
	ImageURL string `json:"imageUrl"`
	Type     string `json:"type"`
}

// Encode serializes the payload back into the form carried in Message.Content.
func (p ImagePayload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseContent classifies raw message content. Content is an image payload
// iff it deserializes as JSON with the image-generation discriminator and a
// non-empty URL. Anything else, including undecodable input, is plain text.
func ParseContent(raw string) (ContentKind, *ImagePayload) {
	var p ImagePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return ContentText, nil
	}
	if p.Type != ImagePayloadType || p.ImageURL == "" {
		return ContentText, nil
	}
	return ContentImage, &p
}

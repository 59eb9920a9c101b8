package llm

import "context"

// Provider is a multimodal chat-completion endpoint.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Part is one content part of the user message: a text segment or an
// inline base64-encoded image.
type Part struct {
	Type      string `json:"type"` // "text" or "image"
	Text      string `json:"text,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"` // base64, no data-URL prefix
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Type: "text", Text: text}
}

// ImagePart builds an inline image content part.
func ImagePart(mediaType, data string) Part {
	return Part{Type: "image", MediaType: mediaType, Data: data}
}

// Request describes one model call.
type Request struct {
	Model       string
	System      string
	Parts       []Part
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Usage carries the endpoint's token counters.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete model reply. Cost is zero when the endpoint does
// not report a monetary figure.
type Response struct {
	Text  string
	Usage Usage
	Cost  float64
}

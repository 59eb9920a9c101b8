// Package payload assembles provider-agnostic multimodal message content
// from a text prompt and a heterogeneous set of image references.
package payload

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stellarlinkco/chestbench/internal/llm"
)

// ErrNoImages signals that payload assembly attached zero usable images.
// Callers treat it as a skip condition, not a malformed-payload error.
var ErrNoImages = errors.New("payload: no usable images")

const (
	imageMediaType      = "image/jpeg"
	defaultFetchTimeout = 30 * time.Second
	// localPrefix is stripped from dataset refs before re-rooting them
	// under the figures directory.
	localPrefix = "figures/"
)

// Builder turns a prompt plus image references into ordered message parts:
// one text part followed by zero or more inline image parts.
type Builder struct {
	// FiguresDir is the root for local image references.
	FiguresDir string
	// UseURLs selects remote references over local files.
	UseURLs bool
	// Client fetches remote images; a default client is used when nil.
	Client *http.Client

	// Warnf receives one line per skipped or loaded asset. Optional.
	Warnf func(format string, args ...any)
}

// Build assembles the payload. References that are empty, not strings, or
// (locally) missing on disk are skipped; if no image survives, the text-only
// payload is returned alongside ErrNoImages.
func (b *Builder) Build(ctx context.Context, prompt string, refs any) ([]llm.Part, error) {
	if b == nil {
		return nil, errors.New("payload: nil builder")
	}
	if ctx == nil {
		return nil, errors.New("payload: nil context")
	}

	parts := []llm.Part{llm.TextPart(prompt)}
	for _, ref := range Flatten(refs) {
		var data string
		var ok bool
		if b.UseURLs {
			data, ok = b.encodeURL(ctx, ref)
		} else {
			data, ok = b.encodeLocal(ref)
		}
		if !ok {
			continue
		}
		parts = append(parts, llm.ImagePart(imageMediaType, data))
	}

	if len(parts) == 1 {
		return parts, ErrNoImages
	}
	return parts, nil
}

// Flatten normalizes an image-reference value: a single string, a flat list,
// or a one-level-nested list of figure groups. Nesting is flattened exactly
// one level; empty and non-string entries are dropped. Order is preserved.
func Flatten(refs any) []string {
	switch v := refs.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case [][]string:
		var out []string
		for _, group := range v {
			for _, s := range group {
				if strings.TrimSpace(s) != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range v {
			switch inner := item.(type) {
			case string:
				if strings.TrimSpace(inner) != "" {
					out = append(out, inner)
				}
			case []any:
				for _, nested := range inner {
					if s, ok := nested.(string); ok && strings.TrimSpace(s) != "" {
						out = append(out, s)
					}
				}
			case []string:
				for _, s := range inner {
					if strings.TrimSpace(s) != "" {
						out = append(out, s)
					}
				}
			}
		}
		return out
	default:
		return nil
	}
}

func (b *Builder) encodeLocal(ref string) (string, bool) {
	rel := strings.TrimPrefix(ref, localPrefix)
	full := filepath.Join(b.FiguresDir, filepath.FromSlash(rel))

	if _, err := os.Stat(full); err != nil {
		b.warnf("image file not found: %s", full)
		return "", false
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		b.warnf("error encoding image %s: %v", full, err)
		return "", false
	}

	b.warnf("loaded image: %s", full)
	return base64.StdEncoding.EncodeToString(raw), true
}

func (b *Builder) encodeURL(ctx context.Context, url string) (string, bool) {
	client := b.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.warnf("error encoding image from URL %s: %v", url, err)
		return "", false
	}

	resp, err := client.Do(req)
	if err != nil {
		b.warnf("error encoding image from URL %s: %v", url, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.warnf("error encoding image from URL %s: %s", url, resp.Status)
		return "", false
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		b.warnf("error encoding image from URL %s: %v", url, err)
		return "", false
	}

	b.warnf("loaded image from URL: %s", url)
	return base64.StdEncoding.EncodeToString(raw), true
}

func (b *Builder) warnf(format string, args ...any) {
	if b == nil || b.Warnf == nil {
		return
	}
	b.Warnf(format, args...)
}

// Describe lists the flattened references for logging, without any image
// bytes attached.
func Describe(refs any) []string {
	flat := Flatten(refs)
	if len(flat) == 0 {
		return nil
	}
	out := make([]string, len(flat))
	copy(out, flat)
	return out
}

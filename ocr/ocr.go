//go:build ocr

// Package ocr recognizes text in page images, as a fallback for scanned
// documents whose pages carry no text operators.
//
// It wraps the Tesseract engine via gosseract and needs Tesseract installed
// on the system. Debian/Ubuntu:
//
//	apt-get install tesseract-ocr libtesseract-dev
//
// macOS:
//
//	brew install tesseract
//
// Build with the "ocr" tag to compile this implementation in; without it a
// stub is used that reports ErrNotEnabled.
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether OCR support was compiled in.
const Enabled = true

// Client recognizes text in images. Close it when done.
type Client struct {
	engine *gosseract.Client
}

// New creates a Tesseract-backed client.
func New() (*Client, error) {
	return &Client{engine: gosseract.NewClient()}, nil
}

// Close releases the engine.
func (c *Client) Close() error {
	if c == nil || c.engine == nil {
		return nil
	}
	return c.engine.Close()
}

// SetLanguage selects recognition languages, "+" separated, e.g. "eng+deu".
func (c *Client) SetLanguage(lang string) error {
	return c.engine.SetLanguage(lang)
}

// Recognize runs OCR on an encoded image (PNG, JPEG, TIFF) and returns the
// recognized text, trimmed.
func (c *Client) Recognize(imageData []byte) (string, error) {
	if err := c.engine.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}
	text, err := c.engine.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

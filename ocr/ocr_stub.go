//go:build !ocr

// Package ocr recognizes text in page images, as a fallback for scanned
// documents whose pages carry no text operators.
//
// This is the stub compiled when the "ocr" build tag is absent; every
// operation reports ErrNotEnabled. Rebuild with -tags ocr (Tesseract must
// be installed) for real recognition.
package ocr

import "errors"

// ErrNotEnabled is reported when OCR support was not compiled in.
var ErrNotEnabled = errors.New("ocr support not enabled; rebuild with -tags ocr")

// Enabled reports whether OCR support was compiled in.
const Enabled = false

// Client matches the Tesseract-backed client's surface.
type Client struct{}

// New reports ErrNotEnabled.
func New() (*Client, error) {
	return nil, ErrNotEnabled
}

// Close is a no-op, safe on a nil client.
func (c *Client) Close() error { return nil }

// SetLanguage reports ErrNotEnabled.
func (c *Client) SetLanguage(lang string) error { return ErrNotEnabled }

// Recognize reports ErrNotEnabled.
func (c *Client) Recognize(imageData []byte) (string, error) {
	return "", ErrNotEnabled
}

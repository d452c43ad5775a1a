//go:build ocr

package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func blankPNG(width, height int) []byte {
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestRecognize(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("tesseract not available: %v", err)
	}
	defer client.Close()

	// A blank image recognizes to empty text; the point is that the
	// round trip through the engine works.
	text, err := client.Recognize(blankPNG(200, 100))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "" {
		t.Logf("unexpected text on blank image: %q", text)
	}
}

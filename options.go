package folio

// TextOption configures text extraction.
type TextOption func(*textConfig)

type textConfig struct {
	ocrFallback bool
	ocrLanguage string
}

func defaultTextConfig() textConfig {
	return textConfig{
		ocrFallback: false,
		ocrLanguage: "eng",
	}
}

// WithOCRFallback runs OCR over a page's images when the page has no text
// operators. Recognition needs the Tesseract-backed ocr build; without it
// every fallback page produces a warning instead.
func WithOCRFallback() TextOption {
	return func(c *textConfig) {
		c.ocrFallback = true
	}
}

// WithOCRLanguage sets the recognition language, default "eng". Implies
// nothing unless WithOCRFallback is also given.
func WithOCRLanguage(lang string) TextOption {
	return func(c *textConfig) {
		c.ocrLanguage = lang
	}
}

// WatermarkOption configures watermark appearance.
type WatermarkOption func(*watermarkConfig)

type watermarkConfig struct {
	font    string
	size    float64
	opacity float64
	angle   float64
	x, y    float64
	gray    float64
}

// Placement is fixed in page space regardless of MediaBox; pages smaller
// than the anchor clip the overlay.
func defaultWatermarkConfig() watermarkConfig {
	return watermarkConfig{
		font:    "Helvetica",
		size:    50,
		opacity: 0.3,
		angle:   45,
		x:       200,
		y:       200,
		gray:    0.5,
	}
}

// WithFont sets the watermark font, one of the standard 14 names. The
// default is Helvetica.
func WithFont(name string) WatermarkOption {
	return func(c *watermarkConfig) {
		c.font = name
	}
}

// WithFontSize sets the watermark font size in points, default 50.
func WithFontSize(size float64) WatermarkOption {
	return func(c *watermarkConfig) {
		c.size = size
	}
}

// WithOpacity sets the fill alpha in [0, 1], default 0.3.
func WithOpacity(alpha float64) WatermarkOption {
	return func(c *watermarkConfig) {
		c.opacity = alpha
	}
}

// WithAngle sets the watermark rotation in degrees, default 45.
func WithAngle(degrees float64) WatermarkOption {
	return func(c *watermarkConfig) {
		c.angle = degrees
	}
}

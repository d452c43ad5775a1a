package folio

import (
	"fmt"
	"strings"

	"github.com/greensward/folio/contentstream"
	"github.com/greensward/folio/core"
	"github.com/greensward/folio/document"
	"github.com/greensward/folio/font"
	"github.com/greensward/folio/ocr"
	"github.com/greensward/folio/pages"
	"github.com/greensward/folio/reader"
	"github.com/greensward/folio/text"
	"github.com/greensward/folio/writer"
)

// Merge loads every input and concatenates their pages in argument order.
// It fails without producing a document if any input fails to load.
func Merge(inputs ...[]byte) (*document.Document, error) {
	if len(inputs) == 0 {
		return nil, core.Errorf(core.IoUnavailable, -1, "merge needs at least one input")
	}

	sources := make([]*document.Document, len(inputs))
	for i, data := range inputs {
		src, err := document.Load(data)
		if err != nil {
			return nil, fmt.Errorf("loading input %d: %w", i+1, err)
		}
		sources[i] = src
	}

	merged := document.New()
	for i, src := range sources {
		if err := merged.AppendPages(src); err != nil {
			return nil, fmt.Errorf("appending input %d: %w", i+1, err)
		}
	}
	return merged, nil
}

// Split cuts the document into chunks of pagesPerChunk consecutive pages.
// The last chunk may be shorter. pagesPerChunk must be at least 1.
func Split(data []byte, pagesPerChunk int) ([]*document.Document, error) {
	if pagesPerChunk < 1 {
		return nil, core.Errorf(core.IndexError, -1,
			"pages per chunk must be at least 1, got %d", pagesPerChunk)
	}
	src, err := document.Load(data)
	if err != nil {
		return nil, err
	}

	var chunks []*document.Document
	for start := 0; start < src.PageCount(); start += pagesPerChunk {
		end := start + pagesPerChunk
		if end > src.PageCount() {
			end = src.PageCount()
		}
		indices := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			indices = append(indices, i)
		}
		chunk := document.New()
		if err := chunk.AppendPages(src, indices...); err != nil {
			return nil, fmt.Errorf("splitting pages %d-%d: %w", start+1, end, err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// ExtractText returns the text of every page, keyed by 1-based page
// number. Pages without any show-text operators yield an empty string; with
// WithOCRFallback, their images are run through OCR instead, and failures
// come back as warnings rather than errors.
func ExtractText(data []byte, opts ...TextOption) (map[int]string, []Warning, error) {
	cfg := defaultTextConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, err := document.Load(data)
	if err != nil {
		return nil, nil, err
	}

	result := make(map[int]string, doc.PageCount())
	var warnings []Warning
	for i, page := range doc.Pages() {
		content, err := page.Contents(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("reading page %d contents: %w", i+1, err)
		}
		fonts, err := pageFonts(doc, page)
		if err != nil {
			return nil, nil, fmt.Errorf("reading page %d fonts: %w", i+1, err)
		}
		fragments, err := text.NewExtractor().SetFonts(fonts).ExtractBytes(content)
		if err != nil {
			return nil, nil, fmt.Errorf("extracting page %d text: %w", i+1, err)
		}
		pageText := text.Assemble(fragments)

		if strings.TrimSpace(pageText) == "" && cfg.ocrFallback {
			pageText, warnings = ocrPage(doc, page, i+1, cfg, warnings)
		}
		result[i+1] = pageText
	}
	return result, warnings, nil
}

// pageFonts collects width metrics for every font in the page's resources.
// Fonts that cannot be modeled are simply absent; extraction falls back to
// estimated advances for them.
func pageFonts(doc *document.Document, page *pages.Page) (map[string]*font.Font, error) {
	if page.Resources == nil {
		return nil, nil
	}
	obj, err := doc.Resolve(page.Resources.Get("Font"))
	if err != nil {
		return nil, err
	}
	fontDict, ok := obj.(core.Dict)
	if !ok {
		return nil, nil
	}

	fonts := make(map[string]*font.Font, len(fontDict))
	for _, name := range fontDict.SortedKeys() {
		entry, err := doc.Resolve(fontDict.Get(name))
		if err != nil {
			return nil, err
		}
		dict, ok := entry.(core.Dict)
		if !ok {
			continue
		}
		f, err := font.FromDict(doc, name, dict)
		if err != nil {
			return nil, err
		}
		fonts[name] = f
	}
	return fonts, nil
}

// ocrPage recognizes text in a page's images. Every failure is downgraded
// to a warning; a scanned page we cannot read should not fail the whole
// extraction.
func ocrPage(doc *document.Document, page *pages.Page, pageNum int, cfg textConfig, warnings []Warning) (string, []Warning) {
	if !ocr.Enabled {
		return "", append(warnings, Warning{
			Page:    pageNum,
			Message: "no text operators; OCR fallback requires the ocr build tag",
		})
	}

	images, err := reader.ExtractPageImages(doc, page)
	if err != nil {
		return "", append(warnings, Warning{Page: pageNum, Message: err.Error()})
	}
	if len(images) == 0 {
		return "", append(warnings, Warning{
			Page:    pageNum,
			Message: "no text operators and no images to recognize",
		})
	}

	client, err := ocr.New()
	if err != nil {
		return "", append(warnings, Warning{Page: pageNum, Message: err.Error()})
	}
	defer client.Close()
	if err := client.SetLanguage(cfg.ocrLanguage); err != nil {
		return "", append(warnings, Warning{Page: pageNum, Message: err.Error()})
	}

	var parts []string
	for _, img := range images {
		png, err := img.ToPNG()
		if err != nil {
			warnings = append(warnings, Warning{
				Page:    pageNum,
				Message: fmt.Sprintf("image %s: %v", img.Name, err),
			})
			continue
		}
		recognized, err := client.Recognize(png)
		if err != nil {
			warnings = append(warnings, Warning{
				Page:    pageNum,
				Message: fmt.Sprintf("image %s: %v", img.Name, err),
			})
			continue
		}
		if recognized != "" {
			parts = append(parts, recognized)
		}
	}
	return strings.Join(parts, "\n"), warnings
}

// Rotate turns every page by degrees, which must be a multiple of 90.
// Angles are normalized modulo 360, so 450 and 90 are equivalent.
func Rotate(data []byte, degrees int) (*document.Document, error) {
	if _, err := document.NormalizeAngle(degrees); err != nil {
		return nil, err
	}
	doc, err := document.Load(data)
	if err != nil {
		return nil, err
	}
	for i := 0; i < doc.PageCount(); i++ {
		if err := doc.RotatePage(i, degrees); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Watermark stamps text across every page. One overlay object is shared by
// all pages, so output size does not grow with the page count.
func Watermark(data []byte, text string, opts ...WatermarkOption) (*document.Document, error) {
	cfg := defaultWatermarkConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, err := document.Load(data)
	if err != nil {
		return nil, err
	}

	b := contentstream.NewBuilder()
	b.SaveState().
		SetExtGState("WMAlpha").
		SetFillGray(cfg.gray).
		Translate(cfg.x, cfg.y).
		RotateDegrees(cfg.angle).
		BeginText().
		SetFont("WMFont", cfg.size).
		MoveText(0, 0).
		ShowText(text).
		EndText().
		RestoreState()
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("building watermark overlay: %w", err)
	}
	content := b.Bytes()

	fontRef := doc.AddObject(core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name(cfg.font),
	})
	alphaRef := doc.AddObject(core.Dict{
		"Type": core.Name("ExtGState"),
		"ca":   core.Real(cfg.opacity),
		"CA":   core.Real(cfg.opacity),
	})
	overlay := doc.AddObject(&core.Stream{
		Dict: core.Dict{"Length": core.Int(len(content))},
		Data: content,
	})
	resources := core.Dict{
		"Font":      core.Dict{"WMFont": fontRef},
		"ExtGState": core.Dict{"WMAlpha": alphaRef},
	}

	for i := 0; i < doc.PageCount(); i++ {
		if err := doc.OverlayPage(i, overlay, resources); err != nil {
			return nil, fmt.Errorf("watermarking page %d: %w", i+1, err)
		}
	}
	return doc, nil
}

// DocumentInfo summarizes a document. FileSize is supplied by the caller
// because the engine only ever sees byte buffers.
type DocumentInfo struct {
	PageCount  int
	FileSize   int64
	Metadata   map[string]string
	PageWidth  float64
	PageHeight float64
}

// Info reports page count, metadata, and first-page dimensions.
func Info(data []byte, fileSize int64) (*DocumentInfo, error) {
	doc, err := document.Load(data)
	if err != nil {
		return nil, err
	}
	info := &DocumentInfo{
		PageCount: doc.PageCount(),
		FileSize:  fileSize,
		Metadata:  doc.MetadataText(),
	}
	if doc.PageCount() > 0 {
		info.PageWidth, info.PageHeight, err = doc.PageDimensions(0)
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

// Compress re-serializes the document with flate compression applied to
// every stream that carries no filter yet.
func Compress(data []byte) ([]byte, error) {
	doc, err := document.Load(data)
	if err != nil {
		return nil, err
	}
	return writer.Serialize(doc, writer.WithCompression())
}

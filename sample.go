package folio

import (
	"fmt"
	"strings"

	"github.com/greensward/folio/contentstream"
	"github.com/greensward/folio/core"
	"github.com/greensward/folio/document"
)

const (
	sampleTitleSize  = 24
	sampleBodySize   = 12
	sampleLeading    = 20
	sampleMarginLeft = 72
	sampleBottom     = 50
	sampleWrapWidth  = 80
)

// CreateSample builds a letter-size document with a bold title followed by
// the body text, paginated as needed. Every page carries its own 1-based
// page number in the bottom-right corner.
func CreateSample(title, body string) (*document.Document, error) {
	doc := document.New()

	titleFont := doc.AddObject(core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Helvetica-Bold"),
	})
	bodyFont := doc.AddObject(core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Helvetica"),
	})
	resources := core.Dict{
		"Font": core.Dict{"Title": titleFont, "Body": bodyFont},
	}

	box := document.LetterMediaBox()
	height := float64(box[3].(core.Int))
	width := float64(box[2].(core.Int))

	lines := wrapText(body, sampleWrapWidth)

	b := contentstream.NewBuilder()
	b.BeginText().
		SetFont("Title", sampleTitleSize).
		MoveText(sampleMarginLeft, height-100).
		ShowText(title).
		EndText()

	y := height - 150
	flush := func() error {
		pageNum := doc.PageCount() + 1
		b.BeginText().
			SetFont("Body", sampleBodySize).
			MoveText(width-90, 30).
			ShowText(fmt.Sprintf("%d", pageNum)).
			EndText()
		if err := b.Err(); err != nil {
			return fmt.Errorf("building page %d: %w", pageNum, err)
		}
		content := b.Bytes()
		ref := doc.AddObject(&core.Stream{
			Dict: core.Dict{"Length": core.Int(len(content))},
			Data: content,
		})
		doc.AddPage(core.Dict{
			"Contents":  ref,
			"Resources": core.Clone(resources).(core.Dict),
		})
		return nil
	}

	for _, line := range lines {
		if y < sampleBottom {
			if err := flush(); err != nil {
				return nil, err
			}
			b = contentstream.NewBuilder()
			y = height - 72
		}
		if line != "" {
			b.BeginText().
				SetFont("Body", sampleBodySize).
				MoveText(sampleMarginLeft, y).
				ShowText(line).
				EndText()
		}
		y -= sampleLeading
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return doc, nil
}

// wrapText splits body into render lines, breaking paragraphs on newlines
// and long lines at word boundaries.
func wrapText(body string, limit int) []string {
	var lines []string
	for _, paragraph := range strings.Split(body, "\n") {
		if len(paragraph) <= limit {
			lines = append(lines, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= limit:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

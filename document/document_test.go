package document

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/greensward/folio/core"
)

// sampleDoc builds an n-page document with one content stream per page.
func sampleDoc(n int) *Document {
	d := New()
	for i := 1; i <= n; i++ {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (page %d) Tj ET", i)
		stream := &core.Stream{
			Dict: core.Dict{"Length": core.Int(len(content))},
			Data: []byte(content),
		}
		contentRef := d.AddObject(stream)
		d.AddPage(core.Dict{
			"Contents": contentRef,
			"Resources": core.Dict{
				"Font": core.Dict{
					"F1": core.Dict{
						"Type":     core.Name("Font"),
						"Subtype":  core.Name("Type1"),
						"BaseFont": core.Name("Helvetica"),
					},
				},
			},
		})
	}
	return d
}

func pageText(t *testing.T, d *Document, index int) string {
	t.Helper()
	p, err := d.Page(index)
	if err != nil {
		t.Fatalf("Page(%d): %v", index, err)
	}
	data, err := p.Contents(d)
	if err != nil {
		t.Fatalf("Contents: %v", err)
	}
	return string(data)
}

func TestNewAndAddPage(t *testing.T) {
	d := sampleDoc(2)

	if d.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", d.PageCount())
	}
	w, h, err := d.PageDimensions(0)
	if err != nil {
		t.Fatalf("PageDimensions: %v", err)
	}
	if w != 612 || h != 792 {
		t.Errorf("dimensions %gx%g, want letter default", w, h)
	}
	for i, p := range d.Pages() {
		if p.Number != i+1 {
			t.Errorf("page %d Number = %d", i, p.Number)
		}
		if p.Ref.Number == 0 {
			t.Errorf("page %d has no object number", i)
		}
	}
}

func TestPageIndexError(t *testing.T) {
	d := sampleDoc(1)
	_, err := d.Page(3)
	if core.KindOf(err) != core.IndexError {
		t.Errorf("expected IndexError, got %v", err)
	}
	_, err = d.Page(-1)
	if core.KindOf(err) != core.IndexError {
		t.Errorf("expected IndexError for negative index, got %v", err)
	}
}

func TestInsertPagesAppend(t *testing.T) {
	a := sampleDoc(2)
	b := sampleDoc(3)

	if err := a.AppendPages(b); err != nil {
		t.Fatalf("AppendPages: %v", err)
	}
	if a.PageCount() != 5 {
		t.Fatalf("PageCount = %d, want 5", a.PageCount())
	}
	// b's first page lands at index 2.
	if got := pageText(t, a, 2); got != "BT /F1 12 Tf 72 720 Td (page 1) Tj ET" {
		t.Errorf("inserted page content = %q", got)
	}
	// Source stays untouched.
	if b.PageCount() != 3 {
		t.Errorf("source PageCount = %d after insert", b.PageCount())
	}
}

func TestInsertPagesAtPosition(t *testing.T) {
	a := sampleDoc(2)
	b := sampleDoc(1)

	if err := a.InsertPages(1, b); err != nil {
		t.Fatalf("InsertPages: %v", err)
	}
	if a.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", a.PageCount())
	}
	wantOrder := []string{"(page 1)", "(page 1)", "(page 2)"}
	for i, want := range wantOrder {
		if got := pageText(t, a, i); !bytes.Contains([]byte(got), []byte(want)) {
			t.Errorf("page %d content = %q, want it to contain %s", i, got, want)
		}
	}
	for i, p := range a.Pages() {
		if p.Number != i+1 {
			t.Errorf("page %d not renumbered: Number = %d", i, p.Number)
		}
	}
}

func TestInsertPagesSelection(t *testing.T) {
	a := New()
	b := sampleDoc(5)

	if err := a.InsertPages(0, b, 4, 0); err != nil {
		t.Fatalf("InsertPages: %v", err)
	}
	if a.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", a.PageCount())
	}
	if got := pageText(t, a, 0); !bytes.Contains([]byte(got), []byte("(page 5)")) {
		t.Errorf("first inserted page = %q, want page 5", got)
	}
}

func TestInsertPagesValidatesBeforeMutation(t *testing.T) {
	a := sampleDoc(1)
	b := sampleDoc(2)

	if err := a.InsertPages(0, b, 0, 99); core.KindOf(err) != core.IndexError {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if a.PageCount() != 1 {
		t.Errorf("failed insert mutated the document: %d pages", a.PageCount())
	}

	if err := a.InsertPages(5, b); core.KindOf(err) != core.IndexError {
		t.Errorf("expected IndexError for bad position, got %v", err)
	}
}

func TestInsertPagesDeepClone(t *testing.T) {
	a := New()
	b := sampleDoc(1)

	if err := a.AppendPages(b); err != nil {
		t.Fatalf("AppendPages: %v", err)
	}

	// Mutating the clone's content must not touch the source.
	p, _ := a.Page(0)
	ref, ok := p.Dict.GetIndirectRef("Contents")
	if !ok {
		t.Fatal("clone has no Contents reference")
	}
	obj, err := a.ResolveReference(ref)
	if err != nil {
		t.Fatalf("resolving cloned contents: %v", err)
	}
	clone := obj.(*core.Stream)
	clone.SetData([]byte("q Q"))

	if got := pageText(t, b, 0); got == "q Q" {
		t.Error("mutating the clone changed the source document")
	}
}

func TestInsertPagesSharedObjectsCloneOnce(t *testing.T) {
	// Two pages sharing a font object keep sharing after the clone.
	src := New()
	font := src.AddObject(core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Helvetica"),
	})
	for i := 0; i < 2; i++ {
		src.AddPage(core.Dict{
			"Resources": core.Dict{"Font": core.Dict{"F1": font}},
		})
	}

	dst := New()
	if err := dst.AppendPages(src); err != nil {
		t.Fatalf("AppendPages: %v", err)
	}

	refOf := func(index int) core.IndirectRef {
		p, _ := dst.Page(index)
		res, _ := p.Dict.GetDict("Resources")
		fonts, _ := res.GetDict("Font")
		ref, _ := fonts.GetIndirectRef("F1")
		return ref
	}
	if refOf(0) != refOf(1) {
		t.Errorf("shared font cloned twice: %v vs %v", refOf(0), refOf(1))
	}
}

func TestRemovePages(t *testing.T) {
	d := sampleDoc(5)

	if err := d.RemovePages(1, 3); err != nil {
		t.Fatalf("RemovePages: %v", err)
	}
	if d.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", d.PageCount())
	}
	want := []string{"(page 1)", "(page 4)", "(page 5)"}
	for i, w := range want {
		if got := pageText(t, d, i); !bytes.Contains([]byte(got), []byte(w)) {
			t.Errorf("page %d = %q, want %s", i, got, w)
		}
	}
}

func TestRemovePagesBadRange(t *testing.T) {
	d := sampleDoc(2)
	for _, r := range [][2]int{{-1, 1}, {0, 3}, {2, 1}} {
		if err := d.RemovePages(r[0], r[1]); core.KindOf(err) != core.IndexError {
			t.Errorf("RemovePages(%d, %d): expected IndexError, got %v", r[0], r[1], err)
		}
	}
}

func TestRotatePage(t *testing.T) {
	tests := []struct {
		degrees int
		want    int
	}{
		{90, 90},
		{180, 180},
		{270, 270},
		{360, 0},
		{450, 90},
		{-90, 270},
		{0, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.degrees), func(t *testing.T) {
			d := sampleDoc(1)
			if err := d.RotatePage(0, tt.degrees); err != nil {
				t.Fatalf("RotatePage: %v", err)
			}
			p, _ := d.Page(0)
			if p.Rotate != tt.want {
				t.Errorf("Rotate = %d, want %d", p.Rotate, tt.want)
			}
			if rot, _ := p.Dict.GetInt("Rotate"); int(rot) != tt.want {
				t.Errorf("dict Rotate = %d, want %d", rot, tt.want)
			}
		})
	}
}

func TestRotatePageInvalidAngle(t *testing.T) {
	d := sampleDoc(1)
	before := pageText(t, d, 0)

	err := d.RotatePage(0, 91)
	if core.KindOf(err) != core.InvalidAngle {
		t.Fatalf("expected InvalidAngle, got %v", err)
	}
	if got := pageText(t, d, 0); got != before {
		t.Error("failed rotation changed page content")
	}
}

func TestRotateKeepsContentAndBox(t *testing.T) {
	d := sampleDoc(1)
	before := pageText(t, d, 0)
	wBefore, hBefore, _ := d.PageDimensions(0)

	if err := d.RotatePage(0, 90); err != nil {
		t.Fatalf("RotatePage: %v", err)
	}
	if got := pageText(t, d, 0); got != before {
		t.Error("rotation changed the content stream")
	}
	w, h, _ := d.PageDimensions(0)
	if w != wBefore || h != hBefore {
		t.Error("rotation changed the media box")
	}
}

func TestRotateAccumulates(t *testing.T) {
	d := sampleDoc(1)
	p, _ := d.Page(0)

	steps := []struct {
		degrees int
		want    int
	}{
		{90, 90},
		{90, 180},
		{180, 0},
		{-90, 270},
		{450, 0},
	}
	for _, s := range steps {
		if err := d.RotatePage(0, s.degrees); err != nil {
			t.Fatalf("RotatePage(%d): %v", s.degrees, err)
		}
		if p.Rotate != s.want {
			t.Fatalf("after rotating by %d: Rotate = %d, want %d", s.degrees, p.Rotate, s.want)
		}
	}
}

func TestRotateIdempotentModulo360(t *testing.T) {
	d := sampleDoc(1)
	p, _ := d.Page(0)
	original := p.Rotate

	for i := 0; i < 4; i++ {
		if err := d.RotatePage(0, 90); err != nil {
			t.Fatalf("rotation %d: %v", i, err)
		}
	}
	if p.Rotate != original {
		t.Errorf("four 90-degree steps ended at %d, want %d", p.Rotate, original)
	}
}

func TestMetadataText(t *testing.T) {
	d := sampleDoc(1)
	d.SetMetadata(core.Dict{
		"Title":  core.String("Annual Report"),
		"Author": core.String(string([]byte{0xFE, 0xFF, 0x00, 'J', 0x00, 'o'})),
		"Pages":  core.Int(12),
	})

	got := d.MetadataText()
	if got["Title"] != "Annual Report" {
		t.Errorf("Title = %q", got["Title"])
	}
	if got["Author"] != "Jo" {
		t.Errorf("Author = %q, want UTF-16BE decoded", got["Author"])
	}
	if _, ok := got["Pages"]; ok {
		t.Error("non-string entries must not appear in MetadataText")
	}
}

func TestMetadataAbsent(t *testing.T) {
	d := New()
	if d.Metadata() != nil {
		t.Error("expected nil metadata on a fresh document")
	}
	if d.MetadataText() != nil {
		t.Error("expected nil MetadataText on a fresh document")
	}
}

func TestNormalizeAngle(t *testing.T) {
	if _, err := NormalizeAngle(45); core.KindOf(err) != core.InvalidAngle {
		t.Errorf("NormalizeAngle(45): expected InvalidAngle, got %v", err)
	}
	if norm, err := NormalizeAngle(-270); err != nil || norm != 90 {
		t.Errorf("NormalizeAngle(-270) = %d, %v, want 90", norm, err)
	}
}

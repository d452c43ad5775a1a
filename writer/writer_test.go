package writer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/greensward/folio/contentstream"
	"github.com/greensward/folio/core"
	"github.com/greensward/folio/document"
	"github.com/greensward/folio/reader"
	"github.com/greensward/folio/text"
)

func buildDoc(t *testing.T, texts ...string) *document.Document {
	t.Helper()
	d := document.New()
	for _, s := range texts {
		b := contentstream.NewBuilder()
		b.BeginText().SetFont("F1", 12).MoveText(72, 720).ShowText(s).EndText()
		if err := b.Err(); err != nil {
			t.Fatalf("building content: %v", err)
		}
		content := b.Bytes()
		ref := d.AddObject(&core.Stream{
			Dict: core.Dict{"Length": core.Int(len(content))},
			Data: content,
		})
		d.AddPage(core.Dict{
			"Contents": ref,
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

func extractText(t *testing.T, d *document.Document, index int) string {
	t.Helper()
	p, err := d.Page(index)
	if err != nil {
		t.Fatalf("Page(%d): %v", index, err)
	}
	data, err := p.Contents(d)
	if err != nil {
		t.Fatalf("Contents: %v", err)
	}
	frags, err := text.NewExtractor().ExtractBytes(data)
	if err != nil {
		t.Fatalf("extracting text: %v", err)
	}
	return text.Assemble(frags)
}

func TestSerializeRoundTrip(t *testing.T) {
	src := buildDoc(t, "alpha", "beta", "gamma")

	out, err := Serialize(src)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.7\n")) {
		t.Errorf("bad header: %q", out[:16])
	}
	if !bytes.HasSuffix(out, []byte("%%EOF\n")) {
		t.Errorf("missing %%%%EOF")
	}

	got, err := document.Load(out)
	if err != nil {
		t.Fatalf("Load of serialized output: %v", err)
	}
	if got.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", got.PageCount())
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if text := extractText(t, got, i); !strings.Contains(text, want) {
			t.Errorf("page %d text = %q, want %q", i, text, want)
		}
	}
	w, h, err := got.PageDimensions(0)
	if err != nil {
		t.Fatalf("PageDimensions: %v", err)
	}
	if w != 612 || h != 792 {
		t.Errorf("dimensions %gx%g, want 612x792", w, h)
	}
}

func TestSerializePrunesUnreachable(t *testing.T) {
	d := buildDoc(t, "kept")
	orphan := "this stream has no page"
	d.AddObject(&core.Stream{
		Dict: core.Dict{"Length": core.Int(len(orphan))},
		Data: []byte(orphan),
	})

	out, err := Serialize(d)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if bytes.Contains(out, []byte(orphan)) {
		t.Error("unreachable object survived serialization")
	}
	if !bytes.Contains(out, []byte("(kept)")) {
		t.Error("reachable content missing")
	}
}

func TestSerializeRotateSurvives(t *testing.T) {
	d := buildDoc(t, "one")
	if err := d.RotatePage(0, 90); err != nil {
		t.Fatalf("RotatePage: %v", err)
	}
	out, err := Serialize(d)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := document.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, _ := got.Page(0)
	if p.Rotate != 90 {
		t.Errorf("Rotate = %d after round trip, want 90", p.Rotate)
	}
}

func TestSerializeWithCompression(t *testing.T) {
	d := buildDoc(t, "squeeze me")

	out, err := Serialize(d, WithCompression())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if bytes.Contains(out, []byte("(squeeze me)")) {
		t.Error("content stream left uncompressed")
	}

	got, err := document.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, _ := got.Page(0)
	ref, ok := p.Dict.GetIndirectRef("Contents")
	if !ok {
		t.Fatal("no contents reference")
	}
	obj, err := got.ResolveReference(ref)
	if err != nil {
		t.Fatalf("resolving contents: %v", err)
	}
	stream := obj.(*core.Stream)
	if name, _ := stream.Dict.GetName("Filter"); name != "FlateDecode" {
		t.Errorf("Filter = %q, want FlateDecode", name)
	}
	if text := extractText(t, got, 0); !strings.Contains(text, "squeeze me") {
		t.Errorf("decoded text = %q", text)
	}
}

func TestSerializeWithVersion(t *testing.T) {
	d := buildDoc(t, "v")
	out, err := Serialize(d, WithVersion(1, 4))
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.4\n")) {
		t.Errorf("header = %q", out[:16])
	}
	r, err := reader.New(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got := r.Version().String(); got != "1.4" {
		t.Errorf("Version = %q, want 1.4", got)
	}
}

func TestSerializeMetadata(t *testing.T) {
	d := buildDoc(t, "one")
	d.SetMetadata(core.Dict{
		"Title":    core.String("Quarterly Numbers"),
		"Producer": core.String("folio"),
	})

	out, err := Serialize(d)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := document.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	meta := got.MetadataText()
	if meta["Title"] != "Quarterly Numbers" {
		t.Errorf("Title = %q", meta["Title"])
	}
	if meta["Producer"] != "folio" {
		t.Errorf("Producer = %q", meta["Producer"])
	}
}

func TestSerializeDeterministic(t *testing.T) {
	build := func() []byte {
		d := buildDoc(t, "same", "every", "time")
		d.SetMetadata(core.Dict{"Title": core.String("stable")})
		out, err := Serialize(d)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		return out
	}
	if !bytes.Equal(build(), build()) {
		t.Error("two serializations of identical documents differ")
	}
}

func TestSerializeEmptyDocument(t *testing.T) {
	d := document.New()
	out, err := Serialize(d)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := reader.New(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	count, err := got.PageCount()
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if count != 0 {
		t.Errorf("PageCount = %d, want 0", count)
	}
}

func TestSerializeManyPages(t *testing.T) {
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = fmt.Sprintf("page %d", i+1)
	}
	d := buildDoc(t, texts...)

	out, err := Serialize(d)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := document.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PageCount() != 40 {
		t.Fatalf("PageCount = %d, want 40", got.PageCount())
	}
	// Spot-check order at both ends.
	if text := extractText(t, got, 0); !strings.Contains(text, "page 1") {
		t.Errorf("first page = %q", text)
	}
	if text := extractText(t, got, 39); !strings.Contains(text, "page 40") {
		t.Errorf("last page = %q", text)
	}
}

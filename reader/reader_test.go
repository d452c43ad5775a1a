package reader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/greensward/folio/core"
)

// fileBuilder assembles a PDF byte buffer, recording object offsets so the
// cross-reference section can be emitted correctly.
type fileBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int64
}

func newFileBuilder(version string) *fileBuilder {
	b := &fileBuilder{offsets: make(map[int]int64)}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n", version)
	return b
}

func (b *fileBuilder) add(num int, body string) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *fileBuilder) maxObject() int {
	max := 0
	for n := range b.offsets {
		if n > max {
			max = n
		}
	}
	return max
}

// finish writes a classic xref table, trailer and startxref.
func (b *fileBuilder) finish(trailerExtra string) []byte {
	xrefPos := b.buf.Len()
	max := b.maxObject()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", max+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= max; i++ {
		if off, ok := b.offsets[i]; ok {
			fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
		} else {
			b.buf.WriteString("0000000000 00000 f \n")
		}
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n",
		max+1, trailerExtra, xrefPos)
	return b.buf.Bytes()
}

// minimalPDF is a one-page document with a small content stream.
func minimalPDF() []byte {
	b := newFileBuilder("1.7")
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>")
	content := "BT /F1 12 Tf 72 720 Td (Hello) Tj ET"
	b.add(4, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	return b.finish("")
}

func TestNewMinimal(t *testing.T) {
	r, err := New(minimalPDF())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := r.Version().String(); got != "1.7" {
		t.Errorf("Version = %s, want 1.7", got)
	}

	catalog, err := r.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if typ, _ := catalog.GetName("Type"); typ != "Catalog" {
		t.Errorf("catalog Type = %v", typ)
	}

	count, err := r.PageCount()
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if count != 1 {
		t.Errorf("PageCount = %d, want 1", count)
	}

	page, err := r.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if w, h := page.Width(), page.Height(); w != 612 || h != 792 {
		t.Errorf("page dimensions %gx%g, want 612x792", w, h)
	}

	contents, err := page.Contents(r)
	if err != nil {
		t.Fatalf("Contents: %v", err)
	}
	if !bytes.Contains(contents, []byte("(Hello) Tj")) {
		t.Errorf("content stream missing text operator: %q", contents)
	}
}

func TestNewEmpty(t *testing.T) {
	_, err := New(nil)
	if err == nil {
		t.Fatal("expected error for empty buffer")
	}
	if core.KindOf(err) != core.IoUnavailable {
		t.Errorf("expected IoUnavailable, got %v", core.KindOf(err))
	}
}

func TestNewBadHeader(t *testing.T) {
	_, err := New([]byte("this is not a pdf"))
	if err == nil {
		t.Fatal("expected error for missing header")
	}
	if core.KindOf(err) != core.MalformedToken {
		t.Errorf("expected MalformedToken, got %v", core.KindOf(err))
	}
}

func TestHeaderWithLeadingJunk(t *testing.T) {
	data := append([]byte("garbage bytes\n"), minimalPDF()...)
	// Offsets shifted, so only the header parse is checked here.
	v, err := parseHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Major != 1 || v.Minor != 7 {
		t.Errorf("version = %v, want 1.7", v)
	}
}

func TestGetObjectMissing(t *testing.T) {
	r, err := New(minimalPDF())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = r.GetObject(99)
	if err == nil {
		t.Fatal("expected error for unknown object")
	}
	if core.KindOf(err) != core.DanglingReference {
		t.Errorf("expected DanglingReference, got %v", core.KindOf(err))
	}
}

func TestGetObjectCaching(t *testing.T) {
	r, err := New(minimalPDF())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := r.GetObject(2)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	second, err := r.GetObject(2)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if d1, ok := first.(core.Dict); !ok || !sameDict(d1, second.(core.Dict)) {
		t.Error("expected the cached object on the second load")
	}
}

func sameDict(a, b core.Dict) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b.Has(k) {
			return false
		}
	}
	return true
}

func TestPageIndexOutOfRange(t *testing.T) {
	r, err := New(minimalPDF())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = r.Page(5)
	if err == nil {
		t.Fatal("expected error for out-of-range page")
	}
	if core.KindOf(err) != core.IndexError {
		t.Errorf("expected IndexError, got %v", core.KindOf(err))
	}
}

func TestInfo(t *testing.T) {
	b := newFileBuilder("1.4")
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 100 100] >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R >>")
	b.add(4, "<< /Title (Test Doc) /Author (nobody) >>")
	data := b.finish(" /Info 4 0 R")

	r, err := New(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := r.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info == nil {
		t.Fatal("expected info dictionary")
	}
	if title, _ := info.GetString("Title"); string(title) != "Test Doc" {
		t.Errorf("Title = %q", title)
	}
}

func TestInfoAbsent(t *testing.T) {
	r, err := New(minimalPDF())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := r.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil info, got %v", info)
	}
}

// xrefStreamPDF builds a PDF 1.5 file whose cross-reference section is an
// xref stream and whose page object lives in an object stream.
func xrefStreamPDF() []byte {
	var buf bytes.Buffer
	offsets := make(map[int]int64)

	buf.WriteString("%PDF-1.5\n")

	writeObj := func(num int, body string) {
		offsets[num] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>")

	// Objects 3 and 4 packed into object stream 5.
	packed := "<< /Type /Page /Parent 2 0 R >> (packed string)"
	header := fmt.Sprintf("3 0 4 %d ", len("<< /Type /Page /Parent 2 0 R >> "))
	objStmData := header + packed
	writeObj(5, fmt.Sprintf(
		"<< /Type /ObjStm /N 2 /First %d /Length %d >>\nstream\n%s\nendstream",
		len(header), len(objStmData), objStmData))

	// Xref stream rows, W [1 2 2].
	row := func(typ byte, f2, f3 int) []byte {
		return []byte{typ, byte(f2 >> 8), byte(f2), byte(f3 >> 8), byte(f3)}
	}
	xrefPos := int64(buf.Len())
	var rows []byte
	rows = append(rows, row(0, 0, 0xFFFF)...)
	rows = append(rows, row(1, int(offsets[1]), 0)...)
	rows = append(rows, row(1, int(offsets[2]), 0)...)
	rows = append(rows, row(2, 5, 0)...)
	rows = append(rows, row(2, 5, 1)...)
	rows = append(rows, row(1, int(offsets[5]), 0)...)
	rows = append(rows, row(1, int(xrefPos), 0)...)

	fmt.Fprintf(&buf,
		"6 0 obj\n<< /Type /XRef /Size 7 /W [1 2 2] /Root 1 0 R /Length %d >>\nstream\n",
		len(rows))
	buf.Write(rows)
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefPos)

	return buf.Bytes()
}

func TestXRefStreamWithObjectStream(t *testing.T) {
	r, err := New(xrefStreamPDF())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := r.PageCount()
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if count != 1 {
		t.Errorf("PageCount = %d, want 1", count)
	}

	// Object 3 sits in object stream 5.
	obj, err := r.GetObject(3)
	if err != nil {
		t.Fatalf("GetObject(3): %v", err)
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		t.Fatalf("object 3 is %T, want Dict", obj)
	}
	if typ, _ := dict.GetName("Type"); typ != "Page" {
		t.Errorf("object 3 Type = %v, want Page", typ)
	}

	obj, err = r.GetObject(4)
	if err != nil {
		t.Fatalf("GetObject(4): %v", err)
	}
	if s, ok := obj.(core.String); !ok || string(s) != "packed string" {
		t.Errorf("object 4 = %v, want (packed string)", obj)
	}
}

func TestIncrementalUpdate(t *testing.T) {
	// An appended revision replaces object 3 and chains to the original
	// table via /Prev. The newer entry must win.
	base := minimalPDF()

	var buf bytes.Buffer
	buf.Write(base)
	newOffset := int64(buf.Len())
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Rotate 90 >>\nendobj\n")

	// Find the original table's position for /Prev.
	tail := base[bytes.LastIndex(base, []byte("startxref"))+len("startxref"):]
	prev, err := strconv.ParseInt(strings.Fields(string(tail))[0], 10, 64)
	if err != nil {
		t.Fatalf("parsing base startxref offset: %v", err)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n3 1\n%010d 00000 n \n", newOffset)
	fmt.Fprintf(&buf, "trailer\n<< /Size 5 /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		prev, xrefPos)

	r, err := New(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page, err := r.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Rotate != 90 {
		t.Errorf("Rotate = %d, want 90 from the update", page.Rotate)
	}
}

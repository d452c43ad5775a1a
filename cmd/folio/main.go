// Command folio manipulates PDF files from the command line.
//
// Usage:
//
//	folio merge -o merged.pdf a.pdf b.pdf c.pdf
//	folio split -n 2 report.pdf
//	folio extract-text report.pdf
//	folio rotate -angle 90 report.pdf
//	folio watermark -text DRAFT report.pdf
//	folio info report.pdf
//	folio create-sample -title "Demo" -o sample.pdf
//	folio compress report.pdf
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/greensward/folio"
	"github.com/greensward/folio/document"
	"github.com/greensward/folio/writer"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "merge":
		err = runMerge(os.Args[2:])
	case "split":
		err = runSplit(os.Args[2:])
	case "extract-text":
		err = runExtractText(os.Args[2:])
	case "rotate":
		err = runRotate(os.Args[2:])
	case "watermark":
		err = runWatermark(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "create-sample":
		err = runCreateSample(os.Args[2:])
	case "compress":
		err = runCompress(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		log.Printf("unknown operation %q", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("folio %s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: folio <operation> [flags] [files]

operations:
  merge          concatenate input files into one document
  split          cut a document into fixed-size chunks
  extract-text   print each page's text
  rotate         rotate every page by a multiple of 90 degrees
  watermark      stamp text across every page
  info           print document summary
  create-sample  generate a sample document
  compress       re-serialize with compressed streams

run "folio <operation> -h" for operation flags`)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("wrote %s (%d bytes)", path, len(data))
	return nil
}

func saveDocument(doc *document.Document, path string) error {
	data, err := writer.Serialize(doc)
	if err != nil {
		return fmt.Errorf("serializing: %w", err)
	}
	return writeFile(path, data)
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	out := fs.String("o", "merged.pdf", "output file")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("need at least two input files")
	}

	inputs := make([][]byte, fs.NArg())
	for i, path := range fs.Args() {
		data, err := readFile(path)
		if err != nil {
			return err
		}
		inputs[i] = data
	}
	doc, err := folio.Merge(inputs...)
	if err != nil {
		return err
	}
	return saveDocument(doc, *out)
}

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	perChunk := fs.Int("n", 1, "pages per output file")
	outDir := fs.String("d", "split_output", "output directory")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("need exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readFile(input)
	if err != nil {
		return err
	}
	chunks, err := folio.Split(data, *perChunk)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", *outDir, err)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	start := 1
	for _, chunk := range chunks {
		end := start + chunk.PageCount() - 1
		name := fmt.Sprintf("%s_page_%d.pdf", stem, start)
		if chunk.PageCount() > 1 {
			name = fmt.Sprintf("%s_pages_%d-%d.pdf", stem, start, end)
		}
		if err := saveDocument(chunk, filepath.Join(*outDir, name)); err != nil {
			return err
		}
		start = end + 1
	}
	return nil
}

func runExtractText(args []string) error {
	fs := flag.NewFlagSet("extract-text", flag.ExitOnError)
	out := fs.String("o", "", "write text to file instead of stdout")
	useOCR := fs.Bool("ocr", false, "recognize text in images when a page has none")
	lang := fs.String("lang", "eng", "OCR language")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("need exactly one input file")
	}

	data, err := readFile(fs.Arg(0))
	if err != nil {
		return err
	}
	opts := []folio.TextOption{folio.WithOCRLanguage(*lang)}
	if *useOCR {
		opts = append(opts, folio.WithOCRFallback())
	}
	pages, warnings, err := folio.ExtractText(data, opts...)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}

	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var sb strings.Builder
	for _, n := range numbers {
		fmt.Fprintf(&sb, "=== Page %d ===\n%s\n\n", n, pages[n])
	}
	if *out != "" {
		return writeFile(*out, []byte(sb.String()))
	}
	fmt.Print(sb.String())
	return nil
}

func runRotate(args []string) error {
	fs := flag.NewFlagSet("rotate", flag.ExitOnError)
	angle := fs.Int("angle", 90, "rotation in degrees, multiple of 90")
	out := fs.String("o", "", "output file (default rotated_<input>)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("need exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readFile(input)
	if err != nil {
		return err
	}
	doc, err := folio.Rotate(data, *angle)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = prefixedName(input, "rotated_")
	}
	return saveDocument(doc, *out)
}

func runWatermark(args []string) error {
	fs := flag.NewFlagSet("watermark", flag.ExitOnError)
	mark := fs.String("text", "DRAFT", "watermark text")
	font := fs.String("font", "Helvetica", "watermark font")
	size := fs.Float64("size", 50, "font size in points")
	opacity := fs.Float64("opacity", 0.3, "fill alpha in [0, 1]")
	angle := fs.Float64("rotation", 45, "watermark angle in degrees")
	out := fs.String("o", "", "output file (default watermarked_<input>)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("need exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readFile(input)
	if err != nil {
		return err
	}
	doc, err := folio.Watermark(data, *mark,
		folio.WithFont(*font),
		folio.WithFontSize(*size),
		folio.WithOpacity(*opacity),
		folio.WithAngle(*angle))
	if err != nil {
		return err
	}
	if *out == "" {
		*out = prefixedName(input, "watermarked_")
	}
	return saveDocument(doc, *out)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("need exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readFile(input)
	if err != nil {
		return err
	}
	info, err := folio.Info(data, int64(len(data)))
	if err != nil {
		return err
	}

	fmt.Printf("File:       %s\n", input)
	fmt.Printf("Size:       %d bytes\n", info.FileSize)
	fmt.Printf("Pages:      %d\n", info.PageCount)
	if info.PageCount > 0 {
		fmt.Printf("First page: %.0f x %.0f pt\n", info.PageWidth, info.PageHeight)
	}
	if len(info.Metadata) > 0 {
		keys := make([]string, 0, len(info.Metadata))
		for k := range info.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("Metadata:")
		for _, k := range keys {
			fmt.Printf("  %-10s %s\n", k+":", info.Metadata[k])
		}
	}
	return nil
}

func runCreateSample(args []string) error {
	fs := flag.NewFlagSet("create-sample", flag.ExitOnError)
	title := fs.String("title", "Sample Document", "document title")
	body := fs.String("text", "This document was generated by folio.", "body text")
	out := fs.String("o", "sample.pdf", "output file")
	fs.Parse(args)

	doc, err := folio.CreateSample(*title, *body)
	if err != nil {
		return err
	}
	return saveDocument(doc, *out)
}

func runCompress(args []string) error {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	out := fs.String("o", "", "output file (default compressed_<input>)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("need exactly one input file")
	}
	input := fs.Arg(0)

	data, err := readFile(input)
	if err != nil {
		return err
	}
	compressed, err := folio.Compress(data)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = prefixedName(input, "compressed_")
	}
	log.Printf("%d bytes in, %d bytes out", len(data), len(compressed))
	return writeFile(*out, compressed)
}

func prefixedName(path, prefix string) string {
	return filepath.Join(filepath.Dir(path), prefix+filepath.Base(path))
}

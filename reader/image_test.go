package reader

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/greensward/folio/core"
	"github.com/greensward/folio/pages"
)

type fixedResolver struct {
	objects map[int]core.Object
}

func (r *fixedResolver) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.objects[ref.Number], nil
	}
	return obj, nil
}

func TestExtractPageImages(t *testing.T) {
	imgStream := &core.Stream{
		Dict: core.Dict{
			"Type":             core.Name("XObject"),
			"Subtype":          core.Name("Image"),
			"Width":            core.Int(2),
			"Height":           core.Int(2),
			"ColorSpace":       core.Name("DeviceGray"),
			"BitsPerComponent": core.Int(8),
			"Length":           core.Int(4),
		},
		Data: []byte{0, 85, 170, 255},
	}
	formStream := &core.Stream{
		Dict: core.Dict{
			"Type":    core.Name("XObject"),
			"Subtype": core.Name("Form"),
			"Length":  core.Int(0),
		},
	}
	res := &fixedResolver{objects: map[int]core.Object{
		7: imgStream,
		8: formStream,
	}}
	page := &pages.Page{
		Dict: core.Dict{},
		Resources: core.Dict{
			"XObject": core.Dict{
				"Im1": core.IndirectRef{Number: 7},
				"Fm1": core.IndirectRef{Number: 8},
			},
		},
	}

	images, err := ExtractPageImages(res, page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected 1 image (forms skipped), got %d", len(images))
	}
	img := images[0]
	if img.Name != "Im1" || img.Width != 2 || img.Height != 2 {
		t.Errorf("unexpected image: %+v", img)
	}
	if img.ColorSpace != "DeviceGray" || img.BitsPerComponent != 8 {
		t.Errorf("unexpected format: %s/%d", img.ColorSpace, img.BitsPerComponent)
	}
}

func TestExtractPageImagesNoResources(t *testing.T) {
	images, err := ExtractPageImages(&fixedResolver{}, &pages.Page{Dict: core.Dict{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if images != nil {
		t.Errorf("expected no images, got %v", images)
	}
}

func TestToPNG(t *testing.T) {
	tests := []struct {
		name string
		img  PageImage
	}{
		{
			name: "gray 8-bit",
			img: PageImage{
				Name: "g8", Width: 2, Height: 2,
				ColorSpace: "DeviceGray", BitsPerComponent: 8,
				Data: []byte{0, 85, 170, 255},
			},
		},
		{
			name: "gray 1-bit",
			img: PageImage{
				Name: "g1", Width: 8, Height: 2,
				ColorSpace: "DeviceGray", BitsPerComponent: 1,
				Data: []byte{0xAA, 0x55},
			},
		},
		{
			name: "gray 4-bit",
			img: PageImage{
				Name: "g4", Width: 3, Height: 1,
				ColorSpace: "DeviceGray", BitsPerComponent: 4,
				Data: []byte{0x0F, 0x70},
			},
		},
		{
			name: "rgb",
			img: PageImage{
				Name: "rgb", Width: 1, Height: 2,
				ColorSpace: "DeviceRGB", BitsPerComponent: 8,
				Data: []byte{255, 0, 0, 0, 0, 255},
			},
		},
		{
			name: "cmyk",
			img: PageImage{
				Name: "cmyk", Width: 1, Height: 1,
				ColorSpace: "DeviceCMYK", BitsPerComponent: 8,
				Data: []byte{0, 0, 0, 255},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.img.ToPNG()
			if err != nil {
				t.Fatalf("ToPNG: %v", err)
			}
			decoded, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not valid PNG: %v", err)
			}
			bounds := decoded.Bounds()
			if bounds.Dx() != tt.img.Width || bounds.Dy() != tt.img.Height {
				t.Errorf("decoded size %dx%d, want %dx%d",
					bounds.Dx(), bounds.Dy(), tt.img.Width, tt.img.Height)
			}
		})
	}
}

func TestToPNGShortData(t *testing.T) {
	img := PageImage{
		Name: "short", Width: 10, Height: 10,
		ColorSpace: "DeviceGray", BitsPerComponent: 8,
		Data: []byte{1, 2, 3},
	}
	if _, err := img.ToPNG(); err == nil {
		t.Fatal("expected error for truncated sample data")
	}
}

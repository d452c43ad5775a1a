package reader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/greensward/folio/core"
	"github.com/greensward/folio/pages"
)

// PageImage is an image XObject pulled from a page's resources, with its
// sample data already passed through the stream filters.
type PageImage struct {
	Name             string
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	Data             []byte
}

// ExtractPageImages collects the image XObjects referenced by a page.
// XObjects that fail to resolve or decode are skipped.
func ExtractPageImages(res pages.Resolver, page *pages.Page) ([]PageImage, error) {
	if page.Resources == nil {
		return nil, nil
	}
	raw := page.Resources.Get("XObject")
	if raw == nil {
		return nil, nil
	}
	obj, err := res.Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("resolving XObject dictionary: %w", err)
	}
	xobjects, ok := obj.(core.Dict)
	if !ok {
		return nil, nil
	}

	var images []PageImage
	for _, name := range xobjects.SortedKeys() {
		resolved, err := res.Resolve(xobjects.Get(name))
		if err != nil {
			continue
		}
		stream, ok := resolved.(*core.Stream)
		if !ok {
			continue
		}
		if subtype, _ := stream.Dict.GetName("Subtype"); subtype != "Image" {
			continue
		}
		img, err := imageFromStream(res, name, stream)
		if err != nil {
			continue
		}
		images = append(images, *img)
	}
	return images, nil
}

func imageFromStream(res pages.Resolver, name string, stream *core.Stream) (*PageImage, error) {
	width, wok := stream.Dict.GetInt("Width")
	height, hok := stream.Dict.GetInt("Height")
	if !wok || !hok {
		return nil, fmt.Errorf("image %s missing Width or Height", name)
	}

	bpc := 8
	if n, ok := stream.Dict.GetInt("BitsPerComponent"); ok {
		bpc = int(n)
	}

	colorSpace := "DeviceGray"
	if raw := stream.Dict.Get("ColorSpace"); raw != nil {
		colorSpace = colorSpaceName(res, raw)
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", name, err)
	}

	return &PageImage{
		Name:             name,
		Width:            int(width),
		Height:           int(height),
		ColorSpace:       colorSpace,
		BitsPerComponent: bpc,
		Data:             data,
	}, nil
}

// colorSpaceName reduces a color space object to a family name. Indexed
// spaces report their base space.
func colorSpaceName(res pages.Resolver, obj core.Object) string {
	resolved, err := res.Resolve(obj)
	if err != nil {
		return "DeviceGray"
	}
	switch v := resolved.(type) {
	case core.Name:
		return string(v)
	case core.Array:
		if v.Len() == 0 {
			break
		}
		name, ok := v.Get(0).(core.Name)
		if !ok {
			break
		}
		if name == "Indexed" && v.Len() > 1 {
			return colorSpaceName(res, v.Get(1))
		}
		return string(name)
	}
	return "DeviceGray"
}

// ToPNG renders the sample data as a PNG, the input format OCR engines
// expect.
func (img *PageImage) ToPNG() ([]byte, error) {
	goImg, err := img.decode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, goImg); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (img *PageImage) decode() (image.Image, error) {
	switch img.ColorSpace {
	case "DeviceRGB", "CalRGB":
		return img.decodeRGB()
	case "DeviceCMYK":
		return img.decodeCMYK()
	default:
		// Grayscale families, plus ICCBased profiles treated as gray.
		return img.decodeGray()
	}
}

func (img *PageImage) decodeGray() (image.Image, error) {
	out := image.NewGray(image.Rect(0, 0, img.Width, img.Height))

	switch img.BitsPerComponent {
	case 8:
		if err := img.checkSize(img.Width * img.Height); err != nil {
			return nil, err
		}
		copy(out.Pix, img.Data)
		return out, nil

	case 4:
		stride := (img.Width + 1) / 2
		if err := img.checkSize(stride * img.Height); err != nil {
			return nil, err
		}
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				b := img.Data[y*stride+x/2]
				nibble := b >> 4
				if x%2 == 1 {
					nibble = b & 0x0F
				}
				out.Pix[y*img.Width+x] = nibble * 17
			}
		}
		return out, nil

	case 1:
		stride := (img.Width + 7) / 8
		if err := img.checkSize(stride * img.Height); err != nil {
			return nil, err
		}
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				bit := img.Data[y*stride+x/8] >> (7 - x%8) & 1
				if bit == 1 {
					out.Pix[y*img.Width+x] = 255
				}
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported bits per component: %d", img.BitsPerComponent)
	}
}

func (img *PageImage) decodeRGB() (image.Image, error) {
	if img.BitsPerComponent != 8 {
		return nil, fmt.Errorf("unsupported RGB depth: %d", img.BitsPerComponent)
	}
	if err := img.checkSize(img.Width * img.Height * 3); err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		out.Pix[i*4+0] = img.Data[i*3+0]
		out.Pix[i*4+1] = img.Data[i*3+1]
		out.Pix[i*4+2] = img.Data[i*3+2]
		out.Pix[i*4+3] = 255
	}
	return out, nil
}

func (img *PageImage) decodeCMYK() (image.Image, error) {
	if img.BitsPerComponent != 8 {
		return nil, fmt.Errorf("unsupported CMYK depth: %d", img.BitsPerComponent)
	}
	if err := img.checkSize(img.Width * img.Height * 4); err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		r, g, b := color.CMYKToRGB(
			img.Data[i*4+0], img.Data[i*4+1], img.Data[i*4+2], img.Data[i*4+3])
		out.Pix[i*4+0] = r
		out.Pix[i*4+1] = g
		out.Pix[i*4+2] = b
		out.Pix[i*4+3] = 255
	}
	return out, nil
}

func (img *PageImage) checkSize(want int) error {
	if len(img.Data) < want {
		return fmt.Errorf("image %s: %d bytes of sample data, want %d",
			img.Name, len(img.Data), want)
	}
	return nil
}

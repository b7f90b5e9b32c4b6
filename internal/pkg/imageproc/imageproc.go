// Package imageproc normalizes uploaded drawings: EXIF orientation, RGB
// conversion, bounded resizing and JPEG encoding.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const (
	OriginalQuality  = 95
	DetectionQuality = 10
	DetectionMaxSide = 320
	ThumbnailQuality = 85
	ThumbnailMaxSide = 640
)

// Variants are the three JPEGs written for every upload.
type Variants struct {
	Original  []byte
	Detection []byte
	Thumbnail []byte
}

// Prepare decodes raw bytes, fixes orientation, converts to RGB and encodes
// the original, detection and thumbnail JPEGs.
func Prepare(raw []byte) (*Variants, error) {
	img, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	rgb := ToRGB(img)

	orig, err := EncodeJPEG(rgb, OriginalQuality)
	if err != nil {
		return nil, err
	}
	det, err := EncodeJPEG(Fit(rgb, DetectionMaxSide, DetectionMaxSide), DetectionQuality)
	if err != nil {
		return nil, err
	}
	thumb, err := EncodeJPEG(Fit(rgb, ThumbnailMaxSide, ThumbnailMaxSide), ThumbnailQuality)
	if err != nil {
		return nil, err
	}
	return &Variants{Original: orig, Detection: det, Thumbnail: thumb}, nil
}

// Decode decodes an image and applies its EXIF orientation, if any.
func Decode(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return Transpose(img, Orientation(raw)), nil
}

// Orientation reads the EXIF orientation tag, defaulting to 1.
func Orientation(raw []byte) int {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// Transpose returns img rotated/flipped so that orientation o becomes 1.
func Transpose(img image.Image, o int) image.Image {
	if o <= 1 || o > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := w, h
	if o >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case 2: // mirror horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // mirror vertical
				dx, dy = x, h-1-y
			case 5: // transpose
				dx, dy = y, x
			case 6: // rotate 90 cw
				dx, dy = h-1-y, x
			case 7: // transverse
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 90 ccw
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// ToRGB flattens img onto an opaque white canvas.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Fit downscales img to fit within maxW x maxH keeping aspect ratio. Images
// already inside the bounds are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

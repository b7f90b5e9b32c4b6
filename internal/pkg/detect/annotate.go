package detect

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// palette cycles box colors per document category.
var palette = map[string]color.RGBA{
	"house":  {R: 230, G: 57, B: 70, A: 255},
	"tree":   {R: 42, G: 157, B: 143, A: 255},
	"person": {R: 69, G: 123, B: 157, A: 255},
	"":       {R: 244, G: 162, B: 97, A: 255},
}

func DefaultFace() font.Face { return basicfont.Face7x13 }

// LoadFace reads a TrueType font for box labels. Korean class names need a
// font with Hangul glyphs.
func LoadFace(path string, size float64) (font.Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	f, err := truetype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse ttf: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone}), nil
}

// Annotate draws every box with its label and confidence and returns a JPEG.
func Annotate(src []byte, boxes []Box, face font.Face) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode detection input: %w", err)
	}

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(face)
	dc.SetLineWidth(2)

	for _, b := range boxes {
		c := palette[Category(b.ClassName)]
		w, h := b.X2-b.X1, b.Y2-b.Y1
		dc.SetColor(c)
		dc.DrawRectangle(b.X1, b.Y1, w, h)
		dc.Stroke()

		label := fmt.Sprintf("%s %.2f", b.ClassName, b.Confidence)
		tw, th := dc.MeasureString(label)
		ty := b.Y1 - th - 2
		if ty < 0 {
			ty = b.Y1
		}
		dc.DrawRectangle(b.X1, ty, tw+4, th+2)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawString(label, b.X1+2, ty+th)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

package minimap

import (
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Overview colors.
const (
	backgroundColor = "#fafafa"
	borderColor     = "#9e9e9e"
	viewportColor   = "#2196f3"
)

// RenderPNG draws p as a PNG. A non-empty label, such as the zoom level, is
// printed in the bottom-right corner.
func RenderPNG(w io.Writer, p Projection, label string) error {
	size := int(p.Size + 0.5)
	dc := gg.NewContext(size, size)
	dc.SetHexColor(backgroundColor)
	dc.Clear()

	for _, n := range p.Nodes {
		dc.DrawRectangle(n.Rect.Min.X, n.Rect.Min.Y, n.Rect.Width(), n.Rect.Height())
		dc.SetHexColor(n.Color)
		dc.FillPreserve()
		dc.SetHexColor(borderColor)
		dc.SetLineWidth(0.5)
		dc.Stroke()
	}

	v := p.Viewport
	dc.DrawRectangle(v.Min.X, v.Min.Y, v.Width(), v.Height())
	dc.SetHexColor(viewportColor)
	dc.SetLineWidth(2)
	dc.Stroke()

	if label != "" {
		face, err := labelFace(10)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(label, p.Size-4, p.Size-4, 1, 0)
	}

	return dc.EncodePNG(w)
}

func labelFace(points float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    points,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

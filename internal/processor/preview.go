package processor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/gift"
)

const previewGap = 8

// Compare lays before and after side by side, each scaled to width pixels.
// A non-positive width keeps the size of before.
func Compare(before, after image.Image, width int) image.Image {
	if width <= 0 {
		width = before.Bounds().Dx()
	}

	g := gift.New(gift.Resize(width, 0, gift.LanczosResampling))

	left := g.Bounds(before.Bounds())
	right := g.Bounds(after.Bounds())

	height := left.Dy()
	if right.Dy() > height {
		height = right.Dy()
	}

	dst := image.NewNRGBA(image.Rect(0, 0, left.Dx()+previewGap+right.Dx(), height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	g.DrawAt(dst, before, image.Pt(0, 0), gift.CopyOperator)
	g.DrawAt(dst, after, image.Pt(left.Dx()+previewGap, 0), gift.CopyOperator)

	return dst
}

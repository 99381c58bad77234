// Package render rasterizes track waveforms off the UI goroutine.
//
// Each request is a self-contained snapshot; the renderer keeps no state
// between requests. Downsampling is min/max per pixel column, which keeps
// transient peaks that plain subsampling would lose, at O(canvasWidth)
// output cost for any buffer size.
package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/verseforge/mixview/internal/track"
	"github.com/verseforge/mixview/internal/viewport"
)

// Request is an immutable render snapshot. Tracks must be a deep copy owned
// by the request. Seq orders requests so consumers can drop stale results.
type Request struct {
	Seq    uint64
	Tracks track.Set
	View   viewport.State
	Width  int
	Height int
}

// Result carries a finished raster back to the requester. Ownership of the
// image transfers with the result.
type Result struct {
	Seq   uint64
	Image *image.RGBA
}

var background = color.RGBA{R: 0x12, G: 0x12, B: 0x16, A: 0xff}

// Render rasterizes all tracks of a request into one RGBA image, each track
// in its own horizontal band. Tracks whose visible window is empty are
// skipped without error.
func Render(req Request) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	fill(img, background)

	order := req.Tracks.Order()
	if len(order) == 0 || req.Width <= 0 || req.Height <= 0 {
		return img
	}
	bandHeight := req.Height / len(order)
	if bandHeight == 0 {
		return img
	}

	for i, name := range order {
		bandTop := i * bandHeight
		drawTrack(img, req.Tracks[name], req.View, req.Width, bandTop, bandHeight, track.Color(name))
		drawLabel(img, name, bandTop, track.Color(name))
	}
	return img
}

// drawTrack draws one track's min/max columns into its band.
func drawTrack(img *image.RGBA, buf []float32, view viewport.State, width, bandTop, bandHeight int, tint color.RGBA) {
	start, end := view.Window(width, len(buf))
	if end <= start {
		return
	}

	samplesPerPixel := (end - start) / width
	if samplesPerPixel < 1 {
		samplesPerPixel = 1
	}

	for col := 0; col < width; col++ {
		lo := start + col*samplesPerPixel
		if lo >= end {
			break
		}
		hi := lo + samplesPerPixel
		if hi > end {
			hi = end
		}

		mn, mx := buf[lo], buf[lo]
		for _, s := range buf[lo+1 : hi] {
			if s < mn {
				mn = s
			}
			if s > mx {
				mx = s
			}
		}

		yTop := amplitudeToY(mx, bandTop, bandHeight)
		yBot := amplitudeToY(mn, bandTop, bandHeight)
		for y := yTop; y <= yBot; y++ {
			img.SetRGBA(col, y, tint)
		}
	}
}

// amplitudeToY maps an amplitude in [-1, 1] to a pixel row within a band:
// +1 at the top edge, -1 at the bottom. Out-of-range samples clamp to the
// band rather than bleeding into a neighbor.
func amplitudeToY(amp float32, bandTop, bandHeight int) int {
	if amp > 1 {
		amp = 1
	}
	if amp < -1 {
		amp = -1
	}
	y := bandTop + int((1-float64(amp))*0.5*float64(bandHeight-1))
	if y < bandTop {
		y = bandTop
	}
	if y > bandTop+bandHeight-1 {
		y = bandTop + bandHeight - 1
	}
	return y
}

func drawLabel(img *image.RGBA, name string, bandTop int, tint color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(tint),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, bandTop+13),
	}
	d.DrawString(name)
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

package report

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"backtest_go/internal/domain"

	"github.com/disintegration/imaging"
)

// The curve is drawn at chartScale times the requested size and downsampled,
// which smooths the line without an anti-aliasing rasterizer.
const (
	chartScale  = 2
	chartMargin = 24
	gridLines   = 4
)

var (
	chartBackground = color.NRGBA{255, 255, 255, 255}
	chartAxis       = color.NRGBA{90, 90, 90, 255}
	chartGrid       = color.NRGBA{225, 225, 225, 255}
	chartLine       = color.NRGBA{31, 119, 180, 255}
)

// ErrEmptyCurve is returned when there is nothing to plot.
var ErrEmptyCurve = errors.New("empty equity curve")

// RenderEquityChart draws the curve as a PNG (or any format imaging infers from the
// extension) of width x height pixels.
func RenderEquityChart(curve []domain.EquityPoint, path string, width, height int) error {
	img, err := EquityImage(curve, width, height)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// EquityImage rasterizes the curve.
func EquityImage(curve []domain.EquityPoint, width, height int) (*image.NRGBA, error) {
	if len(curve) == 0 {
		return nil, ErrEmptyCurve
	}
	if width <= 2*chartMargin || height <= 2*chartMargin {
		return nil, fmt.Errorf("chart size %dx%d too small", width, height)
	}

	w, h := width*chartScale, height*chartScale
	m := chartMargin * chartScale
	canvas := imaging.New(w, h, chartBackground)

	left, right, top, bottom := m, w-m, m, h-m

	for i := 0; i <= gridLines; i++ {
		y := top + (bottom-top)*i/gridLines
		drawLine(canvas, left, y, right, y, chartGrid, 1)
	}
	drawLine(canvas, left, top, left, bottom, chartAxis, chartScale)
	drawLine(canvas, left, bottom, right, bottom, chartAxis, chartScale)

	lo, hi := curve[0].Value, curve[0].Value
	for _, p := range curve {
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}

	px := func(i int) int {
		if len(curve) == 1 {
			return (left + right) / 2
		}
		return left + (right-left)*i/(len(curve)-1)
	}
	py := func(v float64) int {
		if hi == lo {
			return (top + bottom) / 2
		}
		return bottom - int((v-lo)/(hi-lo)*float64(bottom-top))
	}

	x0, y0 := px(0), py(curve[0].Value)
	if len(curve) == 1 {
		drawLine(canvas, x0, y0, x0, y0, chartLine, 3*chartScale)
	}
	for i := 1; i < len(curve); i++ {
		x1, y1 := px(i), py(curve[i].Value)
		drawLine(canvas, x0, y0, x1, y1, chartLine, chartScale)
		x0, y0 = x1, y1
	}

	return imaging.Resize(canvas, width, height, imaging.Lanczos), nil
}

// drawLine plots a Bresenham line with a square pen of the given thickness.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA, thickness int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	half := thickness / 2

	for {
		for ox := -half; ox < thickness-half; ox++ {
			for oy := -half; oy < thickness-half; oy++ {
				p := image.Pt(x0+ox, y0+oy)
				if p.In(img.Bounds()) {
					img.SetNRGBA(p.X, p.Y, c)
				}
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

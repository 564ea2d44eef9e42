package explore

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ------------------- Chart Rendering -------------------

const (
	chartWidth  = 900
	chartHeight = 600
	chartMargin = 70.0
)

// gradePalette colors the nutrition grades a..e from green to red.
var gradePalette = map[string]color.NRGBA{
	"a": {R: 0x2e, G: 0x8b, B: 0x2e, A: 0xff},
	"b": {R: 0x85, G: 0xbb, B: 0x2f, A: 0xff},
	"c": {R: 0xf2, G: 0xcc, B: 0x0c, A: 0xff},
	"d": {R: 0xee, G: 0x82, B: 0x1e, A: 0xff},
	"e": {R: 0xd6, G: 0x27, B: 0x27, A: 0xff},
}

var defaultDot = color.NRGBA{R: 0x4a, G: 0x6f, B: 0xa5, A: 0xff}

// Renderer draws exploration charts as PNG files under an output dir.
type Renderer struct {
	OutDir    string
	titleFace font.Face
	labelFace font.Face
}

// NewRenderer creates a chart renderer with the bundled font.
func NewRenderer(outDir string) (*Renderer, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Renderer{
		OutDir:    outDir,
		titleFace: truetype.NewFace(f, &truetype.Options{Size: 18}),
		labelFace: truetype.NewFace(f, &truetype.Options{Size: 12}),
	}, nil
}

func (r *Renderer) newCanvas(title string) *gg.Context {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(r.titleFace)
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored(title, chartWidth/2, chartMargin/2, 0.5, 0.5)
	dc.SetFontFace(r.labelFace)
	return dc
}

func (r *Renderer) save(dc *gg.Context, name string) (string, error) {
	path := filepath.Join(r.OutDir, name)
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("failed to save chart %s: %w", name, err)
	}
	return path, nil
}

// drawAxes draws the plot frame and returns the plotting area.
func drawAxes(dc *gg.Context) (x0, y0, x1, y1 float64) {
	x0, y0 = chartMargin, chartHeight-chartMargin
	x1, y1 = chartWidth-chartMargin, chartMargin
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1.5)
	dc.DrawLine(x0, y0, x1, y0) // x axis
	dc.DrawLine(x0, y0, x0, y1) // y axis
	dc.Stroke()
	return
}

// Histogram renders the distribution of one numeric column.
func (r *Renderer) Histogram(values []float64, bins int, title, name string) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("histogram %s: no values", name)
	}
	if bins <= 0 {
		bins = 30
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}
	counts := make([]int, bins)
	for _, v := range values {
		b := int(float64(bins) * (v - min) / span)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	dc := r.newCanvas(title)
	x0, y0, x1, y1 := drawAxes(dc)
	plotW, plotH := x1-x0, y0-y1
	barW := plotW / float64(bins)

	dc.SetColor(defaultDot)
	for i, c := range counts {
		h := plotH * float64(c) / float64(maxCount)
		dc.DrawRectangle(x0+float64(i)*barW, y0-h, barW-1, h)
	}
	dc.Fill()

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", min), x0, y0+18, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", max), x1, y0+18, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%d", maxCount), x0-25, y1, 0.5, 0.5)

	return r.save(dc, name)
}

// BarChart renders a categorical frequency table, most frequent first.
func (r *Renderer) BarChart(freqs []ValueCount, title, name string) (string, error) {
	if len(freqs) == 0 {
		return "", fmt.Errorf("bar chart %s: no categories", name)
	}
	if len(freqs) > 15 {
		freqs = freqs[:15]
	}
	maxCount := freqs[0].Count

	dc := r.newCanvas(title)
	x0, y0, x1, y1 := drawAxes(dc)
	plotW, plotH := x1-x0, y0-y1
	barW := plotW / float64(len(freqs))

	for i, f := range freqs {
		if col, ok := gradePalette[f.Value]; ok {
			dc.SetColor(col)
		} else {
			dc.SetColor(defaultDot)
		}
		h := plotH * float64(f.Count) / float64(maxCount)
		dc.DrawRectangle(x0+float64(i)*barW+barW*0.1, y0-h, barW*0.8, h)
		dc.Fill()

		dc.SetRGB(0.2, 0.2, 0.2)
		label := f.Value
		if len(label) > 12 {
			label = label[:12] + "…"
		}
		dc.DrawStringAnchored(label, x0+float64(i)*barW+barW/2, y0+18, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%d", f.Count), x0+float64(i)*barW+barW/2, y0-h-10, 0.5, 0.5)
	}

	return r.save(dc, name)
}

// Heatmap renders a correlation matrix, blue for -1 through red for +1.
func (r *Renderer) Heatmap(labels []string, matrix [][]float64, title, name string) (string, error) {
	n := len(labels)
	if n == 0 || len(matrix) != n {
		return "", fmt.Errorf("heatmap %s: bad matrix", name)
	}

	dc := r.newCanvas(title)
	x0, y0, x1, y1 := chartMargin+80.0, chartHeight-chartMargin, chartWidth-chartMargin, chartMargin+20.0
	cellW := (x1 - x0) / float64(n)
	cellH := (y0 - y1) / float64(n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := matrix[i][j]
			dc.SetColor(correlationColor(v))
			dc.DrawRectangle(x0+float64(j)*cellW, y1+float64(i)*cellH, cellW, cellH)
			dc.Fill()

			if !math.IsNaN(v) {
				dc.SetRGB(0.1, 0.1, 0.1)
				dc.DrawStringAnchored(fmt.Sprintf("%.2f", v),
					x0+float64(j)*cellW+cellW/2, y1+float64(i)*cellH+cellH/2, 0.5, 0.5)
			}
		}
		short := labels[i]
		if len(short) > 14 {
			short = short[:14]
		}
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(short, x0-8, y1+float64(i)*cellH+cellH/2, 1, 0.5)
	}

	return r.save(dc, name)
}

// correlationColor maps r ∈ [-1,1] to a blue-white-red ramp.
func correlationColor(v float64) color.NRGBA {
	if math.IsNaN(v) {
		return color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	}
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	if v >= 0 {
		t := v
		return color.NRGBA{R: 0xff, G: uint8(255 * (1 - t)), B: uint8(255 * (1 - t)), A: 0xff}
	}
	t := -v
	return color.NRGBA{R: uint8(255 * (1 - t)), G: uint8(255 * (1 - t)), B: 0xff, A: 0xff}
}

// Scatter renders one numeric column against another.
func (r *Renderer) Scatter(x, y []float64, xLabel, yLabel, title, name string) (string, error) {
	if len(x) == 0 || len(x) != len(y) {
		return "", fmt.Errorf("scatter %s: bad series", name)
	}

	dc := r.newCanvas(title)
	px0, py0, px1, py1 := drawAxes(dc)
	xMin, xMax := minMax(x)
	yMin, yMax := minMax(y)

	dc.SetColor(defaultDot)
	for i := range x {
		cx := px0 + (px1-px0)*safeRatio(x[i]-xMin, xMax-xMin)
		cy := py0 - (py0-py1)*safeRatio(y[i]-yMin, yMax-yMin)
		dc.DrawCircle(cx, cy, 2.2)
		dc.Fill()
	}

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawStringAnchored(xLabel, (px0+px1)/2, py0+22, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, px0-40, (py0+py1)/2)
	dc.DrawStringAnchored(yLabel, px0-40, (py0+py1)/2, 0.5, 0.5)
	dc.Pop()

	return r.save(dc, name)
}

// PCAScatter projects rows on the first two components, colored by a
// categorical label (the nutrition grade).
func (r *Renderer) PCAScatter(res *PCAResult, rowLabels []string, title, name string) (string, error) {
	if res == nil || len(res.Projections) == 0 || len(res.Components) < 2 {
		return "", fmt.Errorf("pca scatter %s: need two components", name)
	}

	xs := make([]float64, len(res.Projections))
	ys := make([]float64, len(res.Projections))
	for i, p := range res.Projections {
		xs[i] = p[0]
		ys[i] = p[1]
	}
	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)

	dc := r.newCanvas(title)
	px0, py0, px1, py1 := drawAxes(dc)
	for i := range xs {
		c := defaultDot
		if i < len(rowLabels) {
			if gc, ok := gradePalette[rowLabels[i]]; ok {
				c = gc
			}
		}
		dc.SetColor(c)
		cx := px0 + (px1-px0)*safeRatio(xs[i]-xMin, xMax-xMin)
		cy := py0 - (py0-py1)*safeRatio(ys[i]-yMin, yMax-yMin)
		dc.DrawCircle(cx, cy, 2.5)
		dc.Fill()
	}

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawStringAnchored(fmt.Sprintf("PC1 (%.1f%%)", res.ExplainedVariance[0]*100), (px0+px1)/2, py0+22, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, px0-40, (py0+py1)/2)
	dc.DrawStringAnchored(fmt.Sprintf("PC2 (%.1f%%)", res.ExplainedVariance[1]*100), px0-40, (py0+py1)/2, 0.5, 0.5)
	dc.Pop()

	// grade legend
	lx := px1 - 90.0
	ly := py1 + 10.0
	for _, g := range []string{"a", "b", "c", "d", "e"} {
		dc.SetColor(gradePalette[g])
		dc.DrawRectangle(lx, ly, 12, 12)
		dc.Fill()
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(g, lx+22, ly+6, 0.5, 0.5)
		ly += 18
	}

	return r.save(dc, name)
}

func minMax(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0.5
	}
	return num / den
}

package field

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HeatmapRenderer rasterizes a coverage field as a PNG heatmap with material
// overlays and AP markers. It consumes the field read-only; rendering is an
// external concern layered on top of the estimation core.
type HeatmapRenderer struct {
	CellPixels int // screen pixels per grid cell (default 8)
	MinRSSI    float64
	MaxRSSI    float64
	ShowAPs    bool
	ShowWalls  bool
}

// NewHeatmapRenderer creates a renderer with default settings. The color
// ramp spans -90..-30 dBm, the range real surveys almost always fall in.
func NewHeatmapRenderer() *HeatmapRenderer {
	return &HeatmapRenderer{
		CellPixels: 8,
		MinRSSI:    -90,
		MaxRSSI:    -30,
		ShowAPs:    true,
		ShowWalls:  true,
	}
}

// materialOverlayColors matches the palette conventionally used in floor
// plan tooling.
var materialOverlayColors = map[string]color.NRGBA{
	"concrete": {128, 128, 128, 200},
	"drywall":  {245, 245, 245, 170},
	"glass":    {173, 216, 230, 170},
	"wood":     {139, 69, 19, 170},
	"metal":    {192, 192, 192, 200},
}

// Render draws the best-available field. Masked cells stay transparent.
func (r *HeatmapRenderer) Render(f *CoverageField, aps []AccessPoint, mm *MaterialMap) *image.RGBA {
	return r.renderGrid(f, f.Best, aps, mm)
}

// RenderAP draws the per-AP field for one access point.
func (r *HeatmapRenderer) RenderAP(f *CoverageField, apID string, aps []AccessPoint, mm *MaterialMap) (*image.RGBA, error) {
	grid, ok := f.PerAP[apID]
	if !ok {
		return nil, fmt.Errorf("no per-AP field for %q", apID)
	}
	var single []AccessPoint
	for _, ap := range aps {
		if ap.ID == apID {
			single = append(single, ap)
		}
	}
	return r.renderGrid(f, grid, single, mm), nil
}

func (r *HeatmapRenderer) renderGrid(f *CoverageField, grid [][]float64, aps []AccessPoint, mm *MaterialMap) *image.RGBA {
	cp := r.CellPixels
	if cp <= 0 {
		cp = 8
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Cols*cp, f.Rows*cp))

	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if !f.Mask[row][col] {
				continue
			}
			c := r.rampColor(grid[row][col])

			// Image y grows downward; field row 0 is the bottom edge.
			py := (f.Rows - 1 - row) * cp
			px := col * cp
			fillRect(img, px, py, cp, cp, c)
		}
	}

	if r.ShowWalls && mm != nil {
		r.overlayMaterials(img, f, mm, cp)
	}

	if r.ShowAPs {
		for i, ap := range aps {
			px := int((ap.X - f.OriginX) / f.CellSize * float64(cp))
			py := img.Bounds().Dy() - int((ap.Y-f.OriginY)/f.CellSize*float64(cp))
			drawMarker(img, px, py, color.RGBA{255, 0, 0, 255})
			drawText(img, px+8, py-4, fmt.Sprintf("%d:%s", i+1, ap.ID), color.RGBA{0, 0, 0, 255})
		}
	}

	return img
}

// overlayMaterials alpha-blends the material regions over the heatmap.
func (r *HeatmapRenderer) overlayMaterials(img *image.RGBA, f *CoverageField, mm *MaterialMap, cp int) {
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			x, y := f.CellCenter(row, col)
			mat := mm.MaterialAt(x, y)
			if mat == "" {
				continue
			}
			c, ok := materialOverlayColors[mat]
			if !ok {
				c = color.NRGBA{100, 100, 100, 170}
			}
			py := (f.Rows - 1 - row) * cp
			blendRect(img, col*cp, py, cp, cp, c)
		}
	}
}

// rampColor maps RSSI to a blue-cyan-yellow-red ramp, clamped at the
// configured range ends.
func (r *HeatmapRenderer) rampColor(rssi float64) color.RGBA {
	if math.IsNaN(rssi) {
		return color.RGBA{}
	}
	t := (rssi - r.MinRSSI) / (r.MaxRSSI - r.MinRSSI)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	// Piecewise linear: blue -> cyan -> yellow -> red.
	switch {
	case t < 1.0/3:
		u := t * 3
		return color.RGBA{0, uint8(255 * u), 255, 255}
	case t < 2.0/3:
		u := (t - 1.0/3) * 3
		return color.RGBA{uint8(255 * u), 255, uint8(255 * (1 - u)), 255}
	default:
		u := (t - 2.0/3) * 3
		return color.RGBA{255, uint8(255 * (1 - u)), 0, 255}
	}
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	b := img.Bounds()
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
				img.SetRGBA(px, py, c)
			}
		}
	}
}

func blendRect(img *image.RGBA, x, y, w, h int, c color.NRGBA) {
	b := img.Bounds()
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
				base := img.RGBAAt(px, py)
				a := uint32(c.A)
				inv := 255 - a
				img.SetRGBA(px, py, color.RGBA{
					R: uint8((uint32(c.R)*a + uint32(base.R)*inv) / 255),
					G: uint8((uint32(c.G)*a + uint32(base.G)*inv) / 255),
					B: uint8((uint32(c.B)*a + uint32(base.B)*inv) / 255),
					A: 255,
				})
			}
		}
	}
}

// drawMarker draws a small filled diamond centered at (x, y).
func drawMarker(img *image.RGBA, x, y int, c color.RGBA) {
	const size = 5
	for dy := -size; dy <= size; dy++ {
		span := size - abs(dy)
		for dx := -span; dx <= span; dx++ {
			px, py := x+dx, y+dy
			b := img.Bounds()
			if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
				img.SetRGBA(px, py, c)
			}
		}
	}
}

// drawText renders text onto an image at the specified position.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RenderToFile renders the best-available field and writes it as PNG.
func (r *HeatmapRenderer) RenderToFile(path string, f *CoverageField, aps []AccessPoint, mm *MaterialMap) error {
	img := r.Render(f, aps, mm)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

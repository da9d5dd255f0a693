package field

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// VectorRenderer renders a coverage field as vector graphics: one filled
// rectangle per grid cell, material region outlines, grid lines, and AP
// markers. SVG output stays crisp at any zoom, which matters for floor-plan
// review; the PNG path rasterizes the same scene.
type VectorRenderer struct {
	Field      *CoverageField
	APs        []AccessPoint
	Materials  *MaterialMap
	Scale      float64           // canvas units per meter (default 10)
	GridLines  float64           // grid line spacing in meters, 0 disables
	Resolution canvas.Resolution // PNG output resolution
	MinRSSI    float64
	MaxRSSI    float64
}

// NewVectorRenderer creates a vector renderer with default settings.
func NewVectorRenderer(f *CoverageField, aps []AccessPoint, mm *MaterialMap) *VectorRenderer {
	return &VectorRenderer{
		Field:      f,
		APs:        aps,
		Materials:  mm,
		Scale:      10.0,
		GridLines:  5.0,
		Resolution: canvas.DPI(150),
		MinRSSI:    -90,
		MaxRSSI:    -30,
	}
}

// canvasRenderer is the subset both the svg and rasterizer backends implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the coverage scene as an SVG to the provided writer.
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	width, height := r.canvasSize()
	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, width, height)
	return svgRenderer.Close()
}

// RenderToPNG rasterizes the coverage scene as a PNG to the provided writer.
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	width, height := r.canvasSize()
	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, width, height)
	return png.Encode(w, rast)
}

func (r *VectorRenderer) canvasSize() (width, height float64) {
	return r.Field.Width * r.Scale, r.Field.Height * r.Scale
}

// toCanvas maps world meters to canvas coordinates.
func (r *VectorRenderer) toCanvas(x, y float64) (float64, float64) {
	return (x - r.Field.OriginX) * r.Scale, (y - r.Field.OriginY) * r.Scale
}

func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, width, height float64) {
	f := r.Field

	// White background.
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Coverage cells.
	cellSize := f.CellSize * r.Scale
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if !f.Mask[row][col] {
				continue
			}
			cellStyle := canvas.DefaultStyle
			cellStyle.Fill = canvas.Paint{Color: r.rampColor(f.Best[row][col])}
			cellStyle.Stroke = canvas.Paint{Color: canvas.Transparent}

			cp := canvas.Rectangle(cellSize, cellSize)
			cp = cp.Translate(float64(col)*cellSize, float64(row)*cellSize)
			renderer.RenderPath(cp, cellStyle, canvas.Identity)
		}
	}

	// Material region outlines.
	if r.Materials != nil {
		wallStyle := canvas.DefaultStyle
		wallStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		wallStyle.Stroke = canvas.Paint{Color: canvas.Black}
		wallStyle.StrokeWidth = 1.5

		for _, region := range r.Materials.Regions {
			for _, ring := range region.Polygon {
				cp := &canvas.Path{}
				for i, pt := range ring {
					cx, cy := r.toCanvas(pt[0], pt[1])
					if i == 0 {
						cp.MoveTo(cx, cy)
					} else {
						cp.LineTo(cx, cy)
					}
				}
				cp.Close()
				renderer.RenderPath(cp, wallStyle, canvas.Identity)
			}
		}
	}

	// Grid lines.
	if r.GridLines > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = 0.5
		gridStyle.Dashes = []float64{3.0, 3.0}

		for x := math.Ceil(f.OriginX/r.GridLines) * r.GridLines; x <= f.OriginX+f.Width; x += r.GridLines {
			cp := &canvas.Path{}
			x1, y1 := r.toCanvas(x, f.OriginY)
			x2, y2 := r.toCanvas(x, f.OriginY+f.Height)
			cp.MoveTo(x1, y1)
			cp.LineTo(x2, y2)
			renderer.RenderPath(cp, gridStyle, canvas.Identity)
		}
		for y := math.Ceil(f.OriginY/r.GridLines) * r.GridLines; y <= f.OriginY+f.Height; y += r.GridLines {
			cp := &canvas.Path{}
			x1, y1 := r.toCanvas(f.OriginX, y)
			x2, y2 := r.toCanvas(f.OriginX+f.Width, y)
			cp.MoveTo(x1, y1)
			cp.LineTo(x2, y2)
			renderer.RenderPath(cp, gridStyle, canvas.Identity)
		}
	}

	// AP markers as circles.
	for _, ap := range r.APs {
		cx, cy := r.toCanvas(ap.X, ap.Y)

		apStyle := canvas.DefaultStyle
		apStyle.Fill = canvas.Paint{Color: color.RGBA{255, 0, 0, 255}}
		apStyle.Stroke = canvas.Paint{Color: canvas.Black}
		apStyle.StrokeWidth = 1.0

		cp := canvas.Circle(0.4 * r.Scale)
		cp = cp.Translate(cx, cy)
		renderer.RenderPath(cp, apStyle, canvas.Identity)
	}
}

// rampColor mirrors the raster renderer's blue-cyan-yellow-red ramp.
func (r *VectorRenderer) rampColor(rssi float64) color.RGBA {
	h := HeatmapRenderer{MinRSSI: r.MinRSSI, MaxRSSI: r.MaxRSSI}
	return h.rampColor(rssi)
}

// Package render draws swarms and their order parameter to PNG images.
package render

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/PrincetonUniversity/vicsek"
	"github.com/fogleman/gg"
	"github.com/wcharczuk/go-chart/v2"
)

// Options holds the parameters of a quiver plot.
type Options struct {
	// Side of the square image in pixels.
	Size int

	// Half width L of the view [-L, L]².
	Half float64

	// Length of an arrow in domain units.
	Arrow float64

	// Spacing of the grid in domain units, none if zero.
	Grid float64

	// Outline drawn under the particles, none if its radius is zero.
	Domain vicsek.Domain
}

// DefaultOptions are sized like the figures of the plotting scripts:
// an 8 inch square at 100 dpi, L = 24, arrows at scale 0.4.
var DefaultOptions = Options{
	Size:  800,
	Half:  24,
	Arrow: 1 / 0.4,
	Grid:  6,
}

// Quiver draws one arrow per particle and titles the image with the step.
func Quiver(swarm []vicsek.Particle, step int, o Options) image.Image {
	dc := gg.NewContext(o.Size, o.Size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	s := float64(o.Size) / (2 * o.Half)
	dc.Push()
	dc.Translate(float64(o.Size)/2, float64(o.Size)/2)
	dc.Scale(s, -s)

	if o.Grid > 0 {
		dc.SetRGB(0.85, 0.85, 0.85)
		dc.SetLineWidth(1)
		for g := math.Ceil(-o.Half/o.Grid) * o.Grid; g <= o.Half; g += o.Grid {
			dc.DrawLine(g, -o.Half, g, o.Half)
			dc.DrawLine(-o.Half, g, o.Half, g)
		}
		dc.Stroke()
	}

	if o.Domain.Radius > 0 {
		dc.SetRGB(0.3, 0.3, 0.3)
		dc.SetLineWidth(2)
		outline(dc, o.Domain)
		dc.Stroke()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	head := o.Arrow / 4
	for _, p := range swarm {
		sin, cos := math.Sincos(p.Theta)
		tx, ty := p.X+o.Arrow*cos, p.Y+o.Arrow*sin
		dc.DrawLine(p.X, p.Y, tx, ty)
		for _, φ := range [2]float64{p.Theta + 5*math.Pi/6, p.Theta - 5*math.Pi/6} {
			sin, cos := math.Sincos(φ)
			dc.DrawLine(tx, ty, tx+head*cos, ty+head*sin)
		}
	}
	dc.Stroke()
	dc.Pop()

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("time = %05d", step), float64(o.Size)/2, 16, 0.5, 0.5)
	return dc.Image()
}

// outline adds the boundary of the domain to the current path.
// Overlapping disks are drawn as a peanut, the arcs meeting on the waist.
func outline(dc *gg.Context, d vicsek.Domain) {
	r, a := d.Radius, d.Separation/2
	if a == 0 {
		dc.NewSubPath()
		dc.DrawCircle(0, 0, r)
		return
	}
	if a >= r {
		dc.NewSubPath()
		dc.DrawCircle(a, 0, r)
		dc.NewSubPath()
		dc.DrawCircle(-a, 0, r)
		return
	}
	// angle of the waist points seen from the center of the right lobe
	w := math.Pi - math.Atan2(math.Sqrt(r*r-a*a), a)
	dc.NewSubPath()
	dc.DrawArc(a, 0, r, -w, w)
	dc.NewSubPath()
	dc.DrawArc(-a, 0, r, math.Pi-w, math.Pi+w)
}

// SavePNG draws a quiver plot to a PNG file, creating its directory if needed.
func SavePNG(path string, swarm []vicsek.Particle, step int, o Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return gg.SavePNG(path, Quiver(swarm, step, o))
}

// OrderPlot renders a polarization time series as a PNG line chart.
func OrderPlot(w io.Writer, series []float64) error {
	if len(series) < 2 {
		return errors.New("render: order plot needs at least two steps")
	}
	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name: "time",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "polarization",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "polarization",
				XValues: xs,
				YValues: series,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// A Source yields the recorded steps of a run in order.
type Source interface {
	Steps() int
	Load(swarm *[]vicsek.Particle) (step int, err error)
}

// Frames renders every step of src to dst, one PNG per step named after
// its index plus order.png, and returns the polarization series.
func Frames(src Source, dst string, o Options) (series []float64, err error) {
	var swarm []vicsek.Particle
	for k := 0; k < src.Steps(); k++ {
		step, err := src.Load(&swarm)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%05d.png", step)
		if err := SavePNG(filepath.Join(dst, name), swarm, step, o); err != nil {
			return nil, err
		}
		series = append(series, vicsek.Polarization(swarm))
	}
	if len(series) < 2 {
		return series, nil
	}

	f, err := os.Create(filepath.Join(dst, "order.png"))
	if err != nil {
		return nil, err
	}
	defer checkClose(&err, f)
	return series, OrderPlot(f, series)
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}

package ownmaprenderer

import (
	"errors"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/styling"
)

var (
	ErrInvalidVerticalExaggeration = errors.New("invalid vertical exaggeration")
	ErrInvalidResolution           = errors.New("invalid ground resolution")
)

// Raster is a row-major grid of floating point colours.
type Raster struct {
	Width  int
	Height int
	Pix    []ownmap.RGBA
}

func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]ownmap.RGBA, width*height),
	}
}

func (r *Raster) At(x, y int) ownmap.RGBA {
	return r.Pix[y*r.Width+x]
}

func (r *Raster) Set(x, y int, c ownmap.RGBA) {
	r.Pix[y*r.Width+x] = c
}

type ShadeOptions struct {
	Light                Vec3
	Colormap             styling.Colormap
	BlendMode            ownmap.BlendMode
	VerticalExaggeration float64
	// Dx and Dy are the ground distances covered by one pixel
	Dx, Dy     float64
	Normalizer Normalizer
}

func (opts ShadeOptions) validate() errorsx.Error {
	if opts.Colormap == nil {
		return errorsx.Errorf("no colormap given")
	}

	if !isSupportedBlendMode(opts.BlendMode) {
		return errorsx.Wrap(ErrUnsupportedBlendMode, "blendMode", opts.BlendMode)
	}

	ve := opts.VerticalExaggeration
	if math.IsNaN(ve) || math.IsInf(ve, 0) || ve < 0 {
		return errorsx.Wrap(ErrInvalidVerticalExaggeration, "verticalExaggeration", ve)
	}

	if !isPositiveFinite(opts.Dx) || !isPositiveFinite(opts.Dy) {
		return errorsx.Wrap(ErrInvalidResolution, "dx", opts.Dx, "dy", opts.Dy)
	}

	return opts.Normalizer.valueRange.Validate()
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Shade illuminates the grid with the light vector and colours it with the colormap.
// No-data cells get the no-data colour and are left out of their neighbours' gradients.
func Shade(grid *ownmap.ElevationGrid, opts ShadeOptions) (*Raster, errorsx.Error) {
	err := grid.Validate()
	if err != nil {
		return nil, err
	}

	err = opts.validate()
	if err != nil {
		return nil, err
	}

	light := opts.Light.Normalize()
	raster := NewRaster(grid.Width, grid.Height)

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			elevation, ok := grid.At(x, y)
			if !ok {
				raster.Set(x, y, styling.NoDataColor)
				continue
			}

			intensity := Intensity(grid, x, y, light, opts.VerticalExaggeration, opts.Dx, opts.Dy)
			base := opts.Colormap.At(opts.Normalizer.Normalize(elevation))

			c, err := Blend(base, intensity, opts.BlendMode)
			if err != nil {
				return nil, err
			}

			raster.Set(x, y, c)
		}
	}

	return raster, nil
}

// Intensity is the illumination of the cell at (x, y): the dot product of its surface normal and the light, not less than 0.
func Intensity(grid *ownmap.ElevationGrid, x, y int, light Vec3, verticalExaggeration, dx, dy float64) float64 {
	dzdx := verticalExaggeration * derivative(grid, x, y, 1, 0) / dx
	// rows increase southwards
	dzdrow := verticalExaggeration * derivative(grid, x, y, 0, 1) / dy

	normal := Vec3{X: -dzdx, Y: dzdrow, Z: 1}.Normalize()

	return math.Max(0, normal.Dot(light))
}

// derivative is the change in elevation per cell along (stepX, stepY) at a valid cell.
// A central difference is used where both neighbours are valid, a one sided difference where only one is, otherwise 0.
func derivative(grid *ownmap.ElevationGrid, x, y, stepX, stepY int) float64 {
	center, _ := grid.At(x, y)
	prev, prevOK := grid.At(x-stepX, y-stepY)
	next, nextOK := grid.At(x+stepX, y+stepY)

	switch {
	case prevOK && nextOK:
		return (next - prev) / 2
	case nextOK:
		return next - center
	case prevOK:
		return center - prev
	default:
		return 0
	}
}

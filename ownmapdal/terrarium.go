package ownmapdal

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
)

// Terrarium tiles store elevation as (R * 256 + G + B / 256) - 32768. Transparent pixels are no-data.
const terrariumOffset = 32768.0

// DecodeTerrariumTile decodes a Terrarium PNG into an elevation grid.
func DecodeTerrariumTile(data []byte) (*ownmap.ElevationGrid, errorsx.Error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	bounds := img.Bounds()
	grid := ownmap.NewElevationGrid(bounds.Dx(), bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}

			grid.Set(x, y, TerrariumToElevation(c))
		}
	}

	return grid, nil
}

// EncodeTerrariumTile encodes an elevation grid as a Terrarium PNG.
func EncodeTerrariumTile(grid *ownmap.ElevationGrid) ([]byte, errorsx.Error) {
	err := grid.Validate()
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			value, ok := grid.At(x, y)
			if !ok {
				continue
			}

			img.SetNRGBA(x, y, ElevationToTerrarium(value))
		}
	}

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	err2 := enc.Encode(&buf, img)
	if err2 != nil {
		return nil, errorsx.Wrap(err2)
	}

	return buf.Bytes(), nil
}

func TerrariumToElevation(c color.NRGBA) float64 {
	return float64(c.R)*256 + float64(c.G) + float64(c.B)/256 - terrariumOffset
}

// ElevationToTerrarium encodes an elevation, clamped to the representable range.
func ElevationToTerrarium(elevation float64) color.NRGBA {
	value := math.Max(0, math.Min(65535.996, elevation+terrariumOffset))

	r := math.Floor(value / 256)
	g := math.Floor(value - r*256)
	b := math.Floor((value - r*256 - g) * 256)

	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}
}

// ResampleGrid resamples a grid to size with bilinear interpolation.
// Where any of the four source samples is no-data, the nearest sample is used instead.
func ResampleGrid(grid *ownmap.ElevationGrid, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	err := grid.Validate()
	if err != nil {
		return nil, err
	}

	err = size.Validate()
	if err != nil {
		return nil, err
	}

	if grid.Size() == size {
		return grid, nil
	}

	scaleX := float64(grid.Width) / float64(size.Width)
	scaleY := float64(grid.Height) / float64(size.Height)

	resampled := ownmap.NewElevationGrid(size.Width, size.Height)
	for y := 0; y < size.Height; y++ {
		fy := (float64(y)+0.5)*scaleY - 0.5
		for x := 0; x < size.Width; x++ {
			fx := (float64(x)+0.5)*scaleX - 0.5

			value, ok := bilinearSample(grid, fx, fy)
			if !ok {
				continue
			}

			resampled.Set(x, y, value)
		}
	}

	return resampled, nil
}

func bilinearSample(grid *ownmap.ElevationGrid, fx, fy float64) (float64, bool) {
	x0 := clamp(int(math.Floor(fx)), 0, grid.Width-1)
	y0 := clamp(int(math.Floor(fy)), 0, grid.Height-1)
	x1 := clamp(x0+1, 0, grid.Width-1)
	y1 := clamp(y0+1, 0, grid.Height-1)

	v00, ok00 := grid.At(x0, y0)
	v10, ok10 := grid.At(x1, y0)
	v01, ok01 := grid.At(x0, y1)
	v11, ok11 := grid.At(x1, y1)

	if !(ok00 && ok10 && ok01 && ok11) {
		cx := clamp(int(math.Floor(fx+0.5)), 0, grid.Width-1)
		cy := clamp(int(math.Floor(fy+0.5)), 0, grid.Height-1)
		return grid.At(cx, cy)
	}

	dx := math.Max(0, math.Min(1, fx-float64(x0)))
	dy := math.Max(0, math.Min(1, fy-float64(y0)))

	lerp := func(a, b, t float64) float64 {
		return a*(1-t) + b*t
	}

	top := lerp(v00, v10, dx)
	bottom := lerp(v01, v11, dx)
	return lerp(top, bottom, dy), true
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// GridFromTerrariumTile decodes a stored tile and resamples it to the requested size.
func GridFromTerrariumTile(data []byte, size ownmap.TileSize) (*ownmap.ElevationGrid, errorsx.Error) {
	grid, err := DecodeTerrariumTile(data)
	if err != nil {
		return nil, err
	}

	return ResampleGrid(grid, size)
}

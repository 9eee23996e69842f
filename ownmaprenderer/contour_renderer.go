package ownmaprenderer

import (
	"bytes"
	"errors"
	"image"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/llgcode/draw2d/draw2dimg"
)

var ErrInvalidInterval = errors.New("invalid contour interval")

const (
	maxContourLevels = 1000
	contourLineWidth = 1
)

// ContourPoint is a position in pixel space. Grid sample (x, y) sits at the centre of pixel (x, y).
type ContourPoint struct {
	X, Y float64
}

type ContourSegment struct {
	From, To ContourPoint
}

// RenderContour draws contour lines every params.Interval over valueRange onto a transparent tile.
// Cells with a no-data corner are skipped, so lines stop at the edge of the data.
func (r *HillshadeRenderer) RenderContour(grid *ownmap.ElevationGrid, params ownmap.ContourParameters, valueRange ownmap.ValueRange, compressionLevel int) (*bytes.Reader, errorsx.Error) {
	err := validateGridSize(grid, params.TileSize)
	if err != nil {
		return nil, err
	}

	encoder, err := NewEncoder(params.Format, compressionLevel)
	if err != nil {
		return nil, err
	}

	levels, err := ContourLevels(valueRange, params.Interval)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetStrokeColor(params.Color.ToNRGBA())
	gc.SetLineWidth(contourLineWidth)
	gc.BeginPath()

	var segmentCount int
	for _, level := range levels {
		for _, segment := range ContourSegments(grid, level) {
			gc.MoveTo(segment.From.X, segment.From.Y)
			gc.LineTo(segment.To.X, segment.To.Y)
			segmentCount++
		}
	}

	if segmentCount > 0 {
		gc.Stroke()
	}

	data, err := encoder.Encode(img)
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(data), nil
}

// ContourLevels returns valueRange.Min, valueRange.Min+interval, ... up to but excluding valueRange.Max.
func ContourLevels(valueRange ownmap.ValueRange, interval float64) ([]float64, errorsx.Error) {
	err := valueRange.Validate()
	if err != nil {
		return nil, err
	}

	if math.IsNaN(interval) || math.IsInf(interval, 0) || interval <= 0 {
		return nil, errorsx.Wrap(ErrInvalidInterval, "interval", interval)
	}

	count := math.Ceil((valueRange.Max - valueRange.Min) / interval)
	if count > maxContourLevels {
		return nil, errorsx.Wrap(ErrInvalidInterval, "interval", interval, "reason", "too many contour levels", "maxLevels", maxContourLevels)
	}

	var levels []float64
	for i := 0; ; i++ {
		level := valueRange.Min + float64(i)*interval
		if level >= valueRange.Max {
			break
		}
		levels = append(levels, level)
	}

	return levels, nil
}

// ContourSegments runs marching squares over grid for one level.
// A sample counts as above the level when it is >= level. Saddle cells are resolved by the mean of their corners.
func ContourSegments(grid *ownmap.ElevationGrid, level float64) []ContourSegment {
	var segments []ContourSegment

	for y := 0; y+1 < grid.Height; y++ {
		for x := 0; x+1 < grid.Width; x++ {
			topLeft, ok1 := grid.At(x, y)
			topRight, ok2 := grid.At(x+1, y)
			bottomRight, ok3 := grid.At(x+1, y+1)
			bottomLeft, ok4 := grid.At(x, y+1)
			if !(ok1 && ok2 && ok3 && ok4) {
				continue
			}

			cx, cy := float64(x)+0.5, float64(y)+0.5

			// edges in order: top, right, bottom, left
			var crossings []ContourPoint
			if p, ok := crossing(topLeft, topRight, level); ok {
				crossings = append(crossings, ContourPoint{cx + p, cy})
			}
			if p, ok := crossing(topRight, bottomRight, level); ok {
				crossings = append(crossings, ContourPoint{cx + 1, cy + p})
			}
			if p, ok := crossing(bottomLeft, bottomRight, level); ok {
				crossings = append(crossings, ContourPoint{cx + p, cy + 1})
			}
			if p, ok := crossing(topLeft, bottomLeft, level); ok {
				crossings = append(crossings, ContourPoint{cx, cy + p})
			}

			switch len(crossings) {
			case 2:
				segments = append(segments, ContourSegment{crossings[0], crossings[1]})
			case 4:
				top, right, bottom, left := crossings[0], crossings[1], crossings[2], crossings[3]
				centre := (topLeft + topRight + bottomRight + bottomLeft) / 4
				if (centre >= level) == (topLeft >= level) {
					// top left and bottom right are joined through the centre
					segments = append(segments, ContourSegment{top, right}, ContourSegment{bottom, left})
				} else {
					segments = append(segments, ContourSegment{left, top}, ContourSegment{right, bottom})
				}
			}
		}
	}

	return segments
}

// crossing reports where along the edge a->b the level is crossed, as a fraction from a.
func crossing(a, b, level float64) (float64, bool) {
	if (a >= level) == (b >= level) {
		return 0, false
	}

	return (level - a) / (b - a), true
}

package styling

import (
	"math"

	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/mazznoer/colorgrad"
)

const reversedSuffix = "_r"

// GradientColormap is a continuous colormap backed by a colorgrad gradient over [0,1].
type GradientColormap struct {
	id       string
	gradient colorgrad.Gradient
	reversed bool
}

func NewGradientColormap(id string, gradient colorgrad.Gradient) *GradientColormap {
	return &GradientColormap{id: id, gradient: gradient}
}

// Reversed returns the same gradient running from 1 to 0, named with the "_r" suffix.
func (c *GradientColormap) Reversed() *GradientColormap {
	return &GradientColormap{
		id:       c.id + reversedSuffix,
		gradient: c.gradient,
		reversed: !c.reversed,
	}
}

func (c *GradientColormap) GetColormapID() string {
	return c.id
}

func (c *GradientColormap) At(t float64) ownmap.RGBA {
	if math.IsNaN(t) {
		return NoDataColor
	}

	t = math.Max(0, math.Min(1, t))
	if c.reversed {
		t = 1 - t
	}

	r, g, b, a := c.gradient.At(t).RGBA()
	if a == 0 {
		return ownmap.RGBA{}
	}

	// RGBA() is alpha-premultiplied
	alpha := float64(a)
	return ownmap.RGBA{
		R: float64(r) / alpha,
		G: float64(g) / alpha,
		B: float64(b) / alpha,
		A: alpha / 0xffff,
	}
}

// ClassifiedColormap splits another colormap into n equally sized, flat coloured classes.
type ClassifiedColormap struct {
	colormap Colormap
	classes  int
}

func NewClassifiedColormap(colormap Colormap, classes int) *ClassifiedColormap {
	if classes < 1 {
		classes = 1
	}
	return &ClassifiedColormap{colormap, classes}
}

func (c *ClassifiedColormap) GetColormapID() string {
	return c.colormap.GetColormapID()
}

func (c *ClassifiedColormap) At(t float64) ownmap.RGBA {
	if math.IsNaN(t) {
		return NoDataColor
	}

	class := c.ClassOf(t)
	if c.classes == 1 {
		return c.colormap.At(0)
	}

	return c.colormap.At(float64(class) / float64(c.classes-1))
}

// ClassOf returns the class index (0 to classes-1) that t falls in.
func (c *ClassifiedColormap) ClassOf(t float64) int {
	class := int(math.Floor(t * float64(c.classes)))
	if class < 0 {
		return 0
	}
	if class >= c.classes {
		return c.classes - 1
	}
	return class
}

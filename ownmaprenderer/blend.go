package ownmaprenderer

import (
	"errors"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/lucasb-eyer/go-colorful"
)

var ErrUnsupportedBlendMode = errors.New("unsupported blend mode")

// blendFunc combines a base colour channel c with an intensity in [0,1].
type blendFunc func(c, intensity float64) float64

var channelBlendFuncs = map[ownmap.BlendMode]blendFunc{
	ownmap.BlendModeOverlay:  blendOverlay,
	ownmap.BlendModeSoft:     blendSoftLight,
	ownmap.BlendModeMultiply: blendMultiply,
}

// ParseBlendMode returns the blend mode named by name, or an error wrapping ErrUnsupportedBlendMode.
func ParseBlendMode(name string) (ownmap.BlendMode, errorsx.Error) {
	mode := ownmap.BlendMode(name)
	if !isSupportedBlendMode(mode) {
		return "", errorsx.Wrap(ErrUnsupportedBlendMode, "blendMode", name)
	}

	return mode, nil
}

func isSupportedBlendMode(mode ownmap.BlendMode) bool {
	if mode == ownmap.BlendModeHSV {
		return true
	}

	_, ok := channelBlendFuncs[mode]
	return ok
}

// Blend combines a base colour and an intensity with the given blend mode. Alpha is taken from the base colour.
func Blend(base ownmap.RGBA, intensity float64, mode ownmap.BlendMode) (ownmap.RGBA, errorsx.Error) {
	if mode == ownmap.BlendModeHSV {
		return blendHSV(base, intensity), nil
	}

	fn, ok := channelBlendFuncs[mode]
	if !ok {
		return ownmap.RGBA{}, errorsx.Wrap(ErrUnsupportedBlendMode, "blendMode", mode)
	}

	return ownmap.RGBA{
		R: fn(base.R, intensity),
		G: fn(base.G, intensity),
		B: fn(base.B, intensity),
		A: base.A,
	}, nil
}

func blendOverlay(c, intensity float64) float64 {
	if c <= 0.5 {
		return 2 * intensity * c
	}

	return 1 - 2*(1-intensity)*(1-c)
}

// pegtop soft light
func blendSoftLight(c, intensity float64) float64 {
	return 2*intensity*c + (1-2*intensity)*c*c
}

func blendMultiply(c, intensity float64) float64 {
	return c * intensity
}

const (
	hsvMinVal = 0.0
	hsvMaxVal = 1.0
	hsvMinSat = 1.0
	hsvMaxSat = 0.0
)

// blendHSV moves value and saturation towards their limits. Lit pixels become brighter and desaturated,
// shaded pixels darker and more saturated.
func blendHSV(base ownmap.RGBA, intensity float64) ownmap.RGBA {
	h, s, v := colorful.Color{R: base.R, G: base.G, B: base.B}.Hsv()

	// rescale to [-1,1]
	i := 2*intensity - 1

	if math.Abs(s) > 1e-10 {
		if i > 0 {
			s = (1-i)*s + i*hsvMaxSat
		} else if i < 0 {
			s = (1+i)*s - i*hsvMinSat
		}
	}

	if i > 0 {
		v = (1-i)*v + i*hsvMaxVal
	} else if i < 0 {
		v = (1+i)*v - i*hsvMinVal
	}

	s = math.Max(0, math.Min(1, s))
	v = math.Max(0, math.Min(1, v))

	c := colorful.Hsv(h, s, v)

	return ownmap.RGBA{R: c.R, G: c.G, B: c.B, A: base.A}
}

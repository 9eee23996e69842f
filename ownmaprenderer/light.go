package ownmaprenderer

import "math"

// Vec3 is a vector in an east, north, up frame.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector of v. The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return v
	}

	return Vec3{v.X / length, v.Y / length, v.Z / length}
}

// LightVector returns the unit vector pointing towards a light source.
// Azimuth is clockwise from north, altitude is up from the horizon. Both are in degrees.
func LightVector(azimuthDeg, altitudeDeg float64) Vec3 {
	az := azimuthDeg * math.Pi / 180
	alt := altitudeDeg * math.Pi / 180

	return Vec3{
		X: math.Sin(az) * math.Cos(alt),
		Y: math.Cos(az) * math.Cos(alt),
		Z: math.Sin(alt),
	}
}

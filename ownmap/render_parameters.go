package ownmap

type BlendMode string

const (
	BlendModeOverlay  BlendMode = "overlay"
	BlendModeSoft     BlendMode = "soft"
	BlendModeHSV      BlendMode = "hsv"
	BlendModeMultiply BlendMode = "multiply"
)

// RenderParameters are the per-request options for a hillshade render.
type RenderParameters struct {
	Colormap             string
	AzimuthDeg           float64 // clockwise from north
	AltitudeDeg          float64 // above the horizon
	VerticalExaggeration float64
	BlendMode            BlendMode
	TileSize             TileSize
	Format               string
}

// DiscreteParameters are the per-request options for a discrete (classified) render.
// VMin and VMax override the dataset's range when set.
type DiscreteParameters struct {
	Colormap string
	NClasses int
	VMin     *float64
	VMax     *float64
	TileSize TileSize
	Format   string
}

// ContourParameters are the per-request options for a contour line render.
// Lines are drawn every Interval elevation units, starting from the bottom of the dataset's range.
type ContourParameters struct {
	Color    RGBA
	Interval float64
	TileSize TileSize
	Format   string
}

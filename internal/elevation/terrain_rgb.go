package elevation

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DecodeTerrainRGB converts a Terrain-RGB pixel to meters:
// -10000 + (R·65536 + G·256 + B) · 0.1.
func DecodeTerrainRGB(r, g, b uint8) float64 {
	return -10000 + float64(int(r)*65536+int(g)*256+int(b))*0.1
}

// Tile is a decoded Terrain-RGB raster.
type Tile struct {
	Coord TileCoord
	img   image.Image
}

// DecodeTile decodes PNG or WebP tile bytes. The format is sniffed from the data.
func DecodeTile(coord TileCoord, data []byte) (*Tile, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tile %s: decode: %w", coord, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("tile %s: empty %s image", coord, format)
	}
	return &Tile{Coord: coord, img: img}, nil
}

// Width is the tile's pixel width (usually 256 or 512).
func (t *Tile) Width() int { return t.img.Bounds().Dx() }

// Height is the tile's pixel height.
func (t *Tile) Height() int { return t.img.Bounds().Dy() }

// ElevationAtPixel decodes the pixel at (px, py) relative to the tile origin.
func (t *Tile) ElevationAtPixel(px, py int) float64 {
	origin := t.img.Bounds().Min
	c := color.NRGBAModel.Convert(t.img.At(origin.X+px, origin.Y+py)).(color.NRGBA)
	return DecodeTerrainRGB(c.R, c.G, c.B)
}

// ElevationAt samples the pixel under (lng, lat). The position is mapped
// linearly into the tile's bounds and clamped to the pixel grid.
func (t *Tile) ElevationAt(lng, lat float64) float64 {
	tb := TileBounds(t.Coord)
	px := int((lng - tb.MinLng) / tb.LngSpan() * float64(t.Width()))
	py := int((tb.MaxLat - lat) / tb.LatSpan() * float64(t.Height()))
	px = min(max(px, 0), t.Width()-1)
	py = min(max(py, 0), t.Height()-1)
	return t.ElevationAtPixel(px, py)
}

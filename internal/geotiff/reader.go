package geotiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/tiff"
)

// ErrInvalidMetadata indicates missing or malformed georeferencing tags
// (ModelPixelScale / ModelTiepoint absent or with the wrong arity).
var ErrInvalidMetadata = errors.New("geotiff: invalid metadata")

// TIFF tags this reader cares about.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
)

// TIFF field types.
const (
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

const tiffMagic = 42

type ifdEntry struct {
	tag         uint16
	fieldType   uint16
	count       uint32
	valueOffset uint32
	inline      [4]byte
}

// Decode parses a classic TIFF byte stream, extracts the georeferencing
// tags and decodes the pixel data into normalized samples.
func Decode(data []byte) (*Dataset, error) {
	entries, bo, err := readIFD(data)
	if err != nil {
		return nil, err
	}

	width, ok := uintTag(entries, bo, tagImageWidth)
	if !ok {
		return nil, fmt.Errorf("%w: missing ImageWidth", ErrInvalidMetadata)
	}
	height, ok := uintTag(entries, bo, tagImageLength)
	if !ok {
		return nil, fmt.Errorf("%w: missing ImageLength", ErrInvalidMetadata)
	}

	scale, err := doubleTag(data, entries, bo, tagModelPixelScale, 3)
	if err != nil {
		return nil, err
	}
	tie, err := doubleTag(data, entries, bo, tagModelTiepoint, 6)
	if err != nil {
		return nil, err
	}

	sx := scale[0]
	sy := scale[1]
	if sx <= 0 {
		return nil, fmt.Errorf("%w: non-positive x pixel scale %g", ErrInvalidMetadata, sx)
	}
	if sy == 0 {
		return nil, fmt.Errorf("%w: zero y pixel scale", ErrInvalidMetadata)
	}
	// Some producers encode sy negative (GDAL geotransform convention).
	// The dataset keeps it positive; the transform derivation flips it.
	sy = math.Abs(sy)

	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode raster pixels: %w", err)
	}

	ds := &Dataset{
		Width:      int(width),
		Height:     int(height),
		PixelScale: [3]float64{sx, sy, scale[2]},
		TiePoint:   [6]float64{tie[0], tie[1], tie[2], tie[3], tie[4], tie[5]},
		samples:    graySamples(img, int(width), int(height)),
	}

	// Geographic corner anchored at the tie point, extended over the
	// full pixel extent. Upper-left pixel row maps to the max latitude.
	ulLon := tie[3] - tie[0]*sx
	ulLat := tie[4] + tie[1]*sy
	ds.Bounds = BoundingBox{
		MinLon: ulLon,
		MaxLon: ulLon + float64(ds.Width)*sx,
		MaxLat: ulLat,
		MinLat: ulLat - float64(ds.Height)*sy,
	}

	return ds, nil
}

// readIFD parses the TIFF header and the first image file directory.
func readIFD(data []byte) ([]ifdEntry, binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("%w: truncated header", ErrInvalidMetadata)
	}

	var bo binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		bo = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("%w: bad byte order marker", ErrInvalidMetadata)
	}

	if bo.Uint16(data[2:4]) != tiffMagic {
		return nil, nil, fmt.Errorf("%w: bad TIFF identifier", ErrInvalidMetadata)
	}

	off := int(bo.Uint32(data[4:8]))
	if off < 8 || off+2 > len(data) {
		return nil, nil, fmt.Errorf("%w: IFD offset out of range", ErrInvalidMetadata)
	}

	n := int(bo.Uint16(data[off : off+2]))
	off += 2
	if off+n*12 > len(data) {
		return nil, nil, fmt.Errorf("%w: truncated IFD", ErrInvalidMetadata)
	}

	entries := make([]ifdEntry, 0, n)
	for i := 0; i < n; i++ {
		e := data[off+i*12 : off+i*12+12]
		entry := ifdEntry{
			tag:         bo.Uint16(e[0:2]),
			fieldType:   bo.Uint16(e[2:4]),
			count:       bo.Uint32(e[4:8]),
			valueOffset: bo.Uint32(e[8:12]),
		}
		copy(entry.inline[:], e[8:12])
		entries = append(entries, entry)
	}
	return entries, bo, nil
}

func findEntry(entries []ifdEntry, tag uint16) (ifdEntry, bool) {
	for _, e := range entries {
		if e.tag == tag {
			return e, true
		}
	}
	return ifdEntry{}, false
}

// uintTag reads a single SHORT or LONG value.
func uintTag(entries []ifdEntry, bo binary.ByteOrder, tag uint16) (uint32, bool) {
	e, ok := findEntry(entries, tag)
	if !ok || e.count != 1 {
		return 0, false
	}
	switch e.fieldType {
	case typeShort:
		return uint32(bo.Uint16(e.inline[0:2])), true
	case typeLong:
		return e.valueOffset, true
	}
	return 0, false
}

// doubleTag reads a DOUBLE array tag and enforces its arity.
func doubleTag(data []byte, entries []ifdEntry, bo binary.ByteOrder, tag uint16, want int) ([]float64, error) {
	e, ok := findEntry(entries, tag)
	if !ok {
		return nil, fmt.Errorf("%w: missing tag %d", ErrInvalidMetadata, tag)
	}
	if e.fieldType != typeDouble {
		return nil, fmt.Errorf("%w: tag %d is not DOUBLE", ErrInvalidMetadata, tag)
	}
	if int(e.count) != want {
		return nil, fmt.Errorf("%w: tag %d has %d values, want %d", ErrInvalidMetadata, tag, e.count, want)
	}

	off := int(e.valueOffset)
	end := off + want*8
	if off < 0 || end > len(data) {
		return nil, fmt.Errorf("%w: tag %d value out of range", ErrInvalidMetadata, tag)
	}

	vals := make([]float64, want)
	for i := 0; i < want; i++ {
		vals[i] = math.Float64frombits(bo.Uint64(data[off+i*8 : off+i*8+8]))
	}
	return vals, nil
}

// graySamples converts decoded pixels to normalized luminance samples.
func graySamples(img image.Image, width, height int) []float64 {
	samples := make([]float64, width*height)
	b := img.Bounds()

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < height && y < b.Dy(); y++ {
			row := g.Pix[y*g.Stride:]
			for x := 0; x < width && x < b.Dx(); x++ {
				samples[y*width+x] = float64(row[x]) / 255.0
			}
		}
		return samples
	}

	for y := 0; y < height && y < b.Dy(); y++ {
		for x := 0; x < width && x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			samples[y*width+x] = float64(g.Y) / 255.0
		}
	}
	return samples
}

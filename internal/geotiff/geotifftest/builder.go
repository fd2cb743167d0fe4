// Package geotifftest builds minimal in-memory GeoTIFF files for tests.
package geotifftest

import (
	"encoding/binary"
	"math"
	"sort"
)

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922

	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
}

// Build constructs a little-endian, uncompressed, 8-bit grayscale TIFF
// with a single strip. pixelScale and tiePoint are written as DOUBLE
// tags with their actual length as arity; pass nil to omit a tag, or a
// wrong-length slice to produce malformed metadata. pix may be nil for
// a zero-filled raster.
func Build(width, height int, pixelScale, tiePoint []float64, pix []byte) []byte {
	if pix == nil {
		pix = make([]byte, width*height)
	}

	entries := []entry{
		{tagImageWidth, typeShort, 1, uint32(width)},
		{tagImageLength, typeShort, 1, uint32(height)},
		{tagBitsPerSample, typeShort, 1, 8},
		{tagCompression, typeShort, 1, 1},
		{tagPhotometric, typeShort, 1, 1},
		{tagSamplesPerPixel, typeShort, 1, 1},
		{tagRowsPerStrip, typeShort, 1, uint32(height)},
		{tagStripByteCounts, typeLong, 1, uint32(len(pix))},
		{tagStripOffsets, typeLong, 1, 0}, // patched below
	}
	if pixelScale != nil {
		entries = append(entries, entry{tagModelPixelScale, typeDouble, uint32(len(pixelScale)), 0})
	}
	if tiePoint != nil {
		entries = append(entries, entry{tagModelTiepoint, typeDouble, uint32(len(tiePoint)), 0})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	ifdSize := 2 + len(entries)*12 + 4
	dataOff := 8 + ifdSize

	pixOff := dataOff
	scaleOff := pixOff + len(pix)
	tieOff := scaleOff + len(pixelScale)*8

	for i := range entries {
		switch entries[i].tag {
		case tagStripOffsets:
			entries[i].value = uint32(pixOff)
		case tagModelPixelScale:
			entries[i].value = uint32(scaleOff)
		case tagModelTiepoint:
			entries[i].value = uint32(tieOff)
		}
	}

	buf := make([]byte, 0, tieOff+len(tiePoint)*8)
	le := binary.LittleEndian

	// Header: byte order, identifier, first IFD offset.
	buf = append(buf, 'I', 'I')
	buf = le.AppendUint16(buf, 42)
	buf = le.AppendUint32(buf, 8)

	buf = le.AppendUint16(buf, uint16(len(entries)))
	for _, e := range entries {
		buf = le.AppendUint16(buf, e.tag)
		buf = le.AppendUint16(buf, e.typ)
		buf = le.AppendUint32(buf, e.count)
		buf = le.AppendUint32(buf, e.value)
	}
	buf = le.AppendUint32(buf, 0) // no next IFD

	buf = append(buf, pix...)
	for _, v := range pixelScale {
		buf = le.AppendUint64(buf, math.Float64bits(v))
	}
	for _, v := range tiePoint {
		buf = le.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

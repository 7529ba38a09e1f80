// Package exiftest builds small EXIF blocks and JPEG files for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DMS is a degrees/minutes/seconds triple of unsigned rationals
type DMS [3][2]uint32

// FromDecimal converts the absolute value of v to a DMS triple with 1/10000 second precision
func FromDecimal(v float64) DMS {
	v = math.Abs(v)
	deg := math.Floor(v)
	minutes := math.Floor((v - deg) * 60)
	seconds := ((v-deg)*60 - minutes) * 60
	return DMS{
		{uint32(deg), 1},
		{uint32(minutes), 1},
		{uint32(math.Round(seconds * 10000)), 10000},
	}
}

// Fields are the tags written by TIFF. Empty values are omitted.
type Fields struct {
	Make             string
	DateTime         string
	DateTimeOriginal string
	LatRef           string
	Lat              *DMS
	LngRef           string
	Lng              *DMS
}

// WithLocation sets the GPS tags for a signed decimal coordinate pair
func (f Fields) WithLocation(lat, lng float64) Fields {
	la, lo := FromDecimal(lat), FromDecimal(lng)
	f.Lat, f.Lng = &la, &lo
	f.LatRef, f.LngRef = "N", "E"
	if lat < 0 {
		f.LatRef = "S"
	}
	if lng < 0 {
		f.LngRef = "W"
	}
	return f
}

const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func ascii(tag uint16, s string) entry {
	data := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

func long(tag uint16, v uint32) entry {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: data}
}

func rationals(tag uint16, dms DMS) entry {
	data := make([]byte, 0, 24)
	for _, r := range dms {
		data = binary.BigEndian.AppendUint32(data, r[0])
		data = binary.BigEndian.AppendUint32(data, r[1])
	}
	return entry{tag: tag, typ: typeRational, count: 3, data: data}
}

func ifdSize(es []entry) int {
	n := 2 + 12*len(es) + 4
	for _, e := range es {
		if len(e.data) > 4 {
			n += len(e.data) + len(e.data)%2
		}
	}
	return n
}

func writeIFD(w *bytes.Buffer, es []entry, start int) {
	bo := binary.BigEndian
	dataOff := start + 2 + 12*len(es) + 4
	var extra []byte

	_ = binary.Write(w, bo, uint16(len(es)))
	for _, e := range es {
		_ = binary.Write(w, bo, e.tag)
		_ = binary.Write(w, bo, e.typ)
		_ = binary.Write(w, bo, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			w.Write(v)
			continue
		}
		_ = binary.Write(w, bo, uint32(dataOff+len(extra)))
		extra = append(extra, e.data...)
		if len(e.data)%2 == 1 {
			extra = append(extra, 0)
		}
	}
	_ = binary.Write(w, bo, uint32(0))
	w.Write(extra)
}

// TIFF returns a big-endian TIFF structure holding the fields, usable as a raw EXIF block
func TIFF(f Fields) []byte {
	var ifd0, exifIFD, gpsIFD []entry

	if f.Make != "" {
		ifd0 = append(ifd0, ascii(0x010F, f.Make))
	}
	if f.DateTime != "" {
		ifd0 = append(ifd0, ascii(0x0132, f.DateTime))
	}
	if f.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(0x9003, f.DateTimeOriginal))
	}
	if f.LatRef != "" {
		gpsIFD = append(gpsIFD, ascii(0x0001, f.LatRef))
	}
	if f.Lat != nil {
		gpsIFD = append(gpsIFD, rationals(0x0002, *f.Lat))
	}
	if f.LngRef != "" {
		gpsIFD = append(gpsIFD, ascii(0x0003, f.LngRef))
	}
	if f.Lng != nil {
		gpsIFD = append(gpsIFD, rationals(0x0004, *f.Lng))
	}

	// pointer entries are appended with placeholder values; their size is fixed
	exifIdx, gpsIdx := -1, -1
	if len(exifIFD) > 0 {
		exifIdx = len(ifd0)
		ifd0 = append(ifd0, long(0x8769, 0))
	}
	if len(gpsIFD) > 0 {
		gpsIdx = len(ifd0)
		ifd0 = append(ifd0, long(0x8825, 0))
	}

	offset := 8
	ifd0Start := offset
	offset += ifdSize(ifd0)
	exifStart := offset
	if exifIdx >= 0 {
		offset += ifdSize(exifIFD)
		ifd0[exifIdx] = long(0x8769, uint32(exifStart))
	}
	gpsStart := offset
	if gpsIdx >= 0 {
		ifd0[gpsIdx] = long(0x8825, uint32(gpsStart))
	}

	var buf bytes.Buffer
	buf.WriteString("MM")
	_ = binary.Write(&buf, binary.BigEndian, uint16(42))
	_ = binary.Write(&buf, binary.BigEndian, uint32(ifd0Start))
	writeIFD(&buf, ifd0, ifd0Start)
	if exifIdx >= 0 {
		writeIFD(&buf, exifIFD, exifStart)
	}
	if gpsIdx >= 0 {
		writeIFD(&buf, gpsIFD, gpsStart)
	}
	return buf.Bytes()
}

// PlainJPEG returns a small JPEG without any metadata
func PlainJPEG() []byte {
	img := imaging.New(8, 8, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG returns a small decodable JPEG carrying the fields in an APP1 segment
func JPEG(f Fields) []byte {
	plain := PlainJPEG()
	payload := append([]byte("Exif\x00\x00"), TIFF(f)...)

	var buf bytes.Buffer
	buf.Write(plain[:2]) // SOI
	buf.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write(plain[2:])
	return buf.Bytes()
}

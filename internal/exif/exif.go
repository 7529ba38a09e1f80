// internal/exif/exif.go
package exif

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

// DateTimeLayout is the layout of EXIF date/time strings
const DateTimeLayout = "2006:01:02 15:04:05"

var (
	// ErrNoGPS is returned when any GPS coordinate or hemisphere tag is absent
	ErrNoGPS = errors.New("no GPS coordinates")
	// ErrNoDateTime is returned when no capture time tag is present
	ErrNoDateTime = errors.New("no capture time")
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Data represents EXIF metadata
type Data struct {
	DateTime *time.Time
	GPS      *GPSInfo
	Make     string
	Model    string
}

// GPSInfo represents GPS information from EXIF
type GPSInfo struct {
	Latitude  float64
	Longitude float64
}

// Extract extracts EXIF metadata from a reader. Capture times carry no zone in
// EXIF, so they are interpreted as wall clock time in loc.
func Extract(r io.Reader, loc *time.Location) (*Data, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, err
	}

	if loc == nil {
		loc = time.UTC
	}

	data := &Data{}

	if dt, err := DateTime(x, loc); err == nil {
		data.DateTime = &dt
	}

	if lat, lng, err := LatLong(x); err == nil {
		data.GPS = &GPSInfo{
			Latitude:  lat,
			Longitude: lng,
		}
	}

	data.Make = stringTag(x, exif.Make)
	data.Model = stringTag(x, exif.Model)

	return data, nil
}

// DateTime returns the original capture time, falling back to the file modification time tag
func DateTime(x *exif.Exif, loc *time.Location) (time.Time, error) {
	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		str := stringTag(x, name)
		if str == "" {
			continue
		}
		t, err := time.ParseInLocation(DateTimeLayout, str, loc)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, ErrNoDateTime
}

// LatLong reads the GPS degree/minute/second triples and their hemisphere
// references and returns signed decimal degrees. Either both coordinates are
// returned or an error is.
func LatLong(x *exif.Exif) (lat, lng float64, err error) {
	lat, err = coordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef, "N", "S", 90)
	if err != nil {
		return 0, 0, err
	}
	lng, err = coordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef, "E", "W", 180)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func coordinate(x *exif.Exif, valueField, refField exif.FieldName, positive, negative string, limit float64) (float64, error) {
	tag, err := x.Get(valueField)
	if err != nil {
		return 0, ErrNoGPS
	}
	if tag.Count < 3 {
		return 0, fmt.Errorf("%s: expected 3 components, got %d", valueField, tag.Count)
	}

	var dms [3]float64
	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", valueField, err)
		}
		if den == 0 {
			return 0, fmt.Errorf("%s: zero denominator", valueField)
		}
		dms[i] = float64(num) / float64(den)
	}

	ref := strings.ToUpper(stringTag(x, refField))
	if ref != positive && ref != negative {
		return 0, ErrNoGPS
	}

	dec, err := ToDecimal(dms[0], dms[1], dms[2], ref == negative)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", valueField, err)
	}
	if dec > limit || dec < -limit {
		return 0, fmt.Errorf("%s: %f out of range", valueField, dec)
	}
	return dec, nil
}

// ToDecimal converts degrees, minutes and seconds to decimal degrees, negated
// for the southern or western hemisphere
func ToDecimal(degrees, minutes, seconds float64, negative bool) (float64, error) {
	if degrees < 0 || minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("negative DMS component %v/%v/%v", degrees, minutes, seconds)
	}
	dec := degrees + minutes/60 + seconds/3600
	if negative {
		dec = -dec
	}
	return dec, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	str, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(str, "\x00"))
}

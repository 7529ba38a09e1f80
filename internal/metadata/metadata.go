package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/bstardust/photo-timeline/internal/exif"
	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/internal/source"
	"github.com/jdeng/goheif"
)

// ErrNoExif is returned when no EXIF block could be located in the image
var ErrNoExif = errors.New("no EXIF block found")

// Metadata is what the pipeline extracts from a photo. Latitude and Longitude
// are either both set or both nil.
type Metadata struct {
	CapturedAt *time.Time `json:"capturedAt"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Make       string     `json:"make,omitempty"`
	Model      string     `json:"model,omitempty"`
}

// HasLocation reports whether both coordinates are present
func (m *Metadata) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Extractor extracts capture time and location from image bytes
type Extractor struct {
	timezone *time.Location
}

// NewExtractor creates a new metadata extractor. EXIF capture times carry no
// zone, so they are interpreted in timezone (UTC when nil).
func NewExtractor(timezone *time.Location) *Extractor {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Extractor{
		timezone: timezone,
	}
}

// Extract never fails: corrupt or missing metadata yields empty Metadata
func (e *Extractor) Extract(data []byte) *Metadata {
	meta, err := e.Parse(data)
	if err != nil {
		logger.Debug("No usable metadata: %v", err)
	}
	return meta
}

// Parse is Extract with the reason metadata could not be read. The returned
// Metadata is never nil.
func (e *Extractor) Parse(data []byte) (meta *Metadata, err error) {
	meta = &Metadata{}

	// goexif and goheif index into the buffer without bounds checks in places
	defer func() {
		if r := recover(); r != nil {
			meta = &Metadata{}
			err = fmt.Errorf("metadata parser panicked: %v", r)
		}
	}()

	block := data
	if source.IsHEIFData(data) {
		block, err = HEIFExif(data)
		if err != nil {
			return meta, err
		}
	}

	exifData, err := exif.Extract(bytes.NewReader(block), e.timezone)
	if err != nil {
		return meta, fmt.Errorf("failed to extract EXIF data: %w", err)
	}

	meta.CapturedAt = exifData.DateTime
	if exifData.GPS != nil {
		lat, lng := exifData.GPS.Latitude, exifData.GPS.Longitude
		meta.Latitude = &lat
		meta.Longitude = &lng
	}
	meta.Make = exifData.Make
	meta.Model = exifData.Model

	return meta, nil
}

// HEIFExif returns the EXIF item of a HEIF container, trimmed to a header goexif understands
func HEIFExif(data []byte) ([]byte, error) {
	raw, err := goheif.ExtractExif(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read HEIF EXIF item: %w", err)
	}
	block := TrimToExif(raw)
	if block == nil {
		return nil, ErrNoExif
	}
	return block, nil
}

// TrimToExif strips whatever precedes the "Exif" marker or TIFF header in an
// EXIF item. It returns nil if neither is present.
func TrimToExif(raw []byte) []byte {
	best := -1
	for _, marker := range [][]byte{[]byte("Exif\x00\x00"), []byte("II*\x00"), []byte("MM\x00*")} {
		if i := bytes.Index(raw, marker); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return raw[best:]
}

package models

import (
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// PhotoSource identifies one input photo. The content comes from the first of
// Data, Open, Path or URL that is set; the pipeline never modifies a source.
type PhotoSource struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType,omitempty"`
	Path      string `json:"path,omitempty"`
	URL       string `json:"url,omitempty"`
	Data      []byte `json:"-"`

	// Open returns a handle to the photo bytes, e.g. an entry of an archive
	Open func() (io.ReadCloser, error) `json:"-"`
}

// NewSource fills in the ID and display name of a source when the caller left them empty
func NewSource(src PhotoSource) PhotoSource {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	if src.Name == "" {
		switch {
		case src.Path != "":
			src.Name = path.Base(src.Path)
		case src.URL != "":
			src.Name = path.Base(src.URL)
		}
	}
	return src
}

// DisplayImage is the renderable form of a photo
type DisplayImage struct {
	Data        []byte `json:"-"`
	ContentType string `json:"contentType"`
	Transcoded  bool   `json:"transcoded"`
}

// Address holds reverse-geocoded address components. Every field is
// independently optional; an Address with no fields set means "no data".
type Address struct {
	Country    *string `json:"country,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postalCode,omitempty"`
	Street     *string `json:"street,omitempty"`
}

// IsEmpty reports whether no address component is set
func (a Address) IsEmpty() bool {
	return a.Country == nil && a.City == nil && a.State == nil && a.PostalCode == nil && a.Street == nil
}

// EnrichedPhoto is a photo with its extracted and resolved metadata
type EnrichedPhoto struct {
	Source     PhotoSource  `json:"source"`
	Display    DisplayImage `json:"display"`
	CapturedAt *time.Time   `json:"capturedAt"`
	Latitude   *float64     `json:"latitude"`
	Longitude  *float64     `json:"longitude"`
	Country    *string      `json:"country"`
	City       *string      `json:"city"`
	State      *string      `json:"state"`
	PostalCode *string      `json:"postalCode"`
	Street     *string      `json:"street"`
	Error      string       `json:"error,omitempty"`

	Err error `json:"-"`
}

// NewEnrichedPhoto creates an un-enriched photo for a source
func NewEnrichedPhoto(src PhotoSource) *EnrichedPhoto {
	return &EnrichedPhoto{Source: src}
}

// SetLocation sets both coordinates at once. Passing only one of them
// clears the location (and the address) instead.
func (p *EnrichedPhoto) SetLocation(lat, lng *float64) {
	if lat == nil || lng == nil {
		p.Latitude = nil
		p.Longitude = nil
		p.SetAddress(Address{})
		return
	}
	la, lo := *lat, *lng
	p.Latitude = &la
	p.Longitude = &lo
}

// HasLocation reports whether the photo has coordinates
func (p *EnrichedPhoto) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// SetAddress copies the address components onto the photo. It is a no-op
// for photos without coordinates.
func (p *EnrichedPhoto) SetAddress(addr Address) {
	if !p.HasLocation() {
		addr = Address{}
	}
	p.Country = addr.Country
	p.City = addr.City
	p.State = addr.State
	p.PostalCode = addr.PostalCode
	p.Street = addr.Street
}

// Address returns the address components of the photo
func (p *EnrichedPhoto) Address() Address {
	return Address{
		Country:    p.Country,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Street:     p.Street,
	}
}

// SetError records a per-item failure. The first error wins.
func (p *EnrichedPhoto) SetError(err error) {
	if err == nil || p.Err != nil {
		return
	}
	p.Err = err
	p.Error = err.Error()
}

// PhotoGroup is a run of adjacent photos sharing a date key and a location key
type PhotoGroup struct {
	DateKey     string           `json:"dateKey"`
	LocationKey string           `json:"locationKey"`
	Photos      []*EnrichedPhoto `json:"photos"`
}

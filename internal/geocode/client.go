package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/tidwall/gjson"
)

// ErrNoResults is returned when the service knows no address for a coordinate
var ErrNoResults = errors.New("no geocoding results")

// Client reverse-geocodes a coordinate into address components
type Client interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (models.Address, error)
}

// StatusError is a non-OK answer of the geocoding service, either an HTTP
// status or the "status" field of the JSON body
type StatusError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("geocoding service returned HTTP %d", e.HTTPStatus)
	}
	if e.Message != "" {
		return fmt.Sprintf("geocoding service returned %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("geocoding service returned %s", e.Status)
}

// Transient reports whether the same request may succeed later
func (e *StatusError) Transient() bool {
	if e.Status == "" {
		return e.HTTPStatus >= 500 || e.HTTPStatus == http.StatusTooManyRequests
	}
	return e.Status == "OVER_QUERY_LIMIT" || e.Status == "UNKNOWN_ERROR"
}

// IsTransient reports whether a geocoding failure must not be cached.
// "No data" and permanent service answers are stable; everything else
// (transport errors, timeouts, cancellation, throttling, server errors,
// unreadable responses) may resolve differently on the next call.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, ErrNoResults) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}

	return true
}

// GoogleClient talks to the Google Geocoding API
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	timeout    time.Duration
}

// NewGoogleClient creates a new Google Geocoding API client
func NewGoogleClient(cfg config.GeocodeConfig) *GoogleClient {
	return &GoogleClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		timeout:    cfg.Timeout,
	}
}

// ReverseGeocode looks up the address of a coordinate
func (c *GoogleClient) ReverseGeocode(ctx context.Context, lat, lng float64) (models.Address, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("latlng", formatCoord(lat)+","+formatCoord(lng))
	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/maps/api/geocode/json?"+params.Encode(), nil)
	if err != nil {
		return models.Address{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Address{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Address{}, &StatusError{HTTPStatus: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Address{}, fmt.Errorf("read response: %w", err)
	}

	return ParseResponse(body)
}

// ParseResponse extracts the address of the first result of a Geocoding API response
func ParseResponse(body []byte) (models.Address, error) {
	if !gjson.ValidBytes(body) {
		return models.Address{}, errors.New("invalid geocoding response")
	}

	res := gjson.ParseBytes(body)
	switch status := res.Get("status").String(); status {
	case "OK":
	case "ZERO_RESULTS":
		return models.Address{}, ErrNoResults
	default:
		return models.Address{}, &StatusError{
			HTTPStatus: http.StatusOK,
			Status:     status,
			Message:    res.Get("error_message").String(),
		}
	}

	components := res.Get("results.0.address_components").Array()
	if len(components) == 0 {
		return models.Address{}, ErrNoResults
	}

	return models.Address{
		Country:    component(components, "country"),
		City:       component(components, "locality", "sublocality", "postal_town"),
		State:      component(components, "administrative_area_level_1"),
		PostalCode: component(components, "postal_code"),
		Street:     component(components, "route"),
	}, nil
}

// component returns the long name of the first component having the first
// of types that any component has
func component(components []gjson.Result, types ...string) *string {
	for _, typ := range types {
		for _, c := range components {
			for _, t := range c.Get("types").Array() {
				if t.String() != typ {
					continue
				}
				if name := c.Get("long_name").String(); name != "" {
					return &name
				}
			}
		}
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

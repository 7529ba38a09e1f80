package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seoulResponse = `{
  "status": "OK",
  "results": [{
    "address_components": [
      {"long_name": "110", "types": ["premise"]},
      {"long_name": "Sejong-daero", "types": ["route"]},
      {"long_name": "Jung-gu", "types": ["sublocality_level_1", "sublocality", "political"]},
      {"long_name": "Seoul", "types": ["locality", "political"]},
      {"long_name": "Seoul", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "South Korea", "types": ["country", "political"]},
      {"long_name": "04524", "types": ["postal_code"]}
    ]
  }, {
    "address_components": [
      {"long_name": "Elsewhere", "types": ["locality"]}
    ]
  }]
}`

func TestParseResponse(t *testing.T) {
	addr, err := ParseResponse([]byte(seoulResponse))
	require.NoError(t, err)

	require.NotNil(t, addr.Country)
	assert.Equal(t, "South Korea", *addr.Country)
	require.NotNil(t, addr.City)
	assert.Equal(t, "Seoul", *addr.City)
	require.NotNil(t, addr.State)
	assert.Equal(t, "Seoul", *addr.State)
	require.NotNil(t, addr.PostalCode)
	assert.Equal(t, "04524", *addr.PostalCode)
	require.NotNil(t, addr.Street)
	assert.Equal(t, "Sejong-daero", *addr.Street)
}

func TestParseResponse_CityPriority(t *testing.T) {
	tests := []struct {
		name       string
		components string
		want       string
	}{
		{
			"sublocality without locality",
			`{"long_name": "Brooklyn", "types": ["sublocality"]}, {"long_name": "Kings", "types": ["postal_town"]}`,
			"Brooklyn",
		},
		{
			"postal town only",
			`{"long_name": "Guildford", "types": ["postal_town"]}`,
			"Guildford",
		},
		{
			"locality listed last still wins",
			`{"long_name": "Kings", "types": ["postal_town"]}, {"long_name": "Manhattan", "types": ["sublocality"]}, {"long_name": "New York", "types": ["locality"]}`,
			"New York",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"status": "OK", "results": [{"address_components": [%s]}]}`, tt.components)
			addr, err := ParseResponse([]byte(body))
			require.NoError(t, err)
			require.NotNil(t, addr.City)
			assert.Equal(t, tt.want, *addr.City)
			assert.Nil(t, addr.Country)
			assert.Nil(t, addr.Street)
		})
	}
}

func TestParseResponse_Statuses(t *testing.T) {
	tests := []struct {
		body      string
		transient bool
		noResults bool
	}{
		{`{"status": "ZERO_RESULTS", "results": []}`, false, true},
		{`{"status": "OK", "results": []}`, false, true},
		{`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`, false, false},
		{`{"status": "INVALID_REQUEST"}`, false, false},
		{`{"status": "OVER_QUERY_LIMIT"}`, true, false},
		{`{"status": "UNKNOWN_ERROR"}`, true, false},
		{`<html>bad gateway</html>`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			addr, err := ParseResponse([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, addr.IsEmpty())
			assert.Equal(t, tt.transient, IsTransient(err))
			assert.Equal(t, tt.noResults, errors.Is(err, ErrNoResults))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(context.Canceled))
	assert.True(t, IsTransient(fmt.Errorf("reverse geocode: %w", context.DeadlineExceeded)))
	assert.True(t, IsTransient(&StatusError{HTTPStatus: http.StatusBadGateway}))
	assert.True(t, IsTransient(&StatusError{HTTPStatus: http.StatusTooManyRequests}))
	assert.False(t, IsTransient(&StatusError{HTTPStatus: http.StatusForbidden}))
	assert.False(t, IsTransient(fmt.Errorf("wrapped: %w", ErrNoResults)))
}

func TestGoogleClient_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "37.5665,126.978", r.URL.Query().Get("latlng"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "ko", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, seoulResponse)
	}))
	defer server.Close()

	client := NewGoogleClient(config.GeocodeConfig{
		BaseURL:  server.URL + "/",
		APIKey:   "test-key",
		Language: "ko",
		Timeout:  time.Second,
	})

	addr, err := client.ReverseGeocode(context.Background(), 37.5665, 126.978)
	require.NoError(t, err)
	require.NotNil(t, addr.City)
	assert.Equal(t, "Seoul", *addr.City)
}

func TestGoogleClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewGoogleClient(config.GeocodeConfig{BaseURL: server.URL, Timeout: time.Second})

	_, err := client.ReverseGeocode(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestGoogleClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewGoogleClient(config.GeocodeConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	_, err := client.ReverseGeocode(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

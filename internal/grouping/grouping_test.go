package grouping

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photo(name string, at *time.Time, lat, lng *float64) *models.EnrichedPhoto {
	p := models.NewEnrichedPhoto(models.PhotoSource{Name: name})
	p.CapturedAt = at
	p.SetLocation(lat, lng)
	return p
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func f(v float64) *float64 { return &v }

func names(g models.PhotoGroup) []string {
	var out []string
	for _, p := range g.Photos {
		out = append(out, p.Source.Name)
	}
	return out
}

func TestGroup_SameDayNearbyPlaces(t *testing.T) {
	e := NewEngine(Options{LocationPrecision: 3})

	groups := e.Group([]*models.EnrichedPhoto{
		photo("a", ts("2024-01-01T10:00:00Z"), f(37.5665), f(126.9780)),
		photo("b", ts("2024-01-01T15:00:00Z"), f(37.5669), f(126.9781)),
	})

	require.Len(t, groups, 1)
	assert.Equal(t, "2024-01-01", groups[0].DateKey)
	assert.Equal(t, "37.567,126.978", groups[0].LocationKey)
	assert.Equal(t, []string{"a", "b"}, names(groups[0]))
}

func TestGroup_SamePlaceDifferentDays(t *testing.T) {
	e := NewEngine(Options{LocationPrecision: 3})

	groups := e.Group([]*models.EnrichedPhoto{
		photo("a", ts("2024-01-01T10:00:00Z"), f(37.5665), f(126.9780)),
		photo("b", ts("2024-01-02T10:00:00Z"), f(37.5665), f(126.9780)),
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "2024-01-01", groups[0].DateKey)
	assert.Equal(t, "2024-01-02", groups[1].DateKey)
	assert.Equal(t, groups[0].LocationKey, groups[1].LocationKey)
}

func TestGroup_AdjacencyOnly(t *testing.T) {
	e := NewEngine(Options{LocationPrecision: 3})
	day := ts("2024-03-10T09:00:00Z")

	groups := e.Group([]*models.EnrichedPhoto{
		photo("a1", day, f(48.8584), f(2.2945)),
		photo("a2", day, f(48.8584), f(2.2945)),
		photo("b", day, f(48.8606), f(2.3376)),
		photo("a3", day, f(48.8584), f(2.2945)),
	})

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"a1", "a2"}, names(groups[0]))
	assert.Equal(t, []string{"b"}, names(groups[1]))
	assert.Equal(t, []string{"a3"}, names(groups[2]))
	assert.Equal(t, groups[0].LocationKey, groups[2].LocationKey)
}

func TestGroup_UnknownKeys(t *testing.T) {
	e := NewEngine(Options{LocationPrecision: 3})

	groups := e.Group([]*models.EnrichedPhoto{
		photo("located", ts("2024-01-01T10:00:00Z"), f(-33.8688), f(151.2093)),
		photo("undated", nil, f(-33.8688), f(151.2093)),
		photo("bare1", nil, nil, nil),
		photo("bare2", nil, f(1), nil),
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "-33.869,151.209", groups[0].LocationKey)
	assert.Equal(t, UnknownDate, groups[1].DateKey)
	assert.Equal(t, "-33.869,151.209", groups[1].LocationKey)
	assert.Equal(t, UnknownDate, groups[2].DateKey)
	assert.Equal(t, UnknownLocation, groups[2].LocationKey)
	assert.Equal(t, []string{"bare1", "bare2"}, names(groups[2]))
}

func TestGroup_Empty(t *testing.T) {
	groups := NewEngine(Options{}).Group(nil)

	assert.NotNil(t, groups)
	assert.Empty(t, groups)

	out, err := json.Marshal(groups)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestGroup_PreservesEveryPhotoInOrder(t *testing.T) {
	e := NewEngine(Options{LocationPrecision: 3})
	var photos []*models.EnrichedPhoto
	for i := 0; i < 20; i++ {
		lat := float64(i % 3)
		photos = append(photos, photo(string(rune('a'+i)), ts("2024-01-01T10:00:00Z"), &lat, f(0)))
	}

	var flattened []*models.EnrichedPhoto
	for _, g := range e.Group(photos) {
		flattened = append(flattened, g.Photos...)
	}
	assert.Equal(t, photos, flattened)
}

func TestDateKey_UsesLayoutAndZone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	at := time.Date(2024, 1, 1, 23, 30, 0, 0, seoul)

	assert.Equal(t, "2024-01-01", NewEngine(Options{}).DateKey(photo("a", &at, nil, nil)))
	assert.Equal(t, "2024-01", NewEngine(Options{DateLayout: "2006-01"}).DateKey(photo("a", &at, nil, nil)))
}

func TestNewEngine_ZeroOptionsUseDefaults(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	lat, lng := 37.56749, 126.97751
	p := photo("a", &at, &lat, &lng)

	e := NewEngine(Options{})
	assert.Equal(t, "37.567,126.978", e.LocationKey(p))
	assert.Equal(t, "2024-01-01", e.DateKey(p))

	assert.Equal(t, NewEngine(Options{LocationPrecision: DefaultLocationPrecision}).LocationKey(p), e.LocationKey(p))
	assert.Equal(t, "37.5675,126.9775", NewEngine(Options{LocationPrecision: 4}).LocationKey(p))
}

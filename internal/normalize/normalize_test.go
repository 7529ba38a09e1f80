package normalize

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/bstardust/photo-timeline/internal/exif/exiftest"
	"github.com/bstardust/photo-timeline/internal/metadata"
	"github.com/bstardust/photo-timeline/internal/source"
	"github.com/bstardust/photo-timeline/pkg/common"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PassThrough(t *testing.T) {
	jpeg := exiftest.PlainJPEG()
	n := NewNormalizer(DefaultQuality)

	img, err := n.Normalize(context.Background(),
		models.PhotoSource{Name: "a.jpg"},
		&source.Payload{Data: jpeg, ContentType: "image/jpeg"})

	require.NoError(t, err)
	assert.Equal(t, jpeg, img.Data)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.False(t, img.Transcoded)
}

func TestNormalize_TranscodesHEIC(t *testing.T) {
	n := NewNormalizer(DefaultQuality)

	img, err := n.Normalize(context.Background(),
		models.PhotoSource{Name: "IMG_0042.HEIC"},
		&source.Payload{Data: exiftest.HEIC, ContentType: "image/heic"})

	require.NoError(t, err)
	assert.True(t, img.Transcoded)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, []byte{0xFF, 0xD8}, img.Data[:2])

	decoded, err := imaging.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, exiftest.HEICWidth, decoded.Bounds().Dx())
	assert.Equal(t, exiftest.HEICHeight, decoded.Bounds().Dy())

	// the Exif item of the container survives as the JPEG's APP1 segment
	meta, err := metadata.NewExtractor(time.UTC).Parse(img.Data)
	require.NoError(t, err)
	require.NotNil(t, meta.CapturedAt)
	assert.Equal(t, exiftest.HEICCapturedAt, *meta.CapturedAt)
	require.True(t, meta.HasLocation())
	assert.InDelta(t, exiftest.HEICLatitude, *meta.Latitude, 1e-6)
	assert.InDelta(t, exiftest.HEICLongitude, *meta.Longitude, 1e-6)
}

func TestNormalize_CorruptHEICFallsBack(t *testing.T) {
	garbage := []byte("definitely not an ISO BMFF container")
	n := NewNormalizer(DefaultQuality)

	for _, tc := range []struct {
		name        string
		contentType string
	}{
		{"IMG_0001.HEIC", "image/heic"},
		{"upload", "image/heif"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img, err := n.Normalize(context.Background(),
				models.PhotoSource{Name: tc.name},
				&source.Payload{Data: garbage, ContentType: tc.contentType})

			require.Error(t, err)
			var transcodeErr *common.TranscodeError
			assert.True(t, errors.As(err, &transcodeErr))
			assert.Equal(t, tc.name, transcodeErr.Source)

			assert.Equal(t, garbage, img.Data)
			assert.Equal(t, tc.contentType, img.ContentType)
			assert.False(t, img.Transcoded)
		})
	}
}

func TestNormalize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img, err := NewNormalizer(DefaultQuality).Normalize(ctx,
		models.PhotoSource{Name: "a.heic"},
		&source.Payload{Data: []byte("x"), ContentType: "image/heic"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []byte("x"), img.Data)
}

func TestEncodeJPEG_CarriesExif(t *testing.T) {
	src := imaging.New(16, 16, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	block := exiftest.TIFF(exiftest.Fields{DateTimeOriginal: "2024:01:01 10:00:00"}.WithLocation(37.5670, 126.9780))

	out, err := EncodeJPEG(src, DefaultQuality, block)
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())

	meta, err := metadata.NewExtractor(time.UTC).Parse(out)
	require.NoError(t, err)
	require.NotNil(t, meta.CapturedAt)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), *meta.CapturedAt)
	require.True(t, meta.HasLocation())
	assert.InDelta(t, 37.5670, *meta.Latitude, 1e-4)
}

func TestEncodeJPEG_WithoutExif(t *testing.T) {
	src := imaging.New(4, 4, color.NRGBA{A: 255})

	out, err := EncodeJPEG(src, 50, nil)
	require.NoError(t, err)

	_, err = metadata.NewExtractor(time.UTC).Parse(out)
	assert.Error(t, err)
}

func TestSpliceExif(t *testing.T) {
	jpeg := exiftest.PlainJPEG()

	_, err := SpliceExif([]byte("nope"), []byte("II*\x00"))
	assert.Error(t, err)

	_, err = SpliceExif(jpeg, make([]byte, 70000))
	assert.Error(t, err)

	out, err := SpliceExif(jpeg, []byte("Exif\x00\x00II*\x00"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x0C}, out[:6])
	assert.Equal(t, len(jpeg)+14, len(out))
}

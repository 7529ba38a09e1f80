package normalize

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/internal/metadata"
	"github.com/bstardust/photo-timeline/internal/source"
	"github.com/bstardust/photo-timeline/pkg/common"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"
)

// DefaultQuality is the JPEG quality HEIC photos are re-encoded at
const DefaultQuality = 80

const (
	jpegContentType = "image/jpeg"
	maxAPP1Payload  = 0xFFFF - 2
)

var exifHeader = []byte("Exif\x00\x00")

// Normalizer converts photos into a format every renderer can display
type Normalizer struct {
	quality int
}

// NewNormalizer creates a new normalizer encoding at quality (1-100)
func NewNormalizer(quality int) *Normalizer {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Normalizer{quality: quality}
}

// Normalize returns the display form of a photo. HEIC/HEIF containers are
// transcoded to JPEG, everything else is passed through unchanged. When
// transcoding fails the original bytes are returned together with a
// *common.TranscodeError so the photo can still be shown.
func (n *Normalizer) Normalize(ctx context.Context, src models.PhotoSource, payload *source.Payload) (models.DisplayImage, error) {
	original := models.DisplayImage{
		Data:        payload.Data,
		ContentType: payload.ContentType,
	}

	if err := ctx.Err(); err != nil {
		return original, err
	}

	if !source.IsHEIF(src.Name, payload.ContentType, payload.Data) {
		return original, nil
	}

	data, err := n.transcode(payload.Data)
	if err != nil {
		return original, common.NewTranscodeError(src.Name, payload.ContentType, err)
	}

	logger.Debug("Transcoded %s to JPEG (%d -> %d bytes)", src.Name, len(payload.Data), len(data))
	return models.DisplayImage{
		Data:        data,
		ContentType: jpegContentType,
		Transcoded:  true,
	}, nil
}

func (n *Normalizer) transcode(data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("HEIF decoder panicked: %v", r)
		}
	}()

	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode HEIF: %w", err)
	}

	exifBlock, err := metadata.HEIFExif(data)
	if err != nil {
		logger.Debug("HEIF has no EXIF to carry over: %v", err)
		exifBlock = nil
	}

	return EncodeJPEG(img, n.quality, exifBlock)
}

// EncodeJPEG encodes img as a JPEG and embeds exifBlock as its APP1 segment.
// exifBlock may start with the "Exif" marker or directly with a TIFF header;
// it is dropped when empty or too large for a single segment.
func EncodeJPEG(img image.Image, quality int, exifBlock []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	if len(exifBlock) == 0 {
		return buf.Bytes(), nil
	}

	out, err := SpliceExif(buf.Bytes(), exifBlock)
	if err != nil {
		logger.Debug("Dropping EXIF from transcoded image: %v", err)
		return buf.Bytes(), nil
	}
	return out, nil
}

// SpliceExif inserts exifBlock as an APP1 segment right after the SOI marker of jpeg
func SpliceExif(jpeg, exifBlock []byte) ([]byte, error) {
	if len(jpeg) < 2 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		return nil, errors.New("not a JPEG stream")
	}

	payload := exifBlock
	if !bytes.HasPrefix(payload, exifHeader) {
		payload = append(append([]byte{}, exifHeader...), exifBlock...)
	}
	if len(payload) > maxAPP1Payload {
		return nil, fmt.Errorf("EXIF block of %d bytes does not fit in one APP1 segment", len(payload))
	}

	out := make([]byte, 0, len(jpeg)+len(payload)+4)
	out = append(out, jpeg[:2]...)
	out = append(out, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	out = append(out, jpeg[2:]...)
	return out, nil
}

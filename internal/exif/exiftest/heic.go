package exiftest

import (
	_ "embed"
	"time"
)

// HEIC is a real HEIF container (HEVC primary image, 1596x1064) with an Exif
// item carrying DateTimeOriginal and GPS tags. See testdata/README.md.
//
//go:embed testdata/camel_exif.heic
var HEIC []byte

// Values stored in the Exif item of HEIC.
var (
	HEICCapturedAt = time.Date(2023, 7, 14, 9, 30, 0, 0, time.UTC)
	HEICLatitude   = 35.6586
	HEICLongitude  = 139.7454
	HEICWidth      = 1596
	HEICHeight     = 1064
)

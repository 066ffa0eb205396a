package storage

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

const thumbWidth = 320

// Thumbnail renders a 320px-wide JPEG preview of an uploaded image.
func Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

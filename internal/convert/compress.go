package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

const (
	initialQuality = 95
	minQuality     = 60
)

// EncodeUnderLimit re-encodes the image at path as JPEG under maxBytes.
// It first tries full quality, then lowers quality proportionally to
// the overshoot (floored at minQuality), and as a last resort halves
// the pixel dimensions until the encoding fits.
func EncodeUnderLimit(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	data, err := encodeJPEG(img, initialQuality)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) <= maxBytes {
		return data, nil
	}

	// Scale quality by the overshoot ratio, the way the byte ceiling
	// is usually recovered in one step.
	quality := int(float64(initialQuality) * float64(maxBytes) / float64(len(data)))
	if quality < minQuality {
		quality = minQuality
	}
	data, err = encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) <= maxBytes {
		return data, nil
	}

	// Still too large at minimum quality: halve dimensions until it fits.
	for i := 0; i < 4; i++ {
		b := img.Bounds()
		w, h := b.Dx()/2, b.Dy()/2
		if w < 1 || h < 1 {
			break
		}
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Over, nil)
		img = scaled

		data, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) <= maxBytes {
			return data, nil
		}
	}
	return nil, fmt.Errorf("image does not fit under %d bytes", maxBytes)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

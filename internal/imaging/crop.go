package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage is a PNG ready to ship over JSON.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropClamped cuts rect out of img after clamping rect to the image bounds.
// When the clamped region is empty the whole source is returned unchanged.
// The second return value is the region actually used.
func CropClamped(img image.Image, rect image.Rectangle) (image.Image, image.Rectangle) {
	b := img.Bounds()
	src := rect.Intersect(b)
	if src.Empty() {
		return img, b
	}
	return imaging.Crop(img, src), src
}

// Scale resizes img by factor with Lanczos resampling. A factor of 1 or
// less than or equal to 0 returns img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor == 1.0 || factor <= 0 {
		return img
	}
	w := int(float64(img.Bounds().Dx()) * factor)
	h := int(float64(img.Bounds().Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodePNG encodes img as base64 PNG, optionally scaled.
func EncodePNG(img image.Image, scale float64) (*EncodedImage, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to encode")
	}
	out := Scale(img, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

package detection

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocess converts an image into the planar model input tensor.
//
// The image is stretched to size×size (aspect ratio is not preserved) and
// written channel-major: all red values first, then green, then blue. Each
// 8-bit component is divided by 255, so the returned slice has length
// 3·size·size with values in [0, 1]. Alpha is ignored.
//
// Preprocess is pure: the same image and size always produce the same tensor.
// A non-positive size or an empty image yields an empty slice.
func Preprocess(img image.Image, size int) []float32 {
	if img == nil || size <= 0 || img.Bounds().Empty() {
		return []float32{}
	}

	resized := imaging.Resize(img, size, size, imaging.Linear)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < size; x++ {
			px := row[x*4 : x*4+4]
			i := y*size + x
			out[i] = float32(px[0]) / 255.0
			out[plane+i] = float32(px[1]) / 255.0
			out[2*plane+i] = float32(px[2]) / 255.0
		}
	}
	return out
}

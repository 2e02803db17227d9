package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestCropClamped(t *testing.T) {
	img := createInMemoryImage(100, 80, color.White)

	tests := []struct {
		name     string
		rect     image.Rectangle
		wantRect image.Rectangle
	}{
		{"inside", image.Rect(10, 10, 50, 40), image.Rect(10, 10, 50, 40)},
		{"overhangs right and bottom", image.Rect(60, 50, 150, 120), image.Rect(60, 50, 100, 80)},
		{"negative origin", image.Rect(-20, -10, 30, 30), image.Rect(0, 0, 30, 30)},
		{"fully outside", image.Rect(200, 200, 300, 300), image.Rect(0, 0, 100, 80)},
		{"empty", image.Rect(10, 10, 10, 40), image.Rect(0, 0, 100, 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, used := CropClamped(img, tt.rect)
			if used != tt.wantRect {
				t.Errorf("region: got %v, want %v", used, tt.wantRect)
			}
			if out.Bounds().Dx() != tt.wantRect.Dx() || out.Bounds().Dy() != tt.wantRect.Dy() {
				t.Errorf("size: got %v, want %dx%d", out.Bounds(), tt.wantRect.Dx(), tt.wantRect.Dy())
			}
		})
	}
}

func TestCropClamped_Content(t *testing.T) {
	img := createInMemoryImage(20, 20, color.White)
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	out, _ := CropClamped(img, image.Rect(10, 10, 20, 20))
	r, g, b, _ := out.At(out.Bounds().Min.X, out.Bounds().Min.Y).RGBA()
	if r != 0 || g != 0 || b>>8 != 255 {
		t.Errorf("cropped pixel: got (%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}
}

func TestEncodePNG(t *testing.T) {
	img := createInMemoryImage(100, 50, color.White)

	tests := []struct {
		scale         float64
		width, height int
	}{
		{1.0, 100, 50},
		{0, 100, 50},
		{2.0, 200, 100},
		{0.5, 50, 25},
	}
	for _, tt := range tests {
		enc, err := EncodePNG(img, tt.scale)
		if err != nil {
			t.Fatalf("EncodePNG(%v): %v", tt.scale, err)
		}
		if enc.Width != tt.width || enc.Height != tt.height {
			t.Errorf("EncodePNG(%v): got %dx%d, want %dx%d", tt.scale, enc.Width, enc.Height, tt.width, tt.height)
		}
		if enc.MimeType != "image/png" {
			t.Errorf("MimeType: got %q, want image/png", enc.MimeType)
		}

		raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
		if err != nil {
			t.Fatalf("invalid base64: %v", err)
		}
		decoded, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("invalid PNG: %v", err)
		}
		if decoded.Bounds().Dx() != tt.width {
			t.Errorf("decoded width: got %d, want %d", decoded.Bounds().Dx(), tt.width)
		}
	}

	if _, err := EncodePNG(nil, 1); err == nil {
		t.Error("nil image should fail")
	}
}

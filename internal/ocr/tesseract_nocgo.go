//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// Tesseract is a stub in builds without cgo; Recognize always fails with
// ErrUnavailable.
type Tesseract struct {
	Language    string
	TessdataDir string
}

// NewTesseract creates the stub recognizer.
func NewTesseract(language, tessdataDir string) *Tesseract {
	return &Tesseract{Language: language, TessdataDir: tessdataDir}
}

// Recognize always returns ErrUnavailable.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	return nil, ErrUnavailable
}

// Version reports that no engine is linked.
func Version() string {
	return "unavailable"
}

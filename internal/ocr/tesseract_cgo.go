//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with the native Tesseract engine.
type Tesseract struct {
	// Language is a Tesseract language code such as "eng".
	Language string

	// TessdataDir overrides the training data location. Empty uses the
	// engine default (TESSDATA_PREFIX or the system install).
	TessdataDir string
}

// NewTesseract creates a recognizer for language.
func NewTesseract(language, tessdataDir string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language, TessdataDir: tessdataDir}
}

// Recognize runs OCR over img and returns the full text and word boxes.
// Word bounds are in img's coordinate space.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("no image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataDir != "" {
		if err := client.SetTessdataPrefix(t.TessdataDir); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	origin := img.Bounds().Min
	res := &Result{FullText: text}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil {
		res.Words = make([]Word, 0, len(boxes))
		for _, box := range boxes {
			res.Words = append(res.Words, Word{
				Text:       box.Word,
				Confidence: box.Confidence / 100.0,
				Bounds:     box.Box.Add(origin),
			})
		}
	}
	return res, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}

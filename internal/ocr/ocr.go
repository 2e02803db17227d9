package ocr

import (
	"context"
	"errors"
	"image"
	"sort"
	"strings"
)

// ErrUnavailable is returned when the binary was built without Tesseract
// support.
var ErrUnavailable = errors.New("ocr unavailable: built without cgo")

// Word is one recognized word with its location in the source image.
type Word struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"` // 0.0 to 1.0
	Bounds     image.Rectangle `json:"bounds"`
}

// Result holds the text found in an image.
type Result struct {
	FullText string `json:"full_text"`
	Words    []Word `json:"words"`
}

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (*Result, error)
}

// Lines groups words into visual lines, top to bottom, each line read left
// to right. A word joins the current line when its vertical centre is within
// tol pixels of the centre of the line's first word. Words below minConf are
// skipped.
func Lines(words []Word, tol int, minConf float64) []string {
	kept := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Confidence >= minConf && strings.TrimSpace(w.Text) != "" {
			kept = append(kept, w)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return centerY(kept[i]) < centerY(kept[j])
	})

	var groups [][]Word
	for _, w := range kept {
		n := len(groups)
		if n > 0 && abs(centerY(w)-centerY(groups[n-1][0])) <= tol {
			groups[n-1] = append(groups[n-1], w)
			continue
		}
		groups = append(groups, []Word{w})
	}

	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Bounds.Min.X < g[j].Bounds.Min.X })
		parts := make([]string, len(g))
		for i, w := range g {
			parts[i] = strings.TrimSpace(w.Text)
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

func centerY(w Word) int { return w.Bounds.Min.Y + w.Bounds.Dy()/2 }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

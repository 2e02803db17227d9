package a11y

import (
	"fmt"
	"strings"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

// Narration chunking limits, in characters.
const (
	MaxChunk      = 250
	MinChunkBreak = 50
)

func isBreak(r rune) bool {
	switch r {
	case '.', '\n', ' ', '。', '！', '？', '!', '?':
		return true
	}
	return false
}

// ChunkText splits text into announcements of at most maxLen characters.
//
// Each chunk ends at the last sentence or word boundary that leaves more than
// minBreak characters in the chunk; when there is none the chunk is cut hard
// at maxLen. Chunks are trimmed and empty chunks are dropped.
func ChunkText(text string, maxLen, minBreak int) []string {
	if maxLen <= 0 {
		maxLen = MaxChunk
	}
	if minBreak < 0 || minBreak >= maxLen {
		minBreak = 0
	}

	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); {
		end := min(i+maxLen, len(runes))
		best := -1
		if end < len(runes) {
			for j := end; j > i+minBreak; j-- {
				if isBreak(runes[j-1]) {
					best = j
					break
				}
			}
		}
		if best == -1 {
			best = end
		}
		if part := strings.TrimSpace(string(runes[i:best])); part != "" {
			chunks = append(chunks, part)
		}
		i = best
	}
	return chunks
}

// Summary builds the spoken overview of a result: how many elements it has
// followed by each label in reading order, and any extra text lines (for
// example OCR output from the chart).
func Summary(res *chart.Result, extra []string) string {
	if res == nil {
		return "No chart found."
	}
	var b strings.Builder
	nodes := chart.SortReadingOrder(res.Nodes)
	if res.Synthetic {
		b.WriteString("Demo chart. ")
	}
	switch len(nodes) {
	case 0:
		b.WriteString("Chart with no elements.")
	case 1:
		b.WriteString("Chart with 1 element.")
	default:
		fmt.Fprintf(&b, "Chart with %d elements.", len(nodes))
	}
	for _, n := range nodes {
		b.WriteString(" ")
		b.WriteString(strings.TrimRight(n.Label, ". "))
		b.WriteString(".")
	}
	for _, line := range extra {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(strings.TrimRight(line, ". "))
		b.WriteString(".")
	}
	return b.String()
}

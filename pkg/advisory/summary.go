package advisory

import (
	"github.com/matzehuels/gestalt/pkg/content"
)

// Summary limits.
const (
	MaxExcerptRunes = 120
	MaxExcerpts     = 64
)

// Summary describes the content without carrying it wholesale. It never
// includes the session id or anything outside the content package.
type Summary struct {
	DocumentType string         `json:"document_type"`
	Purpose      string         `json:"purpose"`
	Audience     string         `json:"audience,omitempty"`
	Tone         string         `json:"tone,omitempty"`
	Goals        []string       `json:"goals,omitempty"`
	Density      string         `json:"density"`
	Title        string         `json:"title,omitempty"`
	BlockCounts  map[string]int `json:"block_counts"`
	Excerpts     []Excerpt      `json:"excerpts"`
}

// Excerpt is a truncated view of one block.
type Excerpt struct {
	BlockID string `json:"block_id"`
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
}

// Summarize builds the summary sent alongside a layout.
func Summarize(doc *content.Normalized) Summary {
	s := Summary{
		DocumentType: string(doc.DocumentType),
		Purpose:      doc.Intent.Purpose,
		Audience:     doc.Intent.Audience,
		Tone:         doc.Intent.Tone,
		Goals:        doc.Intent.Goals,
		Density:      string(doc.Density()),
		BlockCounts:  map[string]int{},
	}
	for _, b := range doc.Blocks {
		s.BlockCounts[string(b.Kind)]++
		if s.Title == "" && b.IsHeading() {
			s.Title = truncate(b.Text, MaxExcerptRunes)
		}
		if len(s.Excerpts) >= MaxExcerpts {
			continue
		}
		e := Excerpt{BlockID: b.ID, Kind: string(b.Kind), Text: truncate(b.Text, MaxExcerptRunes)}
		if e.Text == "" && b.Image != nil {
			e.Text = truncate(b.Image.AltText, MaxExcerptRunes)
		}
		s.Excerpts = append(s.Excerpts, e)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

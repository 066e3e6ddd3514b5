package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/gestalt/pkg/cache"
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/layout"
)

// canonical is the hashed view of a normalized document. Field order is
// fixed by the struct definitions, so encoding/json output is stable.
type canonical struct {
	Schema       string               `json:"schema"`
	DocumentType string               `json:"document_type"`
	Blocks       []canonicalBlock     `json:"blocks"`
	Intent       content.DesignIntent `json:"intent"`
	Constraints  content.Constraints  `json:"constraints"`
}

type canonicalBlock struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Level    int             `json:"level"`
	Sequence int             `json:"sequence"`
	Text     string          `json:"text,omitempty"`
	Image    *canonicalImage `json:"image,omitempty"`
}

type canonicalImage struct {
	URI      string `json:"uri"`
	Format   string `json:"format"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	AltText  string `json:"alt_text,omitempty"`
}

// Fingerprint returns the content address of doc: a SHA-256 over the
// normalized blocks in sequence order, the resolved intent and the resolved
// constraints, salted with the layout schema version. Block text has already
// been NFC-normalized and whitespace-collapsed, so formatting-only edits do
// not change it. The session id is excluded.
func Fingerprint(doc *content.Normalized) string {
	c := canonical{
		Schema:       layout.SchemaVersion,
		DocumentType: string(doc.DocumentType),
		Blocks:       make([]canonicalBlock, 0, len(doc.Blocks)),
		Intent:       doc.Intent,
		Constraints:  doc.Constraints,
	}
	for _, b := range doc.Blocks {
		cb := canonicalBlock{
			ID:       b.ID,
			Kind:     string(b.Kind),
			Level:    b.Level,
			Sequence: b.Sequence,
			Text:     b.Text,
		}
		if b.Image != nil {
			cb.Image = &canonicalImage{
				URI:      b.Image.URI,
				Format:   b.Image.Format,
				WidthPx:  b.Image.WidthPx,
				HeightPx: b.Image.HeightPx,
				AltText:  b.Image.AltText,
			}
		}
		c.Blocks = append(c.Blocks, cb)
	}
	data, _ := json.Marshal(c)
	return cache.Hash(data)
}

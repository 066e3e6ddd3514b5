package layout

import (
	"path/filepath"
	"testing"

	"github.com/matzehuels/gestalt/pkg/geom"
)

func sample() *Specification {
	return &Specification{
		SchemaVersion:     SchemaVersion,
		SourceFingerprint: "abc",
		DocumentType:      "word",
		PageSize:          geom.Size{Width: 612, Height: 792},
		Pages: []Page{{
			Index:    0,
			Kind:     PageKindPage,
			Template: TemplateSingleColumn,
			Regions: []Region{{
				ID:       "p001-r01",
				Origin:   geom.Point{X: 72, Y: 72},
				Size:     geom.Size{Width: 468, Height: 100},
				Capacity: 100,
				Blocks: []Placement{
					{BlockID: "h", Sequence: 0, Kind: "heading", EstimatedHeight: 30, Emphasis: 1.5},
					{BlockID: "p", Sequence: 1, Kind: "paragraph", EstimatedHeight: 60, Emphasis: 1},
				},
			}},
		}},
		Diagnostics: []Diagnostic{{Rule: "proximity", Score: 1}},
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sample()
	c := s.Clone()
	c.Pages[0].Regions[0].Blocks[0].Emphasis = 2
	c.Pages[0].Title = "changed"
	c.Diagnostics[0].Score = 0

	if s.Pages[0].Regions[0].Blocks[0].Emphasis != 1.5 {
		t.Error("clone shares placements with the original")
	}
	if s.Pages[0].Title != "" || s.Diagnostics[0].Score != 1 {
		t.Error("clone shares pages or diagnostics with the original")
	}
}

func TestQueries(t *testing.T) {
	s := sample()
	if s.BlockCount() != 2 || s.RegionCount() != 1 {
		t.Errorf("counts = %d blocks, %d regions", s.BlockCount(), s.RegionCount())
	}
	if p, r, ok := s.Locate("p"); !ok || p != 0 || r != 0 {
		t.Errorf("Locate(p) = %d,%d,%v", p, r, ok)
	}
	if _, _, ok := s.Locate("missing"); ok {
		t.Error("Locate(missing) should fail")
	}
	if _, _, ok := s.FindRegion("p001-r01"); !ok {
		t.Error("FindRegion should find the region")
	}
	if h := s.Pages[0].Regions[0].ContentHeight(); h != 90 {
		t.Errorf("ContentHeight = %v, want 90", h)
	}
}

func TestUnmarshalValidates(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"document_type":"word"}`)); err == nil {
		t.Error("missing schema_version should fail")
	}
	if _, err := Unmarshal([]byte(`{"schema_version":"1.1"}`)); err == nil {
		t.Error("missing document_type should fail")
	}
	if _, err := Unmarshal([]byte(`not json`)); err == nil {
		t.Error("invalid json should fail")
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteFile(sample(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.SourceFingerprint != "abc" || got.BlockCount() != 2 {
		t.Errorf("read back %+v", got)
	}
}

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/render"
)

const reportYAML = `
session_id: cli-test
content_blocks:
  - block_id: h1
    type: heading
    level: 1
    sequence: 0
    text: Quarterly Review
  - block_id: p1
    type: paragraph
    sequence: 1
    text: Revenue grew in every region this quarter.
  - block_id: p2
    type: paragraph
    sequence: 2
    text: Hiring stayed flat while churn fell.
design_intent:
  purpose: report
constraints:
  max_pages_or_slides: 4
`

func writePackage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := os.WriteFile(path, []byte(reportYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestComposeCommand(t *testing.T) {
	t.Setenv("GESTALT_CACHE_BACKEND", "none")
	pkg := writePackage(t)
	outPath := filepath.Join(t.TempDir(), "report.layout.json")

	if _, err := runCLI(t, "compose", pkg, "-o", outPath, "--quiet"); err != nil {
		t.Fatalf("compose: %v", err)
	}
	spec, err := layout.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if spec.BlockCount() != 3 {
		t.Errorf("layout holds %d blocks, want 3", spec.BlockCount())
	}
	if spec.SchemaVersion != layout.SchemaVersion {
		t.Errorf("schema version = %q", spec.SchemaVersion)
	}
}

func TestComposeCommandRejectsBadPackage(t *testing.T) {
	t.Setenv("GESTALT_CACHE_BACKEND", "none")
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"content_blocks": [{"block_id": "x", "type": "table", "sequence": 0, "text": "t"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "compose", path, "--quiet", "-o", filepath.Join(t.TempDir(), "out.json")); err == nil {
		t.Fatal("compose accepted an unknown block kind")
	}
}

func TestDiagramCommandDOT(t *testing.T) {
	t.Setenv("GESTALT_CACHE_BACKEND", "none")
	outPath := filepath.Join(t.TempDir(), "report.dot")

	if _, err := runCLI(t, "diagram", writePackage(t), "-o", outPath); err != nil {
		t.Fatalf("diagram: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cluster_page_1") {
		t.Errorf("DOT output missing page cluster:\n%s", data)
	}
}

func TestDiagramTarget(t *testing.T) {
	tests := []struct {
		input, output, format string
		wantFormat            render.Format
		wantOutput            string
	}{
		{"report.yaml", "", "", render.FormatSVG, "report.svg"},
		{"dir.v2/report", "", "png", render.FormatPNG, "dir.v2/report.png"},
		{"report.yaml", "out.pdf", "", render.FormatPDF, "out.pdf"},
		{"report.yaml", "out.pdf", "dot", render.FormatDOT, "out.pdf"},
		{"-", "", "", render.FormatSVG, "layout.svg"},
	}
	for _, tt := range tests {
		f, out, err := diagramTarget(tt.input, tt.output, tt.format)
		if err != nil || f != tt.wantFormat || out != tt.wantOutput {
			t.Errorf("diagramTarget(%q, %q, %q) = %q, %q, %v", tt.input, tt.output, tt.format, f, out, err)
		}
	}
	if _, _, err := diagramTarget("x", "", "gif"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestVersionCommand(t *testing.T) {
	got, err := runCLI(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(got, `"schema_version": "`+layout.SchemaVersion+`"`) {
		t.Errorf("version output = %s", got)
	}
}

func TestInspectModelNavigation(t *testing.T) {
	spec := &layout.Specification{
		SourceFingerprint: "abcdef0123456789",
		Pages: []layout.Page{
			{Kind: layout.PageKindPage, Regions: []layout.Region{{ID: "p001-r01", Capacity: 100, Blocks: []layout.Placement{
				{BlockID: "a", Kind: "heading", Level: 1, EstimatedHeight: 20},
				{BlockID: "b", Kind: "paragraph", Sequence: 1, EstimatedHeight: 40},
			}}}},
			{Kind: layout.PageKindPage, Regions: []layout.Region{{ID: "p002-r01", Capacity: 100, Blocks: []layout.Placement{
				{BlockID: "c", Kind: "paragraph", Sequence: 2, EstimatedHeight: 40},
			}}}},
		},
	}

	key := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }
	step := func(m InspectModel, k string) InspectModel {
		next, _ := m.Update(key(k))
		return next.(InspectModel)
	}

	m := NewInspectModel(spec)
	m = step(m, "j")
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.Cursor)
	}
	m = step(m, "j")
	if m.Cursor != 1 {
		t.Errorf("cursor moved past the last block: %d", m.Cursor)
	}
	m = step(m, "l")
	if m.Page != 1 || m.Cursor != 0 {
		t.Errorf("page, cursor = %d, %d after next page, want 1, 0", m.Page, m.Cursor)
	}
	m = step(m, "l")
	if m.Page != 1 {
		t.Errorf("page moved past the last page: %d", m.Page)
	}
	if view := m.View(); !strings.Contains(view, "p002-r01") || !strings.Contains(view, "abcdef012345") {
		t.Errorf("view does not show the current page:\n%s", view)
	}

	m = step(m, "d")
	if view := m.View(); !strings.Contains(view, "Rule") {
		t.Errorf("diagnostics view missing table header:\n%s", view)
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

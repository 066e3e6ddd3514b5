package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlPackage = `
session_id: s-1
design_intent:
  purpose: presentation
  goals: [clarity]
constraints:
  max_pages_or_slides: 3
  density: airy
content_blocks:
  - block_id: t
    type: heading
    level: 0
    sequence: 0
    text: Quarterly review
  - block_id: p
    type: paragraph
    sequence: 1
    text: Revenue grew.
`

func TestParsePackageYAML(t *testing.T) {
	pkg, err := ParsePackage([]byte(yamlPackage), FormatYAML)
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	if pkg.SessionID != "s-1" || len(pkg.Blocks) != 2 {
		t.Fatalf("pkg = %+v", pkg)
	}
	if pkg.Constraints.MaxPages != 3 || pkg.Constraints.Density != DensityAiry {
		t.Errorf("constraints = %+v", pkg.Constraints)
	}
	if pkg.Blocks[0].Kind != KindHeading || pkg.Blocks[0].Text != "Quarterly review" {
		t.Errorf("first block = %+v", pkg.Blocks[0])
	}
}

func TestParsePackageJSON(t *testing.T) {
	data := `{"design_intent":{"purpose":"report"},"content_blocks":[{"block_id":"a","type":"paragraph","sequence":0,"text":"x"}]}`
	pkg, err := ReadPackage(strings.NewReader(data), FormatJSON)
	if err != nil {
		t.Fatalf("ReadPackage: %v", err)
	}
	if len(pkg.Blocks) != 1 || pkg.Blocks[0].ID != "a" {
		t.Errorf("pkg = %+v", pkg)
	}

	if _, err := ParsePackage([]byte("{"), FormatJSON); err == nil {
		t.Error("expected error for truncated json")
	}
	if _, err := ParsePackage([]byte("{}"), "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestReadPackageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yml")
	if err := os.WriteFile(path, []byte(yamlPackage), 0o644); err != nil {
		t.Fatal(err)
	}
	pkg, err := ReadPackageFile(path)
	if err != nil {
		t.Fatalf("ReadPackageFile: %v", err)
	}
	if pkg.Intent.Purpose != "presentation" {
		t.Errorf("Purpose = %q", pkg.Intent.Purpose)
	}

	if FormatFromPath("a.JSON") != FormatJSON || FormatFromPath("a.yaml") != FormatYAML {
		t.Error("FormatFromPath mismatch")
	}
}

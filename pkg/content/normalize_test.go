package content

import (
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/gestalt/pkg/errors"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func basePackage() Package {
	return Package{
		Blocks: []RawBlock{
			{ID: "b2", Kind: KindParagraph, Sequence: 2, Text: "Body text."},
			{ID: "b1", Kind: KindHeading, Level: 1, Sequence: 1, Text: "Heading"},
			{ID: "b3", Kind: KindImage, Sequence: 3, ImageID: "img1"},
		},
		Images: []ImageAsset{
			{ID: "img1", URI: "assets/chart.png", Format: "PNG", WidthPx: 960, HeightPx: 480},
		},
		Intent: DesignIntent{Purpose: "Report", Goals: []string{"Clarity", "brevity", "clarity"}},
	}
}

func TestNormalizeSortsBySequence(t *testing.T) {
	norm, err := NewNormalizer(DefaultMeasureConfig()).Normalize(basePackage())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	var ids []string
	for _, b := range norm.Blocks {
		ids = append(ids, b.ID)
	}
	if got := strings.Join(ids, ","); got != "b1,b2,b3" {
		t.Errorf("block order = %s, want b1,b2,b3", got)
	}
	if norm.Blocks[2].Image == nil || norm.Blocks[2].Image.Format != "png" {
		t.Errorf("image ref = %+v, want resolved png asset", norm.Blocks[2].Image)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	norm, err := NewNormalizer(DefaultMeasureConfig()).Normalize(basePackage())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if norm.DocumentType != DocumentWord {
		t.Errorf("DocumentType = %q, want word", norm.DocumentType)
	}
	if norm.Frame.Page != LetterPage {
		t.Errorf("Frame.Page = %+v, want letter", norm.Frame.Page)
	}
	c := norm.Constraints
	if c.MaxPages != DefaultMaxPages || c.MinSpacing != DefaultMinSpacing || c.Density != DensityBalanced {
		t.Errorf("resolved constraints = %+v", c)
	}
	if norm.Intent.Purpose != "report" {
		t.Errorf("Purpose = %q, want report", norm.Intent.Purpose)
	}
	if got := strings.Join(norm.Intent.Goals, ","); got != "brevity,clarity" {
		t.Errorf("Goals = %s, want brevity,clarity", got)
	}
}

func TestNormalizePresentation(t *testing.T) {
	pkg := basePackage()
	pkg.Intent.Purpose = "presentation"
	pkg.Intent.Density = DensityAiry
	pkg.Constraints.Density = DensityTight

	norm, err := NewNormalizer(DefaultMeasureConfig()).Normalize(pkg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if norm.DocumentType != DocumentPresentation {
		t.Errorf("DocumentType = %q, want presentation", norm.DocumentType)
	}
	if norm.Frame.Page != SlidePage || norm.Frame.Columns != 12 {
		t.Errorf("Frame = %+v, want 12-column slide", norm.Frame)
	}
	if norm.Density() != DensityTight {
		t.Errorf("Density = %q, constraint density should win over intent", norm.Density())
	}
}

func TestNormalizeAppendsUnreferencedImages(t *testing.T) {
	pkg := basePackage()
	pkg.Images = append(pkg.Images, ImageAsset{ID: "logo", URI: "https://example.com/logo.svg", Format: "svg", WidthPx: 200, HeightPx: 100})

	norm, err := NewNormalizer(DefaultMeasureConfig()).Normalize(pkg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	last := norm.Blocks[len(norm.Blocks)-1]
	if last.ID != "logo" || last.Kind != KindImage || last.Sequence != 4 {
		t.Errorf("last block = %+v, want trailing logo image at sequence 4", last)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Package)
		blockID string
	}{
		{"unknown kind", func(p *Package) { p.Blocks[0].Kind = "table" }, "b2"},
		{"level too deep", func(p *Package) { p.Blocks[1].Level = 7 }, "b1"},
		{"negative level", func(p *Package) { p.Blocks[1].Level = -1 }, "b1"},
		{"duplicate id", func(p *Package) { p.Blocks[1].ID = "b2" }, "b2"},
		{"duplicate sequence", func(p *Package) { p.Blocks[1].Sequence = 2 }, "b1"},
		{"missing image", func(p *Package) { p.Blocks[2].ImageID = "nope" }, "b3"},
		{"empty text", func(p *Package) { p.Blocks[0].Text = "  \n " }, "b2"},
		{"bad id", func(p *Package) { p.Blocks[0].ID = "has space" }, "has space"},
		{"bad image format", func(p *Package) { p.Images[0].Format = "gif" }, "img1"},
		{"oversized image", func(p *Package) { p.Images[0].WidthPx = 5000 }, "img1"},
		{"bad purpose", func(p *Package) { p.Intent.Purpose = "poster" }, ""},
		{"bad density", func(p *Package) { p.Constraints.Density = "cozy" }, ""},
		{"negative max pages", func(p *Package) { p.Constraints.MaxPages = -1 }, ""},
		{"negative spacing", func(p *Package) { p.Constraints.MinSpacing = -4 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := basePackage()
			tt.mutate(&pkg)
			_, err := NewNormalizer(DefaultMeasureConfig()).Normalize(pkg)
			if !errors.Is(err, errors.ErrCodeNormalization) {
				t.Fatalf("err = %v, want NORMALIZATION_ERROR", err)
			}
			e, _ := errors.As(err)
			if e.BlockID != tt.blockID {
				t.Errorf("BlockID = %q, want %q", e.BlockID, tt.blockID)
			}
		})
	}
}

func TestMeasureText(t *testing.T) {
	cfg := DefaultMeasureConfig()

	// 468pt wrap at 11pt body: 85 columns per line.
	m := cfg.measureText(KindParagraph, strings.Repeat("a", 100), 4, 468)
	if m.Lines != 2 {
		t.Errorf("Lines = %d, want 2", m.Lines)
	}
	if !approx(m.Height, 2*1.35*11) {
		t.Errorf("Height = %v, want %v", m.Height, 2*1.35*11)
	}
	if !approx(m.TextDensity, 100.0/170.0) {
		t.Errorf("TextDensity = %v", m.TextDensity)
	}
	if !approx(m.Width, 468) {
		t.Errorf("Width = %v, want full wrap width", m.Width)
	}

	short := cfg.measureText(KindParagraph, "abcd", 4, 468)
	if short.Lines != 1 || !approx(short.Width, 4*5.5) {
		t.Errorf("short text = %+v, want one line 22pt wide", short)
	}

	list := cfg.measureText(KindList, "one\ntwo\nthree", 4, 468)
	if list.Lines != 3 {
		t.Errorf("list Lines = %d, want one per item", list.Lines)
	}
}

func TestFontSizes(t *testing.T) {
	cfg := DefaultMeasureConfig()
	want := map[int]float64{1: 26, 2: 20, 3: 15, 4: 11}
	for level, size := range want {
		if got := cfg.FontSize(level); got != size {
			t.Errorf("FontSize(%d) = %v, want %v", level, got, size)
		}
	}
}

func TestMeasureImage(t *testing.T) {
	m := DefaultMeasureConfig().measureImage(960, 480, 468)
	if !approx(m.Width, 468) || !approx(m.Height, 234) {
		t.Errorf("scaled image = %vx%v, want 468x234", m.Width, m.Height)
	}
	small := DefaultMeasureConfig().measureImage(96, 48, 468)
	if !approx(small.Width, 72) || !approx(small.Height, 36) || !approx(small.Weight, 36) {
		t.Errorf("small image = %+v, want 72x36", small)
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"abc", 3},
		{"日本", 4},
		{"e\u0301", 1},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Columns(tt.in); got != tt.want {
			t.Errorf("Columns(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  Hello   world \n\n\t second  line ")
	if got != "Hello world\nsecond line" {
		t.Errorf("CleanText = %q", got)
	}
	if CleanText("e\u0301") != "\u00e9" {
		t.Error("CleanText should compose to NFC")
	}
}

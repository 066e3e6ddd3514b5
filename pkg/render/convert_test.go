package render

import (
	"context"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"svg", FormatSVG, false},
		{" PDF ", FormatPDF, false},
		{"png", FormatPNG, false},
		{"dot", FormatDOT, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"out/layout.pdf": FormatPDF,
		"layout.PNG":     FormatPNG,
		"layout.dot":     FormatDOT,
		"layout":         FormatSVG,
		"layout.txt":     FormatSVG,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestConvertSVGPassthrough(t *testing.T) {
	in := []byte("<svg/>")
	out, err := Convert(context.Background(), in, FormatSVG, 1)
	if err != nil || string(out) != string(in) {
		t.Fatalf("Convert = %q, %v", out, err)
	}
	if _, err := Convert(context.Background(), in, FormatDOT, 1); err == nil {
		t.Error("converting svg to dot should fail")
	}
}

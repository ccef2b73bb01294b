// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderdesc

import "testing"

func TestVariableTypeTokenTotality(t *testing.T) {
	for vt := Float; vt <= Struct; vt++ {
		tok := vt.Token()
		if tok == "" {
			t.Errorf("%d has no token", int(vt))
			continue
		}
		if got := ParseVariableType(tok); got != vt {
			t.Errorf("ParseVariableType(%q) = %v, want %v", tok, got, vt)
		}
	}
}

func TestImageFormatTokenTotality(t *testing.T) {
	for f := ImageFormatRgba32f; f <= ImageFormatR8ui; f++ {
		tok := f.Token()
		if tok == "" {
			t.Errorf("%d has no token", int(f))
			continue
		}
		if got := ParseImageFormat(tok); got != f {
			t.Errorf("ParseImageFormat(%q) = %v, want %v", tok, got, f)
		}
	}
}

func TestSixteenBitFormatsAreDistinct(t *testing.T) {
	if ImageFormatRgba16f.Token() == ImageFormatRgba16.Token() {
		t.Fatalf("rgba16f and rgba16 share token %q", ImageFormatRgba16.Token())
	}
	if got := ParseImageFormat("rgba16"); got != ImageFormatRgba16 {
		t.Errorf("rgba16 -> %v, want normalized format", got)
	}
	if got := ParseImageFormat("rgba16f"); got != ImageFormatRgba16f {
		t.Errorf("rgba16f -> %v, want float format", got)
	}
}

func TestUnknownTokens(t *testing.T) {
	tests := []string{"", "vec5", "FLOAT", "rgba64"}
	for _, tok := range tests {
		if got := ParseVariableType(tok); got != VariableUnknown {
			t.Errorf("ParseVariableType(%q) = %v, want unknown", tok, got)
		}
		if got := ParseImageFormat(tok); got != ImageFormatUnknown {
			t.Errorf("ParseImageFormat(%q) = %v, want unknown", tok, got)
		}
	}
	if tok := VariableUnknown.Token(); tok != "" {
		t.Errorf("VariableUnknown.Token() = %q, want empty", tok)
	}
	if tok := ImageFormatUnknown.Token(); tok != "" {
		t.Errorf("ImageFormatUnknown.Token() = %q, want empty", tok)
	}
	if tok := VariableType(999).Token(); tok != "" {
		t.Errorf("out of range Token() = %q, want empty", tok)
	}
}

func TestVariableTypeClasses(t *testing.T) {
	tests := []struct {
		vt      VariableType
		sampler bool
		image   bool
		matrix  bool
	}{
		{Float, false, false, false},
		{Mat3x4, false, false, true},
		{DMat4, false, false, true},
		{Sampler2D, true, false, false},
		{SamplerBuffer, true, false, false},
		{Image2D, false, true, false},
		{ImageBuffer, false, true, false},
		{Struct, false, false, false},
	}
	for _, tt := range tests {
		if got := tt.vt.IsSampler(); got != tt.sampler {
			t.Errorf("%v.IsSampler() = %v", tt.vt, got)
		}
		if got := tt.vt.IsImage(); got != tt.image {
			t.Errorf("%v.IsImage() = %v", tt.vt, got)
		}
		if got := tt.vt.IsMatrix(); got != tt.matrix {
			t.Errorf("%v.IsMatrix() = %v", tt.vt, got)
		}
	}
}

func TestImageFlagsString(t *testing.T) {
	if s := (ReadOnlyImage | WriteOnlyImage).String(); s != "readonly|writeonly" {
		t.Errorf("String() = %q", s)
	}
	if s := ImageFlags(0).String(); s != "none" {
		t.Errorf("String() = %q", s)
	}
}

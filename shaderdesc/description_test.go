// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderdesc

import (
	"strings"
	"testing"
)

// exampleDescription is a vertex shader interface with one input and one
// uniform block holding a matrix and an opacity value.
func exampleDescription() Description {
	var desc Description
	in := NewInOutVariable("color", Vec3)
	in.Location = 1
	desc.AddInputVariable(in)
	desc.AddUniformBlock(UniformBlock{
		BlockName:     "buf",
		StructName:    "ubuf",
		Size:          68,
		Binding:       -1,
		DescriptorSet: -1,
		Members: []BlockVariable{
			{Name: "mvp", Type: Mat4, Offset: 0, Size: 64, MatrixStride: 16},
			{Name: "opacity", Type: Float, Offset: 64, Size: 4},
		},
	})
	return desc
}

func TestDescriptionValidity(t *testing.T) {
	var desc Description
	if desc.IsValid() {
		t.Fatal("zero Description is valid")
	}

	adders := []struct {
		name string
		add  func(*Description)
	}{
		{"input", func(d *Description) { d.AddInputVariable(NewInOutVariable("a", Vec4)) }},
		{"output", func(d *Description) { d.AddOutputVariable(NewInOutVariable("a", Vec4)) }},
		{"uniform", func(d *Description) { d.AddUniformBlock(UniformBlock{BlockName: "b"}) }},
		{"push", func(d *Description) { d.AddPushConstantBlock(PushConstantBlock{Name: "p"}) }},
		{"storage", func(d *Description) { d.AddStorageBlock(StorageBlock{BlockName: "s"}) }},
		{"sampler", func(d *Description) { d.AddCombinedImageSampler(NewInOutVariable("t", Sampler2D)) }},
		{"image", func(d *Description) { d.AddStorageImage(NewInOutVariable("i", Image2D)) }},
	}
	for _, tt := range adders {
		t.Run(tt.name, func(t *testing.T) {
			var d Description
			tt.add(&d)
			if !d.IsValid() {
				t.Errorf("IsValid() = false after adding %s", tt.name)
			}
		})
	}
}

func TestDescriptionCopyOnWrite(t *testing.T) {
	a := exampleDescription()
	b := a
	c := a.Clone()

	b.AddInputVariable(NewInOutVariable("uv", Vec2))

	if n := len(a.InputVariables()); n != 1 {
		t.Fatalf("original has %d inputs after mutating a copy, want 1", n)
	}
	if n := len(c.InputVariables()); n != 1 {
		t.Fatalf("clone has %d inputs after mutating a copy, want 1", n)
	}
	if n := len(b.InputVariables()); n != 2 {
		t.Fatalf("mutated copy has %d inputs, want 2", n)
	}

	// Appending to both copies must not clobber each other's element.
	a.AddInputVariable(NewInOutVariable("normal", Vec3))
	if got := b.InputVariables()[1].Name; got != "uv" {
		t.Errorf("copy b input[1] = %q, want uv", got)
	}
	if got := a.InputVariables()[1].Name; got != "normal" {
		t.Errorf("copy a input[1] = %q, want normal", got)
	}
}

func TestDescriptionAccessorsReturnCopies(t *testing.T) {
	desc := exampleDescription()

	blocks := desc.UniformBlocks()
	blocks[0].Members[0].Name = "changed"
	blocks[0].Members = append(blocks[0].Members, BlockVariable{Name: "extra"})

	again := desc.UniformBlocks()
	if again[0].Members[0].Name != "mvp" {
		t.Errorf("member name = %q, accessor aliased storage", again[0].Members[0].Name)
	}
	if len(again[0].Members) != 2 {
		t.Errorf("members = %d, accessor aliased storage", len(again[0].Members))
	}

	ins := desc.InputVariables()
	ins[0].Name = "changed"
	if desc.InputVariables()[0].Name != "color" {
		t.Error("InputVariables aliased storage")
	}
}

func TestDescriptionAddCopiesMembers(t *testing.T) {
	members := []BlockVariable{{Name: "x", Type: Float, Size: 4}}
	var desc Description
	desc.AddPushConstantBlock(PushConstantBlock{Name: "pc", Size: 4, Members: members})
	members[0].Name = "changed"

	if got := desc.PushConstantBlocks()[0].Members[0].Name; got != "x" {
		t.Errorf("member = %q, AddPushConstantBlock kept caller slice", got)
	}
}

func TestDescriptionFind(t *testing.T) {
	desc := exampleDescription()
	desc.AddStorageBlock(StorageBlock{BlockName: "Data", InstanceName: "data", Binding: 2, DescriptorSet: 0})

	if b, ok := desc.FindUniformBlock("ubuf"); !ok || b.Size != 68 {
		t.Errorf("FindUniformBlock(ubuf) = %v, %v", b, ok)
	}
	if b, ok := desc.FindUniformBlock("buf"); !ok || b.StructName != "ubuf" {
		t.Errorf("FindUniformBlock(buf) = %v, %v", b, ok)
	}
	if _, ok := desc.FindUniformBlock("missing"); ok {
		t.Error("FindUniformBlock(missing) found a block")
	}
	if b, ok := desc.FindStorageBlock("data"); !ok || b.Binding != 2 {
		t.Errorf("FindStorageBlock(data) = %v, %v", b, ok)
	}
}

func TestDescriptionEqual(t *testing.T) {
	a := exampleDescription()
	b := exampleDescription()
	if !a.Equal(b) {
		t.Fatal("identical descriptions are not equal")
	}
	b.AddOutputVariable(NewInOutVariable("fragColor", Vec4))
	if a.Equal(b) {
		t.Fatal("descriptions with different outputs are equal")
	}
	if !(Description{}).Equal(Description{}) {
		t.Fatal("empty descriptions are not equal")
	}
}

func TestDescriptionString(t *testing.T) {
	if s := (Description{}).String(); s != "ShaderDescription(null)" {
		t.Errorf("String() = %q", s)
	}
	s := exampleDescription().String()
	if !strings.Contains(s, "InOutVariable(vec3 color location=1)") {
		t.Errorf("String() = %q, missing input", s)
	}
	if !strings.Contains(s, "matrixStride=16") {
		t.Errorf("String() = %q, missing matrix stride", s)
	}
}

func TestBlockVariableRuntimeSized(t *testing.T) {
	tests := []struct {
		dims []int
		want bool
	}{
		{nil, false},
		{[]int{4}, false},
		{[]int{0}, true},
		{[]int{2, 0}, true},
	}
	for _, tt := range tests {
		v := BlockVariable{ArrayDims: tt.dims}
		if got := v.IsRuntimeSized(); got != tt.want {
			t.Errorf("IsRuntimeSized(%v) = %v, want %v", tt.dims, got, tt.want)
		}
	}
}

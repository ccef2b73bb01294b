// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/rhi/shaderdesc"
	"github.com/gogpu/rhi/shaderdesc/wgslreflect"
)

const computeWGSL = `
@group(0) @binding(0) var<storage, read_write> data: array<f32>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = 2.0 * data[id.x];
}
`

func writeShader(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "double.wgsl")
	if err := os.WriteFile(path, []byte(computeWGSL), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessText(t *testing.T) {
	path := writeShader(t)
	var out bytes.Buffer
	if err := process(&out, path, options{}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(out.String(), "compute main @workgroup_size(8, 8, 1)") {
		t.Errorf("output missing entry point header:\n%s", out.String())
	}
}

func TestProcessBinary(t *testing.T) {
	path := writeShader(t)
	dir := t.TempDir()
	if err := process(&bytes.Buffer{}, path, options{cborDir: dir}); err != nil {
		t.Fatalf("process: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "double.main.desc"))
	if err != nil {
		t.Fatal(err)
	}
	var got shaderdesc.Description
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if len(got.StorageBlocks()) != 1 {
		t.Errorf("StorageBlocks() = %v, want one block", got.StorageBlocks())
	}
}

func TestProcessMissingEntry(t *testing.T) {
	path := writeShader(t)
	err := process(&bytes.Buffer{}, path, options{entry: "nope"})
	if !errors.Is(err, wgslreflect.ErrNoEntryPoint) {
		t.Errorf("process = %v, want ErrNoEntryPoint", err)
	}
}

// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestOptimizeDownscalesWideImages(t *testing.T) {
	opt := NewJPEGOptimizer()

	out, ext, err := opt.Optimize(pngBytes(t, 1920, 1080))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if ext != "jpg" {
		t.Errorf("ext = %q, want jpg", ext)
	}

	decoded, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}
	if got := decoded.Bounds().Dx(); got != DefaultMaxWidth {
		t.Errorf("width = %d, want %d", got, DefaultMaxWidth)
	}
	if got := decoded.Bounds().Dy(); got != 720 {
		t.Errorf("height = %d, want 720 (aspect preserved)", got)
	}
}

func TestOptimizeKeepsSmallImages(t *testing.T) {
	opt := NewJPEGOptimizer()

	out, _, err := opt.Optimize(pngBytes(t, 640, 480))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != 640 {
		t.Errorf("width = %d, want 640 unchanged", got)
	}
}

func TestOptimizeRejectsGarbage(t *testing.T) {
	opt := NewJPEGOptimizer()
	if _, _, err := opt.Optimize([]byte("definitely not an image")); err == nil {
		t.Error("Optimize accepted garbage input")
	}
}

// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package images recompresses uploaded evidence screenshots. Raw ShareX
// captures are PNGs of a full game window, often several megabytes; stored
// proofs only need to be readable, so everything is downscaled and
// re-encoded as JPEG.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxWidth caps the stored width. Game screenshots wider than
	// this carry no extra evidence value.
	DefaultMaxWidth = 1280

	// DefaultQuality is the JPEG quality for stored proofs.
	DefaultQuality = 70
)

// Optimizer converts an uploaded image into its stored form.
type Optimizer interface {
	// Optimize re-encodes src and returns the bytes to store plus the
	// file extension they should carry (without the dot).
	Optimize(src []byte) ([]byte, string, error)
}

// JPEGOptimizer downscales to MaxWidth and re-encodes as JPEG.
type JPEGOptimizer struct {
	MaxWidth int
	Quality  int
}

// NewJPEGOptimizer returns an optimizer with the default limits.
func NewJPEGOptimizer() *JPEGOptimizer {
	return &JPEGOptimizer{MaxWidth: DefaultMaxWidth, Quality: DefaultQuality}
}

func (o *JPEGOptimizer) Optimize(src []byte) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	if o.MaxWidth > 0 && bounds.Dx() > o.MaxWidth {
		img = resize(img, o.MaxWidth)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.Quality}); err != nil {
		return nil, "", fmt.Errorf("encoding %s as jpeg: %w", format, err)
	}
	return buf.Bytes(), "jpg", nil
}

func resize(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	height := int(float64(bounds.Dy()) * ratio)
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

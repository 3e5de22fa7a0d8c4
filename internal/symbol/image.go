/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package symbol

// Raster symbol templates: decoded stamp images and library thumbnails.

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
)

// DecodeImage reads a PNG, JPEG or BMP stamp image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode stamp image: %w", err)
	}
	return img, nil
}

// Thumbnail scales the image down so its longer edge is maxPx, preserving
// aspect. Images already small enough are returned unchanged.
func Thumbnail(src image.Image, maxPx int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxPx && h <= maxPx {
		return src
	}
	var tw, th int
	if w >= h {
		tw = maxPx
		th = h * maxPx / w
	} else {
		th = maxPx
		tw = w * maxPx / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// EncodePNG writes the image as PNG, the library's storage format for
// thumbnails.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}

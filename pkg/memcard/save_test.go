/*
   ps1mcfs - PlayStation memory card filesystem
   Copyright (c) 2023, the ps1mcfs authors

   This file is part of ps1mcfs.

   ps1mcfs is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   ps1mcfs is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with ps1mcfs. If not, see <http://www.gnu.org/licenses/>.
*/

package memcard

import (
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

func TestDecodeRegion(t *testing.T) {
	for country, want := range map[string]Region{
		"BA": RegionAmerica,
		"BE": RegionEurope,
		"BI": RegionJapan,
		"XX": RegionUnknown,
		"":   RegionUnknown,
	} {
		if got := decodeRegion(country); got != want {
			t.Errorf("decodeRegion(%q) = %s, want %s", country, got, want)
		}
	}
}

func TestDecodeTitleASCII(t *testing.T) {

	raw := make([]byte, 64)
	// the terminator is a NUL in the first byte of a pair, so pad the
	// odd-length title to keep the cut aligned
	copy(raw, "CRASH TEAM RACING ")

	title, valid := decodeTitle(raw, japanese.ShiftJIS)
	if !valid {
		t.Error("ASCII title decoded as invalid")
	}
	if title != "CRASH TEAM RACING" {
		t.Errorf("title = %q, want %q", title, "CRASH TEAM RACING")
	}
}

func TestDecodeTitleInvalidBytes(t *testing.T) {

	// 0x80 is not a legal Shift-JIS lead byte
	raw := []byte{0x80, 0x80, 0x80, 0x80, 0x00, 0x00}

	title, valid := decodeTitle(raw, japanese.ShiftJIS)
	if valid {
		t.Error("garbage title decoded as valid")
	}
	if title == "" {
		t.Error("fallback title is empty")
	}
}

func TestDecodeTitleCustomEncoding(t *testing.T) {

	raw := make([]byte, 8)
	copy(raw, "OK")

	title, valid := decodeTitle(raw, unicode.UTF8)
	if !valid || title != "OK" {
		t.Errorf("title = %q/%v, want %q/true", title, valid, "OK")
	}
}

func TestIndexNul(t *testing.T) {
	for _, tc := range []struct {
		raw  []byte
		want int
	}{
		{[]byte{0x00}, 0},
		{[]byte{'A', 'B', 0x00, 0x00}, 2},
		{[]byte{'A', 0x00, 'B', 0x00}, -1}, // NUL in trail byte position
		{[]byte{'A', 'B', 'C', 'D'}, -1},
	} {
		if got := indexNul(tc.raw); got != tc.want {
			t.Errorf("indexNul(%v) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestPaletteDecode(t *testing.T) {

	l := defaultPaletteLayout

	// red 31, green 0, blue 15, alpha set
	v := uint16(31) | uint16(15)<<10 | 1<<15

	c := l.decode(v)
	if c.R != 31 || c.G != 0 || c.B != 15 || !c.Mask {
		t.Errorf("decode(%#04x) = %+v", v, c)
	}

	if c := l.decode(0); c.R != 0 || c.G != 0 || c.B != 0 || c.Mask {
		t.Errorf("decode(0) = %+v, want zero color", c)
	}
}

func TestIconRaw(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{0}, "BA", "SLUS-00800", "ICON", "ICONTEST", 0x12)

	// palette and two distinguishable frames
	h := img[BlockSize:]
	for ix := 0; ix < 32; ix++ {
		h[96+ix] = byte(ix)
	}
	for ix := 0; ix < FrameSize; ix++ {
		h[FrameSize+ix] = 0xaa
		h[2*FrameSize+ix] = 0xbb
	}

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	icon := c.Saves()[0].Icon

	if icon.FrameCount() != 2 {
		t.Fatalf("FrameCount() = %d, want 2", icon.FrameCount())
	}

	raw := icon.Raw(1)
	if len(raw) != 32+FrameSize {
		t.Fatalf("Raw(1) length = %d, want %d", len(raw), 32+FrameSize)
	}
	if raw[0] != 0 || raw[31] != 31 {
		t.Error("Raw(1) does not start with the packed palette")
	}
	if raw[32] != 0xbb {
		t.Error("Raw(1) does not carry the second animation frame")
	}

	if icon.Raw(-1) != nil || icon.Raw(2) != nil {
		t.Error("Raw() out of range must return nil")
	}

	// palette entry 1 is 0x0302 little-endian
	want := defaultPaletteLayout.decode(0x0302)
	if icon.Palette[1] != want {
		t.Errorf("Palette[1] = %+v, want %+v", icon.Palette[1], want)
	}
}

func TestIconFlagVariants(t *testing.T) {
	for flags, want := range map[byte]int{
		0x11: 1,
		0x12: 2,
		0x13: 3,
		0x00: 0, // no icon
		0x10: 0, // frame count out of range
		0x14: 0,
		0x23: 0, // wrong high nibble
	} {
		img := newTestImage()
		writeSave(img, []int{0}, "BA", "SLUS-00900", "FLAG", "FLAGTEST",
			flags)

		c, err := Load(img, nil)
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if got := c.Saves()[0].Icon.FrameCount(); got != want {
			t.Errorf("flags %#02x: FrameCount() = %d, want %d",
				flags, got, want)
		}
	}
}

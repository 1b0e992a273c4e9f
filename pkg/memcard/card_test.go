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
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// seal writes the frame checksum, the XOR of the first 127 bytes
func seal(f []byte) {
	var x byte
	for _, b := range f[:FrameSize-1] {
		x ^= b
	}
	f[FrameSize-1] = x
}

// dirFrame returns the directory frame of one data block
func dirFrame(data []byte, block int) []byte {
	off := (block + 1) * FrameSize
	return data[off : off+FrameSize]
}

// newTestImage builds a formatted card image with all data blocks open
func newTestImage() []byte {

	data := make([]byte, ImageSize)

	h := data[:FrameSize]
	copy(h, CardMagic)
	seal(h)

	for ix := 0; ix < DataBlockCount; ix++ {
		f := dirFrame(data, ix)
		f[0] = rawStateAvailable
		f[8] = ChainEnd
		f[9] = ChainEnd
		seal(f)
	}

	return data
}

// writeSave puts a save with the given chain onto the image: the
// directory frames and the header frame in the first block. The title
// must be ASCII and of even length.
func writeSave(
	data []byte, blocks []int, country, product, identifier, title string,
	iconFlags byte) {

	for i, b := range blocks {

		f := dirFrame(data, b)
		for j := range f {
			f[j] = 0
		}

		switch {
		case i == 0:
			f[0] = rawStateFirst
		case i == len(blocks)-1:
			f[0] = rawStateLast
		default:
			f[0] = rawStateMiddle
		}

		if i == len(blocks)-1 {
			f[8] = ChainEnd
		} else {
			f[8] = byte(blocks[i+1])
		}
		f[9] = ChainEnd

		if i == 0 {
			binary.LittleEndian.PutUint32(f[4:],
				uint32(len(blocks)*BlockSize))
			copy(f[10:], country)
			copy(f[12:], product)
			copy(f[22:], identifier)
		}

		seal(f)
	}

	h := data[(blocks[0]+1)*BlockSize:]
	copy(h, SaveMagic)
	h[2] = iconFlags
	h[3] = byte(len(blocks))
	copy(h[4:], title)
}

func TestLoadInvalidSize(t *testing.T) {
	for _, size := range []int{0, FrameSize, ImageSize - 1, ImageSize + 1} {
		if _, err := Load(make([]byte, size), nil); !errors.Is(
			err, ErrInvalidImageSize) {
			t.Errorf("size %d: err = %v, want ErrInvalidImageSize", size, err)
		}
	}
}

func TestLoadEmptyCard(t *testing.T) {

	c, err := Load(newTestImage(), nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !c.HeaderValid() {
		t.Error("HeaderValid() = false, want true")
	}
	if len(c.Saves()) != 0 {
		t.Errorf("got %d saves, want 0", len(c.Saves()))
	}
	if used, free := c.Stats(); used != 0 || free != DataBlockCount {
		t.Errorf("Stats() = %d/%d, want 0/%d", used, free, DataBlockCount)
	}
}

func TestLoadSingleSave(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{3}, "BA", "SLUS-00594", "HERC", "HERCULES", 0x11)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 1 {
		t.Fatalf("got %d saves, want 1", len(saves))
	}
	s := saves[0]

	if s.Corrupted {
		t.Error("save flagged corrupted")
	}
	if s.Filename() != "BASLUS-00594HERC" {
		t.Errorf("Filename() = %q, want %q", s.Filename(), "BASLUS-00594HERC")
	}
	if s.Region != RegionAmerica {
		t.Errorf("Region = %s, want America", s.Region)
	}
	if s.Slot() != 4 {
		t.Errorf("Slot() = %d, want 4", s.Slot())
	}
	if s.Title != "HERCULES" || !s.TitleValid {
		t.Errorf("title = %q/%v, want %q/true", s.Title, s.TitleValid,
			"HERCULES")
	}
	if s.Icon.FrameCount() != 1 {
		t.Errorf("FrameCount() = %d, want 1", s.Icon.FrameCount())
	}
	if s.Size() != BlockSize-SaveHeaderSize {
		t.Errorf("Size() = %d, want %d", s.Size(), BlockSize-SaveHeaderSize)
	}
	if used, free := c.Stats(); used != 1 || free != DataBlockCount-1 {
		t.Errorf("Stats() = %d/%d, want 1/%d", used, free, DataBlockCount-1)
	}
}

func TestLoadChainOrder(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{2, 5, 9}, "BE", "SCES-01234", "DATA", "CHAINED!",
		0x13)

	// recognizable payload across block boundaries
	for _, b := range []int{2, 5, 9} {
		off := (b + 1) * BlockSize
		for ix := 0; ix < BlockSize; ix++ {
			if b != 2 || ix >= SaveHeaderSize {
				img[off+ix] = byte(b)
			}
		}
	}

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 1 {
		t.Fatalf("got %d saves, want 1", len(saves))
	}
	s := saves[0]

	if want := []int{2, 5, 9}; len(s.Blocks) != len(want) ||
		s.Blocks[0] != 2 || s.Blocks[1] != 5 || s.Blocks[2] != 9 {
		t.Errorf("Blocks = %v, want %v", s.Blocks, want)
	}
	if s.Corrupted {
		t.Error("save flagged corrupted")
	}
	if s.Region != RegionEurope {
		t.Errorf("Region = %s, want Europe", s.Region)
	}
	if s.Icon.FrameCount() != 3 {
		t.Errorf("FrameCount() = %d, want 3", s.Icon.FrameCount())
	}

	p := s.Payload()
	if len(p) != 3*BlockSize-SaveHeaderSize {
		t.Fatalf("payload length = %d, want %d", len(p),
			3*BlockSize-SaveHeaderSize)
	}
	// link order, not block storage order
	if p[0] != 2 || p[BlockSize-SaveHeaderSize] != 5 ||
		p[2*BlockSize-SaveHeaderSize] != 9 {
		t.Error("payload not concatenated in link order")
	}
}

func TestChainCycle(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{2, 5}, "BA", "SLUS-00001", "LOOP", "LOOPING!", 0x11)

	// middle block linking back onto the chain
	f := dirFrame(img, 5)
	f[0] = rawStateMiddle
	f[8] = 2
	seal(f)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 1 {
		t.Fatalf("got %d saves, want 1", len(saves))
	}
	s := saves[0]

	if !s.Corrupted {
		t.Error("cyclic chain not flagged corrupted")
	}
	if len(s.Blocks) != 2 || s.Blocks[0] != 2 || s.Blocks[1] != 5 {
		t.Errorf("Blocks = %v, want [2 5]", s.Blocks)
	}
}

func TestChainLinkOutOfRange(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{0}, "BA", "SLUS-00002", "OOR1", "BROKEN!!", 0x11)

	f := dirFrame(img, 0)
	f[8] = 42
	seal(f)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 1 {
		t.Fatalf("got %d saves, want 1", len(saves))
	}
	if !saves[0].Corrupted {
		t.Error("out of range link not flagged corrupted")
	}
	if len(saves[0].Blocks) != 1 {
		t.Errorf("Blocks = %v, want [0]", saves[0].Blocks)
	}
}

func TestChainTruncated(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{1, 4}, "BA", "SLUS-00003", "CUT0", "TRUNCATE", 0x11)

	// middle block ends the chain, last block is gone
	f := dirFrame(img, 4)
	f[0] = rawStateMiddle
	f[8] = ChainEnd
	seal(f)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 1 {
		t.Fatalf("got %d saves, want 1", len(saves))
	}
	if !saves[0].Corrupted {
		t.Error("truncated chain not flagged corrupted")
	}
}

func TestOrphanBlocks(t *testing.T) {

	img := newTestImage()

	// middle and last entries no chain reaches
	for ix, raw := range map[int]byte{6: rawStateMiddle, 11: rawStateLast} {
		f := dirFrame(img, ix)
		f[0] = raw
		f[8] = ChainEnd
		seal(f)
	}

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 2 {
		t.Fatalf("got %d saves, want 2", len(saves))
	}

	for i, want := range []int{6, 11} {
		s := saves[i]
		if !s.Orphan || !s.Corrupted {
			t.Errorf("save %d: orphan=%v corrupted=%v, want true/true",
				i, s.Orphan, s.Corrupted)
		}
		if len(s.Blocks) != 1 || s.Blocks[0] != want {
			t.Errorf("save %d: Blocks = %v, want [%d]", i, s.Blocks, want)
		}
	}
}

func TestChecksumMismatchIsolated(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{0}, "BA", "SLUS-00100", "GOOD", "INTACT!!", 0x11)
	writeSave(img, []int{7}, "BI", "SLPS-00200", "BAD0", "DAMAGED!", 0x11)

	// break the checksum of the second save's directory frame
	dirFrame(img, 7)[FrameSize-1] ^= 0xff

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 2 {
		t.Fatalf("got %d saves, want 2", len(saves))
	}

	if saves[0].Corrupted {
		t.Error("intact save flagged corrupted")
	}
	if !saves[1].Corrupted {
		t.Error("save with broken directory checksum not flagged")
	}
	if !errors.Is(c.Directory()[7].ValidationError(), ErrChecksumMismatch) {
		t.Errorf("ValidationError() = %v, want ErrChecksumMismatch",
			c.Directory()[7].ValidationError())
	}
}

func TestBadCardHeader(t *testing.T) {

	img := newTestImage()
	img[0] = 'X'
	writeSave(img, []int{0}, "BA", "SLUS-00300", "HDRX", "SURVIVES", 0x11)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if c.HeaderValid() {
		t.Error("HeaderValid() = true, want false")
	}
	if len(c.Saves()) != 1 {
		t.Errorf("got %d saves, want 1", len(c.Saves()))
	}
}

func TestBadSaveMagic(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{0}, "BA", "SLUS-00400", "MGCX", "NOMAGIC!", 0x11)
	copy(img[BlockSize:], "XX")

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 1 {
		t.Fatalf("got %d saves, want 1", len(saves))
	}
	if !saves[0].Corrupted {
		t.Error("save with bad header magic not flagged corrupted")
	}
	if saves[0].Size() != BlockSize-SaveHeaderSize {
		t.Error("payload not recovered for save with bad header magic")
	}
}

func TestSaveLengthMismatch(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{0}, "BA", "SLUS-00500", "LEN0", "TOOLONG!", 0x11)

	f := dirFrame(img, 0)
	binary.LittleEndian.PutUint32(f[4:], uint32(2*BlockSize))
	seal(f)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	saves := c.Saves()
	if len(saves) != 1 {
		t.Fatalf("got %d saves, want 1", len(saves))
	}
	if !saves[0].Corrupted {
		t.Error("length mismatch not flagged corrupted")
	}
	if len(saves[0].Blocks) != 1 {
		t.Errorf("Blocks = %v, want [0]", saves[0].Blocks)
	}
}

func TestDeletedSavesNotSurfaced(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{0}, "BA", "SLUS-00600", "DEL0", "DELETED!", 0x11)

	f := dirFrame(img, 0)
	f[0] = rawStateDeletedFirst
	seal(f)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(c.Saves()) != 0 {
		t.Errorf("got %d saves, want 0", len(c.Saves()))
	}
}

func TestDecodeState(t *testing.T) {

	for raw, want := range map[byte]BlockState{
		0xa0: StateFree,
		0xa1: StateFormattedUnused,
		0xa2: StateFormattedUnused,
		0xa3: StateFormattedUnused,
		0x51: StateUsedFirst,
		0x52: StateUsedMiddle,
		0x53: StateUsedLast,
		0xff: StateUnusable,
		0x00: StateCorrupted,
		0x54: StateCorrupted,
	} {
		if got := decodeState(raw); got != want {
			t.Errorf("decodeState(%#02x) = %s, want %s", raw, got, want)
		}
	}
}

func TestEmit(t *testing.T) {

	img := newTestImage()
	writeSave(img, []int{0}, "BA", "SLUS-00700", "EMIT", "EMITTING", 0x11)

	c, err := Load(img, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	var buf bytes.Buffer
	c.Emit(&buf)

	out := buf.String()
	for _, want := range []string{"CARD:", "1 blocks used", "SAVE:",
		"BASLUS-00700EMIT"} {
		if !strings.Contains(out, want) {
			t.Errorf("Emit() output misses %q", want)
		}
	}
}

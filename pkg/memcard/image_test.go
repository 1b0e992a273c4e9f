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
	"errors"
	"testing"
)

func TestLoadImageCopies(t *testing.T) {

	data := newTestImage()
	img, err := LoadImage(data)
	if err != nil {
		t.Fatalf("LoadImage() failed: %v", err)
	}

	data[0] = 0xde
	if b, _ := img.Frame(0, 0); b[0] == 0xde {
		t.Error("image shares the caller's buffer")
	}
}

func TestImageSlicing(t *testing.T) {

	data := make([]byte, ImageSize)
	data[5*BlockSize+3*FrameSize] = 0x42

	img, err := LoadImage(data)
	if err != nil {
		t.Fatalf("LoadImage() failed: %v", err)
	}

	if b, err := img.Block(5); err != nil || len(b) != BlockSize ||
		b[3*FrameSize] != 0x42 {
		t.Errorf("Block(5) = %d bytes, err %v", len(b), err)
	}

	if f, err := img.Frame(5, 3); err != nil || len(f) != FrameSize ||
		f[0] != 0x42 {
		t.Errorf("Frame(5, 3) = %d bytes, err %v", len(f), err)
	}

	// data block 4 is card block 5
	if b, err := img.DataBlock(4); err != nil || b[3*FrameSize] != 0x42 {
		t.Errorf("DataBlock(4) err %v", err)
	}
}

func TestImageOutOfRange(t *testing.T) {

	img, err := LoadImage(make([]byte, ImageSize))
	if err != nil {
		t.Fatalf("LoadImage() failed: %v", err)
	}

	for _, call := range []func() ([]byte, error){
		func() ([]byte, error) { return img.Slice(-1, 10) },
		func() ([]byte, error) { return img.Slice(0, -1) },
		func() ([]byte, error) { return img.Slice(ImageSize, 1) },
		func() ([]byte, error) { return img.Block(BlockCount) },
		func() ([]byte, error) { return img.Frame(0, FramesPerBlock) },
		func() ([]byte, error) { return img.Frame(0, -1) },
		func() ([]byte, error) { return img.DataBlock(DataBlockCount) },
		func() ([]byte, error) { return img.DataBlock(-1) },
	} {
		if _, err := call(); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("err = %v, want ErrOutOfRange", err)
		}
	}
}

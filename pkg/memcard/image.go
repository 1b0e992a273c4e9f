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
	"fmt"
)

// LoadImage validates the size of a raw card image and wraps it in an
// Image. The input buffer is copied, so the caller keeps no handle into
// the bytes the card is decoded from.
func LoadImage(data []byte) (*Image, error) {

	if len(data) != ImageSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d",
			ErrInvalidImageSize, ImageSize, len(data))
	}

	img := &Image{data: make([]byte, ImageSize)}
	copy(img.data, data)

	return img, nil
}

// Image is the immutable byte buffer of a card image. There is no
// mutation API; slices handed out by the accessors must be treated as
// read-only views.
type Image struct {
	data []byte
}

//
func (i *Image) Size() int {
	return len(i.data)
}

//
func (i *Image) Slice(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(i.data) {
		return nil, fmt.Errorf("%w: offset %d, length %d",
			ErrOutOfRange, offset, length)
	}
	return i.data[offset : offset+length], nil
}

// Block returns the 8k block at the given card block index (0-15).
func (i *Image) Block(block int) ([]byte, error) {
	return i.Slice(block*BlockSize, BlockSize)
}

// Frame returns the 128 byte frame at the given block & frame index.
func (i *Image) Frame(block, frame int) ([]byte, error) {
	if frame < 0 || frame >= FramesPerBlock {
		return nil, fmt.Errorf("%w: frame %d", ErrOutOfRange, frame)
	}
	return i.Slice(block*BlockSize+frame*FrameSize, FrameSize)
}

// DataBlock returns the block for the given data block index (0-14, i.e.
// card blocks 1-15).
func (i *Image) DataBlock(ix int) ([]byte, error) {
	if ix < 0 || ix >= DataBlockCount {
		return nil, fmt.Errorf("%w: data block %d", ErrOutOfRange, ix)
	}
	return i.Block(ix + 1)
}

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

// Package memcard decodes raw PlayStation 1 memory card images into a set
// of save entries. Decoding is strictly best effort: apart from an image of
// the wrong size, nothing aborts a load. Checksum mismatches, broken block
// chains, and undecodable headers are captured as corruption flags on the
// affected entries, which remain exposed with whatever data could be
// recovered.
package memcard

import (
	"errors"
)

// card geometry
const (
	ImageSize      = 131072 // raw image, 16 blocks
	BlockSize      = 8192
	FrameSize      = 128
	BlockCount     = 16
	DataBlockCount = 15 // blocks 1-15, block 0 is the directory
	FramesPerBlock = 64

	// length of the save header at the start of the first block of a
	// chain; stripped from the payload
	SaveHeaderSize = FrameSize
)

// ChainEnd is the next-block sentinel terminating a chain.
const ChainEnd = 0xFF

//
var (
	ErrInvalidImageSize = errors.New("invalid image size")
	ErrOutOfRange       = errors.New("read out of range")
	ErrChecksumMismatch = errors.New("directory frame checksum mismatch")
	ErrCorruptChain     = errors.New("corrupt block chain")
)

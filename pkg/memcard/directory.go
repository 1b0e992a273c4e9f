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

	"github.com/emusave/ps1mcfs/pkg/util"
)

// on-card block state codes
const (
	rawStateAvailable     = 0xA0
	rawStateDeletedFirst  = 0xA1
	rawStateDeletedMiddle = 0xA2
	rawStateDeletedLast   = 0xA3
	rawStateFirst         = 0x51
	rawStateMiddle        = 0x52
	rawStateLast          = 0x53
	rawStateUnusable      = 0xFF
)

//
type BlockState int

const (
	StateFree BlockState = iota
	StateFormattedUnused
	StateUsedFirst
	StateUsedMiddle
	StateUsedLast
	StateUnusable
	StateCorrupted
)

//
func (s BlockState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateFormattedUnused:
		return "unused"
	case StateUsedFirst:
		return "first"
	case StateUsedMiddle:
		return "middle"
	case StateUsedLast:
		return "last"
	case StateUnusable:
		return "unusable"
	}
	return "corrupted"
}

// decodeState maps an on-card state code to a block state. 0xA0 marks a
// formatted block available for new saves, the 0xA1-0xA3 codes mark
// blocks of a deleted save, and 0xFF marks a block the console will not
// use at all; none of these are surfaced. Anything unrecognized is
// treated as corrupted, never as a parse abort.
func decodeState(raw byte) BlockState {
	switch raw {
	case rawStateFirst:
		return StateUsedFirst
	case rawStateMiddle:
		return StateUsedMiddle
	case rawStateLast:
		return StateUsedLast
	case rawStateAvailable:
		return StateFree
	case rawStateDeletedFirst, rawStateDeletedMiddle, rawStateDeletedLast:
		return StateFormattedUnused
	case rawStateUnusable:
		return StateUnusable
	}
	return StateCorrupted
}

// DirectoryEntry is the decoded bookkeeping frame of one data block
// (frames 1-15 of block 0, one per data block).
type DirectoryEntry struct {
	//
	Block     int // data block index, 0-14
	State     BlockState
	RawState  byte
	NextBlock byte // raw link pointer, ChainEnd terminates
	//
	SaveLength int
	Country    string
	Product    string
	Identifier string
	//
	validation util.Validation
}

// Filename is the save name as the console presents it, the concatenation
// of country code, product code and identifier.
func (e *DirectoryEntry) Filename() string {
	return e.Country + e.Product + e.Identifier
}

//
func (e *DirectoryEntry) ValidationError() error {
	return e.validation.GetError()
}

// Corrupted reports whether the entry failed its checksum or carries an
// unrecognized state code.
func (e *DirectoryEntry) Corrupted() bool {
	return e.State == StateCorrupted || e.validation.GetError() != nil
}

// parseDirectory decodes the 15 directory frames of block 0. A checksum
// mismatch only flags the affected entry, the other entries are decoded
// unaffected. This never fails wholesale; the image size was validated
// at load.
func parseDirectory(img *Image) [DataBlockCount]DirectoryEntry {

	var dir [DataBlockCount]DirectoryEntry

	for ix := 0; ix < DataBlockCount; ix++ {

		data, err := img.Frame(0, ix+1)
		if err != nil { // unreachable with a validated image
			dir[ix] = DirectoryEntry{Block: ix, State: StateCorrupted}
			continue
		}

		f := newFrame(directoryIndex, data)

		e := DirectoryEntry{
			Block:      ix,
			State:      decodeState(f.getByte("state")),
			RawState:   f.getByte("state"),
			NextBlock:  f.getByte("nextBlock"),
			SaveLength: f.getInt("saveLength"),
			Country:    f.getString("country"),
			Product:    f.getString("product"),
			Identifier: f.getString("identifier"),
		}

		want := f.getByte("checksum")
		if got := f.xorSum("body"); want != got {
			e.validation.SetError(fmt.Errorf(
				"%w: block %d, want %#02x, got %#02x",
				ErrChecksumMismatch, ix, want, got))
		}

		dir[ix] = e
	}

	return dir
}

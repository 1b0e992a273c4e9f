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
	"strings"
)

// field positions within a directory frame: offset & length
var directoryIndex = map[string][2]int{
	"state":      {0, 1},
	"saveLength": {4, 4},
	"nextBlock":  {8, 1},
	"nextFrame":  {9, 1},
	"country":    {10, 2},
	"product":    {12, 10},
	"identifier": {22, 8},
	"body":       {0, 127},
	"checksum":   {127, 1},
}

// field positions within the save header frame of a chain's first block
var saveHeaderIndex = map[string][2]int{
	"magic":      {0, 2},
	"iconFlags":  {2, 1},
	"blockCount": {3, 1},
	"title":      {4, 64},
	"palette":    {96, 32},
}

//
func newFrame(index map[string][2]int, data []byte) *frame {
	return &frame{index: index, data: data}
}

// frame provides access to the fields of a 128 byte frame, based on a
// field index map
type frame struct {
	index map[string][2]int
	data  []byte
}

//
func (f *frame) get(field string) []byte {
	if ix, ok := f.index[field]; ok && ix[0]+ix[1] <= len(f.data) {
		return f.data[ix[0] : ix[0]+ix[1]]
	}
	return nil
}

//
func (f *frame) getByte(field string) byte {
	if b := f.get(field); len(b) > 0 {
		return b[0]
	}
	return 0
}

// getInt reads the field as a little-endian unsigned integer
func (f *frame) getInt(field string) int {
	ret := 0
	b := f.get(field)
	for ix := len(b) - 1; ix >= 0; ix-- {
		ret = ret<<8 | int(b[ix])
	}
	return ret
}

// getString reads the field as ASCII, cut at the first NUL byte and
// trimmed of trailing blanks
func (f *frame) getString(field string) string {
	s := string(f.get(field))
	if ix := strings.IndexByte(s, 0); ix != -1 {
		s = s[:ix]
	}
	return strings.TrimRight(s, " ")
}

// xorSum computes the XOR checksum over the field
func (f *frame) xorSum(field string) byte {
	var sum byte
	for _, b := range f.get(field) {
		sum ^= b
	}
	return sum
}

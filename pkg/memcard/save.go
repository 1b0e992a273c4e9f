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
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// SaveMagic marks the save header frame at the start of a chain.
const SaveMagic = "SC"

//
type Region int

const (
	RegionUnknown Region = iota
	RegionAmerica
	RegionEurope
	RegionJapan
)

//
func (r Region) String() string {
	switch r {
	case RegionAmerica:
		return "America"
	case RegionEurope:
		return "Europe"
	case RegionJapan:
		return "Japan"
	}
	return "Unknown"
}

// decodeRegion maps the country code of a directory entry to a region.
// Unrecognized codes decode to Unknown, they are not an error.
func decodeRegion(country string) Region {
	switch country {
	case "BA":
		return RegionAmerica
	case "BE":
		return RegionEurope
	case "BI":
		return RegionJapan
	}
	return RegionUnknown
}

/*
	Options carry the platform specific decode tables. The exact title
	encoding and palette channel order are legacy conventions that vary
	between dump tools, so they are injectable rather than hard-coded.
	Zero values select the console defaults, Shift-JIS titles and a
	red-low 5 bit palette layout.
*/
type Options struct {
	TitleEncoding encoding.Encoding
	Palette       *PaletteLayout
}

//
func (o *Options) titleEncoding() encoding.Encoding {
	if o != nil && o.TitleEncoding != nil {
		return o.TitleEncoding
	}
	return japanese.ShiftJIS
}

//
func (o *Options) palette() *PaletteLayout {
	if o != nil && o.Palette != nil {
		return o.Palette
	}
	return &defaultPaletteLayout
}

// PaletteLayout gives the bit position of each channel within a packed
// 16 bit palette entry, as stored little-endian on the card.
type PaletteLayout struct {
	RedShift, GreenShift, BlueShift, AlphaShift uint
}

var defaultPaletteLayout = PaletteLayout{
	RedShift: 0, GreenShift: 5, BlueShift: 10, AlphaShift: 15,
}

// Color is one palette entry, 5 bits per channel plus the
// semi-transparency bit.
type Color struct {
	R, G, B byte
	Mask    bool
}

//
func (l *PaletteLayout) decode(v uint16) Color {
	return Color{
		R:    byte(v >> l.RedShift & 0x1f),
		G:    byte(v >> l.GreenShift & 0x1f),
		B:    byte(v >> l.BlueShift & 0x1f),
		Mask: v>>l.AlphaShift&1 == 1,
	}
}

// Icon is the decoded save icon, a 16 entry palette and 1-3 animation
// frames of 16x16 pixel indexes at 4 bits per pixel.
type Icon struct {
	Palette [16]Color
	//
	rawPalette []byte
	frames     [][]byte
}

//
func (i *Icon) FrameCount() int {
	return len(i.frames)
}

// Raw returns the raw bytes of one animation frame, the packed palette
// followed by the pixel indexes.
func (i *Icon) Raw(frame int) []byte {
	if frame < 0 || frame >= len(i.frames) {
		return nil
	}
	ret := make([]byte, 0, len(i.rawPalette)+len(i.frames[frame]))
	ret = append(ret, i.rawPalette...)
	return append(ret, i.frames[frame]...)
}

// Save is one decoded save, the ordered blocks of its chain plus the
// metadata from its header frame. A save is never dropped for being
// corrupted; Corrupted marks it and the payload holds whatever was
// recoverable.
type Save struct {
	//
	Blocks []int // data block indexes, in link order
	//
	Region     Region
	Country    string
	Product    string
	Identifier string
	//
	Title      string
	TitleValid bool
	Icon       Icon
	//
	Corrupted bool
	Orphan    bool
	//
	payload []byte
}

// Filename is the save name as the console presents it.
func (s *Save) Filename() string {
	return s.Country + s.Product + s.Identifier
}

// Slot is the card slot of the first block of the save, 1-15.
func (s *Save) Slot() int {
	return s.Blocks[0] + 1
}

// Payload returns the save data, all blocks of the chain in link order
// with the header frame stripped. Treat as read-only.
func (s *Save) Payload() []byte {
	return s.payload
}

//
func (s *Save) Size() int {
	return len(s.payload)
}

//
func (s *Save) Emit(w io.Writer) {
	io.WriteString(w, fmt.Sprintf(
		"\nSAVE: %+q - file: %s, region: %s, slot: %d, blocks: %v, corrupted: %v\n",
		s.Title, s.Filename(), s.Region, s.Slot(), s.Blocks, s.Corrupted))
	d := hex.Dumper(w)
	defer d.Close()
	d.Write(s.payload)
}

// decodeSave decodes the chain into a save entry. Header problems only
// ever degrade the entry, the raw payload stays available regardless.
func decodeSave(
	img *Image, dir *[DataBlockCount]DirectoryEntry, c chain,
	opts *Options) *Save {

	e := &dir[c.blocks[0]]

	s := &Save{
		Blocks:     c.blocks,
		Region:     decodeRegion(e.Country),
		Country:    e.Country,
		Product:    e.Product,
		Identifier: e.Identifier,
		Corrupted:  c.corrupted,
		Orphan:     c.orphan,
	}

	data, err := img.Frame(c.blocks[0]+1, 0)
	if err != nil { // unreachable with a validated image
		s.Corrupted = true
		return s
	}

	f := newFrame(saveHeaderIndex, data)

	if string(f.get("magic")) != SaveMagic {
		s.Corrupted = true
	}

	s.Title, s.TitleValid = decodeTitle(f.get("title"), opts.titleEncoding())
	s.Icon = decodeIcon(img, c.blocks[0], f, opts.palette())

	payload := make([]byte, 0, len(c.blocks)*BlockSize-SaveHeaderSize)
	for _, b := range c.blocks {
		block, err := img.DataBlock(b)
		if err != nil { // unreachable with a validated image
			s.Corrupted = true
			break
		}
		payload = append(payload, block...)
	}
	if len(payload) > SaveHeaderSize {
		payload = payload[SaveHeaderSize:]
	}
	s.payload = payload

	return s
}

// decodeTitle decodes the title field with the configured legacy
// encoding. This cannot fail: byte sequences the encoding cannot
// represent yield a raw-escaped fallback and a cleared validity flag.
func decodeTitle(raw []byte, enc encoding.Encoding) (string, bool) {

	if ix := indexNul(raw); ix != -1 {
		raw = raw[:ix]
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err == nil && utf8.Valid(decoded) &&
		!strings.ContainsRune(string(decoded), utf8.RuneError) {
		return strings.TrimSpace(string(decoded)), true
	}

	return strconv.QuoteToASCII(string(raw)), false
}

// titles are double-byte encoded, the terminator is a NUL in the first
// byte of a pair
func indexNul(raw []byte) int {
	for ix := 0; ix < len(raw); ix += 2 {
		if raw[ix] == 0 {
			return ix
		}
	}
	return -1
}

// decodeIcon reads the palette and animation frames of the save icon
// from the first block. An unrecognized frame count decodes to no
// frames, never to a failure.
func decodeIcon(
	img *Image, first int, header *frame, layout *PaletteLayout) Icon {

	icon := Icon{}

	pal := header.get("palette")
	icon.rawPalette = make([]byte, len(pal))
	copy(icon.rawPalette, pal)

	for ix := 0; ix < len(pal)/2 && ix < len(icon.Palette); ix++ {
		v := uint16(pal[ix*2]) | uint16(pal[ix*2+1])<<8
		icon.Palette[ix] = layout.decode(v)
	}

	count := 0
	if flags := header.getByte("iconFlags"); flags&0xf0 == 0x10 {
		count = int(flags & 0x0f)
	}
	if count < 1 || count > 3 {
		return icon
	}

	for ix := 0; ix < count; ix++ {
		if data, err := img.Frame(first+1, 1+ix); err == nil {
			frame := make([]byte, len(data))
			copy(frame, data)
			icon.frames = append(icon.frames, frame)
		}
	}

	return icon
}

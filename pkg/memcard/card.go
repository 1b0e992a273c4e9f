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

	log "github.com/sirupsen/logrus"
)

// CardMagic marks the directory block of a formatted card.
const CardMagic = "MC"

/*
	Load decodes a raw card image into a Card. This runs once,
	synchronously; the returned card is immutable and safe for concurrent
	readers. The only hard failure is an image of the wrong size, every
	other problem the image may have is captured as a corruption flag on
	the affected save.
*/
func Load(data []byte, opts *Options) (*Card, error) {

	img, err := LoadImage(data)
	if err != nil {
		return nil, err
	}

	c := &Card{img: img}
	c.checkHeader()
	c.dir = parseDirectory(img)

	corrupted := 0
	for _, ch := range resolveChains(&c.dir) {
		s := decodeSave(img, &c.dir, ch, opts)
		if s.Corrupted {
			corrupted++
		}
		c.saves = append(c.saves, s)
	}

	log.WithFields(log.Fields{
		"saves":     len(c.saves),
		"corrupted": corrupted,
		"formatted": c.headerValid,
	}).Debug("card loaded")

	return c, nil
}

// Card is a fully decoded memory card image. It is built once by Load
// and never mutated afterwards.
type Card struct {
	img         *Image
	dir         [DataBlockCount]DirectoryEntry
	saves       []*Save
	headerValid bool
}

// the directory block carries its own magic and checksum; a mismatch is
// recorded but never prevents decoding
func (c *Card) checkHeader() {

	data, err := c.img.Frame(0, 0)
	if err != nil {
		return
	}

	f := newFrame(map[string][2]int{
		"magic":    {0, 2},
		"body":     {0, 127},
		"checksum": {127, 1},
	}, data)

	c.headerValid = string(f.get("magic")) == CardMagic &&
		f.xorSum("body") == f.getByte("checksum")

	if !c.headerValid {
		log.Warn("card header invalid, decoding anyway")
	}
}

// Saves returns the decoded saves, ordered by ascending first block
// index.
func (c *Card) Saves() []*Save {
	return c.saves
}

//
func (c *Card) Directory() []DirectoryEntry {
	return c.dir[:]
}

//
func (c *Card) Image() *Image {
	return c.img
}

// HeaderValid reports whether the directory block carried the expected
// magic and checksum.
func (c *Card) HeaderValid() bool {
	return c.headerValid
}

// Stats returns how many of the 15 data blocks are claimed by saves.
func (c *Card) Stats() (used, free int) {
	for _, s := range c.saves {
		used += len(s.Blocks)
	}
	return used, DataBlockCount - used
}

//
func (c *Card) Emit(w io.Writer) {

	used, free := c.Stats()
	io.WriteString(w, fmt.Sprintf(
		"\nCARD: formatted: %v, %d blocks used, %d free\n",
		c.headerValid, used, free))

	if data, err := c.img.Block(0); err == nil {
		d := hex.Dumper(w)
		d.Write(data[:FrameSize*(DataBlockCount+1)])
		d.Close()
	}

	for _, s := range c.saves {
		s.Emit(w)
	}
}

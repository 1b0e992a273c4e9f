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

package format

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/emusave/ps1mcfs/pkg/memcard"
)

// raw image offsets of the known dump containers
const (
	pspOffset      = 0x80
	dexDriveOffset = 0xf40
)

// DetectContainer returns the container type and the offset of the raw
// card image within the dump. A buffer of exactly the raw image size
// passes as a raw image even without the card magic, so that cards with
// a corrupted header still load.
func DetectContainer(data []byte) (string, int, error) {

	if len(data) >= 12 {
		switch {
		case bytes.Equal(data[:2], []byte(memcard.CardMagic)):
			return "raw", 0, nil
		case bytes.Equal(data[1:4], []byte("PMV")):
			return "psp", pspOffset, nil
		case bytes.Equal(data[:11], []byte("123-456-STD")):
			return "dexdrive", dexDriveOffset, nil
		}
	}

	if len(data) == memcard.ImageSize {
		return "raw", 0, nil
	}

	return "", 0, fmt.Errorf("unrecognized card dump format")
}

// ReadImage reads a card dump and returns the raw image bytes with any
// container prefix stripped.
func ReadImage(r io.Reader) ([]byte, error) {

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	container, offset, err := DetectContainer(data)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"container": container,
		"offset":    offset,
		"size":      len(data)}).Debug("card dump detected")

	if len(data) < offset+memcard.ImageSize {
		return nil, fmt.Errorf("%w: %s dump truncated at %d bytes",
			memcard.ErrInvalidImageSize, container, len(data))
	}

	return data[offset : offset+memcard.ImageSize], nil
}

// LoadFile reads the raw card image from a dump file, transparently
// uncompressing based on the file extension.
func LoadFile(file string) ([]byte, error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	_, compressor := SplitNameCompressor(file)

	rd, err := NewImageReader(
		io.NopCloser(bufio.NewReader(f)), compressor)
	if err != nil {
		return nil, err
	}

	return ReadImage(rd)
}

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

package run

import (
	"strings"

	"github.com/emusave/ps1mcfs/pkg/format"
	"github.com/emusave/ps1mcfs/pkg/memcard"
	"github.com/emusave/ps1mcfs/pkg/repo"
)

// loadCard decodes a card dump reference, either a local file or an
// http(s) URL.
func loadCard(ref string) (*memcard.Card, error) {

	data, err := loadDump(ref)
	if err != nil {
		return nil, err
	}
	return memcard.Load(data, nil)
}

//
func loadDump(ref string) ([]byte, error) {

	if !strings.HasPrefix(ref, "http://") &&
		!strings.HasPrefix(ref, "https://") {
		return format.LoadFile(ref)
	}

	src, err := repo.Resolve(ref, "")
	if err != nil {
		return nil, err
	}
	defer src.Close()

	_, compressor := format.SplitNameCompressor(ref)
	rd, err := format.NewImageReader(src, compressor)
	if err != nil {
		return nil, err
	}

	return format.ReadImage(rd)
}

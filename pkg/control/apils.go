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

package control

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emusave/ps1mcfs/pkg/format"
	"github.com/emusave/ps1mcfs/pkg/memcard"
	"github.com/emusave/ps1mcfs/pkg/repo"
	"github.com/emusave/ps1mcfs/pkg/vfs"
)

// SaveInfo is the JSON shape of one listed save.
type SaveInfo struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Region    string `json:"region"`
	Slot      int    `json:"slot"`
	Blocks    int    `json:"blocks"`
	Size      int    `json:"size"`
	Corrupted bool   `json:"corrupted"`
}

// refCard resolves the card a request operates on: a library dump
// referenced with the 'ref' argument, or the loaded card.
func (a *APIServer) refCard(req *http.Request) (*memcard.Card, error) {

	ref := getArg(req, "ref")
	if ref == "" {
		if a.card == nil {
			return nil, fmt.Errorf("no card loaded")
		}
		return a.card, nil
	}

	src, err := repo.Resolve(ref, a.library)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	_, compressor := format.SplitNameCompressor(ref)
	rd, err := format.NewImageReader(src, compressor)
	if err != nil {
		return nil, err
	}

	data, err := format.ReadImage(rd)
	if err != nil {
		return nil, err
	}

	return memcard.Load(data, nil)
}

//
func (a *APIServer) list(w http.ResponseWriter, req *http.Request) {

	card, err := a.refCard(req)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if wantsJSON(req) {
		saves := card.Saves()
		ret := make([]SaveInfo, len(saves))
		for ix, s := range saves {
			ret[ix] = SaveInfo{
				Name:      s.Filename(),
				Title:     s.Title,
				Region:    s.Region.String(),
				Slot:      s.Slot(),
				Blocks:    len(s.Blocks),
				Size:      s.Size(),
				Corrupted: s.Corrupted,
			}
		}
		sendJSONReply(ret, http.StatusOK, w)
		return
	}

	read, write := io.Pipe()

	go func() {
		WriteSaveList(write, card)
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}

// dump streams a hex dump of one file in the projected tree, or of the
// whole card if no path is given.
func (a *APIServer) dump(w http.ResponseWriter, req *http.Request) {

	card, err := a.refCard(req)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	view := a.view
	if card != a.card || view == nil {
		view = vfs.Build(card, time.Now())
	}

	var data []byte

	path := getArg(req, "file")
	if path != "" {
		node, err := view.Lookup(path)
		if handleError(err, http.StatusNotFound, w) {
			return
		}
		if data, err = view.Read(node, 0, int(node.Size())); handleError(
			err, http.StatusUnprocessableEntity, w) {
			return
		}
	}

	read, write := io.Pipe()

	go func() {
		if path != "" {
			d := hex.Dumper(write)
			d.Write(data)
			d.Close()
		} else {
			card.Emit(write)
		}
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}

//
func WriteSaveList(w io.Writer, c *memcard.Card) {

	fmt.Fprintf(w, "\nslot  name                  size  region   title\n\n")

	for _, s := range c.Saves() {
		flag := " "
		if s.Corrupted {
			flag = "!"
		}
		fmt.Fprintf(w, "%4d%s %-20s%7d  %-8s %s\n",
			s.Slot(), flag, s.Filename(), s.Size(), s.Region, s.Title)
	}

	used, free := c.Stats()
	fmt.Fprintf(w, "\n%d of %d blocks used (%dkb free)\n\n",
		used, memcard.DataBlockCount, free*memcard.BlockSize/1024)
}

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
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/emusave/ps1mcfs/pkg/vfs"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		"dump [-i|--input {file}] [-f|--file {path}] [-a|--address {address}]",
		"dump card or save file contents",
		`
Use the dump command to output a hex dump of a file from the projected card
tree, e.g. 'SLUS-00594HERC/data.bin', or of the whole card when no file is
given. Works on a dump file or against the daemon.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Input, "input", "i", "", nil, "card dump file", false)
	d.AddSetting(&d.File, "file", "f", "", nil, "file in the card tree to dump", false)

	return d
}

//
type Dump struct {
	Runner
	//
	Input string
	File  string
}

//
func (d *Dump) Run() error {

	d.ParseSettings()

	if d.Input != "" {
		card, err := loadCard(d.Input)
		if err != nil {
			return err
		}

		if d.File == "" {
			card.Emit(os.Stdout)
			return nil
		}

		view := vfs.Build(card, time.Now())
		node, err := view.Lookup(d.File)
		if err != nil {
			return err
		}
		bytes, err := view.Read(node, 0, int(node.Size()))
		if err != nil {
			return err
		}

		dumper := hex.Dumper(os.Stdout)
		defer dumper.Close()
		dumper.Write(bytes)
		return nil
	}

	resp, err := d.apiCall("GET",
		fmt.Sprintf("/dump?file=%s", url.QueryEscape(d.File)), false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(os.Stdout, resp)
	return err
}

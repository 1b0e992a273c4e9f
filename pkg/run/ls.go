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
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/emusave/ps1mcfs/pkg/control"
)

//
func NewLs() *Ls {

	l := &Ls{}
	l.Runner = *NewRunner(
		"ls [-i|--input {file|url}] [-a|--address {address}] [{ref}]",
		"list saves on a memory card",
		"\nUse the ls command to list the saves on a memory card, from a dump file, a URL, or from the daemon. When asking the daemon, a library dump can be referenced instead of the loaded card.",
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Input, "input", "i", "", nil, "card dump file", false)

	return l
}

//
type Ls struct {
	Runner
	//
	Input string
}

//
func (l *Ls) Run() error {

	l.ParseSettings()

	if l.Input != "" {
		card, err := loadCard(l.Input)
		if err != nil {
			return err
		}
		control.WriteSaveList(os.Stdout, card)
		return nil
	}

	path := "/ls"
	if ref := l.Arg(0); ref != "" {
		path = fmt.Sprintf("/ls?ref=%s", url.QueryEscape(ref))
	}

	resp, err := l.apiCall("GET", path, false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(os.Stdout, resp)
	return err
}

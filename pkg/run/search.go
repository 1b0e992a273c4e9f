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
)

//
func NewSearch() *Search {

	s := &Search{}
	s.Runner = *NewRunner(
		"search [-m|--max {items}] [-a|--address {address}] {term}",
		"search the card library",
		`
Use the search command to search the daemon's card library. Saves are found
by title, product code, or dump file name.`,
		"  ps1mcfs search 'final fantasy'", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Max, "max", "m", "", 100, "maximum number of hits", false)

	return s
}

//
type Search struct {
	Runner
	//
	Max int
}

//
func (s *Search) Run() error {

	s.ParseSettings()

	term := s.Arg(0)
	if term == "" {
		return fmt.Errorf("no search term given")
	}

	resp, err := s.apiCall("GET", fmt.Sprintf("/search?term=%s&items=%d",
		url.QueryEscape(term), s.Max), false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(os.Stdout, resp)
	return err
}

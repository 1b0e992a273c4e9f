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
	"fmt"
	"net/http"

	"github.com/emusave/ps1mcfs/pkg/util"
)

//
type Version struct {
	Daemon string `json:"daemon"`
}

//
func (v *Version) String() string {
	return fmt.Sprintf("daemon:     %s\n", v.Daemon)
}

//
func (a *APIServer) version(w http.ResponseWriter, req *http.Request) {

	ver := &Version{Daemon: util.Ps1mcfsVersion}

	if wantsJSON(req) {
		sendJSONReply(ver, http.StatusOK, w)
	} else {
		sendReply([]byte(ver.String()), http.StatusOK, w)
	}
}

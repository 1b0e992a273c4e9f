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

// Package control exposes a small HTTP API over a loaded card and the
// card library: save listing, hex dumps, library search, version.
package control

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/emusave/ps1mcfs/pkg/memcard"
	"github.com/emusave/ps1mcfs/pkg/repo"
	"github.com/emusave/ps1mcfs/pkg/vfs"
)

// NewAPIServer sets up a server for the given card and projection, both
// may be nil. library is the card library directory references in
// requests are resolved against, empty for none.
func NewAPIServer(
	addr string, card *memcard.Card, view *vfs.FS,
	index *repo.Index, library string) *APIServer {
	return &APIServer{
		addr:    addr,
		card:    card,
		view:    view,
		index:   index,
		library: library,
	}
}

//
type APIServer struct {
	addr    string
	card    *memcard.Card
	view    *vfs.FS
	index   *repo.Index
	library string
	srv     *http.Server
}

// Serve blocks until the server is shut down.
func (a *APIServer) Serve() error {

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/version", a.version).Methods("GET")
	router.HandleFunc("/ls", a.list).Methods("GET")
	router.HandleFunc("/dump", a.dump).Methods("GET")
	router.HandleFunc("/search", a.search).Methods("GET")

	a.srv = &http.Server{Addr: a.addr, Handler: router}

	log.WithField("address", a.addr).Info("API server listening")

	if err := a.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *APIServer) Stop() error {
	if a.srv != nil {
		return a.srv.Close()
	}
	return nil
}

//
func getArg(req *http.Request, arg string) string {
	if args, ok := req.URL.Query()[arg]; ok && len(args) > 0 {
		return args[0]
	}
	return ""
}

//
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	s := getArg(req, arg)
	if s == "" {
		return def, nil
	}
	ret, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("invalid value for '%s': %s", arg, s)
	}
	return ret, nil
}

//
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// handleError logs err and sends it as the response, if it is present.
// Returns true in that case.
func handleError(err error, statusCode int, w http.ResponseWriter) bool {
	if err == nil {
		return false
	}
	log.Errorf("API error: %v", err)
	sendReply([]byte(err.Error()), statusCode, w)
	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem sending JSON reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending stream reply: %v", err)
	}
}

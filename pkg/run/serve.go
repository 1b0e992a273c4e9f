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
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/emusave/ps1mcfs/pkg/control"
	"github.com/emusave/ps1mcfs/pkg/memcard"
	"github.com/emusave/ps1mcfs/pkg/repo"
	"github.com/emusave/ps1mcfs/pkg/vfs"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve [-i|--input {file}] [--listen {address}] [-r|--repo {dir}]
      [--index {dir}]`,
		"run the card daemon",
		`
Use the serve command to run the daemon. It answers the HTTP API (save
listing, dumps, library search) for a loaded card dump and a card library
directory. The library is indexed for search and kept current when files
are added or removed.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Input, "input", "i", "", nil, "card dump file to load", false)
	s.AddSetting(&s.Listen, "listen", "", "", "0.0.0.0:8580", "listen address", false)
	s.AddSetting(&s.Repo, "repo", "r", "", nil, "card library directory", false)
	s.AddSetting(&s.IndexDir, "index", "", "", nil,
		"search index directory (defaults to {repo}/.index)", false)

	return s
}

//
type Serve struct {
	Runner
	//
	Input    string
	Listen   string
	Repo     string
	IndexDir string
}

//
func (s *Serve) Run() error {

	s.ParseSettings()

	var card *memcard.Card
	var view *vfs.FS

	if s.Input != "" {
		var err error
		if card, err = loadCard(s.Input); err != nil {
			return err
		}
		stamp := time.Now()
		if info, err := os.Stat(s.Input); err == nil {
			stamp = info.ModTime()
		}
		view = vfs.Build(card, stamp)
	}

	var index *repo.Index

	if s.Repo != "" {
		base := s.IndexDir
		if base == "" {
			base = s.Repo + "/.index"
		}
		var err error
		if index, err = repo.NewIndex(base, s.Repo); err != nil {
			return err
		}
		if err = index.Start(); err != nil {
			return err
		}
		defer index.Stop()
	}

	api := control.NewAPIServer(s.Listen, card, view, index, s.Repo)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Info("shutting down")
		api.Stop()
	}()

	return api.Serve()
}

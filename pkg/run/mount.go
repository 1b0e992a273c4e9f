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
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/emusave/ps1mcfs/pkg/mount"
	"github.com/emusave/ps1mcfs/pkg/vfs"
)

//
func NewMount() *Mount {

	m := &Mount{}
	m.Runner = *NewRunner(
		"mount -i|--input {file} [-d|--debug] {mountpoint}",
		"mount a memory card as a filesystem",
		`
Use the mount command to mount a memory card dump as a read-only filesystem.
Each save appears as a directory holding title.txt, its icon frames, and
data.bin with the raw save data. Corrupted saves carry an empty 'corrupted'
marker file. Unmount with umount or fusermount -u.`,
		"  ps1mcfs mount -i crash_team_racing.mcr /mnt/mc", runnerHelpEpilogue,
		m.Run)

	m.AddBaseSettings()
	m.AddSetting(&m.Input, "input", "i", "", nil, "card dump file", true)
	m.AddSetting(&m.Debug, "debug", "d", "", false, "log FUSE traffic", false)

	return m
}

//
type Mount struct {
	Runner
	//
	Input string
	Debug bool
}

//
func (m *Mount) Run() error {

	m.ParseSettings()

	mountpoint := m.Arg(0)
	if mountpoint == "" {
		return fmt.Errorf("no mount point given")
	}

	card, err := loadCard(m.Input)
	if err != nil {
		return err
	}

	// the projection reports the dump file's mod time on every node
	stamp := time.Now()
	if info, err := os.Stat(m.Input); err == nil {
		stamp = info.ModTime()
	}

	view := vfs.Build(card, stamp)

	server, err := mount.Mount(mountpoint, view, m.Debug)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Info("unmounting")
		if err := server.Unmount(); err != nil {
			log.Errorf("unmount failed, still serving: %v", err)
		}
	}()

	server.Wait()
	return nil
}

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

package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emusave/ps1mcfs/pkg/run"
)

func main() {

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	root := &cobra.Command{
		Use:   "ps1mcfs",
		Short: "PlayStation memory card tool",
		Long: `ps1mcfs reads PlayStation memory card dumps, in raw, PSP, or DexDrive
container format, and projects their saves as a read-only filesystem.`,
		SilenceErrors: true,
	}

	root.AddCommand(run.NewLs().Cmd())
	root.AddCommand(run.NewDump().Cmd())
	root.AddCommand(run.NewMount().Cmd())
	root.AddCommand(run.NewServe().Cmd())
	root.AddCommand(run.NewSearch().Cmd())
	root.AddCommand(run.NewVersion().Cmd())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

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

// Package run implements the ps1mcfs CLI commands.
package run

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/emusave/ps1mcfs/pkg/util"
)

//
const runnerHelpEpilogue = `All settings can also be provided via environment
variables with prefix 'PS1MCFS_', e.g. PS1MCFS_ADDRESS for --address.
`

//
func init() {
	viper.SetEnvPrefix("ps1mcfs")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

//
func NewRunner(
	use, short, long, example, epilogue string, run func() error) *Runner {

	r := &Runner{settings: make(map[string]*pflag.Flag)}

	r.cmd = &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    strings.TrimRight(long, "\n") + "\n\n" + epilogue,
		Example: example,
		RunE: func(cmd *cobra.Command, args []string) error {
			r.args = args
			return run()
		},
		SilenceUsage: true,
	}

	return r
}

// Runner wraps a cobra command and binds its flags to viper, so every
// setting can also come from the environment.
type Runner struct {
	cmd      *cobra.Command
	args     []string
	settings map[string]*pflag.Flag
	//
	Address  string
	LogLevel string
}

//
func (r *Runner) Cmd() *cobra.Command {
	return r.cmd
}

//
func (r *Runner) Arg(ix int) string {
	if ix < len(r.args) {
		return r.args[ix]
	}
	return ""
}

//
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Address, "address", "a", "",
		"localhost:8580", "daemon address", false)
	r.AddSetting(&r.LogLevel, "log-level", "l", "",
		"info", "log level (trace, debug, info, warn, error)", false)
}

// AddSetting registers a flag and binds it into viper under its name.
// def may be nil for the type's zero value.
func (r *Runner) AddSetting(target interface{}, name, shorthand, env string,
	def interface{}, help string, required bool) {

	flags := r.cmd.Flags()

	switch t := target.(type) {

	case *string:
		d := ""
		if def != nil {
			d = fmt.Sprintf("%v", def)
		}
		flags.StringVarP(t, name, shorthand, d, help)

	case *int:
		d := 0
		if def != nil {
			d, _ = def.(int)
		}
		flags.IntVarP(t, name, shorthand, d, help)

	case *bool:
		d := false
		if def != nil {
			d, _ = def.(bool)
		}
		flags.BoolVarP(t, name, shorthand, d, help)

	default:
		panic(fmt.Sprintf("unsupported setting type for '%s'", name))
	}

	f := flags.Lookup(name)
	r.settings[name] = f
	viper.BindPFlag(name, f)

	if env != "" {
		viper.BindEnv(name, env)
	}

	if required {
		r.cmd.MarkFlagRequired(name)
	}
}

// ParseSettings applies environment values to flags that were not set
// on the command line, and configures logging.
func (r *Runner) ParseSettings() {

	for name, f := range r.settings {
		if !f.Changed && viper.IsSet(name) {
			f.Value.Set(viper.GetString(name))
		}
	}

	if level, err := log.ParseLevel(r.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("invalid log level '%s', using info", r.LogLevel)
	}
}

//
func (r *Runner) IsSet(name string) bool {
	if f, ok := r.settings[name]; ok && f.Changed {
		return true
	}
	return viper.IsSet(name)
}

// apiCall sends a request to the daemon API and returns the response
// body. The caller closes it.
func (r *Runner) apiCall(
	method, path string, asJSON bool, body io.Reader) (io.ReadCloser, error) {

	url := fmt.Sprintf("http://%s%s", r.Address, path)

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("daemon replied with %s: %s",
			resp.Status, strings.TrimSpace(string(msg)))
	}

	return resp.Body, nil
}

//
func PrintVersion(remote string) {
	fmt.Printf("\nps1mcfs:    %s\n", util.Ps1mcfsVersion)
	if remote != "" {
		fmt.Printf("%s", remote)
	}
}

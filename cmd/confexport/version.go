// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"runtime"
	rtdebug "runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// buildVersion describes the running binary
type buildVersion struct {
	Version   string
	Revision  string
	Time      string
	Modified  bool
	GoVersion string
	Platform  string
}

func readBuildVersion() buildVersion {
	v := buildVersion{
		Version:   "dev",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	info, ok := rtdebug.ReadBuildInfo()
	if !ok {
		return v
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			v.Revision = s.Value
		case "vcs.time":
			v.Time = s.Value
		case "vcs.modified":
			v.Modified = s.Value == "true"
		}
	}
	return v
}

// Short is the version plus an abbreviated revision, e.g. "v1.2.3 (abc1234*)"
func (v buildVersion) Short() string {
	if v.Revision == "" {
		return v.Version
	}
	rev := v.Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if v.Modified {
		rev += "*"
	}
	return fmt.Sprintf("%s (%s)", v.Version, rev)
}

// 🚀 Long lists every known field, skipping the ones the build did not record
func (v buildVersion) Long() string {
	var b strings.Builder
	b.WriteString("🚀 confexport " + v.Version + "\n")
	if v.Revision != "" {
		rev := v.Revision
		if v.Modified {
			rev += " (modified)"
		}
		fmt.Fprintf(&b, "  revision: %s\n", rev)
	}
	if v.Time != "" {
		fmt.Fprintf(&b, "  built:    %s\n", v.Time)
	}
	fmt.Fprintf(&b, "  go:       %s\n", v.GoVersion)
	fmt.Fprintf(&b, "  platform: %s\n", v.Platform)
	return b.String()
}

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := readBuildVersion()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), v.Short())
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), v.Long())
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version and revision")
	return cmd
}

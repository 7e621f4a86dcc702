// Package buildinfo reports which build of a calcium tool produced an output,
// so that processed results can be traced back to a commit.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

type Info struct {
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (i Info) String() string {
	if i.Package == "" {
		return "build information unavailable"
	}

	commit := i.Commit
	if commit == "" {
		commit = "unknown"
	}
	if i.Modified {
		commit += "+modified"
	}

	s := fmt.Sprintf("%s (%s, commit %s", i.Package, i.GoVersion, commit)
	if i.CommitTime != "" {
		s += " at " + i.CommitTime
	}
	return s + ")"
}

func Get() Info {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{}
	}
	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) Info {
	out := Info{GoVersion: z.GoVersion, Package: z.Path}
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}
	return out
}

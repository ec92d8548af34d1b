package buildinfo

import (
	"fmt"
	"runtime"
)

// Injectées à la compilation via -ldflags, par exemple :
//
//	-X github.com/Guilhem-Bonnet/xtream-companion/internal/buildinfo.Version=v0.1.0
//	-X github.com/Guilhem-Bonnet/xtream-companion/internal/buildinfo.Commit=abcdef
//	-X github.com/Guilhem-Bonnet/xtream-companion/internal/buildinfo.Date=2026-10-16
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"goVersion"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
}

func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s += " (" + i.Commit + ")"
	}
	if i.Date != "" {
		s += " built " + i.Date
	}
	return fmt.Sprintf("%s %s", s, i.GoVersion)
}

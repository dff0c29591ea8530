package generate

import (
	"encoding/json"

	"github.com/goplus/llman/internal/resolve"
)

// LockFile is the name of the lockfile artifact.
const LockFile = "llman.lock"

// LockVersion is the format version written into lockfiles.
const LockVersion = 1

// Lock is the lockfile content.
type Lock struct {
	Version   int               `json:"version"`
	BuildType string            `json:"build_type"`
	Settings  map[string]string `json:"settings,omitempty"`
	Packages  []LockedPackage   `json:"packages"`
}

// LockedPackage records how one requirement was resolved.
type LockedPackage struct {
	Name        string            `json:"name"`
	Requirement string            `json:"requirement"`
	Version     string            `json:"version,omitempty"`
	Origin      string            `json:"origin,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
	Requires    []string          `json:"requires,omitempty"`
}

// NewLock builds the lockfile content for in.
func NewLock(in *Input) *Lock {
	l := &Lock{
		Version:   LockVersion,
		BuildType: in.Plan.BuildType,
		Settings:  in.Settings.Map(),
		Packages:  make([]LockedPackage, 0, len(in.Packages)),
	}
	for _, pkg := range in.Packages {
		l.Packages = append(l.Packages, lockedPackage(pkg))
	}
	return l
}

func lockedPackage(pkg resolve.Package) LockedPackage {
	lp := LockedPackage{
		Name:        pkg.Name(),
		Requirement: pkg.Requirement.Version,
		Version:     pkg.Version,
		Origin:      pkg.Requirement.Origin,
		Requires:    pkg.Requires,
	}
	if len(pkg.Options) > 0 {
		lp.Options = make(map[string]string, len(pkg.Options))
		for _, o := range pkg.Options {
			lp.Options[o.Name] = o.Value.String()
		}
	}
	return lp
}

func lockfile(in *Input) (Artifact, error) {
	data, err := json.MarshalIndent(NewLock(in), "", "  ")
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: LockFile, Body: append(data, '\n')}, nil
}

// Package profile assembles the settings an install runs with. Values are
// layered, later layers winning:
//
//  1. host defaults detected from the running system
//  2. the profile file, <config>/profiles/<name>.toml
//  3. LLMAN_* environment variables
//  4. explicit key=value overrides (the -s flag)
//
// A profile file looks like:
//
//	[settings]
//	os = "Linux"
//	compiler = "gcc"
//	"compiler.cppstd" = "17"
//
//	[options]
//	"boost/*:shared" = true
//
//	[conf]
//	registry = "/srv/recipes"
//
//	[conf.registries]
//	mirror = "/srv/mirror-recipes"
//
// Entries of [conf.registries] serve requirements naming that origin, as
// in "boost/1.88.0@mirror". Viper lowercases their names.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/goplus/llman/internal/env"
	"github.com/goplus/llman/settings"
	"github.com/spf13/viper"
)

// DefaultName is the profile used when none is named.
const DefaultName = "default"

// keyDelim separates viper key paths; setting names themselves contain
// dots.
const keyDelim = "::"

// envSettings maps environment variables to the settings they set.
var envSettings = map[string]string{
	settings.OS:        env.EnvPrefix + "_OS",
	settings.Arch:      env.EnvPrefix + "_ARCH",
	settings.Compiler:  env.EnvPrefix + "_COMPILER",
	settings.BuildType: env.EnvPrefix + "_BUILD_TYPE",
	"compiler.version":  env.EnvPrefix + "_COMPILER_VERSION",
	"compiler.cppstd":   env.EnvPrefix + "_COMPILER_CPPSTD",
}

// Profile is the outcome of Load.
type Profile struct {
	Name     string
	Path     string // profile file read, "" if none
	Settings settings.Settings
	// Options holds "pattern:option" keys and their values, applied in
	// sorted key order after the manifest's own options.
	Options  map[string]string
	Registry string // recipe directory, "" for the default
	// Registries maps origin names to recipe directories.
	Registries map[string]string
}

// OptionKeys returns the keys of p.Options in sorted order.
func (p *Profile) OptionKeys() []string {
	return slices.Sorted(maps.Keys(p.Options))
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Name is a profile name looked up under ConfigDir, or a path to a
	// profile file. Empty means DefaultName, which may be absent.
	Name      string
	ConfigDir string // env.ConfigDir() when empty
	Overrides []string
	GOOS      string // runtime.GOOS when empty
	GOARCH    string // runtime.GOARCH when empty
}

// Load builds the profile described by opts.
func Load(opts LoadOptions) (*Profile, error) {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelim))
	for k, val := range Host(opts.GOOS, opts.GOARCH).All() {
		v.SetDefault("settings"+keyDelim+k, val)
	}
	for k, name := range envSettings {
		if err := v.BindEnv("settings"+keyDelim+k, name); err != nil {
			return nil, err
		}
	}
	if err := v.BindEnv("conf"+keyDelim+"registry", env.EnvPrefix+"_REGISTRY"); err != nil {
		return nil, err
	}

	p := &Profile{Name: opts.Name}
	path, required, err := profilePath(opts)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = DefaultName
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", path, err)
		}
		p.Path = path
	} else if required || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}

	kv := make(map[string]string)
	prefix := "settings" + keyDelim
	for _, key := range v.AllKeys() {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			if val := v.GetString(key); val != "" {
				kv[name] = val
			}
		}
	}
	over, err := settings.Parse(opts.Overrides)
	if err != nil {
		return nil, err
	}
	p.Settings = settings.New(kv).Merge(over)
	if err := p.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}

	if opt := v.GetStringMapString("options"); len(opt) > 0 {
		p.Options = opt
	}
	p.Registry = v.GetString("conf" + keyDelim + "registry")
	if regs := v.GetStringMapString("conf" + keyDelim + "registries"); len(regs) > 0 {
		p.Registries = regs
	}
	return p, nil
}

// profilePath returns the file to read for opts and whether it must exist.
func profilePath(opts LoadOptions) (path string, required bool, err error) {
	name := opts.Name
	if strings.ContainsAny(name, `/\`) || filepath.Ext(name) == ".toml" {
		return name, true, nil
	}
	required = name != ""
	if name == "" {
		name = DefaultName
	}
	dir := opts.ConfigDir
	if dir == "" {
		if dir, err = env.ConfigDir(); err != nil {
			return "", false, err
		}
	}
	return filepath.Join(dir, "profiles", name+".toml"), required, nil
}

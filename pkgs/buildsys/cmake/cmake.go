package cmake

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goplus/llman/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

type setValue struct {
	name  string
	value string
}

// CMake writes a CMake script with chainable configuration. Plain
// variables render in the order they were set, cache variables sorted by
// name.
type CMake struct {
	header    string
	buildType string
	sets      []setValue
	Defines   map[string]defineValue
	includes  []string
	env       *buildsys.Environment
}

var _ buildsys.Script = (*CMake)(nil)

// New creates a new CMake script writer. header is written as a comment
// on top of the script.
func New(header string) *CMake {
	return &CMake{
		header:  header,
		Defines: map[string]defineValue{},
		env:     buildsys.NewEnvironment(false),
	}
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Set adds a plain set() of a variable.
func (c *CMake) Set(name, value string) *CMake {
	c.sets = append(c.sets, setValue{name: name, value: value})
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefinePath(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "FILEPATH"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// Include adds an include() of another script.
func (c *CMake) Include(path string) *CMake {
	c.includes = append(c.includes, path)
	return c
}

// Use makes dep findable by find_package: its prefix is appended to
// CMAKE_PREFIX_PATH and its include and lib directories to the matching
// search paths.
func (c *CMake) Use(dep buildsys.Dep) {
	c.env.Use(dep)
}

// Args returns the -D arguments equivalent to the cache variables of c,
// for a cmake configure command line.
func (c *CMake) Args() []string {
	defines := maps.Clone(c.Defines)
	if c.buildType != "" {
		defines["CMAKE_BUILD_TYPE"] = defineValue{value: c.buildType, typeName: "STRING"}
	}
	if len(defines) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(defines))
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

// Render returns the script:
//
//	# header
//	set(CMAKE_BUILD_TYPE "Release" CACHE STRING "" FORCE)
//	set(NAME "value")                    plain variables
//	set(KEY "value" CACHE TYPE "" FORCE) cache variables
//	list(APPEND CMAKE_PREFIX_PATH ...)   used dependencies
//	include("...")
func (c *CMake) Render() []byte {
	var b bytes.Buffer
	for _, line := range strings.Split(c.header, "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "# %s\n", line)
	}
	if c.buildType != "" {
		fmt.Fprintf(&b, "set(CMAKE_BUILD_TYPE %s CACHE STRING \"\" FORCE)\n", Quote(c.buildType))
	}
	for _, s := range c.sets {
		fmt.Fprintf(&b, "set(%s %s)\n", s.name, Quote(s.value))
	}
	for _, k := range slices.Sorted(maps.Keys(c.Defines)) {
		def := c.Defines[k]
		typeName := def.typeName
		if typeName == "" {
			typeName = "STRING"
		}
		fmt.Fprintf(&b, "set(%s %s CACHE %s \"\" FORCE)\n", k, Quote(def.value), typeName)
	}
	for _, v := range c.env.Vars() {
		switch v.Name {
		case "CMAKE_PREFIX_PATH", "CMAKE_INCLUDE_PATH", "CMAKE_LIBRARY_PATH":
			for _, dir := range v.Values {
				fmt.Fprintf(&b, "list(APPEND %s %s)\n", v.Name, Quote(dir))
			}
		case "PKG_CONFIG_PATH", "CPPFLAGS", "LDFLAGS":
			// read by the shell environment script, not by CMake
		default:
			fmt.Fprintf(&b, "set(ENV{%s} %s)\n", v.Name, Quote(c.env.Value(v.Name)))
		}
	}
	for _, inc := range c.includes {
		fmt.Fprintf(&b, "include(%s)\n", Quote(inc))
	}
	return b.Bytes()
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

// Quote returns s as a quoted CMake argument.
func Quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

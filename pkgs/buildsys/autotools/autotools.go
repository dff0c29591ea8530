package autotools

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goplus/llman/pkgs/buildsys"
)

// AutoTools writes an environment script that exposes dependencies to
// configure/make style builds: a POSIX shell script, or a batch file for
// Windows targets.
type AutoTools struct {
	header string
	env    *buildsys.Environment
}

var _ buildsys.Script = (*AutoTools)(nil)

// New creates a new AutoTools script writer.
func New(header string, windows bool) *AutoTools {
	return &AutoTools{
		header: header,
		env:    buildsys.NewEnvironment(windows),
	}
}

// Env sets an environment variable in the script.
func (a *AutoTools) Env(key, value string) {
	a.env.Set(key, value)
}

// Flag appends a flag to a flags variable such as CXXFLAGS.
func (a *AutoTools) Flag(key, flag string) *AutoTools {
	a.env.AddFlag(key, flag)
	return a
}

// Use exposes dep to pkg-config, CMake and the compiler.
func (a *AutoTools) Use(dep buildsys.Dep) {
	a.env.Use(dep)
}

// Render returns the script. Path lists are prepended to the value
// inherited from the caller's environment and flags appended to it.
func (a *AutoTools) Render() []byte {
	if a.env.Windows() {
		return a.renderBatch()
	}
	return a.renderShell()
}

func (a *AutoTools) renderShell() []byte {
	var b bytes.Buffer
	b.WriteString("#!/bin/sh\n")
	writeHeader(&b, "# ", "\n", a.header)
	for _, v := range a.env.Vars() {
		val := shellQuote(a.env.Value(v.Name))
		switch v.Kind {
		case buildsys.PathList:
			fmt.Fprintf(&b, "export %s=%s\"${%s:+:$%s}\"\n", v.Name, val, v.Name, v.Name)
		case buildsys.Flags:
			fmt.Fprintf(&b, "export %s=\"${%s:+$%s }\"%s\n", v.Name, v.Name, v.Name, val)
		default:
			fmt.Fprintf(&b, "export %s=%s\n", v.Name, val)
		}
	}
	return b.Bytes()
}

func (a *AutoTools) renderBatch() []byte {
	var b bytes.Buffer
	b.WriteString("@echo off\r\n")
	writeHeader(&b, "rem ", "\r\n", a.header)
	for _, v := range a.env.Vars() {
		val := a.env.Value(v.Name)
		switch v.Kind {
		case buildsys.PathList:
			fmt.Fprintf(&b, "set \"%s=%s;%%%s%%\"\r\n", v.Name, val, v.Name)
		case buildsys.Flags:
			fmt.Fprintf(&b, "set \"%s=%%%s%% %s\"\r\n", v.Name, v.Name, val)
		default:
			fmt.Fprintf(&b, "set \"%s=%s\"\r\n", v.Name, val)
		}
	}
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, comment, eol, header string) {
	for _, line := range strings.Split(header, "\n") {
		if line != "" {
			b.WriteString(comment + line + eol)
		}
	}
}

// shellQuote single-quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

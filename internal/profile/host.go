package profile

import "github.com/goplus/llman/settings"

var hostOS = map[string]string{
	"linux":   "Linux",
	"darwin":  "Macos",
	"windows": "Windows",
	"freebsd": "FreeBSD",
	"android": "Android",
	"ios":     "iOS",
}

var hostArch = map[string]string{
	"amd64":   "x86_64",
	"386":     "x86",
	"arm64":   "armv8",
	"arm":     "armv7",
	"riscv64": "riscv64",
}

// Host returns the default settings for a Go GOOS/GOARCH pair. Unknown
// values are left unset.
func Host(goos, goarch string) settings.Settings {
	kv := map[string]string{settings.BuildType: "Release"}
	if name, ok := hostOS[goos]; ok {
		kv[settings.OS] = name
	}
	if arch, ok := hostArch[goarch]; ok {
		kv[settings.Arch] = arch
	}
	switch goos {
	case "windows":
		kv[settings.Compiler] = "msvc"
	case "darwin", "ios", "freebsd":
		kv[settings.Compiler] = "clang"
	default:
		kv[settings.Compiler] = "gcc"
	}
	return settings.New(kv)
}

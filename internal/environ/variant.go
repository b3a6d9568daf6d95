package environ

import (
	"runtime"
	"strings"
)

// Backend is a GYP generator backend as named in GYP_GENERATORS.
type Backend int

const (
	BackendUnknown Backend = iota
	BackendNinja
	BackendNinjaWinRT
	BackendMSVSNinja
	BackendXcodeNinja
	BackendMake
	BackendMSVS
	BackendXcode
	BackendAndroid
	BackendCMake
)

var backendNames = map[string]Backend{
	"ninja":       BackendNinja,
	"ninja-winrt": BackendNinjaWinRT,
	"msvs-ninja":  BackendMSVSNinja,
	"xcode-ninja": BackendXcodeNinja,
	"make":        BackendMake,
	"msvs":        BackendMSVS,
	"xcode":       BackendXcode,
	"android":     BackendAndroid,
	"cmake":       BackendCMake,
}

// ParseBackend decodes a single backend name. Case and surrounding blanks
// are ignored; unknown names map to BackendUnknown.
func ParseBackend(name string) Backend {
	return backendNames[strings.ToLower(strings.TrimSpace(name))]
}

// String returns the GYP spelling of b.
func (b Backend) String() string {
	for name, v := range backendNames {
		if v == b {
			return name
		}
	}
	return "unknown"
}

// Ninja reports whether b emits ninja files.
func (b Backend) Ninja() bool {
	switch b {
	case BackendNinja, BackendNinjaWinRT, BackendMSVSNinja, BackendXcodeNinja:
		return true
	}
	return false
}

// Generators is the decoded GYP_GENERATORS list.
type Generators []Backend

// ParseGenerators decodes a comma separated GYP_GENERATORS value.
func ParseGenerators(value string) Generators {
	var gens Generators
	for _, name := range strings.Split(value, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		gens = append(gens, ParseBackend(name))
	}
	return gens
}

// Ninja reports whether any selected backend emits ninja files.
func (g Generators) Ninja() bool {
	for _, b := range g {
		if b.Ninja() {
			return true
		}
	}
	return false
}

// Is reports whether exactly one backend is selected and it is b.
func (g Generators) Is(b Backend) bool {
	return len(g) == 1 && g[0] == b
}

// TargetOS is the value of the GYP "OS" variable.
type TargetOS int

const (
	TargetUnknown TargetOS = iota
	TargetAndroid
	TargetIOS
	TargetLinux
	TargetMac
	TargetWin
	TargetChromeOS
)

// ParseTargetOS decodes the GYP OS variable.
func ParseTargetOS(value string) TargetOS {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "android":
		return TargetAndroid
	case "ios":
		return TargetIOS
	case "linux":
		return TargetLinux
	case "mac":
		return TargetMac
	case "win":
		return TargetWin
	case "chromeos":
		return TargetChromeOS
	}
	return TargetUnknown
}

// Mobile reports whether t needs cross-compilation support.
func (t TargetOS) Mobile() bool {
	return t == TargetAndroid || t == TargetIOS
}

// HostOS is the platform the front end itself runs on.
type HostOS int

const (
	HostOther HostOS = iota
	HostWindows
	HostLinux
	HostMac
)

// ParseHostOS decodes a GOOS value.
func ParseHostOS(goos string) HostOS {
	switch goos {
	case "windows":
		return HostWindows
	case "linux":
		return HostLinux
	case "darwin":
		return HostMac
	}
	return HostOther
}

// CurrentHost returns the HostOS of the running binary.
func CurrentHost() HostOS {
	return ParseHostOS(runtime.GOOS)
}

// Windows reports whether h is a Windows-like host.
func (h HostOS) Windows() bool {
	return h == HostWindows
}

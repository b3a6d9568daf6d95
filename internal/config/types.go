package config

// Settings is the optional per-checkout configuration of the front end,
// read from build/gyp_webrtc.yaml:
//
//	generator:
//	  interpreter: python
//	  script: tools/gyp/gyp_main.py
//	default_build_file: all.gyp
//	toolchain:
//	  package: build/win_toolchain.7z
type Settings struct {
	Generator        Generator `yaml:"generator"`
	DefaultBuildFile string    `yaml:"default_build_file"`
	Toolchain        Toolchain `yaml:"toolchain"`
}

// Generator describes how to start GYP.
// - Interpreter: program used to run the script (e.g. python).
// - Script: GYP entry point; relative paths are resolved against the checkout root.
// - Args: extra arguments placed between the script and the gyp arguments.
type Generator struct {
	Interpreter string   `yaml:"interpreter"`
	Script      string   `yaml:"script"`
	Args        []string `yaml:"args"`
}

// Toolchain configures the managed Windows toolchain.
// - Package: archive unpacked into the checkout when build/win_toolchain.json is missing.
type Toolchain struct {
	Package string `yaml:"package"`
}

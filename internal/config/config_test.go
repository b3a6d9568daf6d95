package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	root := t.TempDir()
	s, err := LoadConfig(DefaultPath(root), root)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if s.Generator.Interpreter != "python" {
		t.Errorf("Interpreter = %q, want python", s.Generator.Interpreter)
	}
	if want := filepath.Join(root, "tools", "gyp", "gyp_main.py"); s.Generator.Script != want {
		t.Errorf("Script = %q, want %q", s.Generator.Script, want)
	}
	if s.DefaultBuildFile != "all.gyp" {
		t.Errorf("DefaultBuildFile = %q", s.DefaultBuildFile)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	root := t.TempDir()
	path := DefaultPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	content := `generator:
  interpreter: python2
  args: ["-u"]
default_build_file: webrtc/webrtc_all.gyp
toolchain:
  package: build/win_toolchain.7z
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadConfig(path, root)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	want := Settings{
		Generator: Generator{
			Interpreter: "python2",
			Script:      filepath.Join(root, "tools", "gyp", "gyp_main.py"),
			Args:        []string{"-u"},
		},
		DefaultBuildFile: "webrtc/webrtc_all.gyp",
		Toolchain:        Toolchain{Package: filepath.Join(root, "build", "win_toolchain.7z")},
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("LoadConfig() = %+v, want %+v", s, want)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "bad.yaml")
	if err := os.WriteFile(path, []byte("generator: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path, root); err == nil {
		t.Error("LoadConfig() should fail on malformed YAML")
	}
}

package gyp

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// SupplementalFiles
// ---------------------------------------------------------------------------

func TestSupplementalFilesEmpty(t *testing.T) {
	root := t.TempDir()
	if got := SupplementalFiles(root); len(got) != 0 {
		t.Errorf("SupplementalFiles(empty) = %v, want none", got)
	}
	if got := SupplementalFiles(filepath.Join(root, "missing")); len(got) != 0 {
		t.Errorf("SupplementalFiles(missing) = %v, want none", got)
	}
}

func TestSupplementalFilesOneLevelOnly(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a", SupplementFileName)
	b := filepath.Join(root, "b", SupplementFileName)
	writeFile(t, a, "{}")
	writeFile(t, b, "{}")
	// Not matched: at the root itself and two levels down.
	writeFile(t, filepath.Join(root, SupplementFileName), "{}")
	writeFile(t, filepath.Join(root, "a", "nested", SupplementFileName), "{}")
	// A directory with the right name is not a file.
	if err := os.MkdirAll(filepath.Join(root, "c", SupplementFileName), 0755); err != nil {
		t.Fatal(err)
	}

	got := SupplementalFiles(root)
	want := []string{a, b}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SupplementalFiles() = %v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// Defines
// ---------------------------------------------------------------------------

func TestNameValueListToDict(t *testing.T) {
	got := NameValueListToDict([]string{"a=1", "b=hello", "c", "d=007", "e=x=y", "a=2"})
	want := Defines{"a": "2", "b": "hello", "c": "1", "d": "7", "e": "x=y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NameValueListToDict() = %v, want %v", got, want)
	}
}

func TestDefinesStringQuotes(t *testing.T) {
	d := Defines{
		"windows_sdk_path": `C:\Program Files (x86)\Windows Kits\10\`,
		"component":        "shared_library",
		"empty":            "",
	}
	s := d.String()
	if !strings.HasPrefix(s, "component=shared_library ") {
		t.Errorf("String() = %q, want sorted output starting with component", s)
	}

	env := environ.New(false)
	d.Store(env)
	back, err := ParseDefines(env)
	if err != nil {
		t.Fatalf("ParseDefines() error = %v", err)
	}
	if !reflect.DeepEqual(back, d) {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestShlexEnvError(t *testing.T) {
	env := environ.FromMap(map[string]string{"GYP_DEFINES": `a='unterminated`}, false)
	if _, err := ShlexEnv(env, "GYP_DEFINES"); err == nil {
		t.Error("expected error for unterminated quote")
	}
}

// ---------------------------------------------------------------------------
// GetGypVars
// ---------------------------------------------------------------------------

func TestGetGypVarsPriority(t *testing.T) {
	root := t.TempDir()
	supp := filepath.Join(root, "chromium", SupplementFileName)
	writeFile(t, supp, `# Supplemental overrides.
{
  'variables': {
    'OS': 'linux',
    'build_with_chromium': 0,
    'use_openssl': True,
    'target_arch': 'x64',
  },
}
`)
	env := environ.FromMap(map[string]string{"GYP_DEFINES": "OS=android target_arch=arm"}, false)

	vars, err := GetGypVars(env, []string{supp}, []string{"-Dtarget_arch=arm64", "-D", "flag"})
	if err != nil {
		t.Fatalf("GetGypVars() error = %v", err)
	}
	want := map[string]string{
		"OS":                  "android",
		"build_with_chromium": "0",
		"use_openssl":         "True",
		"target_arch":         "arm64",
		"flag":                "1",
	}
	if !reflect.DeepEqual(vars, want) {
		t.Errorf("GetGypVars() = %v, want %v", vars, want)
	}
}

func TestGetGypVarsMalformedSupplement(t *testing.T) {
	root := t.TempDir()
	supp := filepath.Join(root, "x", SupplementFileName)
	writeFile(t, supp, "{'variables': {'OS': ")
	if _, err := GetGypVars(environ.New(false), []string{supp}, nil); err == nil {
		t.Error("expected error for malformed supplement file")
	}
}

func TestGetGypVarsPythonStrings(t *testing.T) {
	root := t.TempDir()
	supp := filepath.Join(root, "webrtc", SupplementFileName)
	writeFile(t, supp, `{
  'variables': {
    'OS': 'andr' 'oid',  # implicit concatenation
    'quoted': 'it\'s',
    "mixed": r'C:\sdk' "\x41",
    'hash': '#not-a-comment',
  },
}
`)
	vars, err := GetGypVars(environ.New(false), []string{supp}, nil)
	if err != nil {
		t.Fatalf("GetGypVars() error = %v", err)
	}
	want := map[string]string{
		"OS":     "android",
		"quoted": "it's",
		"mixed":  `C:\sdkA`,
		"hash":   "#not-a-comment",
	}
	if !reflect.DeepEqual(vars, want) {
		t.Errorf("GetGypVars() = %v, want %v", vars, want)
	}
}

func TestCommandLineDefines(t *testing.T) {
	got := CommandLineDefines([]string{"-DOS=ios", "all.gyp", "-D", "a=b", "-Dbare", "-D"})
	want := []string{"OS=ios", "a=b", "bare"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CommandLineDefines() = %v, want %v", got, want)
	}
}

func TestHomeIncludeFile(t *testing.T) {
	home := t.TempDir()
	env := environ.FromMap(map[string]string{"HOME": home}, false)
	if got := HomeIncludeFile(env, environ.HostLinux); got != "" {
		t.Errorf("HomeIncludeFile() = %q, want none without ~/.gyp", got)
	}

	include := filepath.Join(home, ".gyp", "include.gypi")
	writeFile(t, include, "{}")
	if got := HomeIncludeFile(env, environ.HostLinux); got != include {
		t.Errorf("HomeIncludeFile() = %q, want %q", got, include)
	}

	cfg := t.TempDir()
	writeFile(t, filepath.Join(cfg, "include.gypi"), "{}")
	env.Set("GYP_CONFIG_DIR", cfg)
	if got := HomeIncludeFile(env, environ.HostLinux); got != filepath.Join(cfg, "include.gypi") {
		t.Errorf("HomeIncludeFile() with GYP_CONFIG_DIR = %q", got)
	}
}

// ---------------------------------------------------------------------------
// AdditionalIncludeFiles
// ---------------------------------------------------------------------------

func TestAdditionalIncludeFiles(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a", SupplementFileName)
	b := filepath.Join(root, "b", SupplementFileName)
	env := environ.FromMap(map[string]string{
		"GYP_INCLUDE_FIRST": "first.gypi",
		"GYP_INCLUDE_LAST":  "last.gypi",
	}, false)

	got := AdditionalIncludeFiles(env, root, []string{a, b}, []string{"-I" + b})
	want := []string{
		filepath.Join(root, "first.gypi"),
		filepath.Join(root, "build", "common.gypi"),
		a,
		filepath.Join(root, "last.gypi"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AdditionalIncludeFiles() = %v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// BuildArgs
// ---------------------------------------------------------------------------

func countOf(args []string, s string) int {
	n := 0
	for _, a := range args {
		if a == s {
			n++
		}
	}
	return n
}

func TestBuildArgsDefaultBuildFile(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "webrtc", "build")

	inv, err := BuildArgs(BuildOptions{
		Args:         []string{"-Dfoo=1"},
		CheckoutRoot: root,
		WorkDir:      work,
		Includes:     []string{filepath.Join(root, "build", "common.gypi")},
		SyntaxCheck:  true,
	})
	if err != nil {
		t.Fatalf("BuildArgs() error = %v", err)
	}
	if inv.Dir != root {
		t.Errorf("Dir = %q, want checkout root %q", inv.Dir, root)
	}
	want := []string{
		"-Dfoo=1",
		"all.gyp",
		"--no-circular-check",
		"--check",
		"-I" + filepath.Join(root, "build", "common.gypi"),
		"--depth=.",
	}
	if !reflect.DeepEqual(inv.Args, want) {
		t.Errorf("Args = %v, want %v", inv.Args, want)
	}
}

func TestBuildArgsExplicitBuildFile(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "webrtc")

	inv, err := BuildArgs(BuildOptions{
		Args:         []string{"webrtc.gyp", "--check", "--no-circular-check"},
		CheckoutRoot: root,
		WorkDir:      work,
		SyntaxCheck:  true,
	})
	if err != nil {
		t.Fatalf("BuildArgs() error = %v", err)
	}
	if inv.Dir != work {
		t.Errorf("Dir = %q, want unchanged %q", inv.Dir, work)
	}
	if countOf(inv.Args, DefaultBuildFile) != 0 {
		t.Errorf("Args = %v, default build file must not be added", inv.Args)
	}
	for _, flag := range []string{NoCircularCheckFlag, CheckFlag} {
		if n := countOf(inv.Args, flag); n != 1 {
			t.Errorf("%s appears %d times in %v, want 1", flag, n, inv.Args)
		}
	}
	if last := inv.Args[len(inv.Args)-1]; last != "--depth=.." {
		t.Errorf("last arg = %q, want --depth=..", last)
	}
}

func TestBuildArgsFlagsAlwaysOnce(t *testing.T) {
	inputs := [][]string{
		nil,
		{"all.gyp"},
		{"-Gfoo=bar", "x.gyp", "y.gyp"},
		{"--check"},
	}
	for _, in := range inputs {
		inv, err := BuildArgs(BuildOptions{Args: in, CheckoutRoot: "/src", WorkDir: "/src", SyntaxCheck: true})
		if err != nil {
			t.Fatalf("BuildArgs(%v) error = %v", in, err)
		}
		for _, flag := range []string{NoCircularCheckFlag, CheckFlag} {
			if n := countOf(inv.Args, flag); n != 1 {
				t.Errorf("BuildArgs(%v): %s appears %d times", in, flag, n)
			}
		}
		if !BuildFileSpecified(inv.Args) {
			t.Errorf("BuildArgs(%v) = %v, want a build file", in, inv.Args)
		}
	}
}

// ---------------------------------------------------------------------------
// OutputDirectory
// ---------------------------------------------------------------------------

func TestOutputDirectory(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags string
		want  string
	}{
		{"default", nil, "", "out"},
		{"env", nil, "msvs_error_on_missing_sources=1 output_dir=out_win", "out_win"},
		{"arg attached", []string{"-Goutput_dir=o1"}, "output_dir=o2", "o1"},
		{"arg separate", []string{"-G", "output_dir=o3"}, "", "o3"},
		{"unrelated G", []string{"-Gconfig=Debug"}, "", "out"},
	}
	for _, tc := range tests {
		env := environ.FromMap(map[string]string{"GYP_GENERATOR_FLAGS": tc.flags}, false)
		got, err := OutputDirectory(env, tc.args)
		if err != nil {
			t.Fatalf("%s: error = %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: OutputDirectory() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// NormalizeLiteral
// ---------------------------------------------------------------------------

func TestNormalizeLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{'a': 'b'}`, `{"a": "b"}`},
		{`{'a': "it's", 'b': 'say "hi"'}`, `{"a": "it's", "b": "say \"hi\""}`},
		{"{'a': 'x' # first\n  'y'}", `{"a": "xy"}`},
		{`{'a': '''multi 'quoted' text'''}`, `{"a": "multi 'quoted' text"}`},
		{`{'a': u'\101\x42C'}`, `{"a": "ABC"}`},
		{`{'a': True, 'b': None, 'c': [1, 2,]}`, `{"a": True, "b": None, "c": [1, 2,]}`},
		{"# it's a comment\n{'a': 1}", "# it's a comment\n{\"a\": 1}"},
		{`{'a': '\d'}`, `{"a": "\\d"}`},
	}
	for _, tt := range tests {
		got, err := NormalizeLiteral([]byte(tt.in))
		if err != nil {
			t.Errorf("NormalizeLiteral(%q) error = %v", tt.in, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("NormalizeLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLiteralErrors(t *testing.T) {
	for _, in := range []string{`{'a': 'open`, "{'a': 'line\nbreak'}", `{'a': '\x4'}`} {
		if _, err := NormalizeLiteral([]byte(in)); err == nil {
			t.Errorf("NormalizeLiteral(%q) should fail", in)
		}
	}
}

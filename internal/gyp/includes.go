package gyp

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
)

// SupplementFileName is the override file looked for in each top-level
// directory of the checkout.
const SupplementFileName = "supplement.gypi"

// SupplementalFiles returns <root>/*/supplement.gypi. Only immediate
// subdirectories are searched. The result is sorted; an unreadable root
// simply has no supplements.
func SupplementalFiles(root string) []string {
	matches, err := filepath.Glob(filepath.Join(root, "*", SupplementFileName))
	if err != nil {
		return nil
	}
	var files []string
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && !fi.IsDir() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// Supplements returns the supplemental files plus the user's include.gypi,
// which GYP treats the same way.
func Supplements(env *environ.Env, host environ.HostOS, root string) []string {
	files := SupplementalFiles(root)
	if home := HomeIncludeFile(env, host); home != "" {
		files = append(files, home)
	}
	return files
}

// AdditionalIncludeFiles lists the .gypi files to pass with -I: the optional
// GYP_INCLUDE_FIRST, build/common.gypi, the supplements and the optional
// GYP_INCLUDE_LAST. Files the caller already passed with -I are left out.
func AdditionalIncludeFiles(env *environ.Env, root string, supplements, args []string) []string {
	specified := make(map[string]bool)
	for _, arg := range args {
		if strings.HasPrefix(arg, "-I") && len(arg) > 2 {
			specified[realPath(arg[2:])] = true
		}
	}

	var result []string
	add := func(path string) {
		rp := realPath(path)
		if specified[rp] {
			return
		}
		specified[rp] = true
		result = append(result, path)
	}

	if first, ok := env.Lookup("GYP_INCLUDE_FIRST"); ok {
		add(filepath.Join(root, first))
	}
	add(filepath.Join(root, "build", "common.gypi"))
	for _, s := range supplements {
		add(s)
	}
	if last, ok := env.Lookup("GYP_INCLUDE_LAST"); ok {
		add(filepath.Join(root, last))
	}
	return result
}

// realPath resolves symlinks when possible and falls back to the cleaned
// absolute path for files that do not exist yet.
func realPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

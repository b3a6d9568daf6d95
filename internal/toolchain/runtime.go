package toolchain

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
)

// VisualStudioVersion returns GYP_MSVS_VERSION, defaulting to 2013.
func VisualStudioVersion(env *environ.Env) string {
	if v := env.Get("GYP_MSVS_VERSION"); v != "" {
		return v
	}
	return "2013"
}

// runtimeDLLs lists the redistributable DLL names for a VS version.
func runtimeDLLs(vsVersion string, debug bool) []string {
	suffix := ".dll"
	if debug {
		suffix = "d.dll"
	}
	if vsVersion == "2015" {
		return []string{"msvcp140" + suffix, "vccorlib140" + suffix, "vcruntime140" + suffix}
	}
	return []string{"msvcp120" + suffix, "msvcr120" + suffix}
}

// CopyVsRuntimeDlls stages the VS runtime next to the binaries of every
// configuration directory that exists under outputDir. x86 DLLs go to Debug
// and Release; x64 DLLs go to Debug_x64, Release_x64 and the x64
// subdirectories of Debug and Release.
func CopyVsRuntimeDlls(outputDir string, dirs RuntimeDirs, vsVersion string) error {
	outDebug := filepath.Join(outputDir, "Debug")
	outRelease := filepath.Join(outputDir, "Release")
	outDebugNested64 := filepath.Join(outDebug, "x64")
	outReleaseNested64 := filepath.Join(outRelease, "x64")

	for parent, nested := range map[string]string{outDebug: outDebugNested64, outRelease: outReleaseNested64} {
		if isDir(parent) {
			if err := os.MkdirAll(nested, 0755); err != nil {
				return errors.Wrapf(err, "create %s", nested)
			}
		}
	}

	targets := []struct {
		dir    string
		source string
		debug  bool
	}{
		{outDebug, dirs.X86, true},
		{outRelease, dirs.X86, false},
		{filepath.Join(outputDir, "Debug_x64"), dirs.X64, true},
		{filepath.Join(outputDir, "Release_x64"), dirs.X64, false},
		{outDebugNested64, dirs.X64, true},
		{outReleaseNested64, dirs.X64, false},
	}
	for _, t := range targets {
		if !isDir(t.dir) {
			logger.Debug("[DEBUG] %s does not exist, skipping runtime copy\n", t.dir)
			continue
		}
		for _, dll := range runtimeDLLs(vsVersion, t.debug) {
			if err := copyRuntime(filepath.Join(t.dir, dll), filepath.Join(t.source, dll)); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyRuntime copies source over target unless target already has the
// same modification time.
func copyRuntime(target, source string) error {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return errors.Wrap(err, "runtime DLL")
	}
	if dstInfo, err := os.Stat(target); err == nil && dstInfo.Mode().IsRegular() && dstInfo.ModTime().Equal(srcInfo.ModTime()) {
		return nil
	}

	logger.Info("[INFO] Copying %s to %s...\n", source, target)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove stale %s", target)
	}
	if err := copyFile(source, target, srcInfo); err != nil {
		return errors.Wrapf(err, "copy %s to %s", source, target)
	}
	return nil
}

// copyFile copies src to dst, preserving permissions and modification time.
func copyFile(src, dst string, srcInfo os.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err == nil {
			err = os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

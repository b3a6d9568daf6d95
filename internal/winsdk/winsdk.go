// Package winsdk fills in the Windows 10 SDK search paths that the
// ninja-winrt generator needs under Visual Studio 2015. In that setup the
// SDK include directories depend on the installed SDK revision, which is
// only recorded in the SDK's SDKManifest.xml.
package winsdk

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
	"github.com/anderm/zzz-obsolete.webrtc/internal/logger"
)

const (
	// VS2015 is the VisualStudioVersion value that triggers normalization.
	VS2015 = "14.0"

	ManifestName = "SDKManifest.xml"

	fileListTag      = "FileList"
	platformIdentity = "PlatformIdentity"
	versionToken     = "Version="
)

// Only x86 libraries are wired up for ninja-winrt.
const (
	sdkIncludeTmpl  = `%[1]sinclude\%[2]s\shared;%[1]sinclude\%[2]s\um;%[1]sinclude\%[2]s\winrt;`
	ucrtIncludeTmpl = `%sinclude\ucrt;`
	sdkLibTmpl      = `%[1]sLib\%[2]s\um\x86;`
)

// Result describes what Normalize did.
type Result struct {
	// Triggered is false when the generator/IDE combination did not match.
	Triggered bool
	// Version is the SDK revision found in the manifest, "" if none.
	Version string
}

// Triggered reports whether env selects ninja-winrt under VS 2015.
func Triggered(env *environ.Env) bool {
	return environ.ParseGenerators(env.Get("GYP_GENERATORS")).Is(environ.BackendNinjaWinRT) &&
		strings.TrimSpace(env.Get("VisualStudioVersion")) == VS2015
}

// Normalize adds vcpackages to LIBPATH and, when the installed SDK revision
// can be determined, sets VS_EXTRA_INCLUDES and prepends the SDK library
// directory to LIB. Unset VCInstallDir or UniversalCRTSdkDir and a missing
// or malformed manifest are errors; a manifest without a version is not.
func Normalize(env *environ.Env) (Result, error) {
	if !Triggered(env) {
		return Result{}, nil
	}
	res := Result{Triggered: true}

	vcDir, ok := env.Lookup("VCInstallDir")
	if !ok {
		return res, errors.New("VCInstallDir is not set; run from a Visual Studio 2015 command prompt")
	}
	sdkDir, ok := env.Lookup("UniversalCRTSdkDir")
	if !ok {
		return res, errors.New("UniversalCRTSdkDir is not set; run from a Visual Studio 2015 command prompt")
	}

	vcpackages := filepath.Join(vcDir, "vcpackages")
	env.Append("LIBPATH", vcpackages+";")
	logger.Debug("[DEBUG] LIBPATH += %s;\n", vcpackages)

	manifest := sdkDir + ManifestName
	version, err := ReadSDKVersion(manifest)
	if err != nil {
		return res, err
	}
	if version == "" {
		logger.Warn("[WARN] No SDK version in %s; leaving SDK include paths unset\n", manifest)
		return res, nil
	}
	res.Version = version

	includes := fmt.Sprintf(ucrtIncludeTmpl, sdkDir) + fmt.Sprintf(sdkIncludeTmpl, sdkDir, version)
	env.Set("VS_EXTRA_INCLUDES", includes)
	env.Prepend("LIB", fmt.Sprintf(sdkLibTmpl, sdkDir, version))
	logger.Debug("[DEBUG] Windows SDK %s: VS_EXTRA_INCLUDES=%s\n", version, includes)
	return res, nil
}

// ReadSDKVersion returns the revision from the first FileList element (in
// document order) that carries a PlatformIdentity attribute, e.g. "10.0.10240.0"
// from PlatformIdentity="UAP, Version=10.0.10240.0". Later FileList elements
// are never consulted. The whole document must be well formed.
func ReadSDKVersion(manifest string) (string, error) {
	f, err := os.Open(manifest)
	if err != nil {
		return "", errors.Wrap(err, "open SDK manifest")
	}
	defer f.Close()

	version, err := scanVersion(f)
	if err != nil {
		return "", errors.Wrapf(err, "parse SDK manifest %s", manifest)
	}
	return version, nil
}

func scanVersion(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		version string
		matched bool
		sawRoot bool
		depth   int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			// Only whitespace may appear outside the root element.
			if depth == 0 && len(strings.TrimSpace(string(t))) > 0 {
				return "", errors.Errorf("line %d: text outside the document element", lineOf(dec))
			}
		case xml.EndElement:
			depth--
		case xml.StartElement:
			if depth == 0 && sawRoot {
				return "", errors.Errorf("line %d: junk after document element <%s>", lineOf(dec), t.Name.Local)
			}
			depth++
			sawRoot = true
			if matched || t.Name.Local != fileListTag {
				continue
			}
			identity := attr(t, platformIdentity)
			if identity == "" {
				continue
			}
			matched = true
			if idx := strings.Index(identity, versionToken); idx >= 0 {
				version = strings.TrimSpace(identity[idx+len(versionToken):])
			}
		}
	}
	if !sawRoot {
		return "", errors.New("no root element")
	}
	return version, nil
}

func lineOf(dec *xml.Decoder) int {
	line, _ := dec.InputPos()
	return line
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

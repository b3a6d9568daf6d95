package gyp

import (
	"strings"

	"github.com/anderm/zzz-obsolete.webrtc/internal/environ"
)

const outputDirFlag = "output_dir="

// OutputDirectory returns the generator output directory, relative to the
// checkout root: the first "-G output_dir=..." argument, else output_dir in
// GYP_GENERATOR_FLAGS, else "out".
func OutputDirectory(env *environ.Env, args []string) (string, error) {
	var genflags []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-G":
			if i+1 < len(args) {
				genflags = append(genflags, args[i+1])
				i++
			}
		case strings.HasPrefix(arg, "-G"):
			genflags = append(genflags, strings.TrimPrefix(arg[2:], "="))
		}
	}

	envFlags, err := ShlexEnv(env, "GYP_GENERATOR_FLAGS")
	if err != nil {
		return "", err
	}
	genflags = append(genflags, envFlags...)

	for _, item := range genflags {
		if strings.HasPrefix(item, outputDirFlag) {
			return item[len(outputDirFlag):], nil
		}
	}
	return "out", nil
}

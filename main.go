package main

import (
	"os"

	"github.com/anderm/zzz-obsolete.webrtc/cmd" // CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() and exits with the status it returns.
//
// gyp-webrtc is the build-configuration front end of a WebRTC checkout:
//   - Reads the optional webrtc.gyp_env overlay next to the checkout and merges it
//     into the environment, letting variables already set win
//   - Picks the GYP generator (ninja by default) and normalizes Windows SDK paths
//     for WinRT builds on Visual Studio 2015
//   - Points GYP at the managed Visual Studio toolchain from build/win_toolchain.json,
//     unpacking a configured toolchain package when it is missing
//   - Turns on cross compilation for ninja builds that target Android or iOS
//   - Runs GYP with the assembled arguments, then copies the VS runtime DLLs
//     into the Debug/Release output directories
//
// Exit status:
//   - the generator's own status when it ran
//   - 0 when GYP_CHROMIUM_NO_ACTION asks for no work
//   - 1 on any error before or after the generator
func main() {
	os.Exit(cmd.Execute())
}

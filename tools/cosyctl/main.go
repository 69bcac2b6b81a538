// Command cosyctl drives a CosyVoice TTS server: it lists voices, synthesizes
// speech, runs readiness checks and serves the host bridge.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

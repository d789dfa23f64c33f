package audio

import "os/exec"

// Strategy is the execution path chosen by capability probing
type Strategy string

const (
	StrategyExternalUtility   Strategy = "external_utility"
	StrategyFallbackSynthesis Strategy = "fallback_synthesis"
	StrategyLibraryPlayback   Strategy = "library_playback"
)

// Probing happens per invocation, never cached, so hardware that appears
// mid-session is picked up on the next call.

func probeCapture() Strategy {
	if _, err := exec.LookPath("arecord"); err == nil {
		return StrategyExternalUtility
	}
	return StrategyFallbackSynthesis
}

func probePlayback() Strategy {
	if _, err := exec.LookPath("aplay"); err == nil {
		return StrategyExternalUtility
	}
	return StrategyLibraryPlayback
}

// Package prompt renders the versioned prompts sent to the completion
// model. Rendering is pure: identical input yields byte-identical output.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVersion is returned for a version the package does not know.
var ErrUnknownVersion = errors.New("unknown prompt version")

// SummaryVersion selects a horse summary prompt.
type SummaryVersion int

const (
	SummaryV1 SummaryVersion = iota + 1
	SummaryV2
)

// LatestSummary is the version new deployments default to.
const LatestSummary = SummaryV2

func (v SummaryVersion) String() string {
	switch v {
	case SummaryV1:
		return "v1"
	case SummaryV2:
		return "v2"
	}
	return fmt.Sprintf("SummaryVersion(%d)", int(v))
}

// ParseSummaryVersion maps a config value such as "v2" to a version.
func ParseSummaryVersion(s string) (SummaryVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1":
		return SummaryV1, nil
	case "v2":
		return SummaryV2, nil
	}
	return 0, fmt.Errorf("%w: summary %q", ErrUnknownVersion, s)
}

// VoiceVersion selects a voice extraction prompt.
type VoiceVersion int

const (
	VoiceV1 VoiceVersion = iota + 1
	VoiceV2
)

// LatestVoice is the version new deployments default to.
const LatestVoice = VoiceV2

func (v VoiceVersion) String() string {
	switch v {
	case VoiceV1:
		return "v1"
	case VoiceV2:
		return "v2"
	}
	return fmt.Sprintf("VoiceVersion(%d)", int(v))
}

// ParseVoiceVersion maps a config value such as "v1" to a version.
func ParseVoiceVersion(s string) (VoiceVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1":
		return VoiceV1, nil
	case "v2":
		return VoiceV2, nil
	}
	return 0, fmt.Errorf("%w: voice %q", ErrUnknownVersion, s)
}

// Prompt is a rendered system prompt plus the user message carrying data.
type Prompt struct {
	System string
	User   string
}

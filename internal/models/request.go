package models

import (
	"fmt"
	"strings"
)

// Tone is the writing style requested for a generation run
type Tone string

const (
	ToneProfessional   Tone = "Professional"
	ToneConversational Tone = "Conversational"
	ToneInspirational  Tone = "Inspirational"
	ToneStorytelling   Tone = "Storytelling"
)

// Tones lists every supported tone in display order
var Tones = []Tone{
	ToneProfessional,
	ToneConversational,
	ToneInspirational,
	ToneStorytelling,
}

// Post count bounds, matching the form slider
const (
	MinPostCount     = 1
	MaxPostCount     = 5
	DefaultPostCount = 3
)

// ParseTone resolves a tone name case-insensitively
func ParseTone(s string) (Tone, error) {
	s = strings.TrimSpace(s)
	for _, t := range Tones {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q (supported: %s)", s, strings.Join(ToneNames(), ", "))
}

// ToneNames returns the tone set as strings
func ToneNames() []string {
	names := make([]string, len(Tones))
	for i, t := range Tones {
		names[i] = string(t)
	}
	return names
}

// Valid reports whether t is one of the supported tones
func (t Tone) Valid() bool {
	for _, known := range Tones {
		if t == known {
			return true
		}
	}
	return false
}

// GenerationRequest holds the user input for one pipeline run.
// Topic and Audience are free-form and may be empty.
type GenerationRequest struct {
	Topic     string `json:"topic" yaml:"topic"`
	Tone      Tone   `json:"tone" yaml:"tone"`
	Audience  string `json:"audience" yaml:"audience"`
	PostCount int    `json:"post_count" yaml:"post_count"`
}

// Validate checks the enumerated and bounded fields
func (r GenerationRequest) Validate() error {
	if !r.Tone.Valid() {
		return fmt.Errorf("unknown tone %q (supported: %s)", r.Tone, strings.Join(ToneNames(), ", "))
	}
	if r.PostCount < MinPostCount || r.PostCount > MaxPostCount {
		return fmt.Errorf("post count must be between %d and %d, got %d", MinPostCount, MaxPostCount, r.PostCount)
	}
	return nil
}

// Package speech adapts external speech engines to two opaque functions:
// audio bytes to transcript text, and reply text to audio bytes.
package speech

import "errors"

// wavHeaderSize is the smallest payload a synthesizer can legitimately
// return; anything shorter cannot even hold a RIFF header.
const wavHeaderSize = 44

// ErrEmptyTranscript means the engine answered but produced no text. An
// empty result is a failure, never a valid empty transcript.
var ErrEmptyTranscript = errors.New("speech: transcription produced no text")

// ErrInvalidAudio means the synthesizer returned an implausibly small
// payload that must not be forwarded as audio.
var ErrInvalidAudio = errors.New("speech: synthesized audio payload too small")

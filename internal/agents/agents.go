// Package agents holds the three LLM-backed stages of the consultation
// pipeline: extraction (transcript to structured record), summarization
// (record to audience notes) and question answering (record plus history to
// answer). Every prompt forbids invention: the model is told to leave
// fields empty or return a fixed disclosure rather than guess.
package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"consult-listener/internal/llm"
)

var retryBackoff = []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}

// completeWithRetry drives one chat completion with the fixed backoff
// schedule. sleep is injectable for tests.
func completeWithRetry(ctx context.Context, client llm.Client, messages []llm.Message, sleep func(time.Duration)) (string, error) {
	var lastErr error
	for attempt := range retryBackoff {
		result, err := client.Complete(ctx, messages)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < len(retryBackoff)-1 {
			sleep(retryBackoff[attempt])
		}
	}
	return "", fmt.Errorf("completion failed after retries: %w", lastErr)
}

// stripFences removes a surrounding markdown code fence, which chat models
// like to wrap JSON in even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

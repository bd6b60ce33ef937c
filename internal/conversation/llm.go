package conversation

import (
	"context"
	"errors"
)

// ErrGenerationFailed wraps any language model collaborator failure,
// including timeouts. The engine converts it into a spoken apology and a
// forced hangup; it never reaches the caller as a raw fault.
var ErrGenerationFailed = errors.New("conversation: generation failed")

// LLMClient is the language model collaborator. Marker tokens are
// communicated as plain substrings of the returned text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

package domain

import "context"

// Classifier is a remote generative-model content check. Classify returns
// true when the text is judged inappropriate. Errors are returned to the
// caller, which owns the fail-open/fail-closed policy.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (bool, error)
	Healthy(ctx context.Context) error
}

package assessment

import "context"

// Completer performs the single outbound call for one provider variant and
// extracts its text payload.
type Completer interface {
	Complete(ctx context.Context, call Call) (Completion, error)
}

// Assessor is the dispatcher contract: it always returns a tagged Result.
type Assessor interface {
	Assess(ctx context.Context, req Request) Result
}

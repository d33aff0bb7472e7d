package live

// Domain errors surfaced by the engine. The websocket layer turns these into
// point-to-point error events (or silent drops, per handler); the HTTP layer
// maps them to status codes.

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// InvalidTransitionError reports a timer action applied from a state that does
// not permit it. No state is changed.
type InvalidTransitionError struct{ Message string }

func (e *InvalidTransitionError) Error() string { return e.Message }

package handlers

// Result reports how an action was handled. Unauthorized actions are
// dropped, not rejected: the sender gets no error either way, but the
// caller decides whether to log or count Denied/NotFound outcomes.
type Result int

const (
	// Applied: the action was authorized and executed.
	Applied Result = iota
	// Denied: the sender lacked the required right; nothing changed.
	Denied
	// NotFound: the target board/object/record does not exist; nothing
	// changed and nothing was broadcast.
	NotFound
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Denied:
		return "denied"
	case NotFound:
		return "notFound"
	default:
		return "unknown"
	}
}

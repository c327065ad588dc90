package engine

// InteractionMode governs how aggressively main control stops for
// operator input on an error, per spec.md §6.2/§7 and the REDESIGN
// FLAG inviting four distinct levels rather than a single batch/
// interactive toggle.
type InteractionMode int32

const (
	BatchMode InteractionMode = iota
	NonstopMode
	ScrollMode
	ErrorStopMode
)

func (m InteractionMode) String() string {
	switch m {
	case BatchMode:
		return "batchmode"
	case NonstopMode:
		return "nonstopmode"
	case ScrollMode:
		return "scrollmode"
	case ErrorStopMode:
		return "errorstopmode"
	default:
		return "unknown interaction mode"
	}
}

// Batch reports whether this mode suppresses terminal echo (spec.md
// §7: only batchmode does).
func (m InteractionMode) Batch() bool { return m == BatchMode }

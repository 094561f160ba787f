package chat

// Phase is the current step of the elicitation state machine. Phases only
// move forward, one step at a time; ERROR is absorbing and reachable from
// any non-terminal phase.
type Phase string

const (
	PhaseIntroduction     Phase = "INTRODUCTION"
	PhaseGatheringPurpose Phase = "GATHERING_PURPOSE"
	PhaseDefiningStyle    Phase = "DEFINING_STYLE"
	PhaseStructureContent Phase = "STRUCTURE_CONTENT"
	PhaseRefinement       Phase = "REFINEMENT"
	PhaseConfirmation     Phase = "CONFIRMATION"
	PhaseGenerating       Phase = "GENERATING"
	PhaseComplete         Phase = "COMPLETE"
	PhaseError            Phase = "ERROR"
)

// phaseOrder gives each forward phase its position in the sequence.
// ERROR is deliberately absent: it is not part of the forward walk.
var phaseOrder = map[Phase]int{
	PhaseIntroduction:     0,
	PhaseGatheringPurpose: 1,
	PhaseDefiningStyle:    2,
	PhaseStructureContent: 3,
	PhaseRefinement:       4,
	PhaseConfirmation:     5,
	PhaseGenerating:       6,
	PhaseComplete:         7,
}

// Valid returns true for known phases, including ERROR.
func (p Phase) Valid() bool {
	if p == PhaseError {
		return true
	}
	_, ok := phaseOrder[p]
	return ok
}

// Terminal returns true for phases that accept no further transitions
// except an explicit reset.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// Next returns the phase one step forward, or the phase itself when there is
// no forward step (terminal phases and ERROR stay put).
func (p Phase) Next() Phase {
	idx, ok := phaseOrder[p]
	if !ok || p == PhaseComplete {
		return p
	}
	for candidate, i := range phaseOrder {
		if i == idx+1 {
			return candidate
		}
	}
	return p
}

// Before reports whether p comes strictly before other in the forward walk.
// ERROR is before nothing and nothing is before ERROR.
func (p Phase) Before(other Phase) bool {
	pi, ok1 := phaseOrder[p]
	oi, ok2 := phaseOrder[other]
	return ok1 && ok2 && pi < oi
}

// ParsePhase coerces a stored string into a Phase, falling back to
// INTRODUCTION for anything unrecognized. Restoration must never abort on a
// malformed phase.
func ParsePhase(s string) Phase {
	p := Phase(s)
	if p.Valid() {
		return p
	}
	return PhaseIntroduction
}

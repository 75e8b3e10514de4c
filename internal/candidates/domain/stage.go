// Package domain provides core business rules for the candidates bounded context.
package domain

import "fmt"

// Pipeline stages, in mainline order. A candidate advances one step at a
// time along the mainline; rejected and dropped are reachable from any
// non-terminal stage.
const (
	StageSourced            = "sourced"
	StageScreening          = "screening"
	StageInterviewScheduled = "interview_scheduled"
	StageInterviewCompleted = "interview_completed"
	StageOfferMade          = "offer_made"
	StageOfferAccepted      = "offer_accepted"
	StageJoined             = "joined"
	StageRejected           = "rejected"
	StageDropped            = "dropped"
)

// mainline is the ordered happy path from sourcing to placement.
var mainline = []string{
	StageSourced,
	StageScreening,
	StageInterviewScheduled,
	StageInterviewCompleted,
	StageOfferMade,
	StageOfferAccepted,
	StageJoined,
}

// terminalStages are stages that admit no further transitions.
// StageDropped is additionally the forced destination of a renege, which
// bypasses the stage machine and goes through the renege processor.
var terminalStages = map[string]bool{
	StageJoined:   true,
	StageRejected: true,
	StageDropped:  true,
}

var knownStages = func() map[string]struct{} {
	m := make(map[string]struct{}, len(mainline)+2)
	for _, s := range mainline {
		m[s] = struct{}{}
	}
	m[StageRejected] = struct{}{}
	m[StageDropped] = struct{}{}
	return m
}()

// adjacency maps each stage to the set of stages reachable from it.
var adjacency = func() map[string]map[string]struct{} {
	m := make(map[string]map[string]struct{}, len(mainline))
	for i, s := range mainline {
		if terminalStages[s] {
			continue
		}
		targets := map[string]struct{}{
			StageRejected: {},
			StageDropped:  {},
		}
		if i+1 < len(mainline) {
			targets[mainline[i+1]] = struct{}{}
		}
		m[s] = targets
	}
	return m
}()

// IsKnownStage reports whether stage is a member of the closed stage enumeration.
func IsKnownStage(stage string) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsTerminalStage reports whether no further transitions are allowed from stage.
func IsTerminalStage(stage string) bool {
	return terminalStages[stage]
}

// ValidateTransition checks that target is reachable from current.
// It returns an error wrapping ErrInvalidTransition otherwise; there is no
// silent clamping of unreachable targets.
func ValidateTransition(current, target string) error {
	if !IsKnownStage(target) {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, target)
	}
	targets, ok := adjacency[current]
	if !ok {
		return fmt.Errorf("%w: %q is terminal", ErrInvalidTransition, current)
	}
	if _, ok := targets[target]; !ok {
		return fmt.Errorf("%w: %q is not reachable from %q", ErrInvalidTransition, target, current)
	}
	return nil
}

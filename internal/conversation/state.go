// Package conversation implements the symptom-checker dialogue: a single
// tagged state, the ordered set of collected symptoms, and the rules that
// route each line of user input.
package conversation

import "fmt"

// MaxSymptoms is the number of symptoms after which the controller stops
// collecting and asks for the day count.
const MaxSymptoms = 5

// State is the current conversation mode.
type State int

const (
	// StateCollectingSymptoms accepts symptom tokens, "exit", "edit" or a query.
	StateCollectingSymptoms State = iota
	// StateAwaitingDays accepts a positive day count.
	StateAwaitingDays
	// StatePreDiagnosisQuery accepts a medical question or "no".
	StatePreDiagnosisQuery
	// StatePostDiagnosisQuery answers medical questions for the rest of the session.
	StatePostDiagnosisQuery
)

var stateNames = map[State]string{
	StateCollectingSymptoms: "collecting_symptoms",
	StateAwaitingDays:       "awaiting_days",
	StatePreDiagnosisQuery:  "pre_diagnosis_query",
	StatePostDiagnosisQuery: "post_diagnosis_query",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name for JSON frames.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown conversation state %q", string(b))
}

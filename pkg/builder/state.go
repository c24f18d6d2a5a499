package builder

import (
	"fmt"

	"mon-launch/pkg/types"
)

// Step is the builder's position in the four-stage flow.
type Step int

const (
	StepIdle     Step = 0
	StepContract Step = 1
	StepFrontend Step = 2
	StepLaunch   Step = 3
)

// String renders the step for log lines and CLI output.
func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepContract:
		return "contract"
	case StepFrontend:
		return "frontend"
	case StepLaunch:
		return "launch"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// State is everything the builder persists for one concept. The whole record
// is written back after every field change and restored verbatim when the
// same concept is reopened.
type State struct {
	Step            Step                `json:"step"`
	ContractCode    string              `json:"contract_code"`
	FrontendPrompt  string              `json:"frontend_prompt"`
	ContractAddress string              `json:"contract_address"`
	Logos           [][]byte            `json:"logos"`
	SelectedLogo    int                 `json:"selected_logo"`
	TokenForm       types.TokenForm     `json:"token_form"`
	PackedLaunch    *types.PackedLaunch `json:"packed_launch,omitempty"`
}

// stateVersion is bumped when the persisted layout changes; migrate handles
// older envelopes in one place instead of per-field fallbacks at read sites.
const stateVersion = 1

// envelope is the versioned on-disk form of State.
type envelope struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

// migrate normalizes a loaded envelope to the current version, applying
// defaults exactly once at load time.
func migrate(env envelope) (State, error) {
	switch env.Version {
	case 0, stateVersion:
		st := env.State
		if st.Logos == nil {
			st.Logos = [][]byte{}
		}
		if st.Step < StepIdle || st.Step > StepLaunch {
			return State{}, fmt.Errorf("persisted state has invalid step %d", st.Step)
		}
		return st, nil
	default:
		return State{}, fmt.Errorf("unsupported state version %d", env.Version)
	}
}

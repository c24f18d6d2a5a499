package builder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"mon-launch/pkg/logo"
	"mon-launch/pkg/types"
)

// Generator produces the contract code and frontend prompt for a concept.
// The content itself is an external collaborator's concern; the machine only
// sequences and caches the calls.
type Generator interface {
	GenerateContract(ctx context.Context, concept types.Concept) (string, error)
	GenerateFrontendPrompt(ctx context.Context, concept types.Concept) (string, error)
}

const defaultSupply = "1000000000"

// Machine drives one concept through the builder stages
// idle → contract → frontend → launch. All progress is persisted after every
// mutation and restored verbatim when the concept is reopened.
type Machine struct {
	concept types.Concept
	store   *Store
	gen     Generator
	log     *BuildLog

	mu             sync.Mutex
	state          *State
	promptInFlight bool
	session        int // bumped on reset so stale generations are discarded
	wg             sync.WaitGroup
}

// NewMachine opens (or starts) a builder session for the concept, restoring
// any persisted state.
func NewMachine(store *Store, gen Generator, concept types.Concept) (*Machine, error) {
	state, ok, err := store.LoadState(concept.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		state = &State{Step: StepIdle, SelectedLogo: 0, Logos: [][]byte{}}
	}

	buildLog, err := NewBuildLog(store, concept.ID)
	if err != nil {
		return nil, err
	}

	return &Machine{
		concept: concept,
		store:   store,
		gen:     gen,
		log:     buildLog,
		state:   state,
	}, nil
}

// Step returns the current stage.
func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Step
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// Log returns the session's build log.
func (m *Machine) Log() *BuildLog {
	return m.log
}

// Logf appends to the build log; the launch pipeline uses this as its sink.
func (m *Machine) Logf(format string, args ...any) {
	m.log.Appendf(format, args...)
}

// Next advances one stage. Skipping forward is not possible; each entry hook
// runs exactly once unless its artifact was cleared.
func (m *Machine) Next(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.Step {
	case StepIdle:
		return m.enterContract(ctx)
	case StepContract:
		return m.enterFrontend(ctx)
	case StepFrontend:
		return m.enterLaunch()
	case StepLaunch:
		return fmt.Errorf("already at the launch stage")
	default:
		return fmt.Errorf("invalid builder step %d", m.state.Step)
	}
}

// Prev steps back one stage. Only frontend→contract and launch→frontend are
// legal; cached artifacts survive so moving forward again is free.
func (m *Machine) Prev() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.Step {
	case StepFrontend:
		m.state.Step = StepContract
	case StepLaunch:
		m.state.Step = StepFrontend
	default:
		return fmt.Errorf("cannot go back from the %s stage", m.state.Step)
	}

	return m.persist()
}

// enterContract resumes from cache when any artifact exists; otherwise all
// prior artifacts are cleared and the contract is regenerated from scratch.
func (m *Machine) enterContract(ctx context.Context) error {
	if m.state.ContractCode != "" {
		m.log.Appendf("Resuming contract stage from cached artifacts")
		m.state.Step = StepContract
		return m.persist()
	}

	m.log.Appendf("No cached artifacts, generating contract from scratch")
	*m.state = State{Step: StepIdle, SelectedLogo: 0, Logos: [][]byte{}}

	code, err := m.gen.GenerateContract(ctx, m.concept)
	if err != nil {
		m.log.Appendf("Contract generation failed: %v", err)
		return fmt.Errorf("contract generation failed: %w", err)
	}

	m.state.ContractCode = code
	m.state.Step = StepContract
	m.log.Appendf("Contract generated (%d bytes)", len(code))
	return m.persist()
}

// enterFrontend triggers asynchronous prompt generation exactly once; a
// cached prompt is reused on re-entry.
func (m *Machine) enterFrontend(ctx context.Context) error {
	m.state.Step = StepFrontend
	if err := m.persist(); err != nil {
		return err
	}

	if m.state.FrontendPrompt != "" {
		m.log.Appendf("Reusing cached frontend prompt")
		return nil
	}
	if m.promptInFlight {
		return nil
	}

	m.promptInFlight = true
	session := m.session
	m.log.Appendf("Generating frontend prompt")

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		prompt, err := m.gen.GenerateFrontendPrompt(ctx, m.concept)

		m.mu.Lock()
		defer m.mu.Unlock()
		m.promptInFlight = false

		// A reset while generation was in flight invalidates the result.
		if session != m.session {
			return
		}

		if err != nil {
			m.log.Appendf("Frontend prompt generation failed: %v", err)
			return
		}

		m.state.FrontendPrompt = prompt
		m.log.Appendf("Frontend prompt ready (%d bytes)", len(prompt))
		_ = m.persist()
	}()

	return nil
}

// enterLaunch seeds the logo set and form defaults. Seeding never overwrites
// a user edit: only empty fields are filled.
func (m *Machine) enterLaunch() error {
	m.state.Step = StepLaunch

	if len(m.state.Logos) == 0 {
		m.state.Logos = logo.Generate(m.concept.Title)
		m.log.Appendf("Seeded %d logo variants", len(m.state.Logos))
	}

	form := &m.state.TokenForm
	if form.Name == "" {
		form.Name = truncate(m.concept.Title, 20)
	}
	if form.Symbol == "" {
		form.Symbol = truncate(strings.ToUpper(m.concept.Symbol), 10)
	}
	if form.Description == "" {
		form.Description = m.concept.Description
	}
	if form.Supply == "" {
		form.Supply = defaultSupply
	}

	m.log.Appendf("Entered launch stage")
	return m.persist()
}

// Reset clears all persisted state for the concept and returns to idle.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session++
	if err := m.store.Clear(m.concept.ID); err != nil {
		return err
	}

	m.state = &State{Step: StepIdle, SelectedLogo: 0, Logos: [][]byte{}}
	m.log = &BuildLog{conceptID: m.concept.ID, store: m.store}
	m.log.Appendf("Builder reset")

	return nil
}

// UpdateForm applies a mutation to the token form and persists the state.
func (m *Machine) UpdateForm(mutate func(*types.TokenForm)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mutate(&m.state.TokenForm)
	return m.persist()
}

// SelectLogo picks a generated variant (or -1 for a custom upload).
func (m *Machine) SelectLogo(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < -1 || index >= len(m.state.Logos) {
		return fmt.Errorf("logo index %d out of range", index)
	}
	m.state.SelectedLogo = index
	m.state.TokenForm.SelectedLogo = index
	return m.persist()
}

// SelectedLogoData returns the logo bytes the form currently points at.
func (m *Machine) SelectedLogoData() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.SelectedLogo == -1 {
		if len(m.state.TokenForm.CustomLogo) == 0 {
			return nil, fmt.Errorf("custom logo selected but none uploaded")
		}
		return m.state.TokenForm.CustomLogo, nil
	}
	if m.state.SelectedLogo < 0 || m.state.SelectedLogo >= len(m.state.Logos) {
		return nil, fmt.Errorf("logo index %d out of range", m.state.SelectedLogo)
	}
	return m.state.Logos[m.state.SelectedLogo], nil
}

// SetPackedLaunch stores (or clears) the packed launch and persists.
func (m *Machine) SetPackedLaunch(packed *types.PackedLaunch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.PackedLaunch = packed
	return m.persist()
}

// SetContractAddress records the deployed address after submission.
func (m *Machine) SetContractAddress(addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.ContractAddress = addr
	return m.persist()
}

// Wait blocks until any in-flight background generation settles. The CLI
// calls this before exiting so results are not lost.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// persist writes the whole state; callers hold m.mu.
func (m *Machine) persist() error {
	return m.store.SaveState(m.concept.ID, m.state)
}

// truncate keeps at most max characters. Slicing by runes rather than bytes
// keeps a multi-byte title from being cut mid-character.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

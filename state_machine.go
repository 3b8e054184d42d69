package authflow

import (
	"sync"
)

// Listener receives the machine state on subscription and after every
// transition or reset.
type Listener func(state MachineState)

// statePatch accumulates explicit field updates for a single transition.
// Presence flags distinguish "set to zero" from "not mentioned".
type statePatch struct {
	request      *AuthChallengeRequest
	setRequest   bool
	challenge    *AuthChallengeResponse
	setChallenge bool
	verification *AuthChallengeVerificationRequest
	setVerify    bool
	session      *AuthSession
	setSession   bool
	user         *User
	setUser      bool
	errMsg       string
	setError     bool
}

// TransitionOption supplies context for a status change.
type TransitionOption func(*statePatch)

// WithRequest records the challenge request entering the flow.
func WithRequest(req AuthChallengeRequest) TransitionOption {
	return func(p *statePatch) {
		p.request = &req
		p.setRequest = true
	}
}

// WithChallenge records the issued challenge.
func WithChallenge(challenge AuthChallengeResponse) TransitionOption {
	return func(p *statePatch) {
		p.challenge = &challenge
		p.setChallenge = true
	}
}

// WithVerification records the verification attempt in flight.
func WithVerification(v AuthChallengeVerificationRequest) TransitionOption {
	return func(p *statePatch) {
		p.verification = &v
		p.setVerify = true
	}
}

// WithSession sets the established session.
func WithSession(session AuthSession) TransitionOption {
	return func(p *statePatch) {
		p.session = &session
		p.setSession = true
	}
}

// WithUser sets the authenticated user.
func WithUser(user User) TransitionOption {
	return func(p *statePatch) {
		p.user = &user
		p.setUser = true
	}
}

// WithError sets the failure message for an error transition. Without it,
// error transitions fall back to a generic message.
func WithError(msg string) TransitionOption {
	return func(p *statePatch) {
		p.errMsg = msg
		p.setError = true
	}
}

type listenerEntry struct {
	id int
	fn Listener
}

// Machine is the pure state container for the login flow. It performs no
// I/O; the Coordinator is its only intended writer. Mutation is serialized
// by an internal mutex so it is safe to read from other goroutines.
type Machine struct {
	mu        sync.Mutex
	state     MachineState
	listeners []listenerEntry
	nextID    int
}

// NewMachine returns a machine at rest in the idle status.
func NewMachine() *Machine {
	return &Machine{
		state: MachineState{Status: StatusIdle},
	}
}

// State returns a copy of the current machine state.
func (m *Machine) State() MachineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a listener and synchronously delivers the current
// state to it exactly once before returning the unsubscribe function.
func (m *Machine) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, listenerEntry{id: id, fn: fn})
	current := m.state
	m.mu.Unlock()

	fn(current)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, entry := range m.listeners {
			if entry.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Transition moves the machine to the target status, applying the supplied
// context options and the status' own clearing rules, then notifies every
// listener with the new state. The returned value is the committed state.
//
// Status semantics:
//   - idle always clears every optional field, regardless of options.
//   - requesting-challenge starts a fresh cycle: prior challenge and
//     verification are dropped along with any error.
//   - challenge-sent keeps the request but clears session, user,
//     verification, and error.
//   - verifying clears only the error.
//   - authenticated clears challenge, request, verification, and error;
//     session and user survive from the prior state unless replaced.
//   - error overwrites the message (defaulting when none is supplied) and
//     retains all other context untouched.
func (m *Machine) Transition(status AuthFlowStatus, opts ...TransitionOption) MachineState {
	patch := &statePatch{}
	for _, opt := range opts {
		if opt != nil {
			opt(patch)
		}
	}

	m.mu.Lock()
	next := applyPatch(m.state, patch)
	next.Status = status

	switch status {
	case StatusIdle:
		next = MachineState{Status: StatusIdle}
	case StatusRequestingChallenge:
		next.Challenge = nil
		next.Verification = nil
		next.Error = ""
	case StatusChallengeSent:
		next.Session = nil
		next.User = nil
		next.Verification = nil
		next.Error = ""
	case StatusVerifying:
		next.Error = ""
	case StatusAuthenticated:
		next.Challenge = nil
		next.Request = nil
		next.Verification = nil
		next.Error = ""
	case StatusError:
		if !patch.setError || next.Error == "" {
			next.Error = defaultErrorMessage
		}
	}

	m.state = next
	snapshot := m.snapshotListeners()
	m.mu.Unlock()

	notify(snapshot, next)

	return next
}

// Reset returns the machine to idle, clearing all context.
func (m *Machine) Reset() MachineState {
	return m.Transition(StatusIdle)
}

func applyPatch(state MachineState, patch *statePatch) MachineState {
	if patch.setRequest {
		state.Request = patch.request
	}
	if patch.setChallenge {
		state.Challenge = patch.challenge
	}
	if patch.setVerify {
		state.Verification = patch.verification
	}
	if patch.setSession {
		state.Session = patch.session
	}
	if patch.setUser {
		state.User = patch.user
	}
	if patch.setError {
		state.Error = patch.errMsg
	}
	return state
}

// snapshotListeners copies the listener set so a listener that unsubscribes
// itself mid-notification cannot corrupt the iteration. Callers must hold
// the mutex.
func (m *Machine) snapshotListeners() []listenerEntry {
	if len(m.listeners) == 0 {
		return nil
	}
	snapshot := make([]listenerEntry, len(m.listeners))
	copy(snapshot, m.listeners)
	return snapshot
}

func notify(listeners []listenerEntry, state MachineState) {
	for _, entry := range listeners {
		if entry.fn != nil {
			entry.fn(state)
		}
	}
}

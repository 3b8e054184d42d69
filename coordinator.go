package authflow

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CoordinatorOption customizes coordinator construction.
type CoordinatorOption func(*Coordinator)

// WithRepository attaches a snapshot repository. Without one, persistence
// is disabled and Initialize returns the in-memory state unchanged.
func WithRepository(repo *Repository) CoordinatorOption {
	return func(c *Coordinator) {
		c.repo = repo
	}
}

// WithStore is shorthand for attaching a repository with default options
// over the given store.
func WithStore(store KeyValueStore) CoordinatorOption {
	return func(c *Coordinator) {
		if store != nil {
			c.repo = NewRepository(store)
		}
	}
}

// WithPersistenceDisabled turns snapshot persistence off even when a
// repository was attached.
func WithPersistenceDisabled() CoordinatorOption {
	return func(c *Coordinator) {
		c.persistence = false
	}
}

// WithCoordinatorLogger overrides the coordinator's logger.
func WithCoordinatorLogger(logger Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCoordinatorClock injects a custom clock (useful for tests).
func WithCoordinatorClock(clock func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if clock != nil {
			c.now = clock
		}
	}
}

// LogoutOption customizes session revocation.
type LogoutOption func(*RevokeSessionRequest)

// WithAllDevices revokes every session for the user, not just this one.
func WithAllDevices() LogoutOption {
	return func(r *RevokeSessionRequest) {
		r.AllDevices = true
	}
}

// Coordinator orchestrates the state machine and repository around the
// external Auth API. It is the only writer of both and the only component
// that talks to the network boundary. Mutating methods are serialized by an
// internal mutex; concurrent calls queue rather than interleave.
//
// Every network call is bracketed by exactly one in-flight transition and
// one terminal transition, so subscribers can render a deterministic
// loading state from Status alone.
type Coordinator struct {
	mu          sync.Mutex
	machine     *Machine
	repo        *Repository
	api         API
	logger      Logger
	now         func() time.Time
	persistence bool
}

// NewCoordinator returns a coordinator over the given Auth API. Persistence
// is enabled when a repository or store option is supplied.
func NewCoordinator(api API, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		machine:     NewMachine(),
		api:         api,
		logger:      defLogger{},
		now:         time.Now,
		persistence: true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// State returns the current machine state.
func (c *Coordinator) State() MachineState {
	return c.machine.State()
}

// Subscribe registers a listener on the underlying machine. The listener
// receives the current state synchronously before Subscribe returns.
func (c *Coordinator) Subscribe(fn Listener) func() {
	return c.machine.Subscribe(fn)
}

// Initialize restores authenticated state from the repository, or resets to
// idle when no complete snapshot exists. With persistence disabled it
// returns the in-memory state unchanged without touching the store.
func (c *Coordinator) Initialize(ctx context.Context) MachineState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.persistEnabled() {
		return c.machine.State()
	}

	snapshot := c.repo.Load(ctx)
	if snapshot == nil || !snapshot.Complete() {
		return c.machine.Reset()
	}

	return c.machine.Transition(StatusAuthenticated,
		WithSession(*snapshot.Session),
		WithUser(*snapshot.User),
	)
}

// StartChallenge validates the request, transitions to
// requesting-challenge, and asks the backend to issue a challenge.
// Validation failures surface before any transition or network call; the
// machine's status is untouched. Protocol failures transition to error and
// are returned to the caller.
func (c *Coordinator) StartChallenge(ctx context.Context, req AuthChallengeRequest) (*AuthChallengeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine.Transition(StatusRequestingChallenge, WithRequest(req))

	challenge, err := c.api.RequestChallenge(ctx, req)
	if err != nil {
		c.machine.Transition(StatusError, WithError(err.Error()))
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "challenge request failed")
	}

	c.machine.Transition(StatusChallengeSent, WithChallenge(*challenge))
	c.persistState(ctx)

	return challenge, nil
}

// VerifyCode validates the payload, transitions to verifying, redeems the
// challenge, and completes post-auth synchronization to obtain the
// canonical session/user pair. On success the machine lands on
// authenticated and the snapshot is persisted before returning.
//
// A failed verification leaves the held challenge in context; the caller
// may retry VerifyCode directly, or ClearError and start over. The backend
// remains the authority on challenge expiry.
func (c *Coordinator) VerifyCode(ctx context.Context, req AuthChallengeVerificationRequest) (MachineState, error) {
	if err := req.Validate(); err != nil {
		return c.machine.State(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine.Transition(StatusVerifying, WithVerification(req))

	result, err := c.api.VerifyChallenge(ctx, req)
	if err != nil {
		state := c.machine.Transition(StatusError, WithError(err.Error()))
		return state, goerrors.Wrap(err, goerrors.CategoryAuth, "challenge verification failed")
	}

	auth, err := c.api.CompletePostAuthSync(ctx, result)
	if err != nil {
		state := c.machine.Transition(StatusError, WithError(err.Error()))
		return state, goerrors.Wrap(err, goerrors.CategoryAuth, "post-auth sync failed")
	}

	state := c.machine.Transition(StatusAuthenticated,
		WithSession(auth.Session),
		WithUser(auth.User),
	)
	c.persistState(ctx)

	return state, nil
}

// Refresh renews the current session. It requires a refresh token on the
// session held by the machine and fails locally, without a network call,
// when there is none. On success only the session is replaced; the user
// carries over.
func (c *Coordinator) Refresh(ctx context.Context) (*AuthSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.machine.State()
	if current.Session == nil || current.Session.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	session, err := c.api.RefreshSession(ctx, RefreshSessionRequest{
		RefreshToken: current.Session.RefreshToken,
	})
	if err != nil {
		c.machine.Transition(StatusError, WithError(err.Error()))
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "session refresh failed")
	}

	c.machine.Transition(StatusAuthenticated, WithSession(*session))
	c.persistState(ctx)

	return session, nil
}

// Logout revokes the session with the backend, then unconditionally resets
// the machine and clears the stored snapshot. Revocation is best-effort:
// its failure is reported to the caller, but the reset and clear run
// regardless, so the machine always ends at idle.
func (c *Coordinator) Logout(ctx context.Context, opts ...LogoutOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		c.machine.Reset()
		if c.persistEnabled() {
			c.repo.Clear(ctx)
		}
	}()

	revoke := RevokeSessionRequest{}
	for _, opt := range opts {
		if opt != nil {
			opt(&revoke)
		}
	}

	if err := c.api.RevokeSession(ctx, revoke); err != nil {
		c.logger.Warn("session revocation failed, clearing local state anyway: %v", err)
		c.machine.Transition(StatusError, WithError(err.Error()))
		return goerrors.Wrap(err, goerrors.CategoryAuth, "session revocation failed")
	}

	return nil
}

// ClearError returns the machine to idle when it is in the error status.
// Calling it in any other status is a no-op.
func (c *Coordinator) ClearError(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.State().Status != StatusError {
		return
	}

	c.machine.Transition(StatusIdle)
	c.persistState(ctx)
}

func (c *Coordinator) persistEnabled() bool {
	return c.persistence && c.repo != nil
}

// persistState writes the current snapshot when the machine holds a
// complete session/user pair. It runs after the in-memory transition has
// committed; a persistence failure never unwinds it.
func (c *Coordinator) persistState(ctx context.Context) {
	if !c.persistEnabled() {
		return
	}

	state := c.machine.State()
	if state.Session == nil || state.User == nil {
		return
	}

	c.repo.Save(ctx, PersistedAuthSnapshot{
		Session:   state.Session,
		User:      state.User,
		UpdatedAt: c.now(),
	})
}

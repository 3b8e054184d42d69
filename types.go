package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthFlowStatus identifies where the login protocol currently is.
type AuthFlowStatus string

const (
	// StatusIdle is the rest state: no challenge, no session.
	StatusIdle AuthFlowStatus = "idle"
	// StatusRequestingChallenge marks an in-flight challenge issuance call.
	StatusRequestingChallenge AuthFlowStatus = "requesting-challenge"
	// StatusChallengeSent means a challenge was issued and awaits a code.
	StatusChallengeSent AuthFlowStatus = "challenge-sent"
	// StatusVerifying marks an in-flight code verification call.
	StatusVerifying AuthFlowStatus = "verifying"
	// StatusAuthenticated means a session and user are established.
	StatusAuthenticated AuthFlowStatus = "authenticated"
	// StatusError means the last protocol call failed; context is retained.
	StatusError AuthFlowStatus = "error"
)

// ChallengeMethod is the contact channel a challenge is delivered over.
type ChallengeMethod string

const (
	MethodEmail ChallengeMethod = "email"
	MethodPhone ChallengeMethod = "phone"
)

// ChallengePurpose is the reason a challenge was requested.
type ChallengePurpose string

const (
	PurposeLogin         ChallengePurpose = "login"
	PurposeRegister      ChallengePurpose = "register"
	PurposeResetPassword ChallengePurpose = "reset-password"
	PurposeVerify        ChallengePurpose = "verify"
)

// UserRole is the user's role. Roles are assigned server-side and may be
// absent until a later role-selection step; an empty role is not an error.
type UserRole = string

const (
	RoleCustomer   UserRole = "customer"
	RoleTasker     UserRole = "tasker"
	RoleVendor     UserRole = "vendor"
	RoleAdmin      UserRole = "admin"
	RoleUnassigned UserRole = "unassigned"
)

// AuthChallengeRequest asks the backend to deliver a one-time code.
// Identifier is the email address or the local phone number without the
// country code; CountryCode is required for the phone method.
type AuthChallengeRequest struct {
	Method      ChallengeMethod  `json:"method"`
	Identifier  string           `json:"identifier"`
	CountryCode string           `json:"country_code,omitempty"`
	Purpose     ChallengePurpose `json:"purpose"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// AuthChallengeResponse describes an issued challenge. ChallengeID is the
// correlation key for verification; everything else is informational.
type AuthChallengeResponse struct {
	ChallengeID   string    `json:"challenge_id"`
	ExpiresAt     time.Time `json:"expires_at"`
	ChannelsSent  []string  `json:"channels_sent,omitempty"`
	MaskedContact string    `json:"masked_contact,omitempty"`
}

// AuthChallengeVerificationRequest redeems a challenge with the code the
// user received. Method, Identifier, and CountryCode must match the
// originating request; the backend rejects mismatches.
type AuthChallengeVerificationRequest struct {
	ChallengeID string          `json:"challenge_id"`
	Code        string          `json:"code"`
	Method      ChallengeMethod `json:"method"`
	Identifier  string          `json:"identifier"`
	CountryCode string          `json:"country_code,omitempty"`
}

// AuthSession holds the tokens for an authenticated user. Tokens are opaque
// to this package.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's access token is past its expiry.
func (s AuthSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// User is the profile returned by the backend after verification.
type User struct {
	ID        uuid.UUID      `json:"id,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	Email     string         `json:"email,omitempty"`
	Phone     string         `json:"phone_number,omitempty"`
	Role      UserRole       `json:"role,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// HasRole reports whether the user has been assigned a meaningful role.
func (u User) HasRole() bool {
	return u.Role != "" && u.Role != RoleUnassigned
}

// VerificationResult is the intermediate payload returned by code
// verification, before post-auth synchronization normalizes it.
type VerificationResult struct {
	User       User           `json:"user"`
	RawSession map[string]any `json:"raw_session,omitempty"`
}

// AuthResult is the canonical session/user pair produced by post-auth sync.
type AuthResult struct {
	Session AuthSession `json:"session"`
	User    User        `json:"user"`
}

// RefreshSessionRequest carries the refresh token for session renewal.
type RefreshSessionRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RevokeSessionRequest controls session revocation scope.
type RevokeSessionRequest struct {
	AllDevices bool `json:"all_devices,omitempty"`
}

// API is the network boundary this core orchestrates. Implementations own
// transport, timeouts, and retry policy; the coordinator performs a single
// attempt per operation.
type API interface {
	RequestChallenge(ctx context.Context, req AuthChallengeRequest) (*AuthChallengeResponse, error)
	VerifyChallenge(ctx context.Context, req AuthChallengeVerificationRequest) (*VerificationResult, error)
	CompletePostAuthSync(ctx context.Context, result *VerificationResult) (*AuthResult, error)
	RefreshSession(ctx context.Context, req RefreshSessionRequest) (*AuthSession, error)
	RevokeSession(ctx context.Context, req RevokeSessionRequest) error
}

// KeyValueStore is the durable storage boundary. Load returns (nil, nil)
// when the key is absent.
type KeyValueStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// PersistedAuthSnapshot is the sole unit of durable state: enough to restore
// an authenticated machine after a restart, and nothing else. Transient
// machine fields (challenge, request, verification, error) never persist.
type PersistedAuthSnapshot struct {
	Session   *AuthSession `json:"session"`
	User      *User        `json:"user"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Complete reports whether the snapshot can restore authenticated state.
func (s PersistedAuthSnapshot) Complete() bool {
	return s.Session != nil && s.User != nil
}

// MachineState is the full observable state of the flow. Status determines
// which optional fields are meaningful: authenticated implies Session and
// User are set and the transient fields are cleared; idle implies every
// optional field is absent.
type MachineState struct {
	Status       AuthFlowStatus                    `json:"status"`
	Challenge    *AuthChallengeResponse            `json:"challenge,omitempty"`
	Session      *AuthSession                      `json:"session,omitempty"`
	User         *User                             `json:"user,omitempty"`
	Request      *AuthChallengeRequest             `json:"request,omitempty"`
	Verification *AuthChallengeVerificationRequest `json:"verification,omitempty"`
	Error        string                            `json:"error,omitempty"`
}

// IsAuthenticated reports whether the machine holds an established session.
func (s MachineState) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// InFlight reports whether a network call is outstanding for this state.
func (s MachineState) InFlight() bool {
	return s.Status == StatusRequestingChallenge || s.Status == StatusVerifying
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHFLOW "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

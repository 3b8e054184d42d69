package authflow_test

import (
	"context"

	authflow "github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/mock"
)

// MockAPI implements authflow.API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) RequestChallenge(ctx context.Context, req authflow.AuthChallengeRequest) (*authflow.AuthChallengeResponse, error) {
	args := m.Called(ctx, req)
	var resp *authflow.AuthChallengeResponse
	if v := args.Get(0); v != nil {
		resp = v.(*authflow.AuthChallengeResponse)
	}
	return resp, args.Error(1)
}

func (m *MockAPI) VerifyChallenge(ctx context.Context, req authflow.AuthChallengeVerificationRequest) (*authflow.VerificationResult, error) {
	args := m.Called(ctx, req)
	var result *authflow.VerificationResult
	if v := args.Get(0); v != nil {
		result = v.(*authflow.VerificationResult)
	}
	return result, args.Error(1)
}

func (m *MockAPI) CompletePostAuthSync(ctx context.Context, result *authflow.VerificationResult) (*authflow.AuthResult, error) {
	args := m.Called(ctx, result)
	var auth *authflow.AuthResult
	if v := args.Get(0); v != nil {
		auth = v.(*authflow.AuthResult)
	}
	return auth, args.Error(1)
}

func (m *MockAPI) RefreshSession(ctx context.Context, req authflow.RefreshSessionRequest) (*authflow.AuthSession, error) {
	args := m.Called(ctx, req)
	var session *authflow.AuthSession
	if v := args.Get(0); v != nil {
		session = v.(*authflow.AuthSession)
	}
	return session, args.Error(1)
}

func (m *MockAPI) RevokeSession(ctx context.Context, req authflow.RevokeSessionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockStore implements authflow.KeyValueStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	var value []byte
	if v := args.Get(0); v != nil {
		value = v.([]byte)
	}
	return value, args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStore) Clear(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// testLogger swallows output so broken-store tests stay quiet.
type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// Package authflow provides the orchestration core for a challenge/verification
// ("OTP") login protocol over email and phone channels.
//
// Flow state:
//   - Machine is a pure, synchronous state container. It holds the current
//     MachineState, applies Transition calls with functional options, and
//     notifies subscribers on every change. Subscribe delivers the current
//     state to a new listener before returning, so UI adapters can render
//     immediately.
//   - Coordinator drives the protocol against an injected API collaborator:
//     it issues challenges, verifies codes, refreshes and revokes sessions,
//     and persists authenticated state after every settled transition. It is
//     the only writer of both the machine and the repository.
//
// Persistence:
//   - Repository wraps an injected KeyValueStore with a versioned snapshot of
//     {session, user, updatedAt}. Operations are best-effort: failures are
//     logged and swallowed so a broken store degrades to "no persistence"
//     instead of breaking the login flow. Store implementations live under
//     store/ (in-memory and Bun/SQLite).
//
// The HTTP transport, OTP delivery, and any rendering concerns live on the
// far side of the API boundary and are deliberately absent here.
package authflow

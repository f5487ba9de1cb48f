package store

// ErrWorkspaceNotFound is returned when a referenced workspace doesn't exist.
type ErrWorkspaceNotFound struct {
	ID string
}

func (e ErrWorkspaceNotFound) Error() string {
	if e.ID == "" {
		return "workspace not found"
	}

	return "workspace not found: " + e.ID
}

// ErrSessionNotFound is returned when no session matches a lookup.
type ErrSessionNotFound struct {
	WorkspaceID string
}

func (e ErrSessionNotFound) Error() string {
	if e.WorkspaceID == "" {
		return "session not found"
	}

	return "session not found for workspace: " + e.WorkspaceID
}

// ErrCredentialNotFound is returned when a workspace has no stored mirror
// credential.
type ErrCredentialNotFound struct {
	WorkspaceID string
}

func (e ErrCredentialNotFound) Error() string {
	if e.WorkspaceID == "" {
		return "credential not found"
	}

	return "credential not found for workspace: " + e.WorkspaceID
}

// ErrRevisionConflict is returned by AppendSession when the caller's expected
// revision no longer matches the ledger. It is expected control flow, not a
// failure: callers convert it into a structured conflict response.
type ErrRevisionConflict struct {
	// Expected is the ledger's current revision at comparison time.
	Expected string

	// Provided is the stale revision the caller supplied.
	Provided string
}

func (e ErrRevisionConflict) Error() string {
	return "revision conflict: expected " + e.Expected + ", provided " + e.Provided
}

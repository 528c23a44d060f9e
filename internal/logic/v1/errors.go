// Package v1 provides the peek engine business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors that represent the failure classes of
// the peek engine and its collaborators. They are wrapped with context using
// fmt.Errorf("%w") when returned from business logic methods.
//
// Example Usage:
//
//	if session == nil {
//	    return nil, fmt.Errorf("peek session %q: %w", id, ErrSessionNotFound)
//	}
//
//	if len(session.Ideas) == 0 {
//	    return nil, fmt.Errorf("peek session %q: %w", id, ErrNoIdeas)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrSessionNotFound):
//	    c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
//	case errors.Is(err, logicv1.ErrNoIdeas):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": "No ideas in this session"})
//	case errors.Is(err, logicv1.ErrStorage):
//	    c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable, retry"})
//	}
package v1

import "errors"

// Sentinel errors for peek engine operations.
var (
	// ErrSessionNotFound indicates the session does not exist or is owned by
	// another user. The two cases are deliberately indistinguishable.
	// HTTP Status: 404 Not Found
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoIdeas indicates the session has no ideas to select from.
	// HTTP Status: 400 Bad Request
	ErrNoIdeas = errors.New("session has no ideas")

	// ErrStorage indicates the backing store was unreachable or rejected a write.
	// HTTP Status: 503 Service Unavailable (retryable)
	ErrStorage = errors.New("storage error")

	// ErrInvalidInput indicates a request failed business validation.
	// HTTP Status: 400 Bad Request
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials indicates the provided credentials are incorrect.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the user does not exist in the system.
	// HTTP Status: 401 Unauthorized (don't reveal user existence)
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates the email is already registered.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrTokenNotFound indicates the bearer token does not exist.
	// HTTP Status: 401 Unauthorized
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired indicates the bearer token has expired.
	// HTTP Status: 401 Unauthorized
	ErrTokenExpired = errors.New("token expired")

	// ErrForbidden indicates the caller lacks the role required for the operation.
	// HTTP Status: 403 Forbidden
	ErrForbidden = errors.New("forbidden")
)

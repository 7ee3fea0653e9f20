// Package errs defines the typed error taxonomy shared by the gateway's
// handlers: authentication failures, request validation failures and
// upstream service failures. Handlers return these; the response package
// maps each kind to a client envelope.
package errs

import "fmt"

// AuthKind enumerates the ways token resolution can fail.
type AuthKind int

const (
	// TokenMissing means no credential was presented at all.
	TokenMissing AuthKind = iota
	// TokenMalformed means the token's structure or signature is invalid.
	TokenMalformed
	// TokenExpired means the token was valid but its expiry has passed.
	TokenExpired
	// IdentityUnresolvable means the credential verified but carried no
	// usable identity, or the identity provider rejected it.
	IdentityUnresolvable
	// UpstreamUnavailable means the identity provider could not be reached.
	UpstreamUnavailable
)

// AuthError is returned for any failure to resolve a request's identity.
// It always renders as an unauthorized response and is never retried.
type AuthError struct {
	Kind AuthKind
	Msg  string
}

func (e *AuthError) Error() string { return e.Msg }

// Auth returns an AuthError with the client-facing message for kind.
func Auth(kind AuthKind) *AuthError {
	msg := "登录信息失效"
	switch kind {
	case TokenMalformed, TokenExpired:
		msg = "用户登陆已失效"
	case IdentityUnresolvable:
		msg = "用户token不合法"
	case UpstreamUnavailable:
		msg = "服务暂时不可用，请稍后重试"
	}
	return &AuthError{Kind: kind, Msg: msg}
}

// ValidationError is returned when request input fails format checks,
// for example a message id that is not a UUID.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation returns a ValidationError with the given message.
func Validation(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// ServiceError is any upstream business failure during login or proxying.
// Msg is the short, client-safe reason; Cause carries the underlying
// error for logs only and is never rendered to the client.
type ServiceError struct {
	Msg   string
	Cause error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// Service returns a ServiceError with a client-safe message.
func Service(msg string) *ServiceError {
	return &ServiceError{Msg: msg}
}

// ServiceWrap returns a ServiceError that keeps cause for logging.
func ServiceWrap(msg string, cause error) *ServiceError {
	return &ServiceError{Msg: msg, Cause: cause}
}

package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid room credentials")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrRoomAlreadyExists  = errors.New("room already exists")
	ErrRoomNotFound       = errors.New("room not found")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrHashing            = errors.New("password hashing failed")
	ErrVerification       = errors.New("password verification failed")
	ErrNotInRoom          = errors.New("connection is not in a room")
	ErrInconsistentState  = errors.New("room index is inconsistent with membership")
)

// FailureReason is the machine readable cause of a rejected join request.
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonInvalidCredentials   FailureReason = "InvalidCredentials"
	ReasonInvalidUsername      FailureReason = "InvalidUsername"
	ReasonInvalidPassword      FailureReason = "InvalidPassword"
	ReasonRoomAlreadyExists    FailureReason = "RoomAlreadyExists"
	ReasonRoomNotFound         FailureReason = "RoomNotFound"
	ReasonIncorrectPassword    FailureReason = "IncorrectPassword"
	ReasonAuthenticationFailed FailureReason = "AuthenticationFailed"
	ReasonServerError          FailureReason = "ServerError"
)

// ReasonFor maps an error returned by the room lifecycle to its failure reason.
// Unknown errors are reported as ReasonServerError.
func ReasonFor(err error) FailureReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrInvalidCredentials):
		return ReasonInvalidCredentials
	case errors.Is(err, ErrInvalidUsername):
		return ReasonInvalidUsername
	case errors.Is(err, ErrInvalidPassword):
		return ReasonInvalidPassword
	case errors.Is(err, ErrRoomAlreadyExists):
		return ReasonRoomAlreadyExists
	case errors.Is(err, ErrRoomNotFound):
		return ReasonRoomNotFound
	case errors.Is(err, ErrIncorrectPassword):
		return ReasonIncorrectPassword
	case errors.Is(err, ErrHashing), errors.Is(err, ErrVerification):
		return ReasonAuthenticationFailed
	default:
		return ReasonServerError
	}
}

// Message returns the user facing text sent back to the requesting client.
func (r FailureReason) Message() string {
	switch r {
	case ReasonInvalidCredentials:
		return "Invalid room credentials"
	case ReasonInvalidUsername:
		return "Username must be 1-50 characters"
	case ReasonInvalidPassword:
		return "Password must be 4-50 characters"
	case ReasonRoomAlreadyExists:
		return "Room already exists"
	case ReasonRoomNotFound:
		return "Room not found"
	case ReasonIncorrectPassword:
		return "Incorrect password"
	case ReasonAuthenticationFailed:
		return "Authentication failed"
	case ReasonNone:
		return ""
	default:
		return "Unexpected error"
	}
}

// FailureMessage returns the user facing text for err. A hashing failure on
// room creation is reported as such rather than as an authentication failure.
func FailureMessage(err error) string {
	if errors.Is(err, ErrHashing) {
		return "Failed to create room"
	}
	return ReasonFor(err).Message()
}

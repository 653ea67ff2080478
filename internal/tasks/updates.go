package tasks

import (
	"github.com/desertthunder/flix/internal/services"
)

// Operation identifies the user action a notification belongs to.
type Operation int

const (
	OpRegister Operation = iota
	OpLogin
	OpLogout
	OpLoadCatalog
	OpAddFavorite
	OpRemoveFavorite
	OpLoadProfile
	OpUpdateProfile
	OpDeleteProfile
)

func (o Operation) String() string {
	switch o {
	case OpRegister:
		return "register"
	case OpLogin:
		return "login"
	case OpLogout:
		return "logout"
	case OpLoadCatalog:
		return "load_catalog"
	case OpAddFavorite:
		return "add_favorite"
	case OpRemoveFavorite:
		return "remove_favorite"
	case OpLoadProfile:
		return "load_profile"
	case OpUpdateProfile:
		return "update_profile"
	case OpDeleteProfile:
		return "delete_profile"
	default:
		return ""
	}
}

// User-facing notification texts.
const (
	MsgRegistered       = "Registration successful!"
	MsgLoggedIn         = "User login successful"
	MsgLoggedOut        = "Logged out"
	MsgFavoriteAdded    = "Movie added to Favourites!"
	MsgFavoriteRemoved  = "Movie removed from Favourites."
	MsgProfileUpdated   = "User profile updated!"
	MsgProfileDeleted   = "User profile has been deleted."
	MsgCatalogFailed    = "Failed to load movies. Please try again later."
	MsgSessionExpired   = "Your session has ended. Please log in again."
	MsgActionInProgress = "Please wait for the current request to finish."
)

// Notice is a snackbar-style message for the result of an operation.
type Notice struct {
	Op      Operation
	Message string
	Err     error
}

// Failed reports whether the notice describes an error.
func (n Notice) Failed() bool { return n.Err != nil }

// NewNotice returns the message shown after op finished with err.
func NewNotice(op Operation, err error) Notice {
	n := Notice{Op: op, Err: err}

	switch {
	case err == nil:
		n.Message = successMessage(op)
	case IsSessionEnded(err):
		n.Message = MsgSessionExpired
	case isBusy(err):
		n.Message = MsgActionInProgress
	case op == OpLoadCatalog:
		n.Message = MsgCatalogFailed
	default:
		n.Message = services.Message(err)
	}
	return n
}

func successMessage(op Operation) string {
	switch op {
	case OpRegister:
		return MsgRegistered
	case OpLogin:
		return MsgLoggedIn
	case OpLogout:
		return MsgLoggedOut
	case OpAddFavorite:
		return MsgFavoriteAdded
	case OpRemoveFavorite:
		return MsgFavoriteRemoved
	case OpUpdateProfile:
		return MsgProfileUpdated
	case OpDeleteProfile:
		return MsgProfileDeleted
	default:
		return ""
	}
}

package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// epoch is the screen generation that issued the command; results from a screen the user already left are dropped.
type Msg struct {
	kind  MsgKind
	epoch int
	data  any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChecked MsgKind = iota
	MsgLoggedIn
	MsgRegistered
	MsgCatalogLoaded
	MsgFavoriteToggled
	MsgProfileLoaded
	MsgProfileUpdated
	MsgProfileDeleted
	MsgNoticeExpired
)

type sessionResult struct {
	session models.Session
	err     error
}

type catalogResult struct {
	movies []models.Movie
	err    error
}

type toggleResult struct {
	movieID string
	op      tasks.Operation
	result  tasks.ToggleResult
	err     error
}

type profileResult struct {
	view tasks.ProfileView
	err  error
}

type userResult struct {
	user models.User
	err  error
}

// sessionCheckedMsg is the constructor for [MsgSessionChecked]
func sessionCheckedMsg(epoch int, session models.Session, err error) Msg {
	return Msg{kind: MsgSessionChecked, epoch: epoch, data: sessionResult{session, err}}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(epoch int, session models.Session, err error) Msg {
	return Msg{kind: MsgLoggedIn, epoch: epoch, data: sessionResult{session, err}}
}

// registeredMsg is the constructor for [MsgRegistered]
func registeredMsg(epoch int, user models.User, err error) Msg {
	return Msg{kind: MsgRegistered, epoch: epoch, data: userResult{user, err}}
}

// catalogLoadedMsg is the constructor for [MsgCatalogLoaded]
func catalogLoadedMsg(epoch int, movies []models.Movie, err error) Msg {
	return Msg{kind: MsgCatalogLoaded, epoch: epoch, data: catalogResult{movies, err}}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]. op is the operation the toggle attempted.
func favoriteToggledMsg(epoch int, movieID string, op tasks.Operation, result tasks.ToggleResult, err error) Msg {
	return Msg{kind: MsgFavoriteToggled, epoch: epoch, data: toggleResult{movieID, op, result, err}}
}

// profileLoadedMsg is the constructor for [MsgProfileLoaded]
func profileLoadedMsg(epoch int, view tasks.ProfileView, err error) Msg {
	return Msg{kind: MsgProfileLoaded, epoch: epoch, data: profileResult{view, err}}
}

// profileUpdatedMsg is the constructor for [MsgProfileUpdated]
func profileUpdatedMsg(epoch int, user models.User, err error) Msg {
	return Msg{kind: MsgProfileUpdated, epoch: epoch, data: userResult{user, err}}
}

// profileDeletedMsg is the constructor for [MsgProfileDeleted]
func profileDeletedMsg(epoch int, err error) Msg {
	return Msg{kind: MsgProfileDeleted, epoch: epoch, data: err}
}

// noticeExpiredMsg is the constructor for [MsgNoticeExpired]. seq identifies the notice being expired.
func noticeExpiredMsg(seq int) Msg {
	return Msg{kind: MsgNoticeExpired, data: seq}
}

package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrNoSession        = fmt.Errorf("no active session")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMovieNotFound      = fmt.Errorf("movie not found")

	// View-model errors
	ErrLoadInProgress   = fmt.Errorf("load already in progress")
	ErrToggleInProgress = fmt.Errorf("favorite toggle already in progress")
	ErrUpdateInProgress = fmt.Errorf("profile update already in progress")
	ErrNotLoaded        = fmt.Errorf("view not loaded")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has five screens:
//  1. [WelcomeView] : Landing screen for logged-out users
//  2. [LoginView] : Username and password form
//  3. [RegisterView] : Sign-up form; success returns to the login form
//  4. [CatalogView] : Movie list with favourite stars and genre/director/synopsis popups
//  5. [ProfileView] : Account details, favourite movies, edit form and delete confirmation
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving results via the Msg union type.
// Every screen owns a context and an epoch. Leaving a screen cancels its context, and results stamped with an
// older epoch are dropped, so a request that finishes after its screen closed never touches the new screen.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/flix/internal/models"
)

var (
	_ list.Item = movieItem{}
)

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie    models.Movie
	favorite bool
	pending  bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	switch {
	case i.pending:
		return "… " + i.movie.Title
	case i.favorite:
		return "★ " + i.movie.Title
	default:
		return "  " + i.movie.Title
	}
}
func (i movieItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.movie.Genre.Name, i.movie.Director.Name)
	if i.movie.Featured {
		desc += " • featured"
	}
	return desc
}

func newMovieList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.DisableQuitKeybindings()
	l.SetShowHelp(false)
	return l
}

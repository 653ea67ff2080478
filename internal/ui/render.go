package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/flix/internal/tasks"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	var keys []key.Binding

	switch m.view {
	case WelcomeView:
		body = m.renderWelcome()
		keys = []key.Binding{m.keys.login, m.keys.register, m.keys.quit}
	case LoginView, RegisterView:
		body = m.renderForm()
		keys = []key.Binding{m.keys.next, m.keys.enter, m.keys.back, m.keys.force}
	case CatalogView:
		body = m.renderCatalog()
		keys = m.catalogKeys()
	case ProfileView:
		body = m.renderProfile()
		keys = m.profileKeys()
	}

	return fmt.Sprintf("%s\n\n%s%s\n\n%s", m.renderHeader(), body, m.renderNotice(), m.help.ShortHelpView(keys))
}

func (m *Model) renderHeader() string {
	title := styles.title.Render("flix")
	if m.user.Username == "" {
		return title
	}
	return fmt.Sprintf("%s  %s", title, styles.help.Render("signed in as "+m.user.Username))
}

func (m *Model) renderNotice() string {
	if m.notice.Message == "" {
		return ""
	}
	if m.notice.Failed() {
		return "\n\n" + styles.err.Render(m.notice.Message)
	}
	return "\n\n" + styles.ok.Render(m.notice.Message)
}

func (m *Model) renderWelcome() string {
	return strings.Join([]string{
		"Browse movies, keep a list of favourites and manage your profile.",
		"",
		"Log in with an existing account or sign up for a new one.",
	}, "\n")
}

func (m *Model) renderForm() string {
	view := m.form.view()
	if m.busy {
		view += styles.help.Render("Please wait...")
	}
	return view
}

func (m *Model) renderCatalog() string {
	switch m.catalog.State() {
	case tasks.CatalogIdle, tasks.CatalogLoading:
		return styles.help.Render("Loading movies...")
	case tasks.CatalogFailed:
		return styles.err.Render(tasks.MsgCatalogFailed) + "\n" + styles.help.Render("Press r to retry.")
	}

	if m.popup != popupNone {
		return m.renderPopup()
	}
	return m.movieList.View()
}

func (m *Model) renderPopup() string {
	mv := m.popupMovie
	var b strings.Builder

	switch m.popup {
	case popupGenre:
		b.WriteString(styles.title.Render(mv.Genre.Name))
		b.WriteString("\n")
		b.WriteString(fallback(mv.Genre.Description, "No description available."))
	case popupDirector:
		b.WriteString(styles.title.Render(mv.Director.Name))
		b.WriteString("\n")
		if mv.Director.Birth != "" {
			b.WriteString(styles.label.Render("Born: "))
			b.WriteString(mv.Director.Birth)
			b.WriteString("\n\n")
		}
		b.WriteString(fallback(mv.Director.Bio, "No biography available."))
	case popupSynopsis:
		b.WriteString(styles.title.Render(mv.Title))
		b.WriteString("\n")
		b.WriteString(fallback(mv.Description, "No synopsis available."))
	}

	width := m.width - 8
	if width < 20 {
		width = 20
	}
	return styles.popup.Width(width).Render(b.String())
}

func (m *Model) renderProfile() string {
	switch {
	case m.profileErr != nil:
		return styles.err.Render(tasks.NewNotice(tasks.OpLoadProfile, m.profileErr).Message) + "\n" + styles.help.Render("Press r to retry.")
	case !m.profile.Loaded():
		return styles.help.Render("Loading profile...")
	case m.editing:
		view := m.form.view()
		if m.busy {
			view += styles.help.Render("Saving...")
		}
		return view
	case m.confirmDelete:
		prompt := fmt.Sprintf("Delete the account %q? This cannot be undone.", m.user.Username)
		if m.busy {
			return styles.warn.Render(prompt) + "\n" + styles.help.Render("Deleting...")
		}
		return styles.warn.Render(prompt) + "\n" + styles.help.Render("y to confirm, n to cancel")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("Username:"), m.user.Username))
	b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("Email:"), m.user.Email))
	b.WriteString(fmt.Sprintf("%s %s\n\n", styles.label.Render("Birthday:"), fallback(m.user.Birthday.String(), "-")))

	if len(m.profileView.Favorites) == 0 {
		b.WriteString(styles.help.Render("No favourite movies yet. Press f on a movie in the catalog to add one."))
		return b.String()
	}
	b.WriteString(m.favoriteList.View())
	return b.String()
}

func (m *Model) catalogKeys() []key.Binding {
	switch {
	case m.popup != popupNone:
		return []key.Binding{m.keys.back, m.keys.quit}
	case m.catalog.State() == tasks.CatalogFailed:
		return []key.Binding{m.keys.retry, m.keys.logout, m.keys.quit}
	}
	return []key.Binding{m.keys.favorite, m.keys.genre, m.keys.director, m.keys.synopsis, m.keys.profile, m.keys.logout, m.keys.quit}
}

func (m *Model) profileKeys() []key.Binding {
	switch {
	case m.editing:
		return []key.Binding{m.keys.next, m.keys.enter, m.keys.back}
	case m.confirmDelete:
		return []key.Binding{m.keys.yes, m.keys.no}
	case m.profileErr != nil:
		return []key.Binding{m.keys.retry, m.keys.back, m.keys.quit}
	}
	return []key.Binding{m.keys.favorite, m.keys.edit, m.keys.remove, m.keys.back, m.keys.logout, m.keys.quit}
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

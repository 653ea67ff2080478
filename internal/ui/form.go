package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// field describes one input of a [form].
type field struct {
	label       string
	placeholder string
	secret      bool
	value       string
}

// form is a vertical stack of text inputs with tab navigation.
type form struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
}

func newForm(title string, fields ...field) form {
	f := form{title: title}
	for _, fd := range fields {
		ti := textinput.New()
		ti.Placeholder = fd.placeholder
		ti.CharLimit = 128
		ti.Width = 40
		ti.SetValue(fd.value)
		if fd.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, ti)
	}
	f.setFocus(0)
	return f
}

func loginForm(username string) form {
	return newForm("Log in",
		field{label: "Username", placeholder: "username", value: username},
		field{label: "Password", placeholder: "password", secret: true},
	)
}

func registerForm() form {
	return newForm("Sign up",
		field{label: "Username", placeholder: "username"},
		field{label: "Password", placeholder: "password", secret: true},
		field{label: "Email", placeholder: "you@example.com"},
		field{label: "Birthday", placeholder: "YYYY-MM-DD (optional)"},
	)
}

func profileForm(username, email, birthday string) form {
	return newForm("Update profile",
		field{label: "Username", placeholder: "username", value: username},
		field{label: "Password", placeholder: "leave empty to keep current", secret: true},
		field{label: "Email", placeholder: "you@example.com", value: email},
		field{label: "Birthday", placeholder: "YYYY-MM-DD (optional)", value: birthday},
	)
}

func (f *form) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	i = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	f.focus = i
}

func (f *form) next() { f.setFocus(f.focus + 1) }
func (f *form) prev() { f.setFocus(f.focus - 1) }

// value returns the trimmed input at i; secret fields are returned untrimmed.
func (f form) value(i int) string {
	if i < 0 || i >= len(f.inputs) {
		return ""
	}
	if f.inputs[i].EchoMode == textinput.EchoPassword {
		return f.inputs[i].Value()
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) set(i int, v string) {
	if i >= 0 && i < len(f.inputs) {
		f.inputs[i].SetValue(v)
	}
}

func (f form) last() bool { return f.focus == len(f.inputs)-1 }

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(f.title))
	b.WriteString("\n")
	for i, in := range f.inputs {
		b.WriteString(styles.label.Render(f.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	return b.String()
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and display format of a [Date].
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// User is a movie API account.
//
// Password is write-only: it is sent on register and update but the client never stores one.
type User struct {
	ID             string      `json:"_id,omitempty"`
	Username       string      `json:"Username"`
	Password       string      `json:"Password,omitempty"`
	Email          string      `json:"Email"`
	Birthday       Date        `json:"Birthday"`
	FavoriteMovies FavoriteSet `json:"FavoriteMovies"`
}

// Sanitized returns a copy of u without the password.
func (u User) Sanitized() User {
	u.Password = ""
	u.FavoriteMovies = u.FavoriteMovies.clone()
	return u
}

type Genre struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

type Director struct {
	Name  string `json:"Name"`
	Bio   string `json:"Bio"`
	Birth string `json:"Birth,omitempty"`
}

// Movie is a catalog entry. Movies are read-only from the client's side.
type Movie struct {
	ID          string   `json:"_id"`
	Title       string   `json:"Title"`
	Description string   `json:"Description"`
	Genre       Genre    `json:"Genre"`
	Director    Director `json:"Director"`
	ImagePath   string   `json:"ImagePath,omitempty"`
	Featured    bool     `json:"Featured,omitempty"`
}

// Session is the authenticated identity. A Session is valid only when both fields are set.
type Session struct {
	Token string
	User  User
}

// Valid reports whether both the token and the user are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.Username != ""
}

// FavoriteSet is an ordered set of movie ids. The zero value is an empty set.
//
// Operations return new sets and never modify the receiver.
type FavoriteSet []string

// NewFavoriteSet builds a set from ids, dropping blanks and duplicates while keeping first-seen order.
func NewFavoriteSet(ids ...string) FavoriteSet {
	set := make(FavoriteSet, 0, len(ids))
	for _, id := range ids {
		if id == "" || set.Has(id) {
			continue
		}
		set = append(set, id)
	}
	return set
}

func (f FavoriteSet) Has(id string) bool {
	for _, v := range f {
		if v == id {
			return true
		}
	}
	return false
}

// With returns f plus id. Adding a present id returns an equal set.
func (f FavoriteSet) With(id string) FavoriteSet {
	out := f.clone()
	if id == "" || f.Has(id) {
		return out
	}
	return append(out, id)
}

// Without returns f minus id.
func (f FavoriteSet) Without(id string) FavoriteSet {
	out := make(FavoriteSet, 0, len(f))
	for _, v := range f {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Equal reports set equality, ignoring order.
func (f FavoriteSet) Equal(other FavoriteSet) bool {
	a, b := NewFavoriteSet(f...), NewFavoriteSet(other...)
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !b.Has(id) {
			return false
		}
	}
	return true
}

func (f FavoriteSet) IDs() []string {
	return append([]string{}, f...)
}

func (f FavoriteSet) Len() int { return len(f) }

func (f FavoriteSet) clone() FavoriteSet {
	return append(FavoriteSet{}, f...)
}

// MarshalJSON always emits an array, never null.
func (f FavoriteSet) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(f.clone()))
}

// UnmarshalJSON treats null or a missing array as empty.
func (f *FavoriteSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = FavoriteSet{}
		return nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("favorite movies: %w", err)
	}
	*f = NewFavoriteSet(ids...)
	return nil
}

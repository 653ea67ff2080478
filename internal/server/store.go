package server

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUserExists   = errors.New("user already exists")
	errUserNotFound = errors.New("user not found")
	errBadLogin     = errors.New("incorrect username or password")
)

type account struct {
	user models.User
	hash []byte
}

// memoryStore holds users and movies for the mock API.
type memoryStore struct {
	mu     sync.RWMutex
	cost   int
	users  map[string]*account // keyed by user id
	movies []models.Movie
}

func newMemoryStore(movies []models.Movie, cost int) *memoryStore {
	return &memoryStore{
		cost:   cost,
		users:  make(map[string]*account),
		movies: append([]models.Movie{}, movies...),
	}
}

func (s *memoryStore) byUsername(username string) *account {
	for _, a := range s.users {
		if a.user.Username == username {
			return a
		}
	}
	return nil
}

func (s *memoryStore) createUser(u models.User, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byUsername(u.Username) != nil {
		return models.User{}, errUserExists
	}

	u.ID = shared.GenerateID()
	u.Password = ""
	u.FavoriteMovies = models.FavoriteSet{}
	s.users[u.ID] = &account{user: u, hash: hash}
	return u.Sanitized(), nil
}

func (s *memoryStore) authenticate(username, password string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.byUsername(username)
	if a == nil {
		return models.User{}, errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return models.User{}, errBadLogin
	}
	return a.user.Sanitized(), nil
}

func (s *memoryStore) userByName(username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.byUsername(username)
	if a == nil {
		return models.User{}, errUserNotFound
	}
	return a.user.Sanitized(), nil
}

func (s *memoryStore) userByID(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.users[id]
	if !ok {
		return models.User{}, errUserNotFound
	}
	return a.user.Sanitized(), nil
}

func (s *memoryStore) listUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, a := range s.users {
		users = append(users, a.user.Sanitized())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

// updateUser replaces the editable fields of username. An empty password keeps the current hash.
func (s *memoryStore) updateUser(username string, patch models.User, password string) (models.User, error) {
	var hash []byte
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return models.User{}, err
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.byUsername(username)
	if a == nil {
		return models.User{}, errUserNotFound
	}
	if patch.Username != username {
		if other := s.byUsername(patch.Username); other != nil {
			return models.User{}, errUserExists
		}
	}

	a.user.Username = patch.Username
	a.user.Email = patch.Email
	a.user.Birthday = patch.Birthday
	if hash != nil {
		a.hash = hash
	}
	return a.user.Sanitized(), nil
}

func (s *memoryStore) deleteUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.byUsername(username)
	if a == nil {
		return errUserNotFound
	}
	delete(s.users, a.user.ID)
	return nil
}

// setFavorite adds or removes movieID from username's favorites.
func (s *memoryStore) setFavorite(username, movieID string, favorite bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.byUsername(username)
	if a == nil {
		return models.User{}, errUserNotFound
	}

	if favorite {
		if _, ok := s.movieByID(movieID); !ok {
			return models.User{}, errMovieNotFound
		}
		a.user.FavoriteMovies = a.user.FavoriteMovies.With(movieID)
	} else {
		a.user.FavoriteMovies = a.user.FavoriteMovies.Without(movieID)
	}
	return a.user.Sanitized(), nil
}

var errMovieNotFound = errors.New("movie not found")

func (s *memoryStore) movieByID(id string) (models.Movie, bool) {
	for _, m := range s.movies {
		if m.ID == id {
			return m, true
		}
	}
	return models.Movie{}, false
}

func (s *memoryStore) listMovies() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Movie{}, s.movies...)
}

func (s *memoryStore) movieByTitle(title string) (models.Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.movies {
		if strings.EqualFold(m.Title, title) {
			return m, true
		}
	}
	return models.Movie{}, false
}

func (s *memoryStore) moviesByGenre(genre string) []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Movie{}
	for _, m := range s.movies {
		if strings.EqualFold(m.Genre.Name, genre) {
			out = append(out, m)
		}
	}
	return out
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
)

type userBody struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
	Email    string `json:"Email"`
	Birthday string `json:"Birthday"`
}

func (b userBody) toUser() (models.User, error) {
	u := models.User{
		Username: strings.TrimSpace(b.Username),
		Email:    strings.TrimSpace(b.Email),
	}
	if u.Username == "" {
		return u, errors.New("Username is required")
	}
	if u.Email == "" {
		return u, errors.New("Email is required")
	}
	if b.Birthday != "" {
		d, err := models.ParseDate(b.Birthday)
		if err != nil {
			return u, err
		}
		u.Birthday = d
	}
	return u, nil
}

type route struct {
	method  string
	path    string
	handler http.HandlerFunc
}

// MovieHandler serves the movie API endpoints. It implements [Handler].
type MovieHandler struct {
	store  *memoryStore
	issuer *TokenIssuer
	logger *log.Logger
	routes []route
	mux    *http.ServeMux
}

func newMovieHandler(store *memoryStore, issuer *TokenIssuer, logger *log.Logger) *MovieHandler {
	h := &MovieHandler{store: store, issuer: issuer, logger: logger, mux: http.NewServeMux()}

	h.routes = []route{
		{http.MethodPost, "/users", h.register},
		{http.MethodPost, "/login", h.login},
		{http.MethodGet, "/movies", h.listMovies},
		{http.MethodGet, "/movies/title/{title}", h.getMovie},
		{http.MethodGet, "/movies/genre/{genre}", h.moviesByGenre},
		{http.MethodGet, "/users", h.listUsers},
		{http.MethodGet, "/users/{username}", h.getUser},
		{http.MethodPut, "/users/{username}", h.owner(h.updateUser)},
		{http.MethodDelete, "/users/{username}", h.owner(h.deleteUser)},
		{http.MethodPost, "/users/{username}/favorites/{movieId}", h.owner(h.addFavorite)},
		{http.MethodDelete, "/users/{username}/movies/{movieId}", h.owner(h.removeFavorite)},
	}

	for _, r := range h.routes {
		h.mux.HandleFunc(r.method+" "+r.path, r.handler)
	}
	return h
}

// Routes returns the "METHOD /path" patterns this handler serves.
func (h *MovieHandler) Routes() []string {
	patterns := make([]string, len(h.routes))
	for i, r := range h.routes {
		patterns[i] = r.method + " " + r.path
	}
	return patterns
}

func (h *MovieHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// owner restricts a handler to the account named in the path.
func (h *MovieHandler) owner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := SubjectFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		caller, err := h.store.userByID(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if caller.Username != r.PathValue("username") {
			writeError(w, http.StatusForbidden, "Permission denied")
			return
		}
		next(w, r)
	}
}

func (h *MovieHandler) register(w http.ResponseWriter, r *http.Request) {
	var body userBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := body.toUser()
	if err == nil && body.Password == "" {
		err = errors.New("Password is required")
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := h.store.createUser(u, body.Password)
	switch {
	case errors.Is(err, errUserExists):
		writeText(w, http.StatusBadRequest, fmt.Sprintf("%s already exists", u.Username))
		return
	case err != nil:
		h.logger.Error("failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *MovieHandler) login(w http.ResponseWriter, r *http.Request) {
	var body userBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.authenticate(body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Incorrect username or password.")
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (h *MovieHandler) listMovies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.listMovies())
}

func (h *MovieHandler) getMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.store.movieByTitle(r.PathValue("title"))
	if !ok {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *MovieHandler) moviesByGenre(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.moviesByGenre(r.PathValue("genre")))
}

func (h *MovieHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.listUsers())
}

func (h *MovieHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.userByName(r.PathValue("username"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *MovieHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var body userBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, err := body.toUser()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := h.store.updateUser(r.PathValue("username"), patch, body.Password)
	switch {
	case errors.Is(err, errUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, errUserExists):
		writeError(w, http.StatusConflict, fmt.Sprintf("%s already exists", patch.Username))
		return
	case err != nil:
		h.logger.Error("failed to update user", "error", err)
		writeError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *MovieHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := h.store.deleteUser(username); err != nil {
		writeText(w, http.StatusBadRequest, username+" was not found")
		return
	}
	writeText(w, http.StatusOK, username+" was deleted.")
}

func (h *MovieHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

func (h *MovieHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

func (h *MovieHandler) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	user, err := h.store.setFavorite(r.PathValue("username"), r.PathValue("movieId"), favorite)
	switch {
	case errors.Is(err, errMovieNotFound):
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	case errors.Is(err, errUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, text)
}

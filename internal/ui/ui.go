package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
)

// ViewState represents the current screen in the TUI.
type ViewState int

const (
	WelcomeView ViewState = iota
	LoginView
	RegisterView
	CatalogView
	ProfileView
)

type popupKind int

const (
	popupNone popupKind = iota
	popupGenre
	popupDirector
	popupSynopsis
)

// DefaultNoticeTTL is how long a notice stays on screen.
const DefaultNoticeTTL = 4 * time.Second

// Deps holds what the TUI needs from the rest of the application.
type Deps struct {
	API    services.MovieService
	Store  repositories.SessionStore
	Logger *log.Logger
	// NoticeTTL defaults to [DefaultNoticeTTL]; a negative value keeps notices until replaced.
	NoticeTTL time.Duration
}

// Model represents the TUI application state.
type Model struct {
	root   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	epoch  int
	view   ViewState

	auth      *tasks.Authenticator
	catalog   *tasks.Catalog
	favorites *tasks.Synchronizer
	profile   *tasks.Profile
	logger    *log.Logger

	width  int
	height int

	form          form
	movieList     list.Model
	favoriteList  list.Model
	popup         popupKind
	popupMovie    models.Movie
	pending       map[string]bool
	editing       bool
	confirmDelete bool
	busy          bool
	profileErr    error

	user        models.User
	profileView tasks.ProfileView

	notice    tasks.Notice
	noticeSeq int
	noticeTTL time.Duration

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// One [tasks.Catalog] and one [tasks.Synchronizer] are shared by the catalog and profile screens.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
		logger.SetLevel(log.ErrorLevel)
	}

	ttl := deps.NoticeTTL
	if ttl == 0 {
		ttl = DefaultNoticeTTL
	}

	catalog := tasks.NewCatalog(deps.API, deps.Store, shared.WithLogger(logger, "component", "catalog"))
	favorites := tasks.NewSynchronizer(deps.API, deps.Store, shared.WithLogger(logger, "component", "favorites"))

	m := &Model{
		root:      ctx,
		auth:      tasks.NewAuthenticator(deps.API, deps.Store, shared.WithLogger(logger, "component", "auth")),
		catalog:   catalog,
		favorites: favorites,
		profile:   tasks.NewProfile(deps.API, deps.Store, catalog, favorites, shared.WithLogger(logger, "component", "profile")),
		logger:    logger,
		width:     80,
		height:    24,
		noticeTTL: ttl,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.movieList = newMovieList("Movies", nil, m.width-4, m.height-10)
	m.favoriteList = newMovieList("Favourite Movies", nil, m.width-4, m.height-14)
	m.navigate(WelcomeView)
	return m
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	m := NewModel(ctx, deps)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close cancels the current screen's in-flight requests.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// State returns the active screen.
func (m *Model) State() ViewState { return m.view }

// navigate leaves the current screen: its context is cancelled and its pending results become stale.
func (m *Model) navigate(v ViewState) {
	if m.cancel != nil {
		m.cancel()
	}
	m.ctx, m.cancel = context.WithCancel(m.root)
	m.epoch++
	m.view = v

	m.popup = popupNone
	m.editing = false
	m.confirmDelete = false
	m.busy = false
	m.profileErr = nil
	m.pending = make(map[string]bool)

	m.logger.Debug("navigate", "view", v, "epoch", m.epoch)
}

// Init checks for a stored session and opens the catalog when one exists.
func (m *Model) Init() tea.Cmd {
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		session, err := m.auth.Current(ctx)
		return sessionCheckedMsg(epoch, session, err)
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.movieList.SetSize(msg.Width-4, msg.Height-10)
		m.favoriteList.SetSize(msg.Width-4, msg.Height-14)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.force) {
			return m, m.quit()
		}
		switch m.view {
		case WelcomeView:
			return m.handleWelcomeKeys(msg)
		case LoginView, RegisterView:
			return m.handleFormKeys(msg)
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case ProfileView:
			return m.handleProfileKeys(msg)
		}

	case Msg:
		if msg.kind == MsgNoticeExpired {
			if seq, _ := msg.data.(int); seq == m.noticeSeq {
				m.notice = tasks.Notice{}
			}
			return m, nil
		}
		if msg.epoch != m.epoch {
			m.logger.Debug("dropping result of a closed screen", "kind", msg.kind, "epoch", msg.epoch, "current", m.epoch)
			return m, nil
		}
		return m.handleResult(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleResult(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChecked:
		res := msg.data.(sessionResult)
		if res.err != nil {
			if !errors.Is(res.err, shared.ErrNoSession) {
				m.logger.Warn("failed to read session", "error", res.err)
			}
			return m, nil
		}
		return m, m.startSession(res.session)

	case MsgLoggedIn:
		res := msg.data.(sessionResult)
		m.busy = false
		notice := m.setNotice(tasks.NewNotice(tasks.OpLogin, res.err))
		if res.err != nil {
			return m, notice
		}
		return m, tea.Batch(m.startSession(res.session), notice)

	case MsgRegistered:
		res := msg.data.(userResult)
		m.busy = false
		notice := m.setNotice(tasks.NewNotice(tasks.OpRegister, res.err))
		if res.err != nil {
			return m, notice
		}
		m.navigate(LoginView)
		m.form = loginForm(res.user.Username)
		m.form.setFocus(1)
		return m, notice

	case MsgCatalogLoaded:
		res := msg.data.(catalogResult)
		switch {
		case errors.Is(res.err, shared.ErrLoadInProgress):
			return m, m.loadCatalogLater()
		case tasks.IsSessionEnded(res.err):
			return m, m.endSession(tasks.OpLoadCatalog, res.err)
		case res.err != nil:
			return m, m.setNotice(tasks.NewNotice(tasks.OpLoadCatalog, res.err))
		}
		return m, m.rebuildMovies()

	case MsgFavoriteToggled:
		res := msg.data.(toggleResult)
		delete(m.pending, res.movieID)
		if tasks.IsSessionEnded(res.err) {
			return m, m.endSession(res.op, res.err)
		}
		op := res.op
		if res.err == nil {
			op = res.result.Op()
		}
		notice := m.setNotice(tasks.NewNotice(op, res.err))
		return m, tea.Batch(m.refreshLists(), notice)

	case MsgProfileLoaded:
		res := msg.data.(profileResult)
		if tasks.IsSessionEnded(res.err) {
			return m, m.endSession(tasks.OpLoadProfile, res.err)
		}
		if res.err != nil {
			m.profileErr = res.err
			return m, m.setNotice(tasks.NewNotice(tasks.OpLoadProfile, res.err))
		}
		m.user = res.view.User
		return m, m.rebuildFavorites()

	case MsgProfileUpdated:
		res := msg.data.(userResult)
		m.busy = false
		if tasks.IsSessionEnded(res.err) {
			return m, m.endSession(tasks.OpUpdateProfile, res.err)
		}
		notice := m.setNotice(tasks.NewNotice(tasks.OpUpdateProfile, res.err))
		if res.err != nil {
			return m, notice
		}
		m.editing = false
		m.user = res.user
		return m, tea.Batch(m.rebuildFavorites(), notice)

	case MsgProfileDeleted:
		err, _ := msg.data.(error)
		m.busy = false
		m.confirmDelete = false
		if tasks.IsSessionEnded(err) {
			return m, m.endSession(tasks.OpDeleteProfile, err)
		}
		notice := m.setNotice(tasks.NewNotice(tasks.OpDeleteProfile, err))
		if err != nil {
			return m, notice
		}
		m.user = models.User{}
		m.catalog.Reset()
		m.navigate(WelcomeView)
		return m, notice
	}
	return m, nil
}

// startSession seeds the shared favorite set from the stored user and opens the catalog.
func (m *Model) startSession(session models.Session) tea.Cmd {
	m.user = session.User
	m.favorites.Seed(session.User.Username, session.User.FavoriteMovies)
	m.navigate(CatalogView)
	return m.loadCatalog()
}

// endSession returns to the landing screen after the session was cleared or rejected.
func (m *Model) endSession(op tasks.Operation, err error) tea.Cmd {
	m.logger.Info("session ended", "op", op, "error", err)
	m.user = models.User{}
	m.favorites.Reset()
	m.catalog.Reset()
	m.navigate(WelcomeView)
	return m.setNotice(tasks.NewNotice(op, err))
}

func (m *Model) logout() tea.Cmd {
	if err := m.auth.Logout(m.ctx); err != nil {
		return m.setNotice(tasks.NewNotice(tasks.OpLogout, err))
	}
	m.user = models.User{}
	m.favorites.Reset()
	m.catalog.Reset()
	m.navigate(WelcomeView)
	return m.setNotice(tasks.NewNotice(tasks.OpLogout, nil))
}

func (m *Model) quit() tea.Cmd {
	m.Close()
	return tea.Quit
}

func (m *Model) setNotice(n tasks.Notice) tea.Cmd {
	m.notice = n
	m.noticeSeq++
	if n.Message == "" || m.noticeTTL < 0 {
		return nil
	}
	seq := m.noticeSeq
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg(seq) })
}

func (m *Model) handleWelcomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.login):
		m.navigate(LoginView)
		m.form = loginForm("")
	case key.Matches(msg, m.keys.register):
		m.navigate(RegisterView)
		m.form = registerForm()
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.navigate(WelcomeView)
		return m, nil
	case msg.String() == "tab", msg.String() == "down":
		m.form.next()
		return m, nil
	case msg.String() == "shift+tab", msg.String() == "up":
		m.form.prev()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if !m.form.last() {
			m.form.next()
			return m, nil
		}
		if m.view == LoginView {
			return m, m.submitLogin()
		}
		return m, m.submitRegister()
	}
	return m, m.form.update(msg)
}

func (m *Model) submitLogin() tea.Cmd {
	if m.busy {
		return m.setNotice(tasks.NewNotice(tasks.OpLogin, shared.ErrUpdateInProgress))
	}
	creds := services.Credentials{Username: m.form.value(0), Password: m.form.value(1)}
	if err := creds.Validate(); err != nil {
		return m.setNotice(tasks.NewNotice(tasks.OpLogin, err))
	}

	m.busy = true
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		session, err := m.auth.Login(ctx, creds)
		return loggedInMsg(epoch, session, err)
	}
}

func (m *Model) submitRegister() tea.Cmd {
	if m.busy {
		return m.setNotice(tasks.NewNotice(tasks.OpRegister, shared.ErrUpdateInProgress))
	}
	req := services.RegisterRequest{
		Username: m.form.value(0),
		Password: m.form.value(1),
		Email:    m.form.value(2),
		Birthday: m.form.value(3),
	}
	if err := req.Validate(); err != nil {
		return m.setNotice(tasks.NewNotice(tasks.OpRegister, err))
	}

	m.busy = true
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		user, err := m.auth.Register(ctx, req)
		if err != nil {
			return registeredMsg(epoch, models.User{}, err)
		}
		return registeredMsg(epoch, *user, nil)
	}
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.popup != popupNone {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, m.quit()
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
			m.popup = popupNone
		}
		return m, nil
	}

	if m.movieList.FilterState() == list.Filtering {
		return m.updateComponents(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.retry):
		if m.catalog.State() == tasks.CatalogFailed {
			return m, m.retryCatalog()
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if movie, ok := m.selectedMovie(m.movieList); ok {
			return m, m.toggleFavorite(movie.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.genre):
		return m, m.openPopup(popupGenre)
	case key.Matches(msg, m.keys.director):
		return m, m.openPopup(popupDirector)
	case key.Matches(msg, m.keys.synopsis):
		return m, m.openPopup(popupSynopsis)
	case key.Matches(msg, m.keys.profile):
		return m, m.openProfile()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	return m.updateComponents(msg)
}

func (m *Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.editing:
		return m.handleEditKeys(msg)
	case m.confirmDelete:
		return m.handleConfirmKeys(msg)
	}

	if m.favoriteList.FilterState() == list.Filtering {
		return m.updateComponents(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.back):
		m.navigate(CatalogView)
		return m, m.loadCatalog()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.retry):
		if m.profileErr != nil {
			m.profileErr = nil
			return m, m.activateProfile()
		}
		return m, nil
	}

	if !m.profile.Loaded() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.edit):
		m.editing = true
		m.form = profileForm(m.user.Username, m.user.Email, m.user.Birthday.String())
		return m, nil
	case key.Matches(msg, m.keys.remove):
		m.confirmDelete = true
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if movie, ok := m.selectedMovie(m.favoriteList); ok {
			return m, m.toggleFavorite(movie.ID)
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if !m.busy {
			m.editing = false
		}
		return m, nil
	case msg.String() == "tab", msg.String() == "down":
		m.form.next()
		return m, nil
	case msg.String() == "shift+tab", msg.String() == "up":
		m.form.prev()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if !m.form.last() {
			m.form.next()
			return m, nil
		}
		return m, m.submitUpdate()
	}
	return m, m.form.update(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.submitDelete()
	case key.Matches(msg, m.keys.no):
		if !m.busy {
			m.confirmDelete = false
		}
	}
	return m, nil
}

// submitUpdate sends the edit form. The form stays open and disabled until the result arrives.
func (m *Model) submitUpdate() tea.Cmd {
	if m.busy || m.profile.Updating() {
		return m.setNotice(tasks.NewNotice(tasks.OpUpdateProfile, shared.ErrUpdateInProgress))
	}
	req := services.UpdateUserRequest{
		Username: m.form.value(0),
		Password: m.form.value(1),
		Email:    m.form.value(2),
		Birthday: m.form.value(3),
	}

	m.busy = true
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		user, err := m.profile.Update(ctx, req)
		return profileUpdatedMsg(epoch, user, err)
	}
}

func (m *Model) submitDelete() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		return profileDeletedMsg(epoch, m.profile.Delete(ctx))
	}
}

func (m *Model) loadCatalog() tea.Cmd {
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		movies, err := m.catalog.Load(ctx)
		return catalogLoadedMsg(epoch, movies, err)
	}
}

func (m *Model) retryCatalog() tea.Cmd {
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		movies, err := m.catalog.Retry(ctx)
		return catalogLoadedMsg(epoch, movies, err)
	}
}

// loadCatalogLater waits for a load started by a closed screen to finish.
func (m *Model) loadCatalogLater() tea.Cmd {
	load := m.loadCatalog()
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg { return load() })
}

func (m *Model) openProfile() tea.Cmd {
	m.navigate(ProfileView)
	m.profileView = tasks.ProfileView{User: m.user}
	m.favoriteList.SetItems(nil)
	return m.activateProfile()
}

func (m *Model) activateProfile() tea.Cmd {
	ctx, epoch := m.ctx, m.epoch
	return func() tea.Msg {
		view, err := m.profile.Activate(ctx)
		return profileLoadedMsg(epoch, view, err)
	}
}

// toggleFavorite starts a toggle unless one for the same movie is still pending.
func (m *Model) toggleFavorite(movieID string) tea.Cmd {
	adding := !m.favorites.IsFavorite(movieID)
	op := tasks.OpRemoveFavorite
	if adding {
		op = tasks.OpAddFavorite
	}

	if m.pending[movieID] || m.favorites.Pending(movieID) {
		return m.setNotice(tasks.NewNotice(op, shared.ErrToggleInProgress))
	}

	m.pending[movieID] = true
	refresh := m.refreshLists()

	ctx, epoch := m.ctx, m.epoch
	toggle := func() tea.Msg {
		result, err := m.favorites.Toggle(ctx, movieID)
		return favoriteToggledMsg(epoch, movieID, op, result, err)
	}
	return tea.Batch(refresh, toggle)
}

func (m *Model) openPopup(kind popupKind) tea.Cmd {
	movie, ok := m.selectedMovie(m.movieList)
	if !ok {
		return nil
	}
	m.popup = kind
	m.popupMovie = movie
	return nil
}

func (m *Model) selectedMovie(l list.Model) (models.Movie, bool) {
	item, ok := l.SelectedItem().(movieItem)
	if !ok {
		return models.Movie{}, false
	}
	return item.movie, true
}

func (m *Model) refreshLists() tea.Cmd {
	switch m.view {
	case CatalogView:
		return m.rebuildMovies()
	case ProfileView:
		return m.rebuildFavorites()
	}
	return nil
}

// rebuildMovies derives the catalog rows from the cached list and the shared favorite set.
func (m *Model) rebuildMovies() tea.Cmd {
	views := m.catalog.Views(m.favorites.Favorites())
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = movieItem{movie: v.Movie, favorite: v.Favorite, pending: m.pending[v.ID]}
	}
	return m.movieList.SetItems(items)
}

func (m *Model) rebuildFavorites() tea.Cmd {
	if !m.profile.Loaded() {
		return nil
	}
	m.profileView = m.profile.View()
	m.user = m.profileView.User

	items := make([]list.Item, len(m.profileView.Favorites))
	for i, movie := range m.profileView.Favorites {
		items[i] = movieItem{movie: movie, favorite: true, pending: m.pending[movie.ID]}
	}
	return m.favoriteList.SetItems(items)
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView, RegisterView:
		cmd = m.form.update(msg)
	case CatalogView:
		m.movieList, cmd = m.movieList.Update(msg)
	case ProfileView:
		if m.editing {
			cmd = m.form.update(msg)
		} else {
			m.favoriteList, cmd = m.favoriteList.Update(msg)
		}
	}
	return m, cmd
}

package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// PasswordReader reads a secret without echoing it.
type PasswordReader func(prompt string) (string, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        services.MovieService
	store      repositories.SessionStore
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	password   PasswordReader
}

// RunnerOpts contains configuration options for creating a Runner.
//
// API and Store are built from the config on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        services.MovieService
	Store      repositories.SessionStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Password   PasswordReader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Password == nil {
		opts.Password = terminalPassword(os.Stderr)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		password:   opts.Password,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, registerCommand, loginCommand, logoutCommand, whoamiCommand,
		moviesCommand, usersCommand, profileCommand, favoritesCommand, tuiCommand, mockCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config named by --config, falling back to the embedded defaults when the file is missing.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := r.loadConfig()
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// After releases the session database.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.configPath == "" {
		return shared.DefaultConfig(), nil
	}
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(r.configPath)
}

// SetLogger replaces the runner's logger. Clients built afterwards log through it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// session returns the session store, opening the SQLite database on first use.
func (r *Runner) session() (repositories.SessionStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.OpenSessionDatabase(r.cfg().Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	r.db = db
	r.store = repositories.NewStore(repositories.NewSQLiteKV(db), shared.WithLogger(r.logger, "component", "session"))
	return r.store, nil
}

// client returns the movie API client, authenticated from the session store.
func (r *Runner) client(ctx context.Context) (services.MovieService, repositories.SessionStore, error) {
	store, err := r.session()
	if err != nil {
		return nil, nil, err
	}
	if r.api != nil {
		return r.api, store, nil
	}

	config := r.cfg()
	httpClient := r.httpClient
	if httpClient == http.DefaultClient {
		httpClient = &http.Client{Timeout: config.API.Timeout()}
	}

	r.api = services.NewMovieAPI(services.MovieAPIOpts{
		BaseURL:           config.API.BaseURL,
		HTTPClient:        httpClient,
		Tokens:            store.TokenSource(ctx),
		RequestsPerSecond: config.API.RequestsPerSecond,
		Logger:            shared.WithLogger(r.logger, "component", "api"),
	})
	return r.api, store, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// outputFormat reads --json and --format; --json wins.
func (r *Runner) outputFormat(cmd *cli.Command) (formatter.Format, error) {
	if cmd.Bool("json") {
		return formatter.FormatJSON, nil
	}
	return formatter.ParseFormat(cmd.String("format"))
}

// confirm asks a yes/no question on the input reader. Anything but y/yes is no.
func (r *Runner) confirm(question string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	line, err := r.input.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// secret returns value, or prompts for it when empty.
func (r *Runner) secret(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return r.password(prompt)
}

func terminalPassword(w io.Writer) PasswordReader {
	return func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("%w: password flag is required when stdin is not a terminal", shared.ErrMissingArgument)
		}

		fmt.Fprint(w, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
}

// outputFlags are shared by every command that prints domain data.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown, csv or json",
			Value:   "text",
		},
	}
}

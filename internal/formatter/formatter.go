// package formatter renders movies, profiles and users as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// Format is an output format accepted by --format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat maps a flag value to a [Format]. The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, csv or json)", shared.ErrInvalidArgument, s)
	}
}

func favoriteMark(favorite bool) string {
	if favorite {
		return "★"
	}
	return " "
}

// MoviesToCSV converts movies to CSV with columns: ID, Title, Genre, Director, Featured, Favorite
func MoviesToCSV(movies []models.Movie, favorites models.FavoriteSet) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Genre", "Director", "Featured", "Favorite"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range movies {
		record := []string{
			m.ID,
			m.Title,
			m.Genre.Name,
			m.Director.Name,
			strconv.FormatBool(m.Featured),
			strconv.FormatBool(favorites.Has(m.ID)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// MoviesToMarkdown renders movies as a numbered Markdown list under title.
func MoviesToMarkdown(title string, movies []models.Movie, favorites models.FavoriteSet) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Movies**: %d\n\n", len(movies)))

	for i, m := range movies {
		star := ""
		if favorites.Has(m.ID) {
			star = " ★"
		}
		buf.WriteString(fmt.Sprintf("%d. **%s**%s (%s, dir. %s)\n", i+1, m.Title, star, m.Genre.Name, m.Director.Name))
	}

	return buf.Bytes(), nil
}

// MoviesToText renders one line per movie with a favorite marker.
func MoviesToText(movies []models.Movie, favorites models.FavoriteSet) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Movies: %d\n\n", len(movies)))
	for i, m := range movies {
		buf.WriteString(fmt.Sprintf("%s %d. %s - %s [%s] (%s)\n", favoriteMark(favorites.Has(m.ID)), i+1, m.Title, m.Director.Name, m.Genre.Name, m.ID))
	}

	return buf.Bytes(), nil
}

// MovieToText renders the full detail of one movie: synopsis, genre and director.
func MovieToText(m models.Movie) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", m.Title))
	buf.WriteString(strings.Repeat("=", len([]rune(m.Title))) + "\n\n")
	if m.Description != "" {
		buf.WriteString(m.Description + "\n\n")
	}

	buf.WriteString(fmt.Sprintf("Genre: %s\n", m.Genre.Name))
	if m.Genre.Description != "" {
		buf.WriteString(fmt.Sprintf("  %s\n", m.Genre.Description))
	}

	buf.WriteString(fmt.Sprintf("Director: %s\n", m.Director.Name))
	if m.Director.Birth != "" {
		buf.WriteString(fmt.Sprintf("  Born: %s\n", m.Director.Birth))
	}
	if m.Director.Bio != "" {
		buf.WriteString(fmt.Sprintf("  %s\n", m.Director.Bio))
	}

	if m.Featured {
		buf.WriteString("Featured\n")
	}
	buf.WriteString(fmt.Sprintf("ID: %s\n", m.ID))

	return buf.Bytes()
}

// ProfileToText renders a user and the catalog movies in their favorite set.
func ProfileToText(u models.User, favorites []models.Movie) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Username: %s\n", u.Username))
	buf.WriteString(fmt.Sprintf("Email: %s\n", u.Email))
	buf.WriteString(fmt.Sprintf("Birthday: %s\n", birthday(u.Birthday)))
	buf.WriteString(fmt.Sprintf("Favorites: %d\n", len(favorites)))

	for i, m := range favorites {
		buf.WriteString(fmt.Sprintf("  %d. %s (%s)\n", i+1, m.Title, m.ID))
	}

	return buf.Bytes()
}

// ProfileToMarkdown renders a user profile with optional poster images for each favorite.
//
// posters maps movie ids to image paths relative to the Markdown file.
func ProfileToMarkdown(u models.User, favorites []models.Movie, posters map[string]string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", u.Username))
	buf.WriteString(fmt.Sprintf("**Email**: %s\n", u.Email))
	buf.WriteString(fmt.Sprintf("**Birthday**: %s\n\n", birthday(u.Birthday)))

	buf.WriteString("## Favourite Movies\n\n")
	if len(favorites) == 0 {
		buf.WriteString("_No favourites yet._\n")
		return buf.Bytes()
	}

	for i, m := range favorites {
		buf.WriteString(fmt.Sprintf("%d. **%s** (%s, dir. %s)\n", i+1, m.Title, m.Genre.Name, m.Director.Name))
		if poster := posters[m.ID]; poster != "" {
			buf.WriteString(fmt.Sprintf("\n   ![%s](%s)\n\n", m.Title, poster))
		}
	}

	return buf.Bytes()
}

// UsersToCSV converts users to CSV with columns: ID, Username, Email, Birthday, Favorites
func UsersToCSV(users []models.User) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Username", "Email", "Birthday", "Favorites"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, u := range users {
		record := []string{u.ID, u.Username, u.Email, u.Birthday.String(), strconv.Itoa(u.FavoriteMovies.Len())}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// UsersToText renders one line per user.
func UsersToText(users []models.User) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Users: %d\n\n", len(users)))
	for i, u := range users {
		buf.WriteString(fmt.Sprintf("%d. %s <%s> favorites=%d\n", i+1, u.Username, u.Email, u.FavoriteMovies.Len()))
	}

	return buf.Bytes()
}

func birthday(d models.Date) string {
	if s := d.String(); s != "" {
		return s
	}
	return "-"
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ProfileExport is the input of [WriteProfileExport].
type ProfileExport struct {
	User      models.User
	Favorites []models.Movie
}

// ProfileExportResult contains information about files created by [WriteProfileExport]
type ProfileExportResult struct {
	Directory string
	Files     []string
	Posters   []string
	// Warnings holds poster downloads that failed; the export still succeeds without them.
	Warnings []error
}

// WriteProfileExport writes {dir}/README.md, {dir}/profile.json and, when download is set,
// {dir}/posters/{movieID}{ext} for each favorite with an ImagePath.
//
// Directory name defaults to the username.
func WriteProfileExport(ctx context.Context, export ProfileExport, outputDir string, download bool, client *http.Client) (*ProfileExportResult, error) {
	if outputDir == "" {
		outputDir = export.User.Username
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &ProfileExportResult{Directory: outputDir, Files: []string{}}
	posters := make(map[string]string)

	if download {
		for _, m := range export.Favorites {
			if m.ImagePath == "" {
				continue
			}

			data, err := DownloadImage(ctx, client, m.ImagePath)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("%s: %w", m.Title, err))
				continue
			}

			rel := filepath.Join("posters", m.ID+posterExt(m.ImagePath))
			full := filepath.Join(outputDir, rel)
			if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
				return nil, fmt.Errorf("failed to create poster directory: %w", err)
			}
			if err := os.WriteFile(full, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("%s: failed to save poster: %w", m.Title, err))
				continue
			}

			posters[m.ID] = filepath.ToSlash(rel)
			result.Posters = append(result.Posters, full)
			result.Files = append(result.Files, full)
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, ProfileToMarkdown(export.User, export.Favorites, posters), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	data, err := shared.MarshalJSON(export.User.Sanitized(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile JSON: %w", err)
	}

	jsonFile := filepath.Join(outputDir, "profile.json")
	if err := os.WriteFile(jsonFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write profile file: %w", err)
	}
	result.Files = append(result.Files, jsonFile)

	return result, nil
}

func posterExt(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	switch ext := strings.ToLower(filepath.Ext(url)); ext {
	case ".png", ".gif", ".webp", ".jpeg":
		return ext
	default:
		return ".jpg"
	}
}

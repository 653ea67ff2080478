package server

import "github.com/desertthunder/flix/internal/models"

var (
	sciFi    = models.Genre{Name: "Sci-Fi", Description: "Speculative stories built on science and technology."}
	action   = models.Genre{Name: "Action", Description: "High energy films driven by physical conflict."}
	crime    = models.Genre{Name: "Crime", Description: "Stories about criminals and the people who chase them."}
	thriller = models.Genre{Name: "Thriller", Description: "Suspense-driven films that keep the audience on edge."}

	nolan = models.Director{
		Name:  "Christopher Nolan",
		Bio:   "British-American filmmaker known for non-linear storytelling.",
		Birth: "1970-07-30",
	}
	wachowskis = models.Director{
		Name:  "Lana Wachowski",
		Bio:   "American filmmaker and co-creator of The Matrix franchise.",
		Birth: "1965-06-21",
	}
	tarantino = models.Director{
		Name:  "Quentin Tarantino",
		Bio:   "American filmmaker known for stylized violence and sharp dialogue.",
		Birth: "1963-03-27",
	}
	bong = models.Director{
		Name:  "Bong Joon-ho",
		Bio:   "South Korean filmmaker known for genre-bending social satire.",
		Birth: "1969-09-14",
	}
)

// SeedMovies returns the default mock catalog.
func SeedMovies() []models.Movie {
	return []models.Movie{
		{
			ID:          "6537ae0a2a8a4f8c1d6b0001",
			Title:       "Inception",
			Description: "A thief who steals secrets through dream-sharing is asked to plant an idea instead.",
			Genre:       sciFi,
			Director:    nolan,
			Featured:    true,
		},
		{
			ID:          "6537ae0a2a8a4f8c1d6b0002",
			Title:       "The Dark Knight",
			Description: "Batman faces the Joker, a criminal mastermind who wants to watch Gotham burn.",
			Genre:       action,
			Director:    nolan,
		},
		{
			ID:          "6537ae0a2a8a4f8c1d6b0003",
			Title:       "Interstellar",
			Description: "Explorers travel through a wormhole in search of a new home for humanity.",
			Genre:       sciFi,
			Director:    nolan,
		},
		{
			ID:          "6537ae0a2a8a4f8c1d6b0004",
			Title:       "The Matrix",
			Description: "A hacker learns that his reality is a simulation and joins the resistance.",
			Genre:       sciFi,
			Director:    wachowskis,
			Featured:    true,
		},
		{
			ID:          "6537ae0a2a8a4f8c1d6b0005",
			Title:       "Pulp Fiction",
			Description: "Interlocking stories of Los Angeles criminals told out of order.",
			Genre:       crime,
			Director:    tarantino,
		},
		{
			ID:          "6537ae0a2a8a4f8c1d6b0006",
			Title:       "Parasite",
			Description: "A poor family schemes its way into the household of a wealthy one.",
			Genre:       thriller,
			Director:    bong,
		},
	}
}

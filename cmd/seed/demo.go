package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sngm3741/product-page/internal/public/domain"
)

var (
	demoNames = []string{"Ann", "Bob", "Chiara", "Dmitri", "Emi", "Farid", "Greta", "Hiro"}

	demoGood = []string{
		"Does exactly what it says.",
		"Fast and pleasant to use.",
		"Worth every cent, the screenshots do not lie.",
		"Clean design and it syncs without trouble.",
	}
	demoBad = []string{
		"Crashes when I open the settings.",
		"Lost my data after the last update.",
		"Too many ads, uninstalled.",
	}
)

// generateReviews builds count plausible reviews dated within the last year.
func generateReviews(rng *rand.Rand, count int, now time.Time) []domain.Review {
	out := make([]domain.Review, 0, count)
	for i := 0; i < count; i++ {
		rating := rng.Intn(5) + 1
		texts := demoGood
		if rating <= 2 {
			texts = demoBad
		}
		name := demoNames[rng.Intn(len(demoNames))]
		out = append(out, domain.Review{
			Description: texts[rng.Intn(len(texts))],
			Rating:      rating,
			Date:        now.AddDate(0, 0, -rng.Intn(365)).Truncate(24 * time.Hour),
			Author: domain.Author{
				Name:    name,
				Picture: fmt.Sprintf("img/user-%d.png", rng.Intn(len(demoNames))+1),
			},
			Popularity: rng.Intn(50),
		})
	}
	return out
}

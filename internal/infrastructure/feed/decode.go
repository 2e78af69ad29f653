// Package feed reads the review data file, either over HTTP from the fixed
// data path or from disk.
package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// DataPath is the fixed path the review array is served from.
const DataPath = "/data/reviews.json"

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

type recordJSON struct {
	Description  string     `json:"description"`
	Rating       int        `json:"rating"`
	Date         string     `json:"date"`
	Author       authorJSON `json:"author"`
	ReviewRating int        `json:"review-rating"`
}

type authorJSON struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Decode parses a JSON array of review records.
func Decode(r io.Reader) ([]domain.Review, error) {
	var raw []recordJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode review data: %w", err)
	}
	records := make([]domain.Review, 0, len(raw))
	for i, rec := range raw {
		date, err := parseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("review %d: %w", i, err)
		}
		records = append(records, domain.Review{
			Description: rec.Description,
			Rating:      rec.Rating,
			Date:        date,
			Author:      domain.Author{Name: rec.Author.Name, Picture: rec.Author.Picture},
			Popularity:  rec.ReviewRating,
		})
	}
	return records, nil
}

// Encode writes records in the data file shape.
func Encode(w io.Writer, records []domain.Review) error {
	out := make([]recordJSON, 0, len(records))
	for _, r := range records {
		out = append(out, recordJSON{
			Description:  r.Description,
			Rating:       r.Rating,
			Date:         r.Date.Format("2006-01-02"),
			Author:       authorJSON{Name: r.Author.Name, Picture: r.Author.Picture},
			ReviewRating: r.Popularity,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

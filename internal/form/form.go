// Package form validates the review submission form and keeps the
// "remember me" cookies that prefill it on a return visit.
package form

import (
	"strconv"
	"strings"
)

// TextRequiredBelow is the rating under which a review text is mandatory.
const TextRequiredBelow = 3

// Input is the current content of the form fields. Rating is 0 when no mark
// is selected.
type Input struct {
	Name   string
	Rating int
	Text   string
}

// Field names used for hints.
const (
	FieldName   = "name"
	FieldRating = "rating"
	FieldText   = "text"
)

// Validity is the derived state of the form. CanSubmit drives the disabled
// state of the submit control; Hints lists the fields still missing.
type Validity struct {
	CanSubmit    bool     `json:"canSubmit"`
	TextRequired bool     `json:"textRequired"`
	Hints        []string `json:"hints"`
}

// Missing reports whether field still needs a value.
func (v Validity) Missing(field string) bool {
	for _, h := range v.Hints {
		if h == field {
			return true
		}
	}
	return false
}

// Validate recomputes the form validity from scratch.
func Validate(in Input) Validity {
	v := Validity{Hints: []string{}}
	rated := in.Rating >= 1 && in.Rating <= 5
	if !rated {
		v.Hints = append(v.Hints, FieldRating)
	}
	if rated && in.Rating < TextRequiredBelow {
		v.TextRequired = true
		if strings.TrimSpace(in.Text) == "" {
			v.Hints = append(v.Hints, FieldText)
		}
	}
	if strings.TrimSpace(in.Name) == "" {
		v.Hints = append(v.Hints, FieldName)
	}
	v.CanSubmit = len(v.Hints) == 0
	return v
}

// ParseRating reads a submitted mark. Anything other than 1..5 yields 0.
func ParseRating(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > 5 {
		return 0
	}
	return n
}

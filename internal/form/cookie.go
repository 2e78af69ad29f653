package form

import (
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// UserCookie and MarkCookie hold the remembered submitter.
	UserCookie = "user"
	MarkCookie = "mark"

	// DefaultRememberFor is the fixed lifetime of the remembered submitter.
	DefaultRememberFor = 225 * 24 * time.Hour
)

// Remembered is the submitter read back from cookies.
type Remembered struct {
	Name   string
	Rating int
}

// Remember writes the name and rating cookies, expiring ttl after now.
func Remember(w http.ResponseWriter, in Input, now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultRememberFor
	}
	expires := now.Add(ttl).UTC()
	for name, value := range map[string]string{
		UserCookie: url.QueryEscape(in.Name),
		MarkCookie: strconv.Itoa(in.Rating),
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Expires:  expires,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Recall reads the remembered submitter. Both cookies must be present and the
// mark must be a valid rating, otherwise ok is false and nothing is prefilled.
func Recall(r *http.Request) (Remembered, bool) {
	user, err := r.Cookie(UserCookie)
	if err != nil {
		return Remembered{}, false
	}
	mark, err := r.Cookie(MarkCookie)
	if err != nil {
		return Remembered{}, false
	}
	name, err := url.QueryUnescape(user.Value)
	if err != nil || name == "" {
		return Remembered{}, false
	}
	rating := ParseRating(mark.Value)
	if rating == 0 {
		return Remembered{}, false
	}
	return Remembered{Name: name, Rating: rating}, true
}

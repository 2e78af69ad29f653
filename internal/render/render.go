// Package render turns page state into HTML: the product page, the review
// list fragment, the gallery overlay and the feedback form.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/form"
	"github.com/sngm3741/product-page/internal/gallery"
	"github.com/sngm3741/product-page/internal/public/application"
	"github.com/sngm3741/product-page/internal/public/domain"
	"github.com/sngm3741/product-page/internal/thumbnail"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl   *template.Template
	racer  *thumbnail.Racer
	logger *zap.Logger
}

// New parses the templates. racer may be nil, in which case thumbnails stay
// pending and cards show the author placeholder.
func New(racer *thumbnail.Racer, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.New("_root").Funcs(template.FuncMap{
		"checked":     func(a, b int) bool { return a == b },
		"moreControl": func(more, oob bool) MoreControl { return MoreControl{More: more, OOB: oob} },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, racer: racer, logger: logger}, nil
}

// FilterOption is one control of the filter group.
type FilterOption struct {
	ID     string
	Value  domain.Filter
	Label  string
	Active bool
}

var filterLabels = map[domain.Filter]string{
	domain.FilterAll:     "All",
	domain.FilterRecent:  "Recent",
	domain.FilterGood:    "Good",
	domain.FilterBad:     "Bad",
	domain.FilterPopular: "Popular",
}

// FilterOptions lists the filter controls with active marked.
func FilterOptions(active domain.Filter) []FilterOption {
	opts := make([]FilterOption, 0, len(domain.Filters))
	for _, f := range domain.Filters {
		opts = append(opts, FilterOption{
			ID:     f.ControlID(),
			Value:  f,
			Label:  filterLabels[f],
			Active: f == active,
		})
	}
	return opts
}

// ReviewsData feeds the review section.
type ReviewsData struct {
	Status  application.LoadStatus
	Filter  domain.Filter
	Filters []FilterOption
	Cards   []Card
	More    bool
}

// Loading reports whether the list is still waiting for the data file.
func (d ReviewsData) Loading() bool {
	return d.Status == application.StatusIdle || d.Status == application.StatusLoading
}

// LoadFailed reports whether the data file could not be loaded.
func (d ReviewsData) LoadFailed() bool { return d.Status == application.StatusFailed }

// ShowFilters reports whether the filter bar is usable. It stays visible on
// an empty view so the visitor can switch back.
func (d ReviewsData) ShowFilters() bool { return d.Status == application.StatusLoaded }

// FormData feeds the feedback form.
type FormData struct {
	Name     string
	Rating   int
	Text     string
	Validity form.Validity
	Marks    []int
	Sent     bool
}

// NewFormData prefills the form and computes its validity.
func NewFormData(in form.Input) FormData {
	return FormData{
		Name:     in.Name,
		Rating:   in.Rating,
		Text:     in.Text,
		Validity: form.Validate(in),
		Marks:    []int{1, 2, 3, 4, 5},
	}
}

// GalleryData feeds the screenshot strip and the overlay.
type GalleryData struct {
	Photos []domain.Photo
	View   gallery.View
}

// PageData feeds the full product page.
type PageData struct {
	Title   string
	Reviews ReviewsData
	Gallery GalleryData
	Form    FormData
}

// Page writes the full product page.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.tmpl.ExecuteTemplate(w, "page", data)
}

// Reviews writes the review section: filters, list and load-more control.
func (r *Renderer) Reviews(w io.Writer, data ReviewsData) error {
	return r.tmpl.ExecuteTemplate(w, "reviews", data)
}

// MoreControl feeds the load-more control. OOB marks the copy sent along
// with an appended page so the page script swaps it in place.
type MoreControl struct {
	More bool
	OOB  bool
}

// Cards writes only the given cards, for appending a further page, followed
// by the refreshed load-more control.
func (r *Renderer) Cards(w io.Writer, cards []Card, more bool) error {
	return r.tmpl.ExecuteTemplate(w, "review-page", struct {
		Cards []Card
		More  bool
	}{cards, more})
}

// Gallery writes the overlay.
func (r *Renderer) Gallery(w io.Writer, data GalleryData) error {
	return r.tmpl.ExecuteTemplate(w, "gallery-overlay", data)
}

// Form writes the feedback form.
func (r *Renderer) Form(w io.Writer, data FormData) error {
	return r.tmpl.ExecuteTemplate(w, "review-form", data)
}

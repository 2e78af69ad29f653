// Package gallery holds the screenshot overlay state. UI events arrive through
// the listener bus and location changes arrive as "#photo/<id>" fragments;
// both are reduced to the same transitions so they cannot disagree.
package gallery

import (
	"errors"
	"strings"
	"sync"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// Key codes the overlay listens for.
const (
	KeyEscape = 27
	KeyLeft   = 37
	KeyRight  = 39
)

const fragmentPrefix = "#photo/"

// ErrPhotoNotFound is returned when a fragment or open request names a photo
// outside the set.
var ErrPhotoNotFound = errors.New("photo not found")

// State of the overlay.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

type transitionKind int

const (
	transShow transitionKind = iota
	transHide
	transNavigate
)

type transition struct {
	kind  transitionKind
	index int
	delta int
}

// Gallery is the overlay state machine for one page.
type Gallery struct {
	mu       sync.Mutex
	photos   []domain.Photo
	index    int
	state    State
	fragment string

	bus         *Bus
	unsubscribe []func()
}

// New builds a hidden gallery over photos. The set is copied.
func New(photos []domain.Photo) *Gallery {
	return &Gallery{
		photos: append([]domain.Photo(nil), photos...),
		bus:    NewBus(),
	}
}

// Bus exposes the listener bus UI events are published on.
func (g *Gallery) Bus() *Bus { return g.bus }

// Dispatch publishes a UI event. While hidden nothing is subscribed, so the
// event has no effect. It reports whether any listener handled it.
func (g *Gallery) Dispatch(ev Event) bool {
	return g.bus.Publish(ev) > 0
}

// Show makes the overlay visible at the current index.
func (g *Gallery) Show() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply(transition{kind: transShow, index: g.index})
}

// Hide closes the overlay and clears the fragment.
func (g *Gallery) Hide() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply(transition{kind: transHide})
}

// OpenPhoto shows the photo with id and writes its fragment.
func (g *Gallery) OpenPhoto(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.indexOf(id)
	if idx < 0 {
		return ErrPhotoNotFound
	}
	g.apply(transition{kind: transShow, index: idx})
	return nil
}

// OpenIndex shows the photo at index i.
func (g *Gallery) OpenIndex(i int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.photos) {
		return ErrPhotoNotFound
	}
	g.apply(transition{kind: transShow, index: i})
	return nil
}

// HandleFragment applies an external location change. A matching
// "#photo/<id>" shows that photo; anything else hides the overlay. An unknown
// id hides the overlay and returns ErrPhotoNotFound.
func (g *Gallery) HandleFragment(fragment string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := ParseFragment(fragment)
	if !ok {
		g.apply(transition{kind: transHide})
		return nil
	}
	idx := g.indexOf(id)
	if idx < 0 {
		g.apply(transition{kind: transHide})
		return ErrPhotoNotFound
	}
	g.apply(transition{kind: transShow, index: idx})
	return nil
}

// apply is the single transition function. Callers hold g.mu.
func (g *Gallery) apply(t transition) {
	switch t.kind {
	case transShow:
		if len(g.photos) == 0 {
			return
		}
		g.index = t.index
		if g.state == Hidden {
			g.state = Visible
			g.attach()
		}
	case transHide:
		if g.state == Visible {
			g.state = Hidden
			g.detach()
		}
	case transNavigate:
		if g.state != Visible {
			return
		}
		next := g.index + t.delta
		if next < 0 || next >= len(g.photos) {
			return
		}
		g.index = next
	}
	g.fragment = ""
	if g.state == Visible {
		g.fragment = Fragment(g.photos[g.index].ID)
	}
}

func (g *Gallery) attach() {
	g.unsubscribe = append(g.unsubscribe,
		g.bus.Subscribe(EventLeft, func(Event) { g.locked(transition{kind: transNavigate, delta: -1}) }),
		g.bus.Subscribe(EventRight, func(Event) { g.locked(transition{kind: transNavigate, delta: 1}) }),
		g.bus.Subscribe(EventClose, func(Event) { g.locked(transition{kind: transHide}) }),
		g.bus.Subscribe(EventKeyDown, g.onKey),
	)
}

func (g *Gallery) detach() {
	for _, off := range g.unsubscribe {
		off()
	}
	g.unsubscribe = nil
}

func (g *Gallery) onKey(ev Event) {
	switch ev.Key {
	case KeyEscape:
		g.locked(transition{kind: transHide})
	case KeyLeft:
		g.locked(transition{kind: transNavigate, delta: -1})
	case KeyRight:
		g.locked(transition{kind: transNavigate, delta: 1})
	}
}

func (g *Gallery) locked(t transition) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply(t)
}

func (g *Gallery) indexOf(id string) int {
	for i, p := range g.photos {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// View is a read-only snapshot of the overlay.
type View struct {
	State    State
	Index    int
	Total    int
	Current  domain.Photo
	Fragment string
	HasPrev  bool
	HasNext  bool
}

// Visible reports whether the overlay is shown.
func (v View) Visible() bool { return v.State == Visible }

// Number is the one-based position shown in the preview counter.
func (v View) Number() int { return v.Index + 1 }

// View returns the current snapshot.
func (g *Gallery) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := View{
		State:    g.state,
		Index:    g.index,
		Total:    len(g.photos),
		Fragment: g.fragment,
	}
	if len(g.photos) > 0 {
		v.Current = g.photos[g.index]
		v.HasPrev = g.index > 0
		v.HasNext = g.index < len(g.photos)-1
	}
	return v
}

// Photos returns a copy of the photo set.
func (g *Gallery) Photos() []domain.Photo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Photo(nil), g.photos...)
}

// Fragment returns the location fragment that opens the photo with id.
func Fragment(id string) string {
	return fragmentPrefix + id
}

// ParseFragment extracts the photo id from "#photo/<id>". The leading '#' is
// optional.
func ParseFragment(fragment string) (string, bool) {
	fragment = strings.TrimSpace(fragment)
	if !strings.HasPrefix(fragment, "#") {
		fragment = "#" + fragment
	}
	if !strings.HasPrefix(fragment, fragmentPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(fragment, fragmentPrefix)
	if id == "" || strings.ContainsAny(id, " \t\n") {
		return "", false
	}
	return id, true
}

// PhotosFromSources builds a photo set where each id is the source path,
// matching how thumbnails on the page link into the overlay.
func PhotosFromSources(sources []string) []domain.Photo {
	photos := make([]domain.Photo, 0, len(sources))
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		photos = append(photos, domain.Photo{ID: strings.TrimPrefix(src, "/"), Src: src})
	}
	return photos
}

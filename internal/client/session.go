package client

import (
	"sync"

	"github.com/ukydev/anchor/internal/models"
)

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Session is the application context handed to every client component: the
// identity token, the signed-in user, the last known location and the UI
// preferences. It is safe for concurrent use.
type Session struct {
	mu              sync.RWMutex
	token           string
	user            *models.PublicUser
	location        *models.Location
	theme           Theme
	sidebarExpanded bool
}

// NewSession returns a signed-out session with the light theme.
func NewSession() *Session {
	return &Session{theme: ThemeLight}
}

// SignIn stores the identity returned by signup or login.
func (s *Session) SignIn(user models.PublicUser, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.token = token
}

// SignOut clears identity and location. UI preferences are kept.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.location = nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *models.PublicUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// Location returns a copy of the last known location, or nil.
func (s *Session) Location() *models.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLocation(s.location)
}

// SetLocation replaces the known location and returns the previous one.
func (s *Session) SetLocation(loc *models.Location) *models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.location
	s.location = cloneLocation(loc)
	return prev
}

func (s *Session) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *Session) SetTheme(t Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = t
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Session) ToggleTheme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	return s.theme
}

func (s *Session) SidebarExpanded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebarExpanded
}

func (s *Session) SetSidebarExpanded(expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarExpanded = expanded
}

func cloneLocation(loc *models.Location) *models.Location {
	if loc == nil {
		return nil
	}
	c := *loc
	if loc.Coordinates != nil {
		c.Coordinates = append([]float64(nil), loc.Coordinates...)
	}
	if loc.Point != nil {
		p := *loc.Point
		p.Coordinates = append([]float64(nil), loc.Point.Coordinates...)
		c.Point = &p
	}
	return &c
}

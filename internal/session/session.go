package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ecoeats/mealplanner/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

// Event is a session lifecycle transition.
type Event string

const (
	EventLoggedIn  Event = "logged_in"
	EventLoggedOut Event = "logged_out"
)

// ErrNoUser is returned when a session would have no user id.
var ErrNoUser = errors.New("session user id is required")

// Session identifies the signed-in user for every backend call.
type Session struct {
	UserID      string
	Token       string
	DisplayName string
}

// tokenClaims are the fields read from a bearer token when the configuration
// leaves the user unnamed. The signature is not checked here; the backend
// does that.
type tokenClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// FromConfig builds the session from configuration. A JWT bearer token fills
// in the user id and display name when those are not configured.
func FromConfig(cfg config.SessionConfig) (Session, error) {
	s := Session{
		UserID:      strings.TrimSpace(cfg.UserID),
		Token:       strings.TrimSpace(cfg.AuthToken),
		DisplayName: strings.TrimSpace(cfg.DisplayName),
	}
	if s.Token != "" && (s.UserID == "" || s.DisplayName == "") {
		if claims, ok := claimsFromToken(s.Token); ok {
			if s.UserID == "" {
				s.UserID = claims.UserID
				if s.UserID == "" {
					s.UserID = claims.Subject
				}
			}
			if s.DisplayName == "" {
				s.DisplayName = claims.Name
			}
		}
	}
	if s.UserID == "" {
		return Session{}, ErrNoUser
	}
	return s, nil
}

func claimsFromToken(token string) (*tokenClaims, bool) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// BearerToken satisfies the API client's token source.
func (s Session) BearerToken() string {
	return s.Token
}

// Name returns the display name, falling back to the user id.
func (s Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}

// Handler reacts to a session event.
type Handler func(ctx context.Context, event Event, s Session)

// Bus fans session events out to subscribers in subscription order.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
		for i, candidate := range b.order {
			if candidate == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers event synchronously to every current subscriber.
func (b *Bus) Publish(ctx context.Context, event Event, s Session) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, event, s)
	}
}

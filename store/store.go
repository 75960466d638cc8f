package store

import (
	"context"
	"time"

	"github.com/adsight/adsight/ai/cache"
	"github.com/adsight/adsight/internal/profile"
)

// Store provides database access to persisted conversations.
type Store struct {
	profile *profile.Profile
	driver  Driver

	sessionTTL time.Duration

	// sessionCache keeps hot sessions out of the database; the database
	// stays authoritative.
	sessionCache *cache.LRUCache[string, *ChatSession]
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	ttl := time.Duration(profile.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		driver:       driver,
		profile:      profile,
		sessionTTL:   ttl,
		sessionCache: cache.NewLRUCache[string, *ChatSession](512, 10*time.Minute),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.sessionCache.Clear()
	return s.driver.Close()
}

func (s *Store) CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error) {
	now := time.Now().Unix()
	if create.CreatedTs == 0 {
		create.CreatedTs = now
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = now
	}
	session, err := s.driver.CreateChatSession(ctx, create)
	if err != nil {
		return nil, err
	}
	s.sessionCache.Set(session.UID, session, 0)
	return session, nil
}

// GetChatSessionByUID returns the session, or nil when it does not exist or
// sat idle past the retention window.
func (s *Store) GetChatSessionByUID(ctx context.Context, uid string) (*ChatSession, error) {
	if session, ok := s.sessionCache.Get(uid); ok {
		if s.fresh(session) {
			return session, nil
		}
		s.sessionCache.Remove(uid)
	}

	list, err := s.driver.ListChatSessions(ctx, &FindChatSession{UID: &uid})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 || !s.fresh(list[0]) {
		return nil, nil
	}
	s.sessionCache.Set(uid, list[0], 0)
	return list[0], nil
}

func (s *Store) ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error) {
	return s.driver.ListChatSessions(ctx, find)
}

func (s *Store) UpdateChatSession(ctx context.Context, update *UpdateChatSession) (*ChatSession, error) {
	if update.UpdatedTs == nil {
		now := time.Now().Unix()
		update.UpdatedTs = &now
	}
	session, err := s.driver.UpdateChatSession(ctx, update)
	if err != nil {
		return nil, err
	}
	s.sessionCache.Set(session.UID, session, 0)
	return session, nil
}

func (s *Store) DeleteChatSession(ctx context.Context, delete *DeleteChatSession) error {
	if err := s.driver.DeleteChatSession(ctx, delete); err != nil {
		return err
	}
	// A bulk purge can touch any UID; drop the whole cache.
	s.sessionCache.Clear()
	return nil
}

// PurgeStaleSessions removes sessions idle past the retention window.
func (s *Store) PurgeStaleSessions(ctx context.Context) error {
	cutoff := time.Now().Add(-s.sessionTTL).Unix()
	return s.DeleteChatSession(ctx, &DeleteChatSession{UpdatedBefore: &cutoff})
}

func (s *Store) fresh(session *ChatSession) bool {
	cutoff := time.Now().Add(-s.sessionTTL).Unix()
	return session.UpdatedTs >= cutoff
}

// Package memstore provides in-memory implementations of the service store
// interfaces. The handler and service test suites run against it instead of a
// live postgres; it mirrors the SQL semantics, including the canonical-pair
// and active-passcode uniqueness rules.
package memstore

import (
	"bytes"
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"friendsvc/internal/accounts"
	"friendsvc/internal/friends"
	"friendsvc/internal/models"
	"friendsvc/internal/passreset"
)

// Store implements accounts.Store, friends.Store and passreset.Directory.
type Store struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
	edges map[pairKey]models.Friend
}

type pairKey struct {
	lo, hi uuid.UUID
}

func keyFor(a, b uuid.UUID) pairKey {
	if bytes.Compare(a[:], b[:]) < 0 {
		return pairKey{lo: a, hi: b}
	}
	return pairKey{lo: b, hi: a}
}

func New() *Store {
	return &Store{
		users: make(map[uuid.UUID]models.User),
		edges: make(map[pairKey]models.Friend),
	}
}

// accounts.Store

func (s *Store) Insert(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Email == u.Email {
			return &accounts.DuplicateError{Field: "email"}
		}
		if other.Phone == u.Phone {
			return &accounts.DuplicateError{Field: "phone"}
		}
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (models.User, bool, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *Store) GetByPhone(_ context.Context, phone string) (models.User, bool, error) {
	return s.find(func(u models.User) bool { return u.Phone == phone })
}

func (s *Store) GetByPasscode(_ context.Context, code int) (models.User, bool, error) {
	return s.find(func(u models.User) bool { return u.OTP != nil && *u.OTP == code })
}

func (s *Store) find(match func(models.User) bool) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

func (s *Store) UpdateProfile(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return &accounts.DuplicateError{Field: "email"}
		}
		if other.Phone == u.Phone {
			return &accounts.DuplicateError{Field: "phone"}
		}
	}
	cur, ok := s.users[u.ID]
	if !ok {
		return nil
	}
	u.OTP = cur.OTP
	u.Password = cur.Password
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = time.Now()
	s.users[u.ID] = u
	return nil
}

// passreset.Directory

func (s *Store) SetPasscode(_ context.Context, userID uuid.UUID, code int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if id != userID && u.OTP != nil && *u.OTP == code {
			return passreset.ErrCodeTaken
		}
	}
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	u.OTP = &code
	u.UpdatedAt = time.Now()
	s.users[userID] = u
	return nil
}

func (s *Store) ConsumePasscode(_ context.Context, code int, passwordHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.OTP != nil && *u.OTP == code {
			u.OTP = nil
			u.Password = passwordHash
			u.UpdatedAt = time.Now()
			s.users[id] = u
			return true, nil
		}
	}
	return false, nil
}

// friends.Store

func (s *Store) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *Store) GetEdge(_ context.Context, a, b uuid.UUID) (models.Friend, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.edges[keyFor(a, b)]
	return f, ok, nil
}

func (s *Store) InsertEdge(_ context.Context, requester, recipient uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyFor(requester, recipient)
	if _, exists := s.edges[key]; exists {
		return friends.ErrEdgeExists
	}
	now := time.Now()
	s.edges[key] = models.Friend{
		RequesterID: requester,
		RecipientID: recipient,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, a, b uuid.UUID, from, to models.FriendStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyFor(a, b)
	f, ok := s.edges[key]
	if !ok || f.Status != from {
		return false, nil
	}
	f.Status = to
	f.UpdatedAt = time.Now()
	s.edges[key] = f
	return true, nil
}

func (s *Store) ReopenEdge(_ context.Context, requester, recipient uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyFor(requester, recipient)
	f, ok := s.edges[key]
	if !ok || f.Status != models.StatusDeclined {
		return false, nil
	}
	f.RequesterID = requester
	f.RecipientID = recipient
	f.Status = models.StatusPending
	f.UpdatedAt = time.Now()
	s.edges[key] = f
	return true, nil
}

func (s *Store) DeleteEdge(_ context.Context, a, b uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, keyFor(a, b))
	return nil
}

func (s *Store) ListAccepted(_ context.Context, userID uuid.UUID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, f := range s.edges {
		if f.Status == models.StatusAccepted && f.Involves(userID) {
			if u, ok := s.users[f.Other(userID)]; ok {
				out = append(out, u)
			}
		}
	}
	sortByIDDesc(out)
	return out, nil
}

func (s *Store) Search(_ context.Context, q friends.SearchQuery) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, ok := s.users[q.CallerID]
	if !ok {
		return nil, 0, nil
	}

	var matched []models.User
	for id, u := range s.users {
		if id == q.CallerID {
			continue
		}
		if _, connected := s.edges[keyFor(id, q.CallerID)]; connected {
			continue
		}
		if q.Name != "" {
			n := strings.ToLower(q.Name)
			if !strings.Contains(strings.ToLower(u.Firstname), n) &&
				!strings.Contains(strings.ToLower(u.Lastname), n) {
				continue
			}
		}
		if q.Email != "" && !strings.HasPrefix(strings.ToLower(u.Email), strings.ToLower(q.Email)) {
			continue
		}
		if q.Phone != "" && !strings.HasPrefix(u.Phone, q.Phone) {
			continue
		}
		if q.Distance != nil && distanceKm(caller, u) != *q.Distance {
			continue
		}
		matched = append(matched, u)
	}

	sortByIDDesc(matched)
	total := len(matched)

	start := (q.Page - 1) * q.PerPage
	if start >= total {
		return nil, total, nil
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// distanceKm mirrors the store's haversine SQL: great-circle distance rounded
// to whole km.
func distanceKm(a, b models.User) int {
	const earthRadiusKm = 6371
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(b.Lat - a.Lat)
	dLong := rad(b.Long - a.Long)
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Pow(math.Sin(dLong/2), 2)
	return int(math.Round(2 * earthRadiusKm * math.Asin(math.Sqrt(h))))
}

func sortByIDDesc(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		return bytes.Compare(users[i].ID[:], users[j].ID[:]) > 0
	})
}

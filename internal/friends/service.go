// Package friends implements the relationship graph between accounts: a
// directional edge set (who asked whom is preserved) queried symmetrically,
// with a pending/accepted/declined status machine.
package friends

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"friendsvc/internal/apierr"
	"friendsvc/internal/models"
)

// Service-level errors, pre-mapped to their HTTP kinds.
var (
	ErrSelfReference    = apierr.New(apierr.KindValidation, "cannot send a friend request to yourself")
	ErrUnknownTarget    = apierr.New(apierr.KindNotFound, "user does not exist")
	ErrDuplicateEdge    = apierr.New(apierr.KindConflict, "a friend relationship already exists for this pair")
	ErrNoPendingRequest = apierr.New(apierr.KindNotFound, "no pending friend request between these users")
)

// ErrEdgeExists is returned by Store.InsertEdge when the pair already has an
// edge in any status. The store detects this via its pair uniqueness
// constraint, never by a prior read, so concurrent requests cannot both win.
var ErrEdgeExists = errors.New("edge already exists for pair")

// SearchQuery filters candidate accounts for new friend requests.
// All filters are optional; zero values are ignored.
type SearchQuery struct {
	CallerID uuid.UUID
	Name     string // substring match on firstname or lastname
	Email    string // prefix match
	Phone    string // prefix match
	Distance *int   // great-circle distance from the caller in whole km
	Page     int    // 1-based
	PerPage  int
}

// DefaultPerPage matches the original page size.
const DefaultPerPage = 20

// Store is the persistence surface the graph needs. Pair-keyed methods treat
// (a, b) as unordered.
type Store interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetEdge(ctx context.Context, a, b uuid.UUID) (models.Friend, bool, error)
	InsertEdge(ctx context.Context, requester, recipient uuid.UUID) error
	// UpdateStatus transitions the pair's edge from one status to another and
	// reports whether an edge matched.
	UpdateStatus(ctx context.Context, a, b uuid.UUID, from, to models.FriendStatus) (bool, error)
	// ReopenEdge resets a declined edge to pending with a new requester and
	// reports whether a declined edge matched.
	ReopenEdge(ctx context.Context, requester, recipient uuid.UUID) (bool, error)
	DeleteEdge(ctx context.Context, a, b uuid.UUID) error
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.User, error)
	// Search returns the matching page plus the total match count. It excludes
	// the caller and every account already connected to them in any status.
	Search(ctx context.Context, q SearchQuery) ([]models.User, int, error)
}

// Config carries the graph's policy knobs.
type Config struct {
	// AllowRerequest lets a declined edge be re-requested (flipping it back to
	// pending). Off by default: declined is terminal.
	AllowRerequest bool
}

type Service struct {
	store Store
	cfg   Config
}

func NewService(store Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// Request creates a pending edge from requester to target.
func (s *Service) Request(ctx context.Context, requesterID, targetID uuid.UUID) error {
	if requesterID == targetID {
		return ErrSelfReference
	}

	exists, err := s.store.UserExists(ctx, targetID)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "looking up target user", err)
	}
	if !exists {
		return ErrUnknownTarget
	}

	err = s.store.InsertEdge(ctx, requesterID, targetID)
	if errors.Is(err, ErrEdgeExists) {
		if s.cfg.AllowRerequest {
			reopened, rerr := s.store.ReopenEdge(ctx, requesterID, targetID)
			if rerr != nil {
				return apierr.Wrap(apierr.KindInternal, "reopening declined request", rerr)
			}
			if reopened {
				return nil
			}
		}
		return ErrDuplicateEdge
	}
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "creating friend request", err)
	}
	return nil
}

// Remove deletes the pair's edge in any status. Removing a nonexistent edge
// is a no-op.
func (s *Service) Remove(ctx context.Context, requesterID, targetID uuid.UUID) error {
	if err := s.store.DeleteEdge(ctx, requesterID, targetID); err != nil {
		return apierr.Wrap(apierr.KindInternal, "removing friend", err)
	}
	return nil
}

// Accept transitions the pair's pending edge to accepted.
func (s *Service) Accept(ctx context.Context, accountID, counterpartyID uuid.UUID) error {
	return s.settle(ctx, accountID, counterpartyID, models.StatusAccepted)
}

// Reject transitions the pair's pending edge to declined.
func (s *Service) Reject(ctx context.Context, accountID, counterpartyID uuid.UUID) error {
	return s.settle(ctx, accountID, counterpartyID, models.StatusDeclined)
}

func (s *Service) settle(ctx context.Context, accountID, counterpartyID uuid.UUID, to models.FriendStatus) error {
	if accountID == counterpartyID {
		return ErrSelfReference
	}
	ok, err := s.store.UpdateStatus(ctx, accountID, counterpartyID, models.StatusPending, to)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "updating friend request", err)
	}
	if !ok {
		return ErrNoPendingRequest
	}
	return nil
}

// List returns the accounts connected to userID by an accepted edge,
// regardless of which side initiated. An empty list is not an error.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	users, err := s.store.ListAccepted(ctx, userID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "listing friends", err)
	}
	return users, nil
}

// Search returns candidate accounts for q's filters plus the total match
// count. Anyone with an existing edge to the caller is excluded.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]models.User, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	users, total, err := s.store.Search(ctx, q)
	if err != nil {
		return nil, 0, apierr.Wrap(apierr.KindInternal, "searching users", err)
	}
	return users, total, nil
}

// Status returns the pair's edge, if any.
func (s *Service) Status(ctx context.Context, a, b uuid.UUID) (models.Friend, bool, error) {
	edge, found, err := s.store.GetEdge(ctx, a, b)
	if err != nil {
		return models.Friend{}, false, apierr.Wrap(apierr.KindInternal, "looking up edge", err)
	}
	return edge, found, nil
}

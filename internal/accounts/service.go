// Package accounts is the directory of user records: registration, credential
// checks, profile reads and updates.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"friendsvc/internal/apierr"
	"friendsvc/internal/auth"
	"friendsvc/internal/models"
)

var (
	ErrBadCredentials = apierr.New(apierr.KindAuth, "your login credentials are not correct")
	ErrUnknownUser    = apierr.New(apierr.KindNotFound, "user does not exist")
)

// DuplicateError is returned by Store methods when a unique column would be
// violated. Field names the offending column ("email" or "phone").
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "duplicate value for " + e.Field
}

// Store is the persistence surface for user records.
type Store interface {
	Insert(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (models.User, bool, error)
	GetByPhone(ctx context.Context, phone string) (models.User, bool, error)
	UpdateProfile(ctx context.Context, u models.User) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterParams carries the validated registration input.
type RegisterParams struct {
	Firstname string
	Lastname  string
	Email     string
	Phone     string
	Password  string
	Address   string
	Lat       float64
	Long      float64
}

// Register creates an account with a hashed credential. Email and phone
// uniqueness is enforced by the store's constraints, surfaced as a Conflict
// naming the duplicated field.
func (s *Service) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return models.User{}, apierr.Wrap(apierr.KindInternal, "hashing password", err)
	}

	user := models.User{
		ID:        uuid.New(),
		Firstname: p.Firstname,
		Lastname:  p.Lastname,
		Email:     p.Email,
		Phone:     p.Phone,
		Password:  hash,
		Address:   p.Address,
		Lat:       p.Lat,
		Long:      p.Long,
	}
	if err := s.store.Insert(ctx, &user); err != nil {
		return models.User{}, mapDuplicate(err, "creating user")
	}
	return user, nil
}

// Authenticate verifies login (email when it contains "@", phone otherwise)
// against the stored credential. Unknown identifier and wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	var (
		user  models.User
		found bool
		err   error
	)
	if strings.Contains(login, "@") {
		user, found, err = s.store.GetByEmail(ctx, login)
	} else {
		user, found, err = s.store.GetByPhone(ctx, login)
	}
	if err != nil {
		return models.User{}, apierr.Wrap(apierr.KindInternal, "looking up login", err)
	}
	if !found {
		return models.User{}, ErrBadCredentials
	}

	match, err := auth.VerifyPassword(password, user.Password)
	if err != nil || !match {
		return models.User{}, ErrBadCredentials
	}
	return user, nil
}

// Get returns the account for id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, found, err := s.store.GetByID(ctx, id)
	if err != nil {
		return models.User{}, apierr.Wrap(apierr.KindInternal, "looking up user", err)
	}
	if !found {
		return models.User{}, ErrUnknownUser
	}
	return user, nil
}

// ProfileParams carries the mutable profile fields.
type ProfileParams struct {
	Firstname string
	Lastname  string
	Email     string
	Phone     string
	Address   string
	Lat       float64
	Long      float64
}

// UpdateProfile replaces the account's profile fields and returns the updated
// record.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileParams) (models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	user.Firstname = p.Firstname
	user.Lastname = p.Lastname
	user.Email = p.Email
	user.Phone = p.Phone
	user.Address = p.Address
	user.Lat = p.Lat
	user.Long = p.Long

	if err := s.store.UpdateProfile(ctx, user); err != nil {
		return models.User{}, mapDuplicate(err, "updating user")
	}
	return s.Get(ctx, id)
}

func mapDuplicate(err error, op string) error {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		e := apierr.New(apierr.KindConflict, "the "+dup.Field+" is already in use")
		e.Fields = map[string]string{dup.Field: "already in use"}
		return e
	}
	return apierr.Wrap(apierr.KindInternal, op, err)
}

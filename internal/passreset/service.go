// Package passreset implements the OTP password-reset handshake: request a
// code by email, verify it, consume it to set a new credential.
package passreset

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"friendsvc/internal/apierr"
	"friendsvc/internal/auth"
	"friendsvc/internal/mail"
	"friendsvc/internal/models"
)

var (
	ErrUnknownEmail = apierr.New(apierr.KindNotFound, "no account with that email")
	ErrInvalidCode  = apierr.New(apierr.KindNotFound, "the passcode is not correct")
)

// ErrCodeTaken is returned by Directory.SetPasscode when another account
// already holds the generated code. The active code is a global lookup key,
// so two accounts must never share one; the service re-rolls on collision.
var ErrCodeTaken = errors.New("passcode already held by another account")

// Code range per the reset mail format: a 4-digit number.
const (
	codeMin = 1000
	codeMax = 9999
)

// maxRolls bounds collision re-rolls. With 9000 possible codes this only
// trips when nearly every account has an active reset pending.
const maxRolls = 8

// Directory is the account lookup/mutation surface the handshake needs.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (models.User, bool, error)
	GetByPasscode(ctx context.Context, code int) (models.User, bool, error)
	// SetPasscode stores code as the account's active passcode, returning
	// ErrCodeTaken if any other account holds the same code.
	SetPasscode(ctx context.Context, userID uuid.UUID, code int) error
	// ConsumePasscode atomically sets the new credential and clears the
	// passcode on whichever account holds code, reporting whether one did.
	ConsumePasscode(ctx context.Context, code int, passwordHash string) (bool, error)
}

// Mailer enqueues the outbound OTP email.
type Mailer interface {
	Enqueue(ctx context.Context, msg mail.Message) error
}

type Service struct {
	dir    Directory
	mailer Mailer
	log    *logrus.Logger
}

func NewService(dir Directory, mailer Mailer, log *logrus.Logger) *Service {
	return &Service{dir: dir, mailer: mailer, log: log}
}

// Request generates a fresh code for the account behind email, stores it and
// queues the notification mail. The mail send is fire-and-forget: the
// handshake only depends on the stored code, so a queue failure is logged,
// not surfaced.
func (s *Service) Request(ctx context.Context, email string) error {
	user, found, err := s.dir.GetByEmail(ctx, email)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "looking up email", err)
	}
	if !found {
		return ErrUnknownEmail
	}

	code, err := s.assignCode(ctx, user.ID)
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Your password reset code",
		Code:    code,
	}
	if err := s.mailer.Enqueue(ctx, msg); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to enqueue reset mail")
	}
	return nil
}

// assignCode rolls random codes until one is stored without colliding with
// another account's active code.
func (s *Service) assignCode(ctx context.Context, userID uuid.UUID) (int, error) {
	for i := 0; i < maxRolls; i++ {
		code, err := randomCode()
		if err != nil {
			return 0, apierr.Wrap(apierr.KindInternal, "generating passcode", err)
		}
		err = s.dir.SetPasscode(ctx, userID, code)
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			return 0, apierr.Wrap(apierr.KindInternal, "storing passcode", err)
		}
		return code, nil
	}
	return 0, apierr.Wrap(apierr.KindInternal, "storing passcode",
		fmt.Errorf("no free passcode after %d attempts", maxRolls))
}

// Verify looks up the account holding code. It proves possession of the code
// and nothing more; the handler exchanges it for a short-lived reset token,
// never a session.
func (s *Service) Verify(ctx context.Context, code int) (models.User, error) {
	user, found, err := s.dir.GetByPasscode(ctx, code)
	if err != nil {
		return models.User{}, apierr.Wrap(apierr.KindInternal, "looking up passcode", err)
	}
	if !found {
		return models.User{}, ErrInvalidCode
	}
	return user, nil
}

// Complete consumes code: the holding account gets the new credential and the
// passcode is cleared in the same statement, so a second Complete with the
// same code fails.
func (s *Service) Complete(ctx context.Context, code int, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "hashing password", err)
	}
	ok, err := s.dir.ConsumePasscode(ctx, code, hash)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "resetting password", err)
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

func randomCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return 0, err
	}
	return codeMin + int(n.Int64()), nil
}

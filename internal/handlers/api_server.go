// Package handlers wires the HTTP surface: routing, request decoding and
// validation, and the response envelope.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"friendsvc/internal/accounts"
	"friendsvc/internal/auth"
	"friendsvc/internal/friends"
	"friendsvc/internal/middleware"
	"friendsvc/internal/passreset"
)

// TokenRevoker is the revocation surface logout and refresh write to and the
// auth middleware reads from.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID uuid.UUID, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

// Server holds the services behind the HTTP surface.
type Server struct {
	accounts *accounts.Service
	friends  *friends.Service
	reset    *passreset.Service
	keys     *auth.Keys
	revoker  TokenRevoker
	log      *logrus.Logger
	validate *validator.Validate
}

func NewServer(
	accountsSvc *accounts.Service,
	friendsSvc *friends.Service,
	resetSvc *passreset.Service,
	keys *auth.Keys,
	revoker TokenRevoker,
	log *logrus.Logger,
) *Server {
	return &Server{
		accounts: accountsSvc,
		friends:  friendsSvc,
		reset:    resetSvc,
		keys:     keys,
		revoker:  revoker,
		log:      log,
		validate: newValidator(),
	}
}

// Router assembles the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.LogMiddleware(s.log))

	// Public routes.
	r.HandleFunc("/login", s.Login).Methods(http.MethodPost)
	r.HandleFunc("/register", s.Register).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", s.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/verify-otp", s.VerifyOTP).Methods(http.MethodPost)
	r.HandleFunc("/submit-reset-password", s.SubmitResetPassword).Methods(http.MethodPost)

	// Bearer-token routes.
	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.NewAuthenticator(s.keys, s.revoker, errorStatus).Middleware)
	authed.HandleFunc("/logout", s.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/refresh", s.Refresh).Methods(http.MethodPost)
	authed.HandleFunc("/profile-update/{id}", s.UpdateProfile).Methods(http.MethodPost)
	authed.HandleFunc("/view-profile/{id}", s.ViewProfile).Methods(http.MethodGet)
	authed.HandleFunc("/my-friend-list", s.MyFriendList).Methods(http.MethodGet)
	authed.HandleFunc("/add-friend/{id}", s.AddFriend).Methods(http.MethodPost)
	authed.HandleFunc("/remove-friend/{id}", s.RemoveFriend).Methods(http.MethodPost)
	authed.HandleFunc("/search-users", s.SearchUsers).Methods(http.MethodGet)
	authed.HandleFunc("/accept-request/{id}", s.AcceptRequest).Methods(http.MethodPost)
	authed.HandleFunc("/reject-request/{id}", s.RejectRequest).Methods(http.MethodPost)

	return r
}

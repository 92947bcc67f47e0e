package handlers

import (
	"net/http"

	"friendsvc/internal/accounts"
	"friendsvc/internal/apierr"
	"friendsvc/internal/middleware"
)

type loginRequest struct {
	// Login is the email or phone the user signs in with.
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Firstname            string  `json:"firstname" validate:"required,max=255"`
	Lastname             string  `json:"lastname" validate:"required,max=255"`
	Email                string  `json:"email" validate:"required,email,max=255"`
	Phone                string  `json:"phone" validate:"required,min=8,max=13"`
	Password             string  `json:"password" validate:"required,min=6"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"required,eqfield=Password"`
	Address              string  `json:"address"`
	Lat                  float64 `json:"lat"`
	Long                 float64 `json:"long"`
}

// authPayload is the token object returned by login, register and refresh.
func authPayload(token string) envelope {
	return envelope{"token": token, "type": "bearer"}
}

// Login verifies credentials and issues a session token.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.keys.IssueSession(user.ID)
	if err != nil {
		s.writeError(w, r, apierr.Wrap(apierr.KindInternal, "issuing token", err))
		return
	}

	writeSuccess(w, http.StatusOK, "logged in successfully", envelope{
		"user":          user,
		"authorisation": authPayload(token),
	})
}

// Register creates an account and logs it in.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Register(r.Context(), accounts.RegisterParams{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Address:   req.Address,
		Lat:       req.Lat,
		Long:      req.Long,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.keys.IssueSession(user.ID)
	if err != nil {
		s.writeError(w, r, apierr.Wrap(apierr.KindInternal, "issuing token", err))
		return
	}

	writeSuccess(w, http.StatusCreated, "user created successfully", envelope{
		"user":          user,
		"authorisation": authPayload(token),
	})
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.TokenClaims(r.Context())
	if !ok {
		s.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	if err := s.revoker.Revoke(r.Context(), claims.TokenID, claims.Remaining()); err != nil {
		s.writeError(w, r, apierr.Wrap(apierr.KindInternal, "revoking token", err))
		return
	}
	writeSuccess(w, http.StatusOK, "successfully logged out", nil)
}

// Refresh revokes the presented token and issues a fresh one.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.TokenClaims(r.Context())
	if !ok {
		s.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	user, err := s.accounts.Get(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.keys.IssueSession(user.ID)
	if err != nil {
		s.writeError(w, r, apierr.Wrap(apierr.KindInternal, "issuing token", err))
		return
	}
	if err := s.revoker.Revoke(r.Context(), claims.TokenID, claims.Remaining()); err != nil {
		s.writeError(w, r, apierr.Wrap(apierr.KindInternal, "revoking token", err))
		return
	}

	writeSuccess(w, http.StatusOK, "token refreshed", envelope{
		"user":          user,
		"authorisation": authPayload(token),
	})
}

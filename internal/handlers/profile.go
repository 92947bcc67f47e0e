package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"friendsvc/internal/accounts"
	"friendsvc/internal/apierr"
	"friendsvc/internal/middleware"
)

type profileUpdateRequest struct {
	Firstname string  `json:"firstname" validate:"required,max=255"`
	Lastname  string  `json:"lastname" validate:"required,max=255"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	Phone     string  `json:"phone" validate:"required,min=8,max=13"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Long      float64 `json:"long"`
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, apierr.New(apierr.KindValidation, "invalid user id")
	}
	return id, nil
}

// UpdateProfile replaces the caller's own profile fields.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		s.writeError(w, r, apierr.ErrUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if id != callerID {
		s.writeError(w, r, apierr.New(apierr.KindForbidden, "cannot update another user's profile"))
		return
	}

	var req profileUpdateRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.UpdateProfile(r.Context(), id, accounts.ProfileParams{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Lat:       req.Lat,
		Long:      req.Long,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "user updated successfully", envelope{"user": user})
}

// ViewProfile returns another user's profile.
func (s *Server) ViewProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "profile data", envelope{"user": user})
}

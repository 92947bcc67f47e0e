package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"friendsvc/internal/apierr"
	"friendsvc/internal/friends"
	"friendsvc/internal/middleware"
	"friendsvc/internal/models"
)

// callerAndTarget resolves the authenticated caller and the {id} route var.
func (s *Server) callerAndTarget(w http.ResponseWriter, r *http.Request) (caller, target uuid.UUID, ok bool) {
	caller, authed := middleware.CallerID(r.Context())
	if !authed {
		s.writeError(w, r, apierr.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	target, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return caller, target, true
}

// AddFriend creates a pending edge from the caller to {id}.
func (s *Server) AddFriend(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := s.callerAndTarget(w, r)
	if !ok {
		return
	}

	if err := s.friends.Request(r.Context(), caller, target); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Get(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "friend request sent", envelope{"user": user})
}

// RemoveFriend deletes the pair's edge whatever its status. Removing a
// non-friend succeeds.
func (s *Server) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := s.callerAndTarget(w, r)
	if !ok {
		return
	}

	if err := s.friends.Remove(r.Context(), caller, target); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "friend removed successfully", nil)
}

// AcceptRequest settles the pending request between the caller and {id}.
func (s *Server) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	s.settleRequest(w, r, models.StatusAccepted, "request accepted")
}

// RejectRequest declines the pending request between the caller and {id}.
func (s *Server) RejectRequest(w http.ResponseWriter, r *http.Request) {
	s.settleRequest(w, r, models.StatusDeclined, "request rejected")
}

func (s *Server) settleRequest(w http.ResponseWriter, r *http.Request, to models.FriendStatus, message string) {
	caller, target, ok := s.callerAndTarget(w, r)
	if !ok {
		return
	}

	var err error
	if to == models.StatusAccepted {
		err = s.friends.Accept(r.Context(), caller, target)
	} else {
		err = s.friends.Reject(r.Context(), caller, target)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Get(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, message, envelope{"user": user})
}

// MyFriendList returns everyone connected to the caller by an accepted edge.
func (s *Server) MyFriendList(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerID(r.Context())
	if !ok {
		s.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	list, err := s.friends.List(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}

	message := "friend list fetched successfully"
	if len(list) == 0 {
		message = "no friends are added"
	}
	writeSuccess(w, http.StatusOK, message, envelope{"users": list})
}

// SearchUsers returns paginated friend candidates. Query params: name, email,
// phone, distance (km), page.
func (s *Server) SearchUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerID(r.Context())
	if !ok {
		s.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	params := r.URL.Query()
	q := friends.SearchQuery{
		CallerID: caller,
		Name:     params.Get("name"),
		Email:    params.Get("email"),
		Phone:    params.Get("phone"),
		Page:     1,
		PerPage:  friends.DefaultPerPage,
	}
	if raw := params.Get("distance"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			s.writeError(w, r, apierr.New(apierr.KindValidation, "distance must be a non-negative integer"))
			return
		}
		q.Distance = &d
	}
	if raw := params.Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			s.writeError(w, r, apierr.New(apierr.KindValidation, "page must be a positive integer"))
			return
		}
		q.Page = p
	}

	users, total, err := s.friends.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	message := "searched users fetched successfully"
	if total == 0 {
		message = "no users matched your search"
	}
	writeSuccess(w, http.StatusOK, message, envelope{
		"users":    users,
		"total":    total,
		"page":     q.Page,
		"per_page": q.PerPage,
	})
}

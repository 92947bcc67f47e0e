package handlers

import (
	"net/http"

	"friendsvc/internal/apierr"
)

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	OTP int `json:"otp" validate:"required,gte=1000,lte=9999"`
}

type submitResetPasswordRequest struct {
	OTP                  int    `json:"otp" validate:"required,gte=1000,lte=9999"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// ForgotPassword stores a fresh OTP on the account and queues the email.
func (s *Server) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.reset.Request(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "OTP sent successfully", nil)
}

// VerifyOTP confirms the code and returns a short-lived reset token. It does
// not log the user in.
func (s *Server) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.reset.Verify(r.Context(), req.OTP)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resetToken, err := s.keys.IssueReset(user.ID)
	if err != nil {
		s.writeError(w, r, apierr.Wrap(apierr.KindInternal, "issuing reset token", err))
		return
	}

	writeSuccess(w, http.StatusOK, "OTP is verified", envelope{
		"reset_token": resetToken,
	})
}

// SubmitResetPassword consumes the OTP and sets the new credential.
func (s *Server) SubmitResetPassword(w http.ResponseWriter, r *http.Request) {
	var req submitResetPasswordRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.reset.Complete(r.Context(), req.OTP, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "password reset successfully", nil)
}

package api

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.Accounts.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	message := "Account created. Check your e-mail to verify it."
	if !res.EmailSent {
		message = "Account created, but the verification e-mail could not be sent."
	}
	writeJSON(w, http.StatusCreated, struct {
		Success   bool     `json:"success"`
		Message   string   `json:"message"`
		EmailSent bool     `json:"emailSent"`
		User      userJSON `json:"user"`
	}{
		Success:   true,
		Message:   message,
		EmailSent: res.EmailSent,
		User:      userJSON{ID: res.User.ID, Name: res.User.Name, Email: res.User.Email},
	})
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "E-mail verified. You can log in now.")
}

func (h *Handler) webLogin(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}

		token, user, err := h.Accounts.WebLogin(r.Context(), req.Email, req.Password)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		validity := h.Accounts.TokenValidity()
		http.SetCookie(w, &http.Cookie{
			Name:     common.AuthCookieName,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(validity),
			MaxAge:   int(validity.Seconds()),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, struct {
			Success bool     `json:"success"`
			Token   string   `json:"token"`
			User    userJSON `json:"user"`
		}{
			Success: true,
			Token:   token,
			User:    userJSON{ID: user.ID, Name: user.Name, Email: user.Email},
		})
	}
}

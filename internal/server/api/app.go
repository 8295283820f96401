package api

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/server/services"
)

type appLoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

type appLoginTokenRequest struct {
	AppToken string `json:"appToken"`
	DeviceID string `json:"deviceId"`
}

type appGameJSON struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	ImagePath      string    `json:"imagePath"`
	BannerPath     string    `json:"bannerPath"`
	Description    string    `json:"description"`
	Developer      string    `json:"developer"`
	ExpirationDate time.Time `json:"expirationDate"`
}

type appConfigJSON struct {
	UserName string        `json:"userName"`
	Games    []appGameJSON `json:"games"`
}

type appLoginResponse struct {
	Success  bool          `json:"success"`
	AppToken string        `json:"appToken"`
	Config   appConfigJSON `json:"config"`
}

func toAppLoginResponse(res *services.AppLoginResult) appLoginResponse {
	games := make([]appGameJSON, 0, len(res.Games))
	for _, g := range res.Games {
		games = append(games, appGameJSON{
			ID:             g.GameID,
			Title:          g.Title,
			ImagePath:      g.ImagePath,
			BannerPath:     g.BannerPath,
			Description:    g.Description,
			Developer:      g.Developer,
			ExpirationDate: g.ExpirationDate,
		})
	}
	return appLoginResponse{
		Success:  true,
		AppToken: res.Token,
		Config:   appConfigJSON{UserName: res.User.Name, Games: games},
	}
}

func (h *Handler) appLogin(w http.ResponseWriter, r *http.Request) {
	var req appLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.AppSessions.Login(r.Context(), services.AppLoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		IPAddress:  clientIP(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppLoginResponse(res))
}

func (h *Handler) appLoginToken(w http.ResponseWriter, r *http.Request) {
	var req appLoginTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.AppSessions.LoginWithToken(r.Context(), req.AppToken, req.DeviceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppLoginResponse(res))
}

func (h *Handler) appLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.AppSessions.Logout(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.fail(w, r, common.ErrorUnauthorized)
		return
	}

	url, err := h.Downloads.InstallerURL(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}{Success: true, URL: url})
}

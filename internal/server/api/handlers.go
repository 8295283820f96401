package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/server/entitlements"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type gameJSON struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	SteamID            string          `json:"steamId"`
	Tags               []string        `json:"tags"`
	ImageMain          string          `json:"imageMain"`
	ImageBanner        string          `json:"imageBanner"`
	About              string          `json:"about"`
	Developer          string          `json:"developer"`
	SystemRequirements string          `json:"systemRequirements"`
}

func toGameJSON(g models.Game) gameJSON {
	tags := g.Tags
	if tags == nil {
		tags = []string{}
	}
	return gameJSON{
		ID:                 g.ID,
		Name:               g.Name,
		Price:              g.Price,
		SteamID:            g.SteamID,
		Tags:               tags,
		ImageMain:          g.ImageMain,
		ImageBanner:        g.ImageBanner,
		About:              g.About,
		Developer:          g.Developer,
		SystemRequirements: g.SystemRequirements,
	}
}

type gamesResponse struct {
	Success bool       `json:"success"`
	Games   []gameJSON `json:"games"`
}

func (h *Handler) writeGames(w http.ResponseWriter, r *http.Request, games []models.Game, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]gameJSON, 0, len(games))
	for _, g := range games {
		out = append(out, toGameJSON(g))
	}
	writeJSON(w, http.StatusOK, gamesResponse{Success: true, Games: out})
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.Catalog.ListGames(r.Context())
	h.writeGames(w, r, games, err)
}

func (h *Handler) topGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.Catalog.TopGames(r.Context())
	h.writeGames(w, r, games, err)
}

func (h *Handler) gamesByTags(w http.ResponseWriter, r *http.Request) {
	games, err := h.Catalog.GamesByTags(r.Context(), strings.Split(r.URL.Query().Get("tags"), ","))
	h.writeGames(w, r, games, err)
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.Catalog.GetGameByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool     `json:"success"`
		Game    gameJSON `json:"game"`
	}{Success: true, Game: toGameJSON(*g)})
}

type libraryGameJSON struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Image            string    `json:"image"`
	ExpirationDate   time.Time `json:"expirationDate"`
	Permanent        bool      `json:"permanent"`
	AccumulatedHours float64   `json:"accumulatedHours"`
}

func (h *Handler) library(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	games, err := h.Library.ReconcileAndClean(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]libraryGameJSON, 0, len(games))
	for _, g := range games {
		out = append(out, libraryGameJSON{
			ID:               g.GameID,
			Title:            g.Title,
			Image:            g.ImagePath,
			ExpirationDate:   g.ExpirationDate,
			Permanent:        entitlements.IsPermanent(g.ExpirationDate),
			AccumulatedHours: g.AccumulatedHours,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool              `json:"success"`
		Games   []libraryGameJSON `json:"games"`
	}{Success: true, Games: out})
}

func (h *Handler) addPlaytime(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var body struct {
		Hours float64 `json:"hours"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.fail(w, r, err)
		return
	}

	total, err := h.Library.AddPlaytime(r.Context(), userID, chi.URLParam(r, "gameId"), body.Hours)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success          bool    `json:"success"`
		AccumulatedHours float64 `json:"accumulatedHours"`
	}{Success: true, AccumulatedHours: total})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req services.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.Payments.Record(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Success   bool   `json:"success"`
		PaymentID string `json:"paymentId"`
	}{Success: true, PaymentID: p.ID})
}

func (h *Handler) createTicket(w http.ResponseWriter, r *http.Request) {
	var req services.TicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.Support.CreateTicket(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Success  bool   `json:"success"`
		TicketID string `json:"ticketId"`
	}{Success: true, TicketID: t.ID})
}

// userID authenticates the website user from the auth cookie or a bearer
// token.
func (h *Handler) userID(r *http.Request) (string, error) {
	token := bearerToken(r)
	if c, err := r.Cookie(common.AuthCookieName); err == nil && c.Value != "" {
		token = c.Value
	}
	claims, err := h.Accounts.Authenticate(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := writeError(w, err); status >= http.StatusInternalServerError {
		h.Logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
}

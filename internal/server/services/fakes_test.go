package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/dbx"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/devicesessions"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/games"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/libraries"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/payments"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/steamhub/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeStore is an in-memory stand-in for the database shared by all fake
// repositories of one test.
type fakeStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*models.User
	games    map[string]*models.Game
	payments []models.Payment
	library  map[string]map[string]*models.LibraryEntry
	sessions map[string]*models.DeviceSession
	tickets  []*models.SupportTicket

	swapErr     error
	paymentsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*models.User),
		games:    make(map[string]*models.Game),
		library:  make(map[string]map[string]*models.LibraryEntry),
		sessions: make(map[string]*models.DeviceSession),
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.nextID("u")
	}
	s.users[u.ID] = &u
	return &u
}

func (s *fakeStore) addGame(g models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = &g
}

func (s *fakeStore) addPayment(userID, gameID string, hours int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, models.Payment{
		ID:        s.nextID("p"),
		UserID:    userID,
		Status:    models.PaymentCompleted,
		Items:     []models.PaymentItem{{GameID: gameID, Hours: hours}},
		CreatedAt: at,
	})
}

func (s *fakeStore) user(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *fakeStore) session(id string) models.DeviceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sessions[id]
}

func (s *fakeStore) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *fakeStore) entry(userID, gameID string) (models.LibraryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.library[userID][gameID]
	if !ok {
		return models.LibraryEntry{}, false
	}
	return *e, true
}

func (s *fakeStore) putEntry(e models.LibraryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.library[e.UserID] == nil {
		s.library[e.UserID] = make(map[string]*models.LibraryEntry)
	}
	s.library[e.UserID][e.GameID] = &e
}

type fakeRepoManager struct {
	st *fakeStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return &fakeUsers{m.st} }
func (m *fakeRepoManager) Games(dbx.DBTX) games.Repository             { return &fakeGames{m.st} }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository       { return &fakePayments{m.st} }
func (m *fakeRepoManager) Libraries(dbx.DBTX) libraries.Repository     { return &fakeLibraries{m.st} }
func (m *fakeRepoManager) DeviceSessions(dbx.DBTX) devicesessions.Repository {
	return &fakeSessions{m.st}
}
func (m *fakeRepoManager) Tickets(dbx.DBTX) tickets.Repository { return &fakeTickets{m.st} }

// --- users ---

type fakeUsers struct{ st *fakeStore }

func (r *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.st.nextID("u")
	r.st.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *fakeUsers) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *fakeUsers) GetByVerificationToken(_ context.Context, token string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.VerificationToken != nil && *u.VerificationToken == token })
}

func (r *fakeUsers) GetByToken(_ context.Context, token string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Token != nil && *u.Token == token })
}

func (r *fakeUsers) MarkVerified(_ context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsVerified = true
	u.VerificationToken = nil
	return nil
}

func (r *fakeUsers) SetToken(_ context.Context, id string, token string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Token = &token
	return nil
}

func (r *fakeUsers) SwapActiveSession(_ context.Context, id string, expected, next *string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.swapErr != nil {
		return r.st.swapErr
	}
	u, ok := r.st.users[id]
	if !ok || !samePtr(u.ActiveSessionID, expected) {
		return common.ErrVersionConflict
	}
	if next == nil {
		u.ActiveSessionID = nil
	} else {
		v := *next
		u.ActiveSessionID = &v
	}
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// --- games ---

type fakeGames struct{ st *fakeStore }

func (r *fakeGames) GetByID(_ context.Context, id string) (*models.Game, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	g, ok := r.st.games[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *g
	return &c, nil
}

func (r *fakeGames) list(match func(*models.Game) bool) []models.Game {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.Game
	for _, g := range r.st.games {
		if g.IsEnabled && match(g) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *fakeGames) ListEnabled(context.Context) ([]models.Game, error) {
	return r.list(func(*models.Game) bool { return true }), nil
}

func (r *fakeGames) ListBySteamIDs(_ context.Context, steamIDs []string) ([]models.Game, error) {
	var out []models.Game
	for _, id := range steamIDs {
		found := r.list(func(g *models.Game) bool { return g.SteamID == id })
		out = append(out, found...)
	}
	return out, nil
}

func (r *fakeGames) ListByTags(_ context.Context, tags []string) ([]models.Game, error) {
	return r.list(func(g *models.Game) bool {
		for _, t := range g.Tags {
			for _, want := range tags {
				if t == want {
					return true
				}
			}
		}
		return false
	}), nil
}

func (r *fakeGames) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := r.st.games[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// --- payments ---

type fakePayments struct{ st *fakeStore }

func (r *fakePayments) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.payments {
		if existing.TransactionID != "" && existing.TransactionID == p.TransactionID {
			return nil, common.ErrDuplicateTransaction
		}
	}
	c := *p
	c.ID = r.st.nextID("p")
	c.CreatedAt = time.Date(2025, 1, 1, 0, 0, r.st.seq, 0, time.UTC)
	r.st.payments = append(r.st.payments, c)
	out := c
	return &out, nil
}

func (r *fakePayments) ListCompletedByUser(_ context.Context, userID string) ([]models.Payment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.paymentsErr != nil {
		return nil, r.st.paymentsErr
	}
	var out []models.Payment
	for _, p := range r.st.payments {
		if p.UserID != userID || p.Status != models.PaymentCompleted {
			continue
		}
		c := p
		c.Items = nil
		for _, item := range p.Items {
			if _, ok := r.st.games[item.GameID]; ok {
				c.Items = append(c.Items, item)
			}
		}
		if len(c.Items) > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- libraries ---

type fakeLibraries struct{ st *fakeStore }

func (r *fakeLibraries) ListByUser(_ context.Context, userID string) ([]models.LibraryEntry, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.LibraryEntry
	for _, e := range r.st.library[userID] {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func (r *fakeLibraries) Upsert(_ context.Context, e *models.LibraryEntry) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.library[e.UserID] == nil {
		r.st.library[e.UserID] = make(map[string]*models.LibraryEntry)
	}
	c := *e
	if existing, ok := r.st.library[e.UserID][e.GameID]; ok {
		c.AccumulatedHours = existing.AccumulatedHours
	}
	r.st.library[e.UserID][e.GameID] = &c
	return nil
}

func (r *fakeLibraries) DeleteExcept(_ context.Context, userID string, keep []string) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	var n int64
	for gameID := range r.st.library[userID] {
		if !keepSet[gameID] {
			delete(r.st.library[userID], gameID)
			n++
		}
	}
	return n, nil
}

func (r *fakeLibraries) DeleteExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for gameID, e := range r.st.library[userID] {
		if !e.ExpirationDate.After(now) || !e.IsActive {
			delete(r.st.library[userID], gameID)
			n++
		}
	}
	return n, nil
}

func (r *fakeLibraries) ListActiveGames(_ context.Context, userID string, now time.Time) ([]models.LibraryGame, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []models.LibraryGame
	for _, e := range r.st.library[userID] {
		g, ok := r.st.games[e.GameID]
		if !ok || !e.ExpirationDate.After(now) {
			continue
		}
		out = append(out, models.LibraryGame{
			LibraryEntry: *e,
			Title:        g.Name,
			ImagePath:    g.ImageMain,
			BannerPath:   g.ImageBanner,
			Description:  g.About,
			Developer:    g.Developer,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeLibraries) AddPlaytime(_ context.Context, userID, gameID string, hours float64) (float64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	e, ok := r.st.library[userID][gameID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	e.AccumulatedHours += hours
	return e.AccumulatedHours, nil
}

// --- device sessions ---

type fakeSessions struct{ st *fakeStore }

func (r *fakeSessions) Create(_ context.Context, s *models.DeviceSession) (*models.DeviceSession, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.sessions {
		if existing.SessionToken == s.SessionToken {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *s
	c.ID = r.st.nextID("s")
	r.st.sessions[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeSessions) GetByID(_ context.Context, id string) (*models.DeviceSession, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeSessions) GetByToken(_ context.Context, token string) (*models.DeviceSession, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, s := range r.st.sessions {
		if s.SessionToken == token {
			c := *s
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeSessions) Close(_ context.Context, id string, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if s, ok := r.st.sessions[id]; ok && s.LogoutTime == nil {
		t := at
		s.LogoutTime = &t
	}
	return nil
}

// --- tickets ---

type fakeTickets struct{ st *fakeStore }

func (r *fakeTickets) Create(_ context.Context, t *models.SupportTicket) (*models.SupportTicket, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c := *t
	c.ID = r.st.nextID("t")
	r.st.tickets = append(r.st.tickets, &c)
	out := c
	return &out, nil
}

// --- helpers ---

// plainHasher stores passwords as "hash:<password>".
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (plainHasher) Compare(hash, password string) (bool, error) {
	if !strings.HasPrefix(hash, "hash:") {
		return false, errors.New("malformed hash")
	}
	return hash == "hash:"+password, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testUser(id, email string) models.User {
	return models.User{
		ID:           id,
		Name:         "Alice",
		Email:        email,
		PasswordHash: "hash:secret",
		IsVerified:   true,
	}
}

func testGame(id, name string) models.Game {
	return models.Game{ID: id, Name: name, SteamID: "steam-" + id, IsEnabled: true, Developer: "Studio"}
}

func entry(userID, gameID string, expiration time.Time) models.LibraryEntry {
	return models.LibraryEntry{UserID: userID, GameID: gameID, ExpirationDate: expiration, IsActive: true}
}

package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/steamhub/internal/common"
	"github.com/dmitrijs2005/steamhub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogStore() *fakeStore {
	st := newFakeStore()
	for i, steamID := range []string{"2322010", "271590", "2651280", "2050650", "999"} {
		g := testGame(steamID, "Game "+string(rune('A'+i)))
		g.SteamID = steamID
		g.Tags = []string{"action"}
		st.addGame(g)
	}
	disabled := testGame("off", "Hidden")
	disabled.IsEnabled = false
	disabled.Tags = []string{"rpg"}
	st.addGame(disabled)
	puzzle := testGame("p1", "Puzzle")
	puzzle.Tags = []string{"puzzle", "indie"}
	st.addGame(puzzle)
	return st
}

func TestCatalog_TopGamesKeepsCuratedOrder(t *testing.T) {
	svc := NewCatalogService(nil, &fakeRepoManager{st: catalogStore()})

	games, err := svc.TopGames(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, g := range games {
		ids = append(ids, g.SteamID)
	}
	assert.Equal(t, TopSteamIDs, ids)
}

func TestCatalog_ListAndGet(t *testing.T) {
	svc := NewCatalogService(nil, &fakeRepoManager{st: catalogStore()})
	ctx := context.Background()

	games, err := svc.ListGames(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 6)

	g, err := svc.GetGameByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Puzzle", g.Name)

	_, err = svc.GetGameByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.GetGameByID(ctx, "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCatalog_GamesByTags(t *testing.T) {
	svc := NewCatalogService(nil, &fakeRepoManager{st: catalogStore()})
	ctx := context.Background()

	games, err := svc.GamesByTags(ctx, []string{" indie ", ""})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "p1", games[0].ID)

	games, err = svc.GamesByTags(ctx, []string{"rpg"})
	require.NoError(t, err)
	assert.Equal(t, []models.Game(nil), games)

	_, err = svc.GamesByTags(ctx, []string{" "})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

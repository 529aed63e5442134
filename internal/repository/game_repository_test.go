package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kurotanX07/game-tracker-app/internal/model"
)

// newTestDB opens a uniquely named shared in-memory database so tests stay
// isolated from each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := NewDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func sampleGame(t *testing.T) *model.Game {
	t.Helper()
	game := model.NewGame("Example Quest", model.MustTimeOfDay("06:00"), model.MustTimeOfDay("18:00"))
	game.DailyTasks = append(game.DailyTasks, model.NewDailyTask("dailies"))
	raid := model.NewDailyTask("raid")
	raid.Reset = model.CustomReset(model.MustTimeOfDay("12:00"))
	game.DailyTasks = append(game.DailyTasks, raid)
	game.CustomTasks = append(game.CustomTasks, model.NewCustomTask("weekly coins", model.CustomCounter, 3))
	return game
}

func TestGameRoundTrip(t *testing.T) {
	repo := NewGameRepository(newTestDB(t))
	ctx := context.Background()

	game := sampleGame(t)
	completedAt := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	game.DailyTasks[0].Completed = true
	game.DailyTasks[0].LastCompletedAt = &completedAt

	require.NoError(t, repo.Add(ctx, game))

	games, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)

	loaded := games[0]
	assert.Equal(t, game.ID, loaded.ID)
	assert.Equal(t, []model.TimeOfDay{model.MustTimeOfDay("06:00"), model.MustTimeOfDay("18:00")}, loaded.ResetTimes)
	require.Len(t, loaded.DailyTasks, 2)
	require.Len(t, loaded.CustomTasks, 1)

	first := loaded.Task(game.DailyTasks[0].ID)
	require.NotNil(t, first)
	assert.True(t, first.Completed)
	require.NotNil(t, first.LastCompletedAt)
	assert.WithinDuration(t, completedAt, *first.LastCompletedAt, time.Second)

	second := loaded.Task(game.DailyTasks[1].ID)
	require.NotNil(t, second)
	assert.Equal(t, model.ResetCustom, second.Reset.Kind)
	assert.Equal(t, []model.TimeOfDay{model.MustTimeOfDay("12:00")}, second.Reset.Times)
}

func TestAddRejectsInvalidGame(t *testing.T) {
	repo := NewGameRepository(newTestDB(t))
	game := model.NewGame("No Schedule")
	assert.ErrorIs(t, repo.Add(context.Background(), game), model.ErrNoGameResetTimes)
}

func TestSaveAllPersistsBatchChanges(t *testing.T) {
	repo := NewGameRepository(newTestDB(t))
	ctx := context.Background()

	game := sampleGame(t)
	game.DailyTasks[0].Completed = true
	require.NoError(t, repo.Add(ctx, game))

	games, err := repo.Load(ctx)
	require.NoError(t, err)
	now := time.Now()
	for gi := range games {
		for ti := range games[gi].DailyTasks {
			games[gi].DailyTasks[ti].Completed = false
			games[gi].DailyTasks[ti].LastCompletedAt = nil
			games[gi].DailyTasks[ti].Reset.LastResetAt = &now
		}
	}
	require.NoError(t, repo.SaveAll(ctx, games))

	reloaded, err := repo.Load(ctx)
	require.NoError(t, err)
	for _, g := range reloaded {
		for _, task := range g.DailyTasks {
			assert.False(t, task.Completed)
			assert.Nil(t, task.LastCompletedAt)
			require.NotNil(t, task.Reset.LastResetAt)
		}
	}
}

func TestDeleteGameRemovesTasks(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	game := sampleGame(t)
	require.NoError(t, repo.Add(ctx, game))
	require.NoError(t, repo.Delete(ctx, game.ID))

	games, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)

	var count int64
	require.NoError(t, db.Model(&model.DailyTask{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReplaceAllSwapsEverything(t *testing.T) {
	repo := NewGameRepository(newTestDB(t))
	ctx := context.Background()

	old := sampleGame(t)
	require.NoError(t, repo.Add(ctx, old))

	fresh := model.NewGame("New World", model.MustTimeOfDay("09:00"))
	fresh.DailyTasks = append(fresh.DailyTasks, model.NewDailyTask("login bonus"))
	require.NoError(t, repo.ReplaceAll(ctx, []model.Game{*fresh}))

	games, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "New World", games[0].Name)
	require.Len(t, games[0].DailyTasks, 1)
	assert.Equal(t, fresh.ID, games[0].ID)
}

func TestFindGameNotFound(t *testing.T) {
	repo := NewGameRepository(newTestDB(t))
	_, err := repo.FindGame(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

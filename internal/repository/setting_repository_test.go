package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurotanX07/game-tracker-app/internal/model"
)

func TestGetPreferenceReturnsDefaultForUnknownTask(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))

	pref, err := repo.GetPreference(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationPreference(), pref)
}

func TestSetPreferenceRoundTrip(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))
	ctx := context.Background()

	want := model.NotificationPreference{Enabled: true, BeforeMinutes: 15, NotifyOnReset: false}
	require.NoError(t, repo.SetPreference(ctx, "t1", want))

	got, err := repo.GetPreference(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Other tasks are unaffected.
	other, err := repo.GetPreference(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationPreference(), other)
}

func TestSetPreferenceRejectsNegativeLeadTime(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))
	err := repo.SetPreference(context.Background(), "t1", model.NotificationPreference{BeforeMinutes: -1})
	assert.ErrorIs(t, err, model.ErrNegativeLeadTime)
}

func TestCorruptSettingsResetToEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Save(&Setting{Key: notificationSettingsKey, Value: "{not json"}).Error)

	pref, err := repo.GetPreference(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationPreference(), pref)

	// Writing over the corrupt blob works and persists.
	want := model.NotificationPreference{Enabled: true, BeforeMinutes: 5, NotifyOnReset: true}
	require.NoError(t, repo.SetPreference(ctx, "t1", want))
	got, err := repo.GetPreference(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDeletePreference(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetPreference(ctx, "t1", model.NotificationPreference{Enabled: true, BeforeMinutes: 5, NotifyOnReset: true}))
	require.NoError(t, repo.DeletePreference(ctx, "t1"))

	pref, err := repo.GetPreference(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationPreference(), pref)

	// Deleting a missing key is a no-op.
	require.NoError(t, repo.DeletePreference(ctx, "t1"))
}

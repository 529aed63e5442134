package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/kurotanX07/game-tracker-app/internal/model"
)

const notificationSettingsKey = "task_notification_settings"

// Setting is a durable key-value row. Notification preferences live in a
// single row as a JSON map keyed by task id.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// SettingRepository reads and writes per-task notification preferences.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetPreference returns the stored preference for a task, or the default for
// an unknown task id. A missing row is not an error.
func (r *SettingRepository) GetPreference(ctx context.Context, taskID string) (model.NotificationPreference, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return model.DefaultNotificationPreference(), err
	}
	if pref, ok := all[taskID]; ok {
		return pref, nil
	}
	return model.DefaultNotificationPreference(), nil
}

// SetPreference upserts the full preference record for a task.
func (r *SettingRepository) SetPreference(ctx context.Context, taskID string, pref model.NotificationPreference) error {
	if err := pref.Validate(); err != nil {
		return err
	}
	all, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	all[taskID] = pref
	return r.storeAll(ctx, all)
}

// DeletePreference forgets a task's preference, typically on task deletion.
func (r *SettingRepository) DeletePreference(ctx context.Context, taskID string) error {
	all, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[taskID]; !ok {
		return nil
	}
	delete(all, taskID)
	return r.storeAll(ctx, all)
}

// loadAll reads the preference map. A corrupt stored value is logged and
// treated as empty rather than propagated.
func (r *SettingRepository) loadAll(ctx context.Context) (map[string]model.NotificationPreference, error) {
	var row Setting
	err := r.db.WithContext(ctx).Where("key = ?", notificationSettingsKey).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return map[string]model.NotificationPreference{}, nil
	case err != nil:
		return nil, fmt.Errorf("load notification settings: %w", err)
	}

	all := map[string]model.NotificationPreference{}
	if err := json.Unmarshal([]byte(row.Value), &all); err != nil {
		log.Printf("[warn] notification settings unreadable, resetting: %v", err)
		return map[string]model.NotificationPreference{}, nil
	}
	return all, nil
}

func (r *SettingRepository) storeAll(ctx context.Context, all map[string]model.NotificationPreference) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode notification settings: %w", err)
	}
	row := Setting{Key: notificationSettingsKey, Value: string(raw)}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("store notification settings: %w", err)
	}
	return nil
}

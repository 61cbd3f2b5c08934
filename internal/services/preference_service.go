package services

import (
	"context"
	"fmt"

	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// preferenceDefaults are the values reported for keys never written.
var preferenceDefaults = map[string]string{
	domain.KeySoundEnabled:           "true",
	domain.KeyNotificationsEnabled:   "false",
	domain.KeyNotificationPermission: string(domain.PermissionDefault),
}

// PreferenceService handles typed access to the persisted preferences.
type PreferenceService struct {
	repo ports.PreferenceRepository
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(repo ports.PreferenceRepository) *PreferenceService {
	return &PreferenceService{repo: repo}
}

// Stored returns the effect switches exactly as persisted. A key that was
// never written reports ok=false.
func (s *PreferenceService) Stored(ctx context.Context, key string) (value string, ok bool, err error) {
	if _, known := preferenceDefaults[key]; !known {
		return "", false, fmt.Errorf("%q: %w", key, domain.ErrUnknownPreference)
	}
	value, ok, err = s.repo.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference: %w", err)
	}
	return value, ok, nil
}

// Get returns the value of key, or its default when it was never stored.
func (s *PreferenceService) Get(ctx context.Context, key string) (string, error) {
	value, ok, err := s.Stored(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return preferenceDefaults[key], nil
	}
	return value, nil
}

// Set validates and stores a preference.
func (s *PreferenceService) Set(ctx context.Context, key, value string) error {
	if err := domain.ValidatePreference(key, value); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// List returns every preference, filling defaults for keys never stored.
func (s *PreferenceService) List(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	all := make(map[string]string, len(preferenceDefaults))
	for k, v := range preferenceDefaults {
		all[k] = v
	}
	for k, v := range stored {
		if _, known := preferenceDefaults[k]; known {
			all[k] = v
		}
	}
	return all, nil
}

// SetSoundEnabled persists the sound switch.
func (s *PreferenceService) SetSoundEnabled(ctx context.Context, enabled bool) error {
	return s.Set(ctx, domain.KeySoundEnabled, domain.FormatBool(enabled))
}

// SetNotificationsEnabled persists the notification switch.
func (s *PreferenceService) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.Set(ctx, domain.KeyNotificationsEnabled, domain.FormatBool(enabled))
}

// StoredEffects reports which switches differ from the first-run state,
// read the way a fresh widget does: sound counts as off only when the
// stored text is exactly "false", notifications as on only when it is
// exactly "true".
func (s *PreferenceService) StoredEffects(ctx context.Context) (soundOff, notificationsOn bool, err error) {
	sound, _, err := s.repo.Get(ctx, domain.KeySoundEnabled)
	if err != nil {
		return false, false, fmt.Errorf("failed to read preference: %w", err)
	}
	notify, _, err := s.repo.Get(ctx, domain.KeyNotificationsEnabled)
	if err != nil {
		return false, false, fmt.Errorf("failed to read preference: %w", err)
	}
	return sound == "false", notify == "true", nil
}

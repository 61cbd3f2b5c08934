package ports

import (
	"context"
	"sort"
	"testing"

	"github.com/xvierd/countdown-cli/internal/domain"
)

// Mock implementations for testing interfaces.

type mockPreferenceRepository struct {
	values map[string]string
}

func (m *mockPreferenceRepository) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockPreferenceRepository) Set(ctx context.Context, key, value string) error {
	if err := domain.ValidatePreference(key, value); err != nil {
		return err
	}
	m.values[key] = value
	return nil
}

func (m *mockPreferenceRepository) List(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

var _ PreferenceRepository = (*mockPreferenceRepository)(nil)

func TestMockPreferenceRepository(t *testing.T) {
	repo := &mockPreferenceRepository{values: make(map[string]string)}
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := repo.Get(ctx, domain.KeySoundEnabled)
		if err != nil || ok {
			t.Errorf("Get() = ok %v err %v, want missing", ok, err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		if err := repo.Set(ctx, domain.KeySoundEnabled, "false"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, _ := repo.Get(ctx, domain.KeySoundEnabled)
		if !ok || v != "false" {
			t.Errorf("Get() = %q %v, want \"false\" true", v, ok)
		}
	})

	t.Run("list", func(t *testing.T) {
		_ = repo.Set(ctx, domain.KeyNotificationsEnabled, "true")
		all, _ := repo.List(ctx)
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) != 2 || keys[0] != domain.KeyNotificationsEnabled {
			t.Errorf("List() keys = %v", keys)
		}
	})
}

func TestParseTimerCommand(t *testing.T) {
	tests := []struct {
		in     string
		want   TimerCommand
		wantOK bool
	}{
		{"toggle", CmdToggle, true},
		{"reset", CmdReset, true},
		{"toggle_sound", CmdToggleSound, true},
		{"pause", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimerCommand(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseTimerCommand(%q) = %q %v, want %q %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

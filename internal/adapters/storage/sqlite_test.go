package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xvierd/countdown-cli/internal/domain"
)

func TestNewMemory(t *testing.T) {
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	if storage == nil {
		t.Error("NewMemory() returned nil storage")
	}
}

func TestPreferenceRepository(t *testing.T) {
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Preferences()

	t.Run("missing key reads as absent", func(t *testing.T) {
		v, ok, err := repo.Get(ctx, domain.KeySoundEnabled)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok || v != "" {
			t.Errorf("Get() = %q %v, want absent", v, ok)
		}
	})

	t.Run("set then overwrite", func(t *testing.T) {
		if err := repo.Set(ctx, domain.KeySoundEnabled, "false"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := repo.Set(ctx, domain.KeySoundEnabled, "true"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, err := repo.Get(ctx, domain.KeySoundEnabled)
		if err != nil || !ok || v != "true" {
			t.Errorf("Get() = %q %v %v, want \"true\"", v, ok, err)
		}
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		err := repo.Set(ctx, "volume", "3")
		if !errors.Is(err, domain.ErrUnknownPreference) {
			t.Errorf("Set() error = %v, want ErrUnknownPreference", err)
		}
	})

	t.Run("rejects malformed value", func(t *testing.T) {
		err := repo.Set(ctx, domain.KeyNotificationsEnabled, "yes")
		if !errors.Is(err, domain.ErrInvalidPreferenceValue) {
			t.Errorf("Set() error = %v, want ErrInvalidPreferenceValue", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		if err := repo.Set(ctx, domain.KeyNotificationPermission, "granted"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(all) != 2 {
			t.Errorf("List() = %v, want 2 entries", all)
		}
		if all[domain.KeyNotificationPermission] != "granted" {
			t.Errorf("List()[permission] = %q", all[domain.KeyNotificationPermission])
		}
	})
}

func TestPreferenceRepository_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countdown.db")
	ctx := context.Background()

	first, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Preferences().Set(ctx, domain.KeyNotificationsEnabled, "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_ = first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer func() { _ = second.Close() }()

	v, ok, err := second.Preferences().Get(ctx, domain.KeyNotificationsEnabled)
	if err != nil || !ok || v != "true" {
		t.Errorf("Get() after reopen = %q %v %v", v, ok, err)
	}
}

func TestRunRepository_SaveAndFind(t *testing.T) {
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Runs()

	start := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	run := domain.NewCountdownRun(domain.DurationSnapshot{"30", "", "1"}, 3630, start)

	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, run.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.Snapshot != run.Snapshot {
			t.Errorf("Snapshot = %v, want %v", found.Snapshot, run.Snapshot)
		}
		if found.Requested != 3630*time.Second {
			t.Errorf("Requested = %v", found.Requested)
		}
		if found.Outcome != domain.OutcomePending || found.EndedAt != nil {
			t.Errorf("found = %+v, want pending", found)
		}
		if !found.StartedAt.Equal(start) {
			t.Errorf("StartedAt = %v, want %v", found.StartedAt, start)
		}
	})

	t.Run("find missing", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "missing")
		if !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("FindByID() error = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("duplicate save fails", func(t *testing.T) {
		if err := repo.Save(ctx, run); err == nil {
			t.Error("Save() of an existing run should fail")
		}
	})
}

func TestRunRepository_Update(t *testing.T) {
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Runs()

	start := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	run := domain.NewCountdownRun(domain.DurationSnapshot{"5", "", ""}, 5, start)
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	run.Finish(domain.OutcomeExpired, start.Add(5*time.Second))
	if err := repo.Update(ctx, run); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := repo.FindByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Outcome != domain.OutcomeExpired {
		t.Errorf("Outcome = %v, want expired", found.Outcome)
	}
	if found.EndedAt == nil || !found.EndedAt.Equal(start.Add(5*time.Second)) {
		t.Errorf("EndedAt = %v", found.EndedAt)
	}

	missing := domain.NewCountdownRun(domain.DurationSnapshot{}, 1, start)
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Update() of unknown run error = %v, want ErrRunNotFound", err)
	}
}

func TestRunRepository_FindRecent(t *testing.T) {
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Runs()

	base := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := domain.NewCountdownRun(domain.DurationSnapshot{"", "1", ""}, 60, base.Add(time.Duration(i)*time.Minute))
		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := repo.FindRecent(ctx, 2)
	if err != nil {
		t.Fatalf("FindRecent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("FindRecent() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("FindRecent() order = [%s %s], want newest first", runs[0].ID, runs[1].ID)
	}
}

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/services"
	"github.com/HerbHall/galleria/internal/testutil"
)

func newSettingsRepo(t *testing.T) services.SettingsRepository {
	t.Helper()
	store := testutil.NewStore(t)
	repo, err := services.NewSQLiteSettingsRepository(context.Background(), store)
	if err != nil {
		t.Fatalf("NewSQLiteSettingsRepository: %v", err)
	}
	return repo
}

func TestSQLiteSettingsRepository_SetOverwriteGet(t *testing.T) {
	repo := newSettingsRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "query.page_size", "12"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, "query.page_size", "24"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	s, err := repo.Get(ctx, "query.page_size")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Value != "24" {
		t.Errorf("Value = %q, want %q", s.Value, "24")
	}
	if s.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero")
	}
}

func TestSQLiteSettingsRepository_NotFound(t *testing.T) {
	repo := newSettingsRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Delete missing = %v, want ErrNotFound", err)
	}
}

func TestSQLiteSettingsRepository_ListByPrefix(t *testing.T) {
	repo := newSettingsRepo(t)
	ctx := context.Background()

	for _, k := range []string{"state.studio", "state.explore", "State.mine", "stateXfavorites", "query.page_size"} {
		if err := repo.Set(ctx, k, "{}"); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	states, err := repo.List(ctx, "state.")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("List(state.) = %d items, want 2", len(states))
	}
	if states[0].Key != "state.explore" || states[1].Key != "state.studio" {
		t.Errorf("List order = [%s, %s]", states[0].Key, states[1].Key)
	}

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("List() = %d items, want 5", len(all))
	}
}

func TestSettingsJSON_QueryStateRoundTrip(t *testing.T) {
	repo := newSettingsRepo(t)
	ctx := context.Background()

	want := query.NewState(24).WithCategory("Sculpture").WithSort(query.SortPriceAsc).WithPage(3)
	if err := services.SetJSON(ctx, repo, "view.explore", want); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var got query.State
	if err := services.GetJSON(ctx, repo, "view.explore", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
}

func TestSettingsJSON_DecodeError(t *testing.T) {
	repo := newSettingsRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "view.explore", "not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got query.State
	if err := services.GetJSON(ctx, repo, "view.explore", &got); err == nil {
		t.Error("GetJSON on malformed value returned nil error")
	}
}

package projection

import (
	"testing"
	"time"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

// hookRecorder captures view hook invocations in order.
type hookRecorder struct {
	events []string
}

func (h *hookRecorder) hooks() ViewHooks {
	return ViewHooks{
		ShowEmptyState: func(visible bool) {
			if visible {
				h.events = append(h.events, "empty-shown")
			} else {
				h.events = append(h.events, "empty-hidden")
			}
		},
		ShowFilterCancel: func(visible bool) {
			if visible {
				h.events = append(h.events, "cancel-shown")
			} else {
				h.events = append(h.events, "cancel-hidden")
			}
		},
		ShowProgress:    func() { h.events = append(h.events, "progress-shown") },
		DismissProgress: func() { h.events = append(h.events, "progress-dismissed") },
	}
}

func (h *hookRecorder) count(event string) int {
	n := 0
	for _, e := range h.events {
		if e == event {
			n++
		}
	}
	return n
}

func scenarioLogins() []model.LoginRecord {
	return []model.LoginRecord{
		{ID: "meow", Hostname: "http://meow", Username: "cats@cats.com"},
		{ID: "blank", Hostname: "", Username: ""},
		{ID: "aaa", Hostname: "http://aaaaaa", Username: ""},
	}
}

func currentRows(t *testing.T, p *Pipeline) []model.DisplayRow {
	t.Helper()
	rows, ok := p.Rows().Get()
	if !ok {
		t.Fatal("rows signal has no value")
	}
	return rows
}

func wantRows(t *testing.T, got, want []model.DisplayRow) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInitialProjection_HeaderOnlyAndDisabled(t *testing.T) {
	t.Parallel()

	p := New(ViewHooks{})
	wantRows(t, currentRows(t, p), []model.DisplayRow{model.HeaderRow()})

	if enabled, _ := p.SortControlEnabled().Get(); enabled {
		t.Fatal("sort control enabled with empty list")
	}
	if enabled, _ := p.ListInteractionEnabled().Get(); enabled {
		t.Fatal("list interaction enabled with empty list")
	}
	if label, _ := p.SortLabel().Get(); label != "A–Z" {
		t.Fatalf("initial sort label = %q, want A–Z", label)
	}
}

func TestProjection_AlphabeticalScenario(t *testing.T) {
	t.Parallel()

	p := New(ViewHooks{})
	p.SetSyncStatus(model.Synced())
	p.SetLogins(scenarioLogins())

	wantRows(t, currentRows(t, p), []model.DisplayRow{
		model.HeaderRow(),
		model.EntryRow("", model.UsernamePlaceholder, "blank"),
		model.EntryRow("aaaaaa", model.UsernamePlaceholder, "aaa"),
		model.EntryRow("meow", "cats@cats.com", "meow"),
	})
}

func TestProjection_FilterByHostname(t *testing.T) {
	t.Parallel()

	p := New(ViewHooks{})
	p.SetSyncStatus(model.Synced())
	p.SetLogins(scenarioLogins())
	p.SetFilterText("meow")

	wantRows(t, currentRows(t, p), []model.DisplayRow{
		model.HeaderRow(),
		model.EntryRow("meow", "cats@cats.com", "meow"),
	})
}

func TestProjection_FilterByUsername(t *testing.T) {
	t.Parallel()

	p := New(ViewHooks{})
	p.SetSyncStatus(model.Synced())
	p.SetLogins(scenarioLogins())
	p.SetFilterText("cat")

	wantRows(t, currentRows(t, p), []model.DisplayRow{
		model.HeaderRow(),
		model.EntryRow("meow", "cats@cats.com", "meow"),
	})
}

func TestProjection_RecentlyUsedOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New(ViewHooks{})
	p.SetSyncStatus(model.Synced())
	p.SetLogins([]model.LoginRecord{
		{ID: "old", Hostname: "old.example", LastUsedAt: base},
		{ID: "new", Hostname: "new.example", LastUsedAt: base.Add(time.Hour)},
	})
	p.SetSortOrder(model.SortRecentlyUsed)

	wantRows(t, currentRows(t, p), []model.DisplayRow{
		model.HeaderRow(),
		model.EntryRow("new.example", model.UsernamePlaceholder, "new"),
		model.EntryRow("old.example", model.UsernamePlaceholder, "old"),
	})
	if label, _ := p.SortLabel().Get(); label != "Recent" {
		t.Fatalf("sort label = %q, want Recent", label)
	}
}

func TestProjection_LoadingPlaceholder(t *testing.T) {
	t.Parallel()

	for _, status := range []model.SyncStatus{model.Syncing(), model.ReadyToSync()} {
		p := New(ViewHooks{})
		p.SetFilterText("ignored")
		p.SetSortOrder(model.SortRecentlyUsed)
		p.SetSyncStatus(status)

		wantRows(t, currentRows(t, p), []model.DisplayRow{
			model.HeaderRow(),
			model.PlaceholderRow(),
		})
	}
}

func TestProjection_DeduplicatesEqualSnapshots(t *testing.T) {
	t.Parallel()

	p := New(ViewHooks{})
	p.SetSyncStatus(model.Synced())
	p.SetLogins(scenarioLogins())

	emissions := 0
	p.Rows().Subscribe(func([]model.DisplayRow) { emissions++ })

	p.SetLogins(scenarioLogins())               // same list, same snapshot
	p.SetSyncStatus(model.Synced())             // same tag
	p.SetSyncStatus(model.SyncError("a"))       // new tag
	p.SetSyncStatus(model.SyncError("changed")) // tag-only equality: suppressed

	if emissions != 0 {
		t.Fatalf("row emissions = %d, want 0 (rows unchanged throughout)", emissions)
	}
}

func TestEnablement_FalseWhileSyncingOrEmpty(t *testing.T) {
	t.Parallel()

	p := New(ViewHooks{})
	p.SetSyncStatus(model.Synced())
	p.SetLogins(scenarioLogins())

	if enabled, _ := p.SortControlEnabled().Get(); !enabled {
		t.Fatal("sort control disabled with non-empty synced list")
	}

	p.SetSyncStatus(model.Syncing())
	if enabled, _ := p.SortControlEnabled().Get(); enabled {
		t.Fatal("sort control enabled while syncing")
	}
	if enabled, _ := p.ListInteractionEnabled().Get(); enabled {
		t.Fatal("list interaction enabled while syncing")
	}

	p.SetSyncStatus(model.Synced())
	p.SetLogins(nil)
	if enabled, _ := p.SortControlEnabled().Get(); enabled {
		t.Fatal("sort control enabled with empty list")
	}
}

func TestProgressIndicator_OneShotDismissal(t *testing.T) {
	t.Parallel()

	rec := &hookRecorder{}
	p := New(rec.hooks())

	p.SetSyncStatus(model.Syncing())
	if rec.count("progress-shown") != 1 {
		t.Fatalf("progress shown %d times, want 1", rec.count("progress-shown"))
	}
	if rec.count("empty-shown") != 0 {
		t.Fatal("empty state shown during sync")
	}

	p.SetSyncStatus(model.Synced())
	if rec.count("progress-dismissed") != 1 {
		t.Fatalf("progress dismissed %d times, want 1", rec.count("progress-dismissed"))
	}
	if rec.count("empty-shown") != 1 {
		t.Fatalf("empty state shown %d times, want 1 after Synced", rec.count("empty-shown"))
	}

	// A repeat Synced-tagged emission must not re-dismiss.
	p.SetSyncStatus(model.ReadyToSync())
	p.SetSyncStatus(model.Synced())
	if rec.count("progress-dismissed") != 1 {
		t.Fatalf("progress dismissed %d times after repeat Synced, want 1", rec.count("progress-dismissed"))
	}

	// The next Syncing re-arms the indicator.
	p.SetSyncStatus(model.Syncing())
	p.SetSyncStatus(model.Synced())
	if rec.count("progress-shown") != 2 || rec.count("progress-dismissed") != 2 {
		t.Fatalf("progress shown/dismissed = %d/%d, want 2/2",
			rec.count("progress-shown"), rec.count("progress-dismissed"))
	}
}

func TestEmptyState_HiddenWhenListNonEmpty(t *testing.T) {
	t.Parallel()

	rec := &hookRecorder{}
	p := New(rec.hooks())
	p.SetSyncStatus(model.Synced())
	if rec.count("empty-shown") != 1 {
		t.Fatalf("empty state shown %d times, want 1", rec.count("empty-shown"))
	}

	p.SetLogins(scenarioLogins())
	if rec.count("empty-hidden") != 1 {
		t.Fatalf("empty state hidden %d times, want 1", rec.count("empty-hidden"))
	}
}

func TestEmptyAndSynced_SuppressedFromRowProjection(t *testing.T) {
	t.Parallel()

	p := New(ViewHooks{})
	p.SetLogins(scenarioLogins())
	p.SetSyncStatus(model.Synced())
	before := currentRows(t, p)

	// Wholesale replacement with an empty synced list: empty state takes
	// over, rows keep their previous value.
	p.SetLogins(nil)
	wantRows(t, currentRows(t, p), before)
}

func TestFilterCancelAffordance(t *testing.T) {
	t.Parallel()

	rec := &hookRecorder{}
	p := New(rec.hooks())

	p.SetFilterText("meow")
	if rec.count("cancel-shown") != 1 {
		t.Fatalf("cancel affordance shown %d times, want 1", rec.count("cancel-shown"))
	}
	p.SetFilterText("")
	if rec.count("cancel-hidden") != 1 {
		t.Fatalf("cancel affordance hidden %d times, want 1", rec.count("cancel-hidden"))
	}
}

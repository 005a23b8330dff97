package baseline

import (
	"errors"
	"testing"
	"time"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
)

func sampleInputs(bDur int) ([]graph.Activity, []graph.Dependency) {
	acts := []graph.Activity{{ID: "a", Duration: 3}, {ID: "b", Duration: bDur}, {ID: "c", Duration: 2}}
	deps := []graph.Dependency{
		{Predecessor: "a", Successor: "b", Type: graph.FinishToStart},
		{Predecessor: "a", Successor: "c", Type: graph.FinishToStart},
	}
	return acts, deps
}

func mustSnapshot(t *testing.T, name string, bDur int) *Snapshot {
	t.Helper()
	acts, deps := sampleInputs(bDur)
	sched, err := cpm.Calculate(acts, deps)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	snap, err := Take(name, acts, deps, sched)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	return snap
}

func TestTake(t *testing.T) {
	snap := mustSnapshot(t, "initial", 4)

	if snap.ID == "" {
		t.Error("expected snapshot id")
	}
	if snap.Name != "initial" {
		t.Errorf("expected name initial, got %s", snap.Name)
	}
	if snap.ProjectDuration != 7 {
		t.Errorf("expected project duration 7, got %d", snap.ProjectDuration)
	}
	if len(snap.Activities) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(snap.Activities))
	}
	if len(snap.CriticalPath) != 2 || snap.CriticalPath[0] != "a" || snap.CriticalPath[1] != "b" {
		t.Errorf("expected critical path [a b], got %v", snap.CriticalPath)
	}
}

func TestFingerprint(t *testing.T) {
	acts, deps := sampleInputs(4)
	fp1, err := Fingerprint(acts, deps)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fp2, _ := Fingerprint(acts, deps)
	if fp1 != fp2 {
		t.Error("expected identical inputs to share a fingerprint")
	}
	if len(fp1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(fp1))
	}

	changed, _ := sampleInputs(5)
	fp3, _ := Fingerprint(changed, deps)
	if fp3 == fp1 {
		t.Error("expected a duration change to change the fingerprint")
	}
}

func TestStore_SaveLoadList(t *testing.T) {
	store := NewStore(t.TempDir() + "/baselines")

	list, err := store.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	first := mustSnapshot(t, "first", 4)
	first.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := mustSnapshot(t, "second", 6)
	second.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, s := range []*Snapshot{second, first} {
		if err := store.Save(s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	loaded, err := store.Load(first.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "first" || loaded.ProjectDuration != 7 || loaded.Fingerprint != first.Fingerprint {
		t.Errorf("loaded snapshot mismatch: %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at mismatch: %v", loaded.CreatedAt)
	}

	list, err = store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "first" || list[1].Name != "second" {
		t.Errorf("expected [first second] oldest first, got %d entries", len(list))
	}
}

func TestStore_LoadByPrefix(t *testing.T) {
	store := NewStore(t.TempDir())
	snap := mustSnapshot(t, "p", 4)
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(snap.ID[:8])
	if err != nil {
		t.Fatalf("Load by prefix: %v", err)
	}
	if loaded.ID != snap.ID {
		t.Errorf("expected %s, got %s", snap.ID, loaded.ID)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_LoadAmbiguous(t *testing.T) {
	store := NewStore(t.TempDir())
	a := mustSnapshot(t, "a", 4)
	a.ID = "abc-1"
	b := mustSnapshot(t, "b", 4)
	b.ID = "abc-2"
	for _, s := range []*Snapshot{a, b} {
		if err := store.Save(s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	_, err := store.Load("abc")
	if !errors.Is(err, ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(t.TempDir())
	snap := mustSnapshot(t, "gone", 4)
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(snap.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCompare_Slip(t *testing.T) {
	base := mustSnapshot(t, "base", 4)

	// a slips by 2: everything downstream moves.
	acts := []graph.Activity{{ID: "a", Duration: 5}, {ID: "b", Duration: 4}, {ID: "c", Duration: 2}}
	_, deps := sampleInputs(4)
	sched, err := cpm.Calculate(acts, deps)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	fp, _ := Fingerprint(acts, deps)

	cmp := Compare(base, sched, fp)
	if cmp.SameInputs {
		t.Error("expected inputs to differ")
	}
	if cmp.DurationChange != 2 {
		t.Errorf("expected duration change 2, got %d", cmp.DurationChange)
	}
	if len(cmp.Variances) != 3 {
		t.Fatalf("expected 3 variances, got %d", len(cmp.Variances))
	}

	a := cmp.Variances[0]
	if a.ID != "a" || a.Status != StatusChanged || a.StartSlip != 0 || a.FinishSlip != 2 {
		t.Errorf("unexpected variance for a: %+v", a)
	}
	b := cmp.Variances[1]
	if b.StartSlip != 2 || b.FinishSlip != 2 || b.FloatChange != 0 {
		t.Errorf("unexpected variance for b: %+v", b)
	}
	if got := len(cmp.Slipped()); got != 3 {
		t.Errorf("expected 3 slipped activities, got %d", got)
	}
}

func TestCompare_Unchanged(t *testing.T) {
	base := mustSnapshot(t, "base", 4)
	acts, deps := sampleInputs(4)
	sched, _ := cpm.Calculate(acts, deps)
	fp, _ := Fingerprint(acts, deps)

	cmp := Compare(base, sched, fp)
	if !cmp.SameInputs {
		t.Error("expected same inputs")
	}
	for _, v := range cmp.Variances {
		if v.Status != StatusUnchanged {
			t.Errorf("expected %s unchanged, got %s", v.ID, v.Status)
		}
	}
}

func TestCompare_AddedRemoved(t *testing.T) {
	base := mustSnapshot(t, "base", 4)

	acts := []graph.Activity{{ID: "a", Duration: 3}, {ID: "b", Duration: 4}, {ID: "d", Duration: 1}}
	deps := []graph.Dependency{
		{Predecessor: "a", Successor: "b"},
		{Predecessor: "b", Successor: "d"},
	}
	sched, err := cpm.Calculate(acts, deps)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	cmp := Compare(base, sched, "")
	want := map[string]VarianceStatus{"a": StatusUnchanged, "b": StatusUnchanged, "d": StatusAdded, "c": StatusRemoved}
	if len(cmp.Variances) != len(want) {
		t.Fatalf("expected %d variances, got %d", len(want), len(cmp.Variances))
	}
	for _, v := range cmp.Variances {
		if v.Status != want[v.ID] {
			t.Errorf("%s: expected %s, got %s", v.ID, want[v.ID], v.Status)
		}
	}
	if last := cmp.Variances[len(cmp.Variances)-1]; last.ID != "c" {
		t.Errorf("expected removed activity last, got %s", last.ID)
	}
}

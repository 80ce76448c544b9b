package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/afgs1/paramset"
)

func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writeTable: %v", err)
	}
	return path
}

func TestLoadTableAndFindFrames(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "a.txt", "filmgrn1\nE 0 100 0 0 0\nE 100 200 0 0 0\n")

	db := New(NewIdxAllocator())
	if err := db.LoadTable(path, 1920, 1080); err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	// Boundary semantics: find_frames(s) includes the record, find_frames(e) excludes it.
	at0 := db.FindFrames(0)
	if len(at0) != 1 {
		t.Fatalf("FindFrames(0): got %d records, want 1", len(at0))
	}
	at100 := db.FindFrames(100)
	if len(at100) != 1 || at100[0].ApplyHorzResolution != 1920 {
		t.Fatalf("FindFrames(100) should return the second record (half-open interval), got %+v", at100)
	}
	at200 := db.FindFrames(200)
	if len(at200) != 0 {
		t.Fatalf("FindFrames(200): got %d records, want 0 (end is exclusive)", len(at200))
	}
}

func TestLoadTableAssignsSharedIdxAndResolution(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "a.txt", "filmgrn1\nE 0 100 0 0 0\nE 100 200 0 0 0\n")

	db := New(NewIdxAllocator())
	if err := db.LoadTable(path, 1280, 720); err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	all := db.AllFrames()
	if len(all) != 2 {
		t.Fatalf("got %d records, want 2", len(all))
	}
	for _, p := range all {
		if p.FilmGrainParamSetIdx != 0 {
			t.Errorf("expected idx 0 for all records from one table, got %d", p.FilmGrainParamSetIdx)
		}
		if p.ApplyHorzResolution != 1280 || p.ApplyVertResolution != 720 {
			t.Errorf("unexpected resolution %dx%d", p.ApplyHorzResolution, p.ApplyVertResolution)
		}
	}
}

func TestLoadTableIncrementsIdxAcrossTables(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTable(t, dir, "a.txt", "filmgrn1\nE 0 100 0 0 0\n")
	pathB := writeTable(t, dir, "b.txt", "filmgrn1\nE 0 100 0 0 0\n")

	db := New(NewIdxAllocator())
	if err := db.LoadTable(pathA, 1920, 1080); err != nil {
		t.Fatalf("LoadTable a: %v", err)
	}
	if err := db.LoadTable(pathB, 1280, 720); err != nil {
		t.Fatalf("LoadTable b: %v", err)
	}
	all := db.AllFrames()
	if all[0].FilmGrainParamSetIdx != 0 || all[1].FilmGrainParamSetIdx != 1 {
		t.Errorf("expected sequential indices 0,1, got %d,%d", all[0].FilmGrainParamSetIdx, all[1].FilmGrainParamSetIdx)
	}
}

func TestLoadTableRejectsNinthTable(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "a.txt", "filmgrn1\nE 0 100 0 0 0\n")

	db := New(NewIdxAllocator())
	for i := 0; i < 8; i++ {
		if err := db.LoadTable(path, 1920, 1080); err != nil {
			t.Fatalf("LoadTable #%d: unexpected error: %v", i, err)
		}
	}
	if err := db.LoadTable(path, 1920, 1080); err == nil {
		t.Fatal("expected error loading a 9th table")
	}
}

func TestAllFramesMatchesExpectedRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "a.txt", "filmgrn1\nE 0 100 0 0 0\nE 100 200 0 0 0\n")

	db := New(NewIdxAllocator())
	if err := db.LoadTable(path, 1920, 1080); err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	want := []paramset.FilmGrainParams{
		{FilmGrainParamSetIdx: 0, ApplyGrain: false, ApplyHorzResolution: 1920, ApplyVertResolution: 1080, SubsamplingX: true, SubsamplingY: true},
		{FilmGrainParamSetIdx: 0, ApplyGrain: false, ApplyHorzResolution: 1920, ApplyVertResolution: 1080, SubsamplingX: true, SubsamplingY: true},
	}
	got := db.AllFrames()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AllFrames mismatch (-want +got):\n%s", diff)
	}
}

func TestFindFramesReturnsCopies(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "a.txt", "filmgrn1\nE 0 100 0 0 0\n")
	db := New(NewIdxAllocator())
	if err := db.LoadTable(path, 1920, 1080); err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	got := db.FindFrames(0)
	got[0].ApplyHorzResolution = 42
	got2 := db.FindFrames(0)
	if got2[0].ApplyHorzResolution != 1920 {
		t.Error("FindFrames must return a fresh copy; mutation leaked into the database")
	}
}

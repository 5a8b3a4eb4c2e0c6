package service

import (
	"context"
	"errors"
	"testing"

	"journal-backend/internal/canvas"
	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
	"journal-backend/internal/store"
)

func newJournal() *JournalService {
	return NewJournalService(store.NewMemoryStore(), nil)
}

func TestCreateEntryConflict(t *testing.T) {
	svc := newJournal()
	ctx := context.Background()
	day := datekey.MustParse("2024-03-10")

	e, err := svc.CreateEntry(ctx, "u1", EntryInput{Date: day, Layers: []model.CanvasLayer{
		{ID: "b", Type: model.LayerTypeText, ZIndex: 5},
		{ID: "a", Type: model.LayerTypeImage, ZIndex: 1},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if e.Layers[0].ID != "a" || e.Layers[0].ZIndex != 0 || e.Layers[1].ZIndex != 1 {
		t.Errorf("layers not normalized: %+v", e.Layers)
	}

	if _, err := svc.CreateEntry(ctx, "u1", EntryInput{Date: day}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("second create: %v, want conflict", err)
	}
	if _, err := svc.CreateEntry(ctx, "u2", EntryInput{Date: day}); err != nil {
		t.Errorf("other user same day: %v", err)
	}
}

func TestCreateEntryRejectsBadLayers(t *testing.T) {
	svc := newJournal()
	_, err := svc.CreateEntry(context.Background(), "u1", EntryInput{
		Date:   datekey.MustParse("2024-03-10"),
		Layers: []model.CanvasLayer{{ID: "x", Type: "hologram"}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestUpdateEntryMissing(t *testing.T) {
	svc := newJournal()
	text := "x"
	_, err := svc.UpdateEntry(context.Background(), "u1", datekey.MustParse("2024-03-10"), EntryPatch{Text: &text})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestDailyLogUpserts(t *testing.T) {
	svc := newJournal()
	ctx := context.Background()
	day := datekey.MustParse("2024-03-10")

	e, err := svc.UpdateDailyLog(ctx, "u1", day, "first")
	if err != nil {
		t.Fatal(err)
	}
	again, err := svc.UpdateDailyLog(ctx, "u1", day, "second")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != e.ID || again.Text == nil || *again.Text != "second" {
		t.Errorf("daily log = %+v", again)
	}
}

func TestLayerOperations(t *testing.T) {
	svc := newJournal()
	ctx := context.Background()
	day := datekey.MustParse("2024-03-10")

	// 엔트리가 없어도 첫 레이어 추가 시 생성
	var err error
	for _, id := range []string{"a", "b", "c"} {
		if _, err = svc.AddLayer(ctx, "u1", day, model.CanvasLayer{ID: id, Type: model.LayerTypeSticker}); err != nil {
			t.Fatal(err)
		}
	}

	e, err := svc.ReorderLayers(ctx, "u1", day, []string{"c", "a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"c", "a", "b"} {
		if e.Layers[i].ID != want || e.Layers[i].ZIndex != i {
			t.Fatalf("after reorder: %+v", e.Layers)
		}
	}

	x := 10.0
	if e, err = svc.UpdateLayer(ctx, "u1", day, "a", canvas.LayerPatch{X: &x}); err != nil {
		t.Fatal(err)
	}
	if e.Layers[1].X != 10 {
		t.Errorf("update not applied: %+v", e.Layers[1])
	}

	if _, err := svc.UpdateLayer(ctx, "u1", day, "zzz", canvas.LayerPatch{X: &x}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing layer: %v, want not found", err)
	}
	if _, err := svc.AddLayer(ctx, "u1", day, model.CanvasLayer{ID: "a", Type: model.LayerTypeText}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate layer: %v, want invalid input", err)
	}

	if e, err = svc.DeleteLayer(ctx, "u1", day, "c"); err != nil {
		t.Fatal(err)
	}
	if len(e.Layers) != 2 || e.Layers[0].ID != "a" || e.Layers[0].ZIndex != 0 {
		t.Errorf("after delete: %+v", e.Layers)
	}

	if e, err = svc.ClearCanvas(ctx, "u1", day); err != nil {
		t.Fatal(err)
	}
	if len(e.Layers) != 0 {
		t.Errorf("canvas not cleared: %+v", e.Layers)
	}
}

func TestSaveEntryReplaces(t *testing.T) {
	svc := newJournal()
	ctx := context.Background()
	day := datekey.MustParse("2024-03-10")
	bg := "paper"

	first, err := svc.SaveEntry(ctx, "u1", day, EntryInput{Background: &bg, Layers: []model.CanvasLayer{{ID: "a", Type: model.LayerTypeText}}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.SaveEntry(ctx, "u1", day, EntryInput{})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID || len(second.Layers) != 0 || second.Background != nil {
		t.Errorf("save did not replace: %+v", second)
	}
}

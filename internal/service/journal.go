package service

import (
	"context"
	"errors"
	"fmt"

	"journal-backend/internal/canvas"
	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
	"journal-backend/internal/store"
)

// EntryInput 저널 생성/전체 저장 요청
type EntryInput struct {
	Date       datekey.Key         `json:"date"`
	Text       *string             `json:"text"`
	Layers     []model.CanvasLayer `json:"layers"`
	Background *string             `json:"background"`
}

// EntryPatch 저널 부분 수정
type EntryPatch struct {
	Text       *string              `json:"text"`
	Layers     *[]model.CanvasLayer `json:"layers"`
	Background *string              `json:"background"`
}

// JournalService 저널 엔트리와 캔버스 레이어
type JournalService struct {
	store    store.Store
	notifier Notifier
}

// NewJournalService JournalService 생성
func NewJournalService(st store.Store, n Notifier) *JournalService {
	return &JournalService{store: st, notifier: orNop(n)}
}

func invalidLayers(err error) error {
	switch {
	case errors.Is(err, canvas.ErrInvalidLayer), errors.Is(err, canvas.ErrDuplicateID):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, canvas.ErrLayerNotFound):
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	default:
		return err
	}
}

func prepareLayers(layers []model.CanvasLayer) (model.Layers, error) {
	if err := canvas.ValidateAll(layers); err != nil {
		return nil, invalidLayers(err)
	}
	return model.Layers(canvas.Normalize(layers)), nil
}

func (s *JournalService) ListEntries(ctx context.Context, userID string, span *datekey.Span) ([]model.JournalEntry, error) {
	return s.store.ListEntries(ctx, userID, span)
}

// GetEntry returns store.ErrNotFound when the day has no entry.
func (s *JournalService) GetEntry(ctx context.Context, userID string, date datekey.Key) (*model.JournalEntry, error) {
	return s.store.GetEntry(ctx, userID, date)
}

// CreateEntry fails with store.ErrConflict when the day already has an entry.
func (s *JournalService) CreateEntry(ctx context.Context, userID string, in EntryInput) (*model.JournalEntry, error) {
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	layers, err := prepareLayers(in.Layers)
	if err != nil {
		return nil, err
	}

	e := &model.JournalEntry{
		UserID:     userID,
		Date:       in.Date,
		Text:       in.Text,
		Layers:     layers,
		Background: in.Background,
	}
	if err := s.store.CreateEntry(ctx, e); err != nil {
		return nil, err
	}

	publish(s.notifier, userID, ChangeCreated, ResourceEntry, e.ID, e.Date.String())
	return e, nil
}

// UpdateEntry applies patch to an existing entry; store.ErrNotFound if the
// day has none.
func (s *JournalService) UpdateEntry(ctx context.Context, userID string, date datekey.Key, patch EntryPatch) (*model.JournalEntry, error) {
	var layers model.Layers
	if patch.Layers != nil {
		var err error
		if layers, err = prepareLayers(*patch.Layers); err != nil {
			return nil, err
		}
	}

	return s.modify(ctx, userID, date, func(e *model.JournalEntry) error {
		if patch.Text != nil {
			e.Text = patch.Text
		}
		if patch.Layers != nil {
			e.Layers = layers
		}
		if patch.Background != nil {
			e.Background = patch.Background
		}
		return nil
	})
}

// SaveEntry replaces the entry for date, creating it when missing.
func (s *JournalService) SaveEntry(ctx context.Context, userID string, date datekey.Key, in EntryInput) (*model.JournalEntry, error) {
	layers, err := prepareLayers(in.Layers)
	if err != nil {
		return nil, err
	}

	e := &model.JournalEntry{
		UserID:     userID,
		Date:       date,
		Text:       in.Text,
		Layers:     layers,
		Background: in.Background,
	}
	if err := s.store.SaveEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	publish(s.notifier, userID, ChangeUpdated, ResourceEntry, e.ID, date.String())
	return e, nil
}

func (s *JournalService) DeleteEntry(ctx context.Context, userID string, date datekey.Key) error {
	if err := s.store.DeleteEntry(ctx, userID, date); err != nil {
		return err
	}
	publish(s.notifier, userID, ChangeDeleted, ResourceEntry, "", date.String())
	return nil
}

// UpdateDailyLog sets the entry text, creating an empty canvas for the day
// when needed.
func (s *JournalService) UpdateDailyLog(ctx context.Context, userID string, date datekey.Key, text string) (*model.JournalEntry, error) {
	return s.upsert(ctx, userID, date, func(e *model.JournalEntry) error {
		e.Text = &text
		return nil
	})
}

// ========== Canvas layers ==========

// AddLayer puts layer on top of the day's canvas, creating the entry when
// the day has none.
func (s *JournalService) AddLayer(ctx context.Context, userID string, date datekey.Key, layer model.CanvasLayer) (*model.JournalEntry, error) {
	return s.upsert(ctx, userID, date, func(e *model.JournalEntry) error {
		layers, err := canvas.Add(e.Layers, layer)
		if err != nil {
			return invalidLayers(err)
		}
		e.Layers = layers
		return nil
	})
}

func (s *JournalService) UpdateLayer(ctx context.Context, userID string, date datekey.Key, layerID string, patch canvas.LayerPatch) (*model.JournalEntry, error) {
	return s.modify(ctx, userID, date, func(e *model.JournalEntry) error {
		layers, err := canvas.Update(e.Layers, layerID, patch)
		if err != nil {
			return invalidLayers(err)
		}
		e.Layers = layers
		return nil
	})
}

func (s *JournalService) DeleteLayer(ctx context.Context, userID string, date datekey.Key, layerID string) (*model.JournalEntry, error) {
	return s.modify(ctx, userID, date, func(e *model.JournalEntry) error {
		layers, err := canvas.Remove(e.Layers, layerID)
		if err != nil {
			return invalidLayers(err)
		}
		e.Layers = layers
		return nil
	})
}

func (s *JournalService) ReorderLayers(ctx context.Context, userID string, date datekey.Key, ids []string) (*model.JournalEntry, error) {
	return s.modify(ctx, userID, date, func(e *model.JournalEntry) error {
		e.Layers = canvas.Reorder(e.Layers, ids)
		return nil
	})
}

func (s *JournalService) ClearCanvas(ctx context.Context, userID string, date datekey.Key) (*model.JournalEntry, error) {
	return s.modify(ctx, userID, date, func(e *model.JournalEntry) error {
		e.Layers = canvas.Clear()
		return nil
	})
}

func (s *JournalService) modify(ctx context.Context, userID string, date datekey.Key, fn func(*model.JournalEntry) error) (*model.JournalEntry, error) {
	e, err := s.store.ModifyEntry(ctx, userID, date, fn)
	if err != nil {
		return nil, err
	}
	publish(s.notifier, userID, ChangeUpdated, ResourceEntry, e.ID, date.String())
	return e, nil
}

// upsert modifies the day's entry, creating an empty one first when missing.
// A concurrent create between the two steps is resolved by modifying again.
func (s *JournalService) upsert(ctx context.Context, userID string, date datekey.Key, fn func(*model.JournalEntry) error) (*model.JournalEntry, error) {
	e, err := s.modify(ctx, userID, date, fn)
	if !errors.Is(err, store.ErrNotFound) || errors.Is(err, canvas.ErrLayerNotFound) {
		return e, err
	}

	fresh := &model.JournalEntry{UserID: userID, Date: date, Layers: model.Layers{}}
	if err := fn(fresh); err != nil {
		return nil, err
	}
	err = s.store.CreateEntry(ctx, fresh)
	switch {
	case err == nil:
		publish(s.notifier, userID, ChangeCreated, ResourceEntry, fresh.ID, date.String())
		return fresh, nil
	case errors.Is(err, store.ErrConflict):
		return s.modify(ctx, userID, date, fn)
	default:
		return nil, err
	}
}

// Package canvas keeps journal canvas layers ordered and valid.
//
// Layers render bottom to top by zIndex. Every mutation returns a new slice
// whose zIndex values are reassigned contiguously from 0.
package canvas

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"journal-backend/internal/model"
)

var (
	ErrInvalidLayer  = errors.New("invalid canvas layer")
	ErrLayerNotFound = errors.New("canvas layer not found")
	ErrDuplicateID   = errors.New("duplicate canvas layer id")
)

// LayerPatch 부분 업데이트 (nil 필드는 유지)
type LayerPatch struct {
	X        *float64       `json:"x,omitempty"`
	Y        *float64       `json:"y,omitempty"`
	Width    *float64       `json:"width,omitempty"`
	Height   *float64       `json:"height,omitempty"`
	Rotation *float64       `json:"rotation,omitempty"`
	Scale    *float64       `json:"scale,omitempty"`
	ZIndex   *int           `json:"zIndex,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Validate checks a single layer. A missing id is generated and a zero scale
// defaults to 1.
func Validate(layer *model.CanvasLayer) error {
	if !layer.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidLayer, layer.Type)
	}
	if layer.ID == "" {
		layer.ID = uuid.NewString()
	}
	if layer.Scale == 0 {
		layer.Scale = 1
	}
	for name, v := range map[string]float64{
		"x": layer.X, "y": layer.Y, "width": layer.Width, "height": layer.Height,
		"rotation": layer.Rotation, "scale": layer.Scale,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidLayer, name)
		}
	}
	if layer.Width < 0 || layer.Height < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidLayer)
	}
	if layer.Scale < 0 {
		return fmt.Errorf("%w: negative scale", ErrInvalidLayer)
	}
	if layer.Data == nil {
		layer.Data = map[string]any{}
	}
	return nil
}

// ValidateAll validates every layer and rejects duplicate ids.
func ValidateAll(layers []model.CanvasLayer) error {
	seen := make(map[string]struct{}, len(layers))
	for i := range layers {
		if err := Validate(&layers[i]); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if _, dup := seen[layers[i].ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, layers[i].ID)
		}
		seen[layers[i].ID] = struct{}{}
	}
	return nil
}

// Normalize stable-sorts by zIndex and reassigns 0..n-1.
func Normalize(layers []model.CanvasLayer) []model.CanvasLayer {
	out := slices.Clone(layers)
	slices.SortStableFunc(out, func(a, b model.CanvasLayer) int {
		return a.ZIndex - b.ZIndex
	})
	return renumber(out)
}

// Add 레이어를 맨 위에 추가
func Add(layers []model.CanvasLayer, layer model.CanvasLayer) ([]model.CanvasLayer, error) {
	if err := Validate(&layer); err != nil {
		return nil, err
	}
	if indexOf(layers, layer.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, layer.ID)
	}
	out := Normalize(layers)
	layer.ZIndex = len(out)
	return append(out, layer), nil
}

// Update applies patch to the layer with id. A zIndex in the patch moves the
// layer to that position before renumbering.
func Update(layers []model.CanvasLayer, id string, patch LayerPatch) ([]model.CanvasLayer, error) {
	out := Normalize(layers)
	i := indexOf(out, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}

	l := out[i]
	if patch.X != nil {
		l.X = *patch.X
	}
	if patch.Y != nil {
		l.Y = *patch.Y
	}
	if patch.Width != nil {
		l.Width = *patch.Width
	}
	if patch.Height != nil {
		l.Height = *patch.Height
	}
	if patch.Rotation != nil {
		l.Rotation = *patch.Rotation
	}
	if patch.Scale != nil {
		l.Scale = *patch.Scale
	}
	if patch.Data != nil {
		l.Data = patch.Data
	}
	if err := Validate(&l); err != nil {
		return nil, err
	}
	out[i] = l

	if patch.ZIndex != nil {
		target := min(max(*patch.ZIndex, 0), len(out)-1)
		moved := out[i]
		out = slices.Delete(out, i, i+1)
		out = slices.Insert(out, target, moved)
	}
	return renumber(out), nil
}

// Remove 레이어 삭제
func Remove(layers []model.CanvasLayer, id string) ([]model.CanvasLayer, error) {
	out := Normalize(layers)
	i := indexOf(out, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return renumber(slices.Delete(out, i, i+1)), nil
}

// Reorder puts the layers named in ids first, bottom to top, in that order.
// Unknown ids are ignored; layers not named keep their relative order above
// the named ones.
func Reorder(layers []model.CanvasLayer, ids []string) []model.CanvasLayer {
	current := Normalize(layers)
	out := make([]model.CanvasLayer, 0, len(current))
	used := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := used[id]; dup {
			continue
		}
		if i := indexOf(current, id); i >= 0 {
			out = append(out, current[i])
			used[id] = struct{}{}
		}
	}
	for _, l := range current {
		if _, ok := used[l.ID]; !ok {
			out = append(out, l)
		}
	}
	return renumber(out)
}

// Clear 캔버스 비우기
func Clear() []model.CanvasLayer {
	return []model.CanvasLayer{}
}

func renumber(layers []model.CanvasLayer) []model.CanvasLayer {
	for i := range layers {
		layers[i].ZIndex = i
	}
	return layers
}

func indexOf(layers []model.CanvasLayer, id string) int {
	return slices.IndexFunc(layers, func(l model.CanvasLayer) bool {
		return l.ID == id
	})
}

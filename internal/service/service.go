// Package service implements habit, journal and calendar use cases on top
// of the store.
package service

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidInput 요청 값 검증 실패 (세부 사유는 래핑)
var ErrInvalidInput = errors.New("invalid input")

// Change kinds published after successful writes.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Resources named in change events.
const (
	ResourceHabit = "habit"
	ResourceCheck = "habit_check"
	ResourceEvent = "event"
	ResourceEntry = "journal_entry"
)

// ChangeEvent tells connected clients of a user which resource to reload.
type ChangeEvent struct {
	Type     string `json:"type"`
	Resource string `json:"resource"`
	ID       string `json:"id,omitempty"`
	Date     string `json:"date,omitempty"`
	At       int64  `json:"at"`
}

// Notifier 변경 알림 전송
type Notifier interface {
	Publish(userID string, ev ChangeEvent)
}

// NopNotifier discards change events.
type NopNotifier struct{}

func (NopNotifier) Publish(string, ChangeEvent) {}

func publish(n Notifier, userID, kind, resource, id, date string) {
	n.Publish(userID, ChangeEvent{
		Type:     kind,
		Resource: resource,
		ID:       id,
		Date:     date,
		At:       time.Now().UnixMilli(),
	})
}

func orNop(n Notifier) Notifier {
	if n == nil {
		return NopNotifier{}
	}
	return n
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func colorOrDefault(c, fallback string) string {
	if c = strings.TrimSpace(c); c == "" {
		return fallback
	}
	return c
}

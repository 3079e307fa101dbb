package notification

import (
	"context"
	"errors"
	"testing"

	"leadflow_backend/internal/notification/outbox"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeOutbox struct {
	inserted []outbox.InsertParams
	err      error
}

func (f *fakeOutbox) Insert(_ context.Context, p outbox.InsertParams) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inserted = append(f.inserted, p)
	ids := make([]uuid.UUID, len(p.UserIDs))
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids, nil
}

func TestNotifyDeduplicatesRecipients(t *testing.T) {
	w := &fakeOutbox{}
	m := NewWithWriter(w, logger.Nop())
	a, b := uuid.New(), uuid.New()

	err := m.Notify(context.Background(), uuid.New(), []uuid.UUID{a, b, a, uuid.Nil}, "leads.lead.created", map[string]any{"leadId": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(w.inserted))
	}
	if got := w.inserted[0].UserIDs; len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected recipients %v", got)
	}
}

func TestNotifySkipsEmptyRecipientList(t *testing.T) {
	w := &fakeOutbox{}
	m := NewWithWriter(w, logger.Nop())

	if err := m.Notify(context.Background(), uuid.New(), nil, "x", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.inserted) != 0 {
		t.Fatalf("expected no insert")
	}
}

func TestNotifyWrapsOutboxFailureAsUnavailable(t *testing.T) {
	w := &fakeOutbox{err: errors.New("connection reset")}
	m := NewWithWriter(w, logger.Nop())

	err := m.Notify(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}, "x", nil)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestNotifyRequiresTenant(t *testing.T) {
	m := NewWithWriter(&fakeOutbox{}, logger.Nop())
	err := m.Notify(context.Background(), uuid.Nil, []uuid.UUID{uuid.New()}, "x", nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

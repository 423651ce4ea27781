package history

import (
	"context"
	"errors"
	"testing"

	"github.com/ashureev/symcheck/internal/domain"
)

type fakeBackend struct {
	entries     []domain.ChatSummary
	detailCalls int
	deleted     []string
	err         error
}

func (f *fakeBackend) ChatHistory(context.Context) ([]domain.ChatSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeBackend) ChatDetails(_ context.Context, chatID string) (*domain.ChatDetail, error) {
	f.detailCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ChatDetail{UserMessage: "Symptoms: " + chatID}, nil
}

func (f *fakeBackend) DeleteChat(_ context.Context, chatID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.deleted = append(f.deleted, chatID)
	return "Chat deleted successfully", nil
}

func TestDetailIsCached(t *testing.T) {
	fb := &fakeBackend{}
	s := NewService(fb, 0, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := s.Detail(ctx, "42")
		if err != nil {
			t.Fatalf("Detail failed: %v", err)
		}
		if d.UserMessage != "Symptoms: 42" {
			t.Errorf("UserMessage = %q", d.UserMessage)
		}
	}
	if fb.detailCalls != 1 {
		t.Errorf("backend called %d times, want 1", fb.detailCalls)
	}
}

func TestDeleteInvalidatesDetail(t *testing.T) {
	fb := &fakeBackend{}
	s := NewService(fb, 0, nil)
	ctx := context.Background()

	if _, err := s.Detail(ctx, "42"); err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	msg, err := s.Delete(ctx, "42")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if msg != "Chat deleted successfully" {
		t.Errorf("msg = %q", msg)
	}
	if _, err := s.Detail(ctx, "42"); err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if fb.detailCalls != 2 {
		t.Errorf("backend called %d times, want 2", fb.detailCalls)
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	sentinel := errors.New("down")
	s := NewService(&fakeBackend{err: sentinel}, 0, nil)
	ctx := context.Background()

	if _, err := s.List(ctx); !errors.Is(err, sentinel) {
		t.Errorf("List error = %v", err)
	}
	if _, err := s.Detail(ctx, "1"); !errors.Is(err, sentinel) {
		t.Errorf("Detail error = %v", err)
	}
	if _, err := s.Delete(ctx, "1"); !errors.Is(err, sentinel) {
		t.Errorf("Delete error = %v", err)
	}
}

func TestFlush(t *testing.T) {
	fb := &fakeBackend{}
	s := NewService(fb, 0, nil)
	ctx := context.Background()

	_, _ = s.Detail(ctx, "1")
	s.Flush()
	_, _ = s.Detail(ctx, "1")
	if fb.detailCalls != 2 {
		t.Errorf("backend called %d times, want 2", fb.detailCalls)
	}
}

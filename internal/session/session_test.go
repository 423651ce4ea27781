package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/symcheck/internal/conversation"
	"github.com/ashureev/symcheck/internal/domain"
	"github.com/ashureev/symcheck/internal/report"
)

type fakeBackend struct {
	username    string
	usernameErr error
	newChat     *domain.NewSession
	newChatErr  error
	entries     []domain.ChatSummary
	historyErr  error
	deleteErr   error
	deleted     []string
}

func (f *fakeBackend) CollectSymptom(context.Context, string, []string) (*domain.SymptomCheck, error) {
	return &domain.SymptomCheck{}, nil
}

func (f *fakeBackend) PredictDisease(context.Context, []string, int) (*domain.Diagnosis, error) {
	return &domain.Diagnosis{
		PrimaryDisease:     "Migraine",
		PrimaryPrecautions: []string{"meditation"},
		SecondaryDisease:   "Tension headache",
	}, nil
}

func (f *fakeBackend) AskMedical(_ context.Context, q string) (string, error) {
	return "answer " + q, nil
}

func (f *fakeBackend) ChatHistory(context.Context) ([]domain.ChatSummary, error) {
	return f.entries, f.historyErr
}

func (f *fakeBackend) ChatDetails(_ context.Context, id string) (*domain.ChatDetail, error) {
	return &domain.ChatDetail{
		UserMessage:        "Symptoms: headache",
		BotResponse:        "Diagnosis " + id,
		PrimaryDisease:     "Migraine",
		PrimaryPrecautions: []string{"meditation", "reduce stress"},
	}, nil
}

func (f *fakeBackend) DeleteChat(_ context.Context, id string) (string, error) {
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	f.entries = nil
	return "deleted", nil
}

func (f *fakeBackend) Username(context.Context) (string, error) {
	return f.username, f.usernameErr
}

func (f *fakeBackend) NewChat(context.Context) (*domain.NewSession, error) {
	return f.newChat, f.newChatErr
}

type recorder struct {
	mu   sync.Mutex
	msgs []conversation.Message
}

func (r *recorder) Emit(m conversation.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) kinds() []conversation.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]conversation.Kind, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Kind
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

func newSession(t *testing.T, fb *fakeBackend) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := New("tab-1", fb, rec, Options{})
	t.Cleanup(s.Close)
	return s, rec
}

func TestStartGreetsAndLoadsHistory(t *testing.T) {
	fb := &fakeBackend{
		username: "Ann",
		entries:  []domain.ChatSummary{{ID: "1", UserMessage: "Symptoms: fever"}},
	}
	s, rec := newSession(t, fb)

	s.Start(context.Background())

	require.Len(t, rec.msgs, 3)
	assert.Contains(t, rec.msgs[0].Text, "Hello Ann!")
	assert.Equal(t, conversation.KindReportHidden, rec.msgs[1].Kind)
	assert.Equal(t, conversation.KindHistory, rec.msgs[2].Kind)
	assert.Len(t, rec.msgs[2].History, 1)
}

func TestUsernameFallback(t *testing.T) {
	for name, fb := range map[string]*fakeBackend{
		"error": {usernameErr: errors.New("401")},
		"empty": {username: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			s, rec := newSession(t, fb)
			s.Start(context.Background())
			assert.Contains(t, rec.msgs[0].Text, "Hello User!")
		})
	}
}

func TestHistoryFailureIsSilent(t *testing.T) {
	s, rec := newSession(t, &fakeBackend{historyErr: errors.New("down")})
	s.History(context.Background())
	assert.Empty(t, rec.msgs)
}

func diagnose(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	s.Input(ctx, "headache")
	s.Input(ctx, "exit")
	s.Input(ctx, "2")
	require.Equal(t, conversation.StatePostDiagnosisQuery, s.State())
}

func TestNewChatResets(t *testing.T) {
	fb := &fakeBackend{username: "Ann", newChat: &domain.NewSession{NewSession: true, SessionID: "s2"}}
	s, rec := newSession(t, fb)
	diagnose(t, s)
	rec.reset()

	require.NoError(t, s.NewChat(context.Background()))

	assert.Equal(t, conversation.StateCollectingSymptoms, s.State())
	assert.Empty(t, s.Symptoms())
	assert.Nil(t, s.LastDiagnosis())
	assert.Equal(t, []conversation.Kind{
		conversation.KindClear,
		conversation.KindText,
		conversation.KindReportHidden,
		conversation.KindHistory,
	}, rec.kinds())
	assert.Contains(t, rec.msgs[1].Text, "New chat session started")
}

func TestNewChatDeclinedKeepsState(t *testing.T) {
	fb := &fakeBackend{newChat: &domain.NewSession{NewSession: false}}
	s, rec := newSession(t, fb)
	s.Input(context.Background(), "fever")
	rec.reset()

	require.NoError(t, s.NewChat(context.Background()))
	assert.Equal(t, []string{"fever"}, s.Symptoms())
	assert.Empty(t, rec.msgs)
}

func TestNewChatError(t *testing.T) {
	s, rec := newSession(t, &fakeBackend{newChatErr: errors.New("boom")})
	assert.Error(t, s.NewChat(context.Background()))
	assert.Equal(t, msgNewChatFail, rec.msgs[len(rec.msgs)-1].Text)
}

func TestClearKeepsSymptoms(t *testing.T) {
	s, rec := newSession(t, &fakeBackend{})
	s.Input(context.Background(), "fever")
	rec.reset()

	s.Clear()

	assert.Equal(t, []string{"fever"}, s.Symptoms())
	assert.Equal(t, []conversation.Kind{conversation.KindClear, conversation.KindText}, rec.kinds())
	assert.Equal(t, msgCleared, rec.msgs[1].Text)
}

func TestDetailReplacesTranscript(t *testing.T) {
	s, rec := newSession(t, &fakeBackend{})
	s.Detail(context.Background(), "7")

	require.Equal(t, []conversation.Kind{conversation.KindClear, conversation.KindChatDetail}, rec.kinds())
	m := rec.msgs[1]
	require.NotNil(t, m.Detail)
	assert.Equal(t, "Diagnosis 7", m.Detail.BotResponse)
	assert.Contains(t, m.Text, "💊 Precautions:\n  • meditation\n  • reduce stress")
}

func TestDeleteRefreshesHistory(t *testing.T) {
	fb := &fakeBackend{entries: []domain.ChatSummary{{ID: "1"}}}
	s, rec := newSession(t, fb)

	s.Delete(context.Background(), "1")

	assert.Equal(t, []string{"1"}, fb.deleted)
	require.Len(t, rec.msgs, 2)
	assert.Equal(t, msgDeleted, rec.msgs[0].Text)
	assert.Equal(t, conversation.KindHistory, rec.msgs[1].Kind)
	assert.NotNil(t, rec.msgs[1].History)
	assert.Empty(t, rec.msgs[1].History)
}

func TestDeleteFailure(t *testing.T) {
	s, rec := newSession(t, &fakeBackend{deleteErr: errors.New("nope")})
	s.Delete(context.Background(), "1")
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, msgDeleteFailed, rec.msgs[0].Text)
}

func TestReportBeforeDiagnosis(t *testing.T) {
	s, _ := newSession(t, &fakeBackend{})
	_, err := s.ReportText()
	assert.ErrorIs(t, err, report.ErrNoDiagnosis)
}

func TestSaveReportAfterDiagnosis(t *testing.T) {
	s, _ := newSession(t, &fakeBackend{})
	diagnose(t, s)

	text, err := s.ReportText()
	require.NoError(t, err)
	assert.Contains(t, text, "Primary Disease: Migraine")

	path, err := s.SaveReport(t.TempDir())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(data))
}

func TestMessagesCarryControllerState(t *testing.T) {
	s, rec := newSession(t, &fakeBackend{})
	s.Input(context.Background(), "exit")
	rec.reset()

	s.Clear()
	require.NotNil(t, rec.msgs[0].State)
	assert.Equal(t, conversation.StateAwaitingDays, *rec.msgs[0].State)
}

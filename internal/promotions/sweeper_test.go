package promotions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakePromoStore struct {
	rows    map[string]*Promotion
	listErr error
}

func (f *fakePromoStore) DueToStart(_ context.Context, now time.Time) ([]Promotion, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Promotion
	for _, p := range f.rows {
		if p.Status == StatusScheduled && !p.StartDate.After(now) &&
			!p.IsProcessing && !p.IsCompleted && !p.EmailSent {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePromoStore) DueToEnd(_ context.Context, now time.Time) ([]Promotion, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Promotion
	for _, p := range f.rows {
		if p.Status == StatusActiveScheduled && !p.EndDate.After(now) &&
			!p.IsProcessing && !p.EmailSent {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePromoStore) ClaimStart(_ context.Context, id string) (bool, error) {
	p := f.rows[id]
	if p.IsProcessing {
		return false, nil
	}
	p.IsProcessing = true
	p.Status = StatusActiveScheduled
	return true, nil
}

func (f *fakePromoStore) FinishStart(_ context.Context, id string) error {
	f.rows[id].IsProcessing = false
	return nil
}

func (f *fakePromoStore) ClaimEnd(_ context.Context, id string) (bool, error) {
	p := f.rows[id]
	if p.IsProcessing || p.EmailSent {
		return false, nil
	}
	p.IsProcessing = true
	p.EmailSent = true
	return true, nil
}

func (f *fakePromoStore) CompleteEnd(_ context.Context, id string) error {
	p := f.rows[id]
	p.Status = StatusUnavailable
	p.IsCompleted = true
	p.IsProcessing = false
	return nil
}

type fakeMailer struct {
	sent []string // subjects
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, subject)
	return nil
}

type fakeTemplates struct{}

func (fakeTemplates) Render(_ context.Context, name string, data map[string]any) (string, string, error) {
	return name, "<p>" + data["Name"].(string) + "</p>", nil
}

type fakeNotifier struct{ count int }

func (n *fakeNotifier) NotifyAdmins(context.Context, string, string) error {
	n.count++
	return nil
}

func scheduled(id string, start time.Time) *Promotion {
	return &Promotion{ID: id, Name: "Promo " + id, Status: StatusScheduled,
		StartDate: start, EndDate: start.AddDate(0, 1, 0)}
}

func running(id string, end time.Time) *Promotion {
	return &Promotion{ID: id, Name: "Promo " + id, Status: StatusActiveScheduled,
		StartDate: end.AddDate(0, -1, 0), EndDate: end}
}

func newSweeper(store *fakePromoStore, m *fakeMailer, n *fakeNotifier) *Sweeper {
	return &Sweeper{
		Store:      store,
		Mailer:     m,
		Templates:  fakeTemplates{},
		Notifier:   n,
		StoreEmail: "loja@example.com",
		Now:        func() time.Time { return sweepNow },
	}
}

func TestStartSweepActivatesDuePromotion(t *testing.T) {
	store := &fakePromoStore{rows: map[string]*Promotion{
		"p1": scheduled("p1", sweepNow.Add(-time.Hour)),
	}}
	m := &fakeMailer{}
	n := &fakeNotifier{}

	require.NoError(t, newSweeper(store, m, n).RunStartSweep(context.Background()))

	p := store.rows["p1"]
	assert.Equal(t, StatusActiveScheduled, p.Status)
	assert.False(t, p.IsProcessing)
	assert.False(t, p.IsCompleted)
	// activation never flips email_sent (only the end sweep does)
	assert.False(t, p.EmailSent)
	assert.Equal(t, []string{TplPromotionStarted}, m.sent)
	assert.Equal(t, 1, n.count)
}

func TestEndSweepDeactivatesDuePromotion(t *testing.T) {
	store := &fakePromoStore{rows: map[string]*Promotion{
		"p1": running("p1", sweepNow.Add(-time.Hour)),
	}}
	m := &fakeMailer{}

	require.NoError(t, newSweeper(store, m, &fakeNotifier{}).RunEndSweep(context.Background()))

	p := store.rows["p1"]
	assert.Equal(t, StatusUnavailable, p.Status)
	assert.True(t, p.IsCompleted)
	assert.True(t, p.EmailSent)
	assert.False(t, p.IsProcessing)
	assert.Equal(t, []string{TplPromotionEnded}, m.sent)
}

func TestEndSweepCompletesEvenWhenEmailFails(t *testing.T) {
	store := &fakePromoStore{rows: map[string]*Promotion{
		"p1": running("p1", sweepNow.Add(-time.Hour)),
	}}
	m := &fakeMailer{fail: true}

	require.NoError(t, newSweeper(store, m, &fakeNotifier{}).RunEndSweep(context.Background()))

	p := store.rows["p1"]
	assert.Equal(t, StatusUnavailable, p.Status)
	assert.True(t, p.IsCompleted)
	assert.True(t, p.EmailSent)
	assert.False(t, p.IsProcessing)
	assert.Empty(t, m.sent)
}

func TestSweepsLeaveNonMatchingRowsAlone(t *testing.T) {
	future := scheduled("future", sweepNow.Add(time.Hour))
	claimed := scheduled("claimed", sweepNow.Add(-time.Hour))
	claimed.IsProcessing = true
	done := running("done", sweepNow.Add(-time.Hour))
	done.EmailSent = true

	store := &fakePromoStore{rows: map[string]*Promotion{
		"future": future, "claimed": claimed, "done": done,
	}}
	m := &fakeMailer{}
	sw := newSweeper(store, m, &fakeNotifier{})

	require.NoError(t, sw.RunStartSweep(context.Background()))
	require.NoError(t, sw.RunEndSweep(context.Background()))

	assert.Equal(t, StatusScheduled, future.Status)
	assert.Equal(t, StatusScheduled, claimed.Status)
	assert.True(t, claimed.IsProcessing)
	assert.Equal(t, StatusActiveScheduled, done.Status)
	assert.False(t, done.IsCompleted)
	assert.Empty(t, m.sent)
}

func TestStartSweepEmailFailureDoesNotAbortOthers(t *testing.T) {
	store := &fakePromoStore{rows: map[string]*Promotion{
		"p1": scheduled("p1", sweepNow.Add(-2*time.Hour)),
		"p2": scheduled("p2", sweepNow.Add(-time.Hour)),
	}}
	m := &fakeMailer{fail: true}

	require.NoError(t, newSweeper(store, m, &fakeNotifier{}).RunStartSweep(context.Background()))

	for _, id := range []string{"p1", "p2"} {
		p := store.rows[id]
		assert.Equal(t, StatusActiveScheduled, p.Status, id)
		assert.False(t, p.IsProcessing, id)
	}
}

func TestSweepEndsEarlyOnStoreFailure(t *testing.T) {
	store := &fakePromoStore{listErr: errors.New("pg: connection refused")}
	m := &fakeMailer{}

	err := newSweeper(store, m, &fakeNotifier{}).RunStartSweep(context.Background())
	assert.Error(t, err)
	assert.Empty(t, m.sent)
}

type deniedLock struct{}

func (deniedLock) Acquire(context.Context, string) (bool, error) { return false, nil }
func (deniedLock) Release(context.Context, string)               {}

func TestSweepSkipsPassWhenLockHeld(t *testing.T) {
	store := &fakePromoStore{rows: map[string]*Promotion{
		"p1": scheduled("p1", sweepNow.Add(-time.Hour)),
	}}
	m := &fakeMailer{}
	sw := newSweeper(store, m, &fakeNotifier{})
	sw.Lock = deniedLock{}

	require.NoError(t, sw.RunStartSweep(context.Background()))
	assert.Equal(t, StatusScheduled, store.rows["p1"].Status)
	assert.Empty(t, m.sent)
}

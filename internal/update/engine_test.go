package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/strength/internal/client"
	"github.com/starford/strength/internal/models"
	"github.com/starford/strength/internal/testutil"
)

// fakeTransport serves cards from memory. Requests for a gated card name
// block until the gate is closed.
type fakeTransport struct {
	mu      sync.Mutex
	cards   map[models.Key]models.Card
	lists   map[models.Section][]models.Card
	gates   map[string]chan struct{}
	patches []models.CardPatch
	creds   []client.Credential
}

func newFakeTransport(cards ...models.Card) *fakeTransport {
	f := &fakeTransport{
		cards: make(map[models.Key]models.Card),
		lists: make(map[models.Section][]models.Card),
		gates: make(map[string]chan struct{}),
	}
	for _, c := range cards {
		f.cards[c.Key()] = c
		f.lists[c.Section] = append(f.lists[c.Section], c)
	}
	return f
}

func (f *fakeTransport) gate(cardName string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[cardName] = ch
	return ch
}

func (f *fakeTransport) wait(cardName string) {
	f.mu.Lock()
	ch := f.gates[cardName]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func notFound(op string, section models.Section, cardName string) error {
	return &client.Error{Op: op, Section: section, CardName: cardName, StatusCode: http.StatusNotFound, Message: "not found"}
}

func (f *fakeTransport) Get(_ context.Context, cred client.Credential, section models.Section, cardName string) (models.Card, error) {
	f.wait(cardName)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
	c, ok := f.cards[models.Key{Section: section, CardName: cardName}]
	if !ok {
		return models.Card{}, notFound(client.OpGet, section, cardName)
	}
	return c, nil
}

func (f *fakeTransport) List(_ context.Context, cred client.Credential, section models.Section) ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
	cards, ok := f.lists[section]
	if !ok {
		return nil, notFound(client.OpList, section, "")
	}
	return append([]models.Card(nil), cards...), nil
}

func (f *fakeTransport) Patch(_ context.Context, cred client.Credential, section models.Section, cardName string, patch models.CardPatch) (models.Card, error) {
	f.wait(cardName)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
	f.patches = append(f.patches, patch)
	key := models.Key{Section: section, CardName: cardName}
	c, ok := f.cards[key]
	if !ok {
		return models.Card{}, notFound(client.OpPatch, section, cardName)
	}
	c = c.Merge(patch)
	f.cards[key] = c
	return c, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProgram(t *testing.T, tr Transport, opts ...Option) *Program {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	p := NewProgram(NewEngine(tr, opts...), client.Credential{}, nil)
	t.Cleanup(p.Close)
	return p
}

func squat() models.Card {
	return models.Card{
		Section:  models.SectionExercise,
		CardName: "Squat",
		Sets:     models.Int(5),
		Reps:     models.Int(5),
	}
}

func TestSelectCard(t *testing.T) {
	p := newTestProgram(t, newFakeTransport(testutil.BenchPress()))

	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
	p.Wait()

	m := p.Model()
	require.NotNil(t, m.SelectedCard)
	assert.Equal(t, testutil.BenchPress(), *m.SelectedCard)
}

func TestSelectFailureClearsSelection(t *testing.T) {
	p := newTestProgram(t, newFakeTransport(testutil.BenchPress()))

	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
	p.Wait()
	require.NotNil(t, p.Model().SelectedCard)

	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Nope"})
	p.Wait()
	assert.Nil(t, p.Model().SelectedCard)
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	tr := newFakeTransport(testutil.BenchPress())
	p := newTestProgram(t, tr)

	var got models.Card
	var failed error
	done := make(chan struct{})
	p.Dispatch(UpdateCard{
		Section:   models.SectionExercise,
		CardName:  "Bench Press",
		Sets:      models.Some(4),
		OnSuccess: func(c models.Card) { got = c; close(done) },
		OnFailure: func(err error) { failed = err; close(done) },
	})
	p.Wait()
	<-done

	require.NoError(t, failed)
	require.Len(t, tr.patches, 1)
	assert.Equal(t, []string{"sets"}, tr.patches[0].Fields())

	assert.Equal(t, 4, *got.Sets)
	assert.Equal(t, 10, *got.Reps)
	assert.Equal(t, "barbell", *got.Equipment)

	m := p.Model()
	require.NotNil(t, m.SelectedCard)
	assert.Equal(t, got, *m.SelectedCard)
}

func TestUpdateFailureLeavesModel(t *testing.T) {
	p := newTestProgram(t, newFakeTransport(testutil.BenchPress()))

	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
	p.Wait()
	before := p.Model()

	var failed error
	p.Dispatch(UpdateCard{
		Section:   models.SectionExercise,
		CardName:  "Missing",
		Reps:      models.Some(8),
		OnSuccess: func(models.Card) { t.Error("unexpected success") },
		OnFailure: func(err error) { failed = err },
	})
	p.Wait()

	require.Error(t, failed)
	assert.True(t, client.IsNotFound(failed))
	assert.Equal(t, before, p.Model())
}

func TestUpdateWithoutCallbacks(t *testing.T) {
	p := newTestProgram(t, newFakeTransport(testutil.BenchPress()))

	p.Dispatch(UpdateCard{Section: models.SectionExercise, CardName: "Missing", Sets: models.Some(1)})
	p.Dispatch(UpdateCard{Section: models.SectionExercise, CardName: "Bench Press", Reps: models.Some(12)})
	p.Wait()

	m := p.Model()
	require.NotNil(t, m.SelectedCard)
	assert.Equal(t, 12, *m.SelectedCard.Reps)
}

func TestLoadSection(t *testing.T) {
	p := newTestProgram(t, newFakeTransport(testutil.BenchPress(), squat()))

	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Wait()

	cards, ok := p.Model().Cards(models.SectionExercise)
	require.True(t, ok)
	require.Len(t, cards, 2)
	assert.Equal(t, "Bench Press", cards[0].CardName)
	assert.Equal(t, "Squat", cards[1].CardName)
}

func TestLoadSectionIdempotent(t *testing.T) {
	p := newTestProgram(t, newFakeTransport(testutil.BenchPress()))

	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Wait()
	first := p.Model()

	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Wait()
	assert.Equal(t, first, p.Model())
}

func TestLoadSectionEmptyList(t *testing.T) {
	tr := newFakeTransport()
	tr.lists[models.SectionRecovery] = []models.Card{}
	p := newTestProgram(t, tr)

	p.Dispatch(LoadSection{Section: models.SectionRecovery})
	p.Wait()

	cards, ok := p.Model().Cards(models.SectionRecovery)
	require.True(t, ok)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestLoadSectionFailureKeepsCache(t *testing.T) {
	tr := newFakeTransport(testutil.BenchPress())
	p := newTestProgram(t, tr)

	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Wait()

	tr.mu.Lock()
	delete(tr.lists, models.SectionExercise)
	tr.mu.Unlock()

	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Dispatch(LoadSection{Section: models.SectionNutrition})
	p.Wait()

	m := p.Model()
	cards, ok := m.Cards(models.SectionExercise)
	require.True(t, ok)
	assert.Len(t, cards, 1)
	_, ok = m.Cards(models.SectionNutrition)
	assert.False(t, ok)
}

func TestDispatchDoesNotBlock(t *testing.T) {
	tr := newFakeTransport(testutil.BenchPress())
	release := tr.gate("Bench Press")
	p := newTestProgram(t, tr)

	returned := make(chan struct{})
	go func() {
		p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on the transport")
	}
	assert.Nil(t, p.Model().SelectedCard)

	close(release)
	p.Wait()
	assert.NotNil(t, p.Model().SelectedCard)
}

func TestDispatchPanicsOnUnknownMessage(t *testing.T) {
	e := NewEngine(newFakeTransport(), WithLogger(quietLogger()))
	apply := func(func(Model) Model) {}

	assert.Panics(t, func() { e.Dispatch(nil, apply, client.Credential{}) })
	assert.Panics(t, func() { e.Dispatch(&LoadSection{Section: models.SectionExercise}, apply, client.Credential{}) })
	assert.Panics(t, func() { e.Dispatch(LoadSection{Section: models.SectionExercise}, nil, client.Credential{}) })
}

// selectRace issues a slow select followed by a fast one and lets the slow
// one complete last.
func selectRace(t *testing.T, opts ...Option) Model {
	t.Helper()
	tr := newFakeTransport(testutil.BenchPress(), squat())
	release := tr.gate("Bench Press")
	p := newTestProgram(t, tr, opts...)

	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Squat"})

	assert.Eventually(t, func() bool {
		m := p.Model()
		return m.SelectedCard != nil && m.SelectedCard.CardName == "Squat"
	}, time.Second, 5*time.Millisecond)

	close(release)
	p.Wait()
	return p.Model()
}

func TestSelectLastCompletedWins(t *testing.T) {
	m := selectRace(t)
	require.NotNil(t, m.SelectedCard)
	assert.Equal(t, "Bench Press", m.SelectedCard.CardName)
}

func TestSelectFencing(t *testing.T) {
	m := selectRace(t, WithSelectFencing())
	require.NotNil(t, m.SelectedCard)
	assert.Equal(t, "Squat", m.SelectedCard.CardName)
}

func TestFencedUpdateStillReportsSuccess(t *testing.T) {
	tr := newFakeTransport(testutil.BenchPress(), squat())
	release := tr.gate("Bench Press")
	p := newTestProgram(t, tr, WithSelectFencing())

	var succeeded bool
	p.Dispatch(UpdateCard{
		Section:   models.SectionExercise,
		CardName:  "Bench Press",
		Sets:      models.Some(6),
		OnSuccess: func(models.Card) { succeeded = true },
	})
	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Squat"})
	assert.Eventually(t, func() bool { return p.Model().SelectedCard != nil }, time.Second, 5*time.Millisecond)

	close(release)
	p.Wait()

	assert.True(t, succeeded)
	assert.Equal(t, "Squat", p.Model().SelectedCard.CardName)
}

func TestConcurrentDispatches(t *testing.T) {
	tr := newFakeTransport(testutil.BenchPress())
	p := newTestProgram(t, tr)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Dispatch(LoadSection{Section: models.SectionExercise})
			p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
		}()
	}
	wg.Wait()
	p.Wait()

	m := p.Model()
	require.NotNil(t, m.SelectedCard)
	cards, ok := m.Cards(models.SectionExercise)
	require.True(t, ok)
	assert.Len(t, cards, 1)
}

func TestCredentialPassedThrough(t *testing.T) {
	tr := newFakeTransport(testutil.BenchPress())
	p := newTestProgram(t, tr)

	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Wait()
	p.SetCredential(client.Credential{Username: "ana", Token: "secret"})
	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Wait()

	require.Len(t, tr.creds, 2)
	assert.False(t, tr.creds[0].Authenticated())
	assert.Equal(t, "secret", tr.creds[1].Token)
}

package update

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/strength/internal/api"
	"github.com/starford/strength/internal/cardservice"
	"github.com/starford/strength/internal/client"
	"github.com/starford/strength/internal/models"
	"github.com/starford/strength/internal/testutil"
)

// TestProgramAgainstServer drives the full stack: engine, HTTP transport,
// REST surface and SQLite store.
func TestProgramAgainstServer(t *testing.T) {
	svc := cardservice.NewService(testutil.TestDB(t))
	testutil.SeedCards(t, svc, testutil.BenchPress())
	srv := httptest.NewServer(api.NewRouter(svc, true, "secret", nil))
	t.Cleanup(srv.Close)

	tr := client.New(srv.URL + "/cards")
	p := NewProgram(NewEngine(tr, WithLogger(quietLogger())), client.Credential{Username: "ana", Token: "secret"}, nil)
	t.Cleanup(p.Close)

	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
	p.Wait()

	m := p.Model()
	require.NotNil(t, m.SelectedCard)
	cards, ok := m.Cards(models.SectionExercise)
	require.True(t, ok)
	require.Len(t, cards, 1)

	var updated models.Card
	p.Dispatch(UpdateCard{
		Section:   models.SectionExercise,
		CardName:  "Bench Press",
		Reps:      models.Some(8),
		OnSuccess: func(c models.Card) { updated = c },
		OnFailure: func(err error) { t.Errorf("update failed: %v", err) },
	})
	p.Wait()

	assert.Equal(t, 3, *updated.Sets)
	assert.Equal(t, 8, *updated.Reps)
	assert.Equal(t, "chest", *updated.Targets)
	assert.Equal(t, 8, *p.Model().SelectedCard.Reps)

	// The section cache is only refreshed by an explicit reload.
	cards, _ = p.Model().Cards(models.SectionExercise)
	assert.Equal(t, 10, *cards[0].Reps)
	p.Dispatch(LoadSection{Section: models.SectionExercise})
	p.Wait()
	cards, _ = p.Model().Cards(models.SectionExercise)
	assert.Equal(t, 8, *cards[0].Reps)

	// An empty section is a 404 and leaves nothing cached.
	p.Dispatch(LoadSection{Section: models.SectionRecovery})
	p.Wait()
	_, ok = p.Model().Cards(models.SectionRecovery)
	assert.False(t, ok)

	// Dropping the credential makes selection fail and clears it.
	p.SetCredential(client.Credential{})
	p.Dispatch(SelectCard{Section: models.SectionExercise, CardName: "Bench Press"})
	p.Wait()
	assert.Nil(t, p.Model().SelectedCard)
}

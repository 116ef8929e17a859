package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/strength/internal/cardservice"
	"github.com/starford/strength/internal/models"
	"github.com/starford/strength/internal/testutil"
)

// testEnv sets up a temp SQLite store, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*cardservice.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*cardservice.Service, http.Handler) {
	t.Helper()
	svc := cardservice.NewService(testutil.TestDB(t))
	return svc, NewRouter(svc, authEnabled, token, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeCard(t *testing.T, w *httptest.ResponseRecorder) models.Card {
	t.Helper()
	var c models.Card
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode card: %v (body %s)", err, w.Body.String())
	}
	return c
}

func seedBenchPress(t *testing.T, svc *cardservice.Service) {
	t.Helper()
	if _, err := svc.CreateCard(context.Background(), testutil.BenchPress()); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestCreateAndGetCard(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/cards", testutil.BenchPress())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/cards/exercise/Bench%20Press", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	c := decodeCard(t, w)
	if c.CardName != "Bench Press" || *c.Sets != 3 || *c.Reps != 10 {
		t.Errorf("unexpected card: %+v", c)
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)

	w := do(t, router, http.MethodPost, "/cards", testutil.BenchPress())
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreateInvalid(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/cards", map[string]any{"section": "cardio", "cardName": "Row"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid section = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/cards", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestListSection(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)
	_, _ = svc.CreateCard(context.Background(), models.Card{Section: models.SectionExercise, CardName: "Squat"})

	w := do(t, router, http.MethodGet, "/cards/exercise", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var cards []models.Card
	if err := json.Unmarshal(w.Body.Bytes(), &cards); err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 || cards[0].CardName != "Bench Press" {
		t.Errorf("cards = %+v", cards)
	}

	w = do(t, router, http.MethodGet, "/cards/recovery", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("empty section = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodGet, "/cards/cardio", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown section = %d, want 404", w.Code)
	}
}

func TestListAll(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)
	_, _ = svc.CreateCard(context.Background(), models.Card{Section: models.SectionNutrition, CardName: "Oats"})

	w := do(t, router, http.MethodGet, "/cards", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("index status = %d", w.Code)
	}
	var cards []models.Card
	_ = json.Unmarshal(w.Body.Bytes(), &cards)
	if len(cards) != 2 {
		t.Errorf("index len = %d, want 2", len(cards))
	}
}

func TestGetCard_ScopedBySection(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)

	w := do(t, router, http.MethodGet, "/cards/equipment/Bench%20Press", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-section get = %d, want 404", w.Code)
	}
}

func TestUpdateCard_MergesOnlyPresentFields(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)

	w := do(t, router, http.MethodPatch, "/cards/exercise/Bench%20Press", map[string]any{"sets": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	c := decodeCard(t, w)
	if *c.Sets != 5 || *c.Reps != 10 || *c.Equipment != "barbell" || c.Description != "Flat barbell press" {
		t.Errorf("merged card = %+v", c)
	}

	w = do(t, router, http.MethodPut, "/cards/exercise/Bench%20Press", map[string]any{"reps": 8, "targets": "chest, triceps"})
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d", w.Code)
	}
	c = decodeCard(t, w)
	if *c.Sets != 5 || *c.Reps != 8 || *c.Targets != "chest, triceps" {
		t.Errorf("put card = %+v", c)
	}
}

func TestUpdateCard_IgnoresMistypedFields(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)

	w := do(t, router, http.MethodPatch, "/cards/exercise/Bench%20Press",
		`{"sets":"7","reps":12,"equipment":42,"section":"recovery","cardName":"Renamed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	c := decodeCard(t, w)
	if *c.Sets != 3 || *c.Reps != 12 || *c.Equipment != "barbell" {
		t.Errorf("card = %+v", c)
	}
	if c.Section != models.SectionExercise || c.CardName != "Bench Press" {
		t.Errorf("key fields must be immutable: %+v", c)
	}
}

func TestUpdateCard_Errors(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)

	w := do(t, router, http.MethodPatch, "/cards/exercise/Bench%20Press", `[1,2,3]`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("array body = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPatch, "/cards/exercise/Ghost", map[string]any{"sets": 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing card = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodPatch, "/cards/recovery/Bench%20Press", map[string]any{"sets": 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("wrong section = %d, want 404", w.Code)
	}
}

func TestPercentEncodedNames(t *testing.T) {
	svc, router := testEnv(t, "")
	name := "Push/Pull 50% Day"
	if _, err := svc.CreateCard(context.Background(), models.Card{Section: models.SectionExercise, CardName: name}); err != nil {
		t.Fatal(err)
	}

	w := do(t, router, http.MethodGet, "/cards/exercise/Push%2FPull%2050%25%20Day", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("encoded get = %d, body = %s", w.Code, w.Body.String())
	}
	if c := decodeCard(t, w); c.CardName != name {
		t.Errorf("card name = %q", c.CardName)
	}
}

func TestDeleteCard(t *testing.T) {
	svc, router := testEnv(t, "")
	seedBenchPress(t, svc)

	w := do(t, router, http.MethodDelete, "/cards/exercise/Bench%20Press", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/cards/exercise/Bench%20Press", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestDeleteCardByName(t *testing.T) {
	svc, router := testEnv(t, "")
	ctx := context.Background()
	_, _ = svc.CreateCard(ctx, models.Card{Section: models.SectionRecovery, CardName: "Sauna"})
	_, _ = svc.CreateCard(ctx, models.Card{Section: models.SectionExercise, CardName: "Kettlebell"})
	_, _ = svc.CreateCard(ctx, models.Card{Section: models.SectionEquipment, CardName: "Kettlebell"})

	w := do(t, router, http.MethodDelete, "/cards/Sauna", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete by name = %d, want 204", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/cards/Sauna", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing by name = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/cards/Kettlebell", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("ambiguous delete = %d, want 409", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	data, _ := json.Marshal(testutil.BenchPress())
	req := httptest.NewRequest(http.MethodPost, "/cards", bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	svc, router := testEnv(t, "secret123")
	seedBenchPress(t, svc)

	w := do(t, router, http.MethodPatch, "/cards/exercise/Bench%20Press", map[string]any{"sets": 9})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthed = %d, want 401", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("WWW-Authenticate"), "Bearer") {
		t.Errorf("missing WWW-Authenticate header")
	}
	c, _ := svc.GetCard(context.Background(), models.SectionExercise, "Bench Press")
	if *c.Sets != 3 {
		t.Errorf("rejected request reached the store: sets = %d", *c.Sets)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/cards", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func blockingSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE())

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

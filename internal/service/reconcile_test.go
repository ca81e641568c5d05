package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vibeflow/internal/domain"
	"vibeflow/internal/providers"
	"vibeflow/internal/providers/kie"
	"vibeflow/internal/providers/suno"
)

// fakeGenerationRepo mirrors the store's ApplyCallback contract: one atomic
// check-and-write per record, terminal states absorbing.
type fakeGenerationRepo struct {
	mu   sync.Mutex
	gens map[string]*domain.Generation
}

func newFakeGenerationRepo(seed ...*domain.Generation) *fakeGenerationRepo {
	repo := &fakeGenerationRepo{gens: make(map[string]*domain.Generation)}
	for _, gen := range seed {
		copied := *gen
		repo.gens[gen.ID] = &copied
	}
	return repo
}

func (f *fakeGenerationRepo) Create(_ context.Context, gen *domain.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *gen
	f.gens[gen.ID] = &copied
	return nil
}

func (f *fakeGenerationRepo) GetByID(_ context.Context, id string) (*domain.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gen, ok := f.gens[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *gen
	return &copied, nil
}

func (f *fakeGenerationRepo) ApplyCallback(_ context.Context, patch domain.CallbackPatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gen, ok := f.gens[patch.ID]
	if !ok || gen.Status.Terminal() {
		return false, nil
	}
	gen.Status = patch.Status
	if patch.ResultURL != "" {
		gen.ResultURL = patch.ResultURL
	}
	if patch.SecondaryMediaURL != "" {
		gen.SecondaryMediaURL = patch.SecondaryMediaURL
	}
	if patch.FailReason != "" {
		gen.FailReason = patch.FailReason
	}
	if patch.Title != "" {
		gen.Title = patch.Title
	}
	if patch.DurationSeconds != 0 {
		gen.DurationSeconds = patch.DurationSeconds
	}
	gen.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeGenerationRepo) ListRecentSuccessful(_ context.Context, limit int) ([]domain.Generation, error) {
	return nil, nil
}

func pendingGeneration(id string, kind domain.GenerationKind) *domain.Generation {
	now := time.Now().UTC().Add(-time.Minute)
	return &domain.Generation{
		ID:        id,
		OwnerID:   "user-1",
		Kind:      kind,
		Prompt:    "test prompt",
		Status:    domain.GenerationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testAdapters(t *testing.T) []providers.Adapter {
	t.Helper()
	sunoClient, err := suno.NewClient(suno.Options{APIKey: "test"})
	if err != nil {
		t.Fatalf("suno.NewClient: %v", err)
	}
	kieClient, err := kie.NewClient(kie.Options{APIKey: "test"})
	if err != nil {
		t.Fatalf("kie.NewClient: %v", err)
	}
	// Music first: its shape is the more specific of the two.
	return []providers.Adapter{sunoClient, kieClient}
}

func newTestReconciler(t *testing.T, repo *fakeGenerationRepo) *ReconcileService {
	t.Helper()
	return NewReconcileService(repo, testAdapters(t), zerolog.New(io.Discard))
}

func mustGet(t *testing.T, repo *fakeGenerationRepo, id string) *domain.Generation {
	t.Helper()
	gen, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s): %v", id, err)
	}
	return gen
}

func TestReconcileVideoSuccessWithStringifiedResult(t *testing.T) {
	repo := newFakeGenerationRepo(pendingGeneration("task-x", domain.GenerationKindVideo))
	svc := newTestReconciler(t, repo)

	payload := `{"code":200,"msg":"ok","data":{"taskId":"task-x","state":"success","resultJson":"{\"resultUrls\":[\"https://cdn/x.mp4\"]}"}}`
	if err := svc.Reconcile(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	gen := mustGet(t, repo, "task-x")
	if gen.Status != domain.GenerationStatusSuccess {
		t.Fatalf("status = %q, want success", gen.Status)
	}
	if gen.ResultURL != "https://cdn/x.mp4" {
		t.Fatalf("result_url = %q, want https://cdn/x.mp4", gen.ResultURL)
	}
}

func TestReconcileVideoFailRecordsReason(t *testing.T) {
	repo := newFakeGenerationRepo(pendingGeneration("task-x", domain.GenerationKindVideo))
	svc := newTestReconciler(t, repo)

	payload := `{"data":{"taskId":"task-x","state":"fail","failMsg":"content policy violation"}}`
	if err := svc.Reconcile(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	gen := mustGet(t, repo, "task-x")
	if gen.Status != domain.GenerationStatusFail {
		t.Fatalf("status = %q, want fail", gen.Status)
	}
	if gen.FailReason != "content policy violation" {
		t.Fatalf("fail_reason = %q", gen.FailReason)
	}
	if gen.ResultURL != "" {
		t.Fatalf("result_url = %q, want empty on fail", gen.ResultURL)
	}
}

func TestReconcileMusicTwoPhaseEndsOnFinalURL(t *testing.T) {
	repo := newFakeGenerationRepo(pendingGeneration("T1", domain.GenerationKindMusic))
	svc := newTestReconciler(t, repo)

	text := `{"data":{"callbackType":"text","task_id":"T1","data":[{"stream_audio_url":"https://cdn/s1","image_url":"https://cdn/cover.png"}]}}`
	if err := svc.Reconcile(context.Background(), []byte(text)); err != nil {
		t.Fatalf("Reconcile text phase: %v", err)
	}
	gen := mustGet(t, repo, "T1")
	if gen.Status != domain.GenerationStatusWaiting {
		t.Fatalf("status after text = %q, want waiting", gen.Status)
	}
	if gen.ResultURL != "" {
		t.Fatalf("result_url after text = %q, want empty", gen.ResultURL)
	}
	if gen.SecondaryMediaURL != "https://cdn/cover.png" {
		t.Fatalf("secondary url = %q", gen.SecondaryMediaURL)
	}

	complete := `{"data":{"callbackType":"complete","task_id":"T1","data":[{"audio_url":"https://cdn/final1","stream_audio_url":"https://cdn/s1","title":"Night Drive","duration":182.5}]}}`
	if err := svc.Reconcile(context.Background(), []byte(complete)); err != nil {
		t.Fatalf("Reconcile complete phase: %v", err)
	}
	gen = mustGet(t, repo, "T1")
	if gen.Status != domain.GenerationStatusSuccess {
		t.Fatalf("status after complete = %q, want success", gen.Status)
	}
	if gen.ResultURL != "https://cdn/final1" {
		t.Fatalf("result_url = %q, want final render, not the stream url", gen.ResultURL)
	}
	if gen.Title != "Night Drive" || gen.DurationSeconds != 182.5 {
		t.Fatalf("extras not kept: title=%q duration=%v", gen.Title, gen.DurationSeconds)
	}
}

func TestReconcileUnknownTaskIsDiscardedQuietly(t *testing.T) {
	repo := newFakeGenerationRepo()
	svc := newTestReconciler(t, repo)

	payload := `{"data":{"taskId":"never-admitted","state":"success","resultJson":"{\"resultUrls\":[\"https://cdn/x.mp4\"]}"}}`
	if err := svc.Reconcile(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "never-admitted"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no record to be created, got err=%v", err)
	}
}

func TestReconcileTerminalStateIsAbsorbing(t *testing.T) {
	repo := newFakeGenerationRepo(pendingGeneration("task-x", domain.GenerationKindVideo))
	svc := newTestReconciler(t, repo)

	fail := `{"data":{"taskId":"task-x","state":"fail","failMsg":"render crashed"}}`
	if err := svc.Reconcile(context.Background(), []byte(fail)); err != nil {
		t.Fatalf("first fail: %v", err)
	}
	first := mustGet(t, repo, "task-x")

	// Duplicated delivery, then a conflicting late success: both no-ops.
	if err := svc.Reconcile(context.Background(), []byte(fail)); err != nil {
		t.Fatalf("duplicate fail: %v", err)
	}
	late := `{"data":{"taskId":"task-x","state":"success","resultJson":"{\"resultUrls\":[\"https://cdn/late.mp4\"]}"}}`
	if err := svc.Reconcile(context.Background(), []byte(late)); err != nil {
		t.Fatalf("late success: %v", err)
	}

	final := mustGet(t, repo, "task-x")
	if final.Status != domain.GenerationStatusFail {
		t.Fatalf("status = %q, want fail to stick", final.Status)
	}
	if final.ResultURL != "" {
		t.Fatalf("result_url = %q, want empty", final.ResultURL)
	}
	if !final.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("updated_at moved on discarded delivery: %v vs %v", final.UpdatedAt, first.UpdatedAt)
	}
}

func TestReconcileSamePayloadTwiceMatchesOnce(t *testing.T) {
	payload := `{"data":{"taskId":"task-x","state":"success","resultJson":"{\"resultUrls\":[\"https://cdn/x.mp4\"]}"}}`

	once := newFakeGenerationRepo(pendingGeneration("task-x", domain.GenerationKindVideo))
	svcOnce := newTestReconciler(t, once)
	if err := svcOnce.Reconcile(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	twice := newFakeGenerationRepo(pendingGeneration("task-x", domain.GenerationKindVideo))
	svcTwice := newTestReconciler(t, twice)
	for i := 0; i < 2; i++ {
		if err := svcTwice.Reconcile(context.Background(), []byte(payload)); err != nil {
			t.Fatalf("Reconcile #%d: %v", i+1, err)
		}
	}

	a := mustGet(t, once, "task-x")
	b := mustGet(t, twice, "task-x")
	if a.Status != b.Status || a.ResultURL != b.ResultURL || a.FailReason != b.FailReason {
		t.Fatalf("double delivery diverged: %+v vs %+v", a, b)
	}
}

func TestReconcileUnrecognizedShapeIsMalformed(t *testing.T) {
	svc := newTestReconciler(t, newFakeGenerationRepo())

	for _, payload := range []string{
		`{"hello":"world"}`,
		`not json at all`,
		`{"data":{"callbackType":"unknown-phase","task_id":"T1"}}`,
	} {
		err := svc.Reconcile(context.Background(), []byte(payload))
		if !errors.Is(err, domain.ErrMalformedCallback) {
			t.Fatalf("payload %q: err = %v, want ErrMalformedCallback", payload, err)
		}
	}
}

func TestReconcileMissingCorrelationIDIsMalformed(t *testing.T) {
	svc := newTestReconciler(t, newFakeGenerationRepo())

	err := svc.Reconcile(context.Background(), []byte(`{"data":{"state":"success"}}`))
	if !errors.Is(err, domain.ErrMalformedCallback) {
		t.Fatalf("err = %v, want ErrMalformedCallback", err)
	}
}

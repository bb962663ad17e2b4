package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/kcportal/internal/catalog"
	"github.com/JonMunkholm/kcportal/internal/review"
	"github.com/JonMunkholm/kcportal/internal/workflow"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, intake workflow.Intake, opts Options) *Service {
	t.Helper()

	records, err := catalog.DefaultSeed()
	if err != nil {
		t.Fatalf("DefaultSeed: %v", err)
	}
	cat, err := catalog.New(records, 6)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	queue, err := review.DefaultQueue()
	if err != nil {
		t.Fatalf("DefaultQueue: %v", err)
	}

	opts.Session = workflow.SessionConfig{
		Limits:     workflow.DefaultLimits(),
		Simulation: workflow.SimulationConfig{Step: 50, Interval: time.Millisecond},
	}
	opts.Now = func() time.Time { return fixedNow }
	if opts.DraftWait == 0 {
		opts.DraftWait = 20 * time.Millisecond
	}

	svc, err := NewService(cat, queue, intake, opts)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func waitUploaded(t *testing.T, svc *Service, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, err := svc.Draft(id)
		if err != nil {
			t.Fatalf("Draft: %v", err)
		}
		if !v.Draft.Uploading && v.Draft.UploadProgress == 100 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("upload did not finish")
}

// completeDraft drives a new draft to the review step.
func completeDraft(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()

	v, err := svc.NewDraft(ctx)
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	id := v.ID

	if _, err := svc.AddFiles(id, []workflow.File{{Name: "scan_001.png", Size: 2048}}); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	waitUploaded(t, svc, id)
	if _, err := svc.Next(id); err != nil {
		t.Fatalf("Next from files: %v", err)
	}

	_, err = svc.UpdateMetadata(id, workflow.Metadata{
		Title:       "Corneal Topography Maps",
		Description: "Pentacam maps",
		DataType:    catalog.TypeTopography,
		FileFormat:  catalog.FormatPNG,
		Author:      "Dr. Sarah Chen",
		Institution: "Johns Hopkins University",
		Email:       "s.chen@example.org",
	})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if _, err := svc.Next(id); err != nil {
		t.Fatalf("Next from metadata: %v", err)
	}

	_, err = svc.UpdateCompliance(id, workflow.Compliance{
		Deidentified: true, EthicsApproved: true, DataRights: true, LicenseAgreement: true,
	})
	if err != nil {
		t.Fatalf("UpdateCompliance: %v", err)
	}
	v, err = svc.Next(id)
	if err != nil {
		t.Fatalf("Next from compliance: %v", err)
	}
	if v.Draft.Step != workflow.StepReview {
		t.Fatalf("Step = %v, want review", v.Draft.Step)
	}
	return id
}

func TestNewService_RequiresDependencies(t *testing.T) {
	cat, _ := catalog.New(nil, 6)
	queue, _ := review.NewQueue(nil, nil)

	if _, err := NewService(nil, queue, nil, Options{}); err == nil {
		t.Error("expected error for nil catalog")
	}
	if _, err := NewService(cat, nil, nil, Options{}); err == nil {
		t.Error("expected error for nil queue")
	}
}

func TestService_DraftLifecycle(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	ctx := context.Background()

	v, err := svc.NewDraft(ctx)
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if v.ID == "" {
		t.Error("empty draft id")
	}
	if v.StepName != "File Upload" {
		t.Errorf("StepName = %q, want %q", v.StepName, "File Upload")
	}
	if v.CanAdvance {
		t.Error("empty draft should not advance")
	}
	if len(v.Blocking) == 0 {
		t.Error("expected blocking fields on empty draft")
	}

	if got := svc.Health().Drafts; got != 1 {
		t.Errorf("Health().Drafts = %d, want 1", got)
	}

	if err := svc.DiscardDraft(ctx, v.ID); err != nil {
		t.Fatalf("DiscardDraft: %v", err)
	}
	if _, err := svc.Draft(v.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("Draft after discard: got %v, want ErrDraftNotFound", err)
	}
	if err := svc.DiscardDraft(ctx, v.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("second DiscardDraft: got %v, want ErrDraftNotFound", err)
	}
	if got := svc.Health().Limiter.Active; got != 0 {
		t.Errorf("Limiter.Active = %d, want 0", got)
	}
}

func TestService_UnknownDraft(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	if _, err := svc.AddFiles("missing", []workflow.File{{Name: "a.png", Size: 1}}); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("AddFiles: got %v, want ErrDraftNotFound", err)
	}
	if _, err := svc.Next("missing"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("Next: got %v, want ErrDraftNotFound", err)
	}
	if _, _, err := svc.SubscribeProgress("missing"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("SubscribeProgress: got %v, want ErrDraftNotFound", err)
	}
	if _, err := svc.Submit(context.Background(), "missing"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("Submit: got %v, want ErrDraftNotFound", err)
	}
}

func TestService_NextBlockedReturnsView(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	v, err := svc.NewDraft(context.Background())
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}

	view, err := svc.Next(v.ID)
	var ve *workflow.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Next: got %v, want *ValidationError", err)
	}
	if view.ID != v.ID || view.Draft.Step != workflow.StepUploadFiles {
		t.Errorf("view = %+v, want draft on step one", view)
	}
}

func TestService_DraftLimit(t *testing.T) {
	svc := newTestService(t, nil, Options{MaxDrafts: 1})
	ctx := context.Background()

	first, err := svc.NewDraft(ctx)
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if _, err := svc.NewDraft(ctx); !errors.Is(err, ErrTooManyDrafts) {
		t.Fatalf("second NewDraft: got %v, want ErrTooManyDrafts", err)
	}

	if err := svc.DiscardDraft(ctx, first.ID); err != nil {
		t.Fatalf("DiscardDraft: %v", err)
	}
	if _, err := svc.NewDraft(ctx); err != nil {
		t.Errorf("NewDraft after discard: %v", err)
	}
}

func TestService_SubmitAudited(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	id := completeDraft(t, svc)

	ctx := ContextWithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.7", UserAgent: "test"})
	receipt, err := svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.SubmissionID == "" {
		t.Error("empty submission id")
	}

	v, err := svc.Draft(id)
	if err != nil {
		t.Fatalf("Draft after submit: %v", err)
	}
	if v.Draft.Step != workflow.StepUploadFiles || len(v.Draft.Files) != 0 {
		t.Errorf("draft not reset: %+v", v.Draft)
	}

	entries := svc.AuditLog(AuditLogFilter{Action: ActionSubmit})
	if len(entries) != 1 {
		t.Fatalf("submit audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.SubmissionID != receipt.SubmissionID {
		t.Errorf("SubmissionID = %q, want %q", e.SubmissionID, receipt.SubmissionID)
	}
	if e.IPAddress != "10.0.0.7" {
		t.Errorf("IPAddress = %q, want %q", e.IPAddress, "10.0.0.7")
	}
	if e.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want %q", e.Severity, SeverityHigh)
	}
}

func TestService_SubmitFailureAudited(t *testing.T) {
	refuse := workflow.IntakeFunc(func(context.Context, workflow.Submission) (workflow.Receipt, error) {
		return workflow.Receipt{}, &workflow.IntakeError{Code: workflow.IntakeUnavailable, Message: "broker down"}
	})
	svc := newTestService(t, refuse, Options{})
	id := completeDraft(t, svc)

	_, err := svc.Submit(context.Background(), id)
	var ie *workflow.IntakeError
	if !errors.As(err, &ie) {
		t.Fatalf("Submit: got %v, want *IntakeError", err)
	}

	v, err := svc.Draft(id)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if v.Draft.Step != workflow.StepReview {
		t.Errorf("Step = %v, want review (draft kept)", v.Draft.Step)
	}

	entries := svc.AuditLog(AuditLogFilter{Action: ActionSubmitFailed})
	if len(entries) != 1 {
		t.Fatalf("submit_failed entries = %d, want 1", len(entries))
	}
	if entries[0].Outcome != string(workflow.IntakeUnavailable) {
		t.Errorf("Outcome = %q, want %q", entries[0].Outcome, workflow.IntakeUnavailable)
	}
}

func TestService_Review(t *testing.T) {
	svc := newTestService(t, nil, Options{Reviewer: "Dr. Admin"})
	ctx := context.Background()

	out, err := svc.Review(ctx, review.Decision{DatasetID: 1, Action: review.ActionApprove})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if out.Status != review.StatusApproved {
		t.Errorf("Status = %q, want %q", out.Status, review.StatusApproved)
	}
	if out.Reviewer != "Dr. Admin" {
		t.Errorf("Reviewer = %q, want %q", out.Reviewer, "Dr. Admin")
	}
	if _, err := svc.PendingEntry(1); !errors.Is(err, review.ErrNotFound) {
		t.Errorf("PendingEntry after approve: got %v, want ErrNotFound", err)
	}
	if hist := svc.Reviewed(); len(hist) == 0 || hist[0].ID != 1 {
		t.Errorf("Reviewed()[0] = %+v, want dataset 1", hist)
	}

	entries := svc.AuditLog(AuditLogFilter{Action: ActionReview})
	if len(entries) != 1 || entries[0].DatasetID != 1 || entries[0].Actor != "Dr. Admin" {
		t.Errorf("review audit = %+v", entries)
	}

	_, err = svc.Review(ctx, review.Decision{DatasetID: 2, Action: review.ActionReject})
	if !errors.Is(err, review.ErrCommentRequired) {
		t.Errorf("reject without comment: got %v, want ErrCommentRequired", err)
	}
	if got := len(svc.AuditLog(AuditLogFilter{Action: ActionReview})); got != 1 {
		t.Errorf("failed review was audited: %d entries", got)
	}
}

func TestService_Catalog(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	view := svc.Browse(catalog.NewFilterState(), catalog.SortNewest)
	if view.Total != svc.Health().Datasets {
		t.Errorf("Total = %d, want %d", view.Total, svc.Health().Datasets)
	}
	if svc.PageSize() != 6 {
		t.Errorf("PageSize = %d, want 6", svc.PageSize())
	}
	if _, err := svc.Dataset(-1); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Dataset(-1): got %v, want ErrNotFound", err)
	}
}

func TestAuditTrail_Bounded(t *testing.T) {
	trail := newAuditTrail(2)
	trail.append(AuditEntry{ID: "a", Action: ActionDraftCreate})
	trail.append(AuditEntry{ID: "b", Action: ActionSubmit})
	trail.append(AuditEntry{ID: "c", Action: ActionDraftCreate})

	got := trail.list(AuditLogFilter{})
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("list = %+v, want [c b]", got)
	}
	if got := trail.list(AuditLogFilter{Limit: 1}); len(got) != 1 || got[0].ID != "c" {
		t.Errorf("limited list = %+v", got)
	}
	if got := trail.list(AuditLogFilter{Action: ActionSubmit}); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("filtered list = %+v", got)
	}
}

func TestSessionStore_ExpiryClosesSession(t *testing.T) {
	store := newSessionStore(20*time.Millisecond, 5*time.Millisecond)
	released := make(chan struct{})
	sess := workflow.NewSession(workflow.SessionConfig{})
	store.put("d1", &draftEntry{session: sess, release: func() { close(released) }})

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("expired draft was not released")
	}
	if !sess.Closed() {
		t.Error("expired session not closed")
	}
	if _, ok := store.get("d1"); ok {
		t.Error("expired session still returned")
	}
}

func TestSessionStore_CloseAllClosesExpired(t *testing.T) {
	// Janitor interval far beyond the test so only closeAll can evict.
	store := newSessionStore(10*time.Millisecond, time.Hour)
	var released []string
	live := workflow.NewSession(workflow.SessionConfig{})
	stale := workflow.NewSession(workflow.SessionConfig{})

	store.put("stale", &draftEntry{session: stale, release: func() { released = append(released, "stale") }})
	time.Sleep(30 * time.Millisecond)
	store.put("live", &draftEntry{session: live, release: func() { released = append(released, "live") }})

	store.closeAll()

	if !stale.Closed() {
		t.Error("expired session not closed on shutdown")
	}
	if !live.Closed() {
		t.Error("live session not closed on shutdown")
	}
	if len(released) != 2 {
		t.Errorf("released = %v, want both slots", released)
	}
	if n := store.count(); n != 0 {
		t.Errorf("count() = %d, want 0", n)
	}
}

func TestService_WaitForUploads(t *testing.T) {
	svc := newTestService(t, nil, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := svc.WaitForUploads(ctx); err != nil {
		t.Fatalf("WaitForUploads() with no drafts error = %v", err)
	}

	v, err := svc.NewDraft(ctx)
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if _, err := svc.AddFiles(v.ID, []workflow.File{{Name: "a.png", Size: 10}, {Name: "b.png", Size: 10}}); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if _, err := svc.AddFiles(v.ID, []workflow.File{{Name: "c.png", Size: 10}}); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}

	if err := svc.WaitForUploads(ctx); err != nil {
		t.Fatalf("WaitForUploads() error = %v", err)
	}
	got, err := svc.Draft(v.ID)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if got.Draft.Uploading || got.Draft.UploadProgress != 100 {
		t.Errorf("after wait: uploading=%v progress=%d", got.Draft.Uploading, got.Draft.UploadProgress)
	}
}

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		action AuditAction
		want   AuditSeverity
	}{
		{ActionSubmit, SeverityHigh},
		{ActionReview, SeverityHigh},
		{ActionSubmitFailed, SeverityMedium},
		{ActionDraftDiscard, SeverityMedium},
		{ActionDraftCreate, SeverityLow},
	}
	for _, tt := range tests {
		if got := determineSeverity(tt.action); got != tt.want {
			t.Errorf("determineSeverity(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

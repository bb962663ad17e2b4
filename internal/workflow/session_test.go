package workflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitUploads(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.WaitUploads(ctx); err != nil {
		t.Fatalf("WaitUploads() error = %v", err)
	}
}

// reachReview drives s from an empty draft to the review step.
func reachReview(t *testing.T, s *Session, f *tickerFactory) {
	t.Helper()
	if err := s.AddFiles(File{Name: "topography.png", Size: 2048}); err != nil {
		t.Fatalf("AddFiles() error = %v", err)
	}
	tk := f.next(t)
	tk.tick(t)
	tk.tick(t)
	waitUploads(t, s)

	steps := []func() error{
		func() error { return s.SetMetadata(fullMetadata()) },
		func() error { return s.SetCompliance(fullCompliance()) },
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next() from step 1 error = %v", err)
	}
	for _, set := range steps {
		if err := set(); err != nil {
			t.Fatalf("update error = %v", err)
		}
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	if got := s.Draft().Step; got != StepReview {
		t.Fatalf("Step = %v, want %v", got, StepReview)
	}
}

func TestSession_EndToEnd(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 50)
	defer s.Close()

	if err := s.AddFiles(File{Name: "topography.png", Size: 2048}); err != nil {
		t.Fatalf("AddFiles() error = %v", err)
	}
	if _, err := s.Next(); err == nil {
		t.Fatal("Next() during upload should be blocked")
	}

	tk := f.next(t)
	tk.tick(t)
	tk.tick(t)
	waitUploads(t, s)

	d := s.Draft()
	if d.Uploading || d.UploadProgress != 100 {
		t.Fatalf("after upload: uploading = %v progress = %d", d.Uploading, d.UploadProgress)
	}
	if !CanAdvance(StepUploadFiles, d) {
		t.Fatal("CanAdvance(1) = false after upload completed")
	}

	if step, err := s.Next(); err != nil || step != StepMetadata {
		t.Fatalf("Next() = (%v, %v), want metadata", step, err)
	}
	if err := s.SetMetadata(fullMetadata()); err != nil {
		t.Fatal(err)
	}
	if step, err := s.Next(); err != nil || step != StepCompliance {
		t.Fatalf("Next() = (%v, %v), want compliance", step, err)
	}
	if err := s.SetCompliance(fullCompliance()); err != nil {
		t.Fatal(err)
	}
	if step, err := s.Next(); err != nil || step != StepReview {
		t.Fatalf("Next() = (%v, %v), want review", step, err)
	}

	receipt, err := s.Submit(context.Background(), AcceptAll{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if receipt.Status != "received" || receipt.SubmissionID == "" {
		t.Errorf("receipt = %+v", receipt)
	}

	d = s.Draft()
	if d.Step != StepUploadFiles || len(d.Files) != 0 || d.Metadata.Title != "" || d.Compliance.Complete() {
		t.Errorf("draft not cleared after submit: %+v", d)
	}
}

func TestSession_BlockedNextLeavesDraft(t *testing.T) {
	s := testSession(newTickerFactory(), 50)
	defer s.Close()

	step, err := s.Next()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Next() error = %v, want *ValidationError", err)
	}
	if step != StepUploadFiles || s.Draft().Step != StepUploadFiles {
		t.Errorf("step moved to %v", step)
	}
}

func TestSession_QueuedBatch(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 50)
	defer s.Close()

	if err := s.AddFiles(File{Name: "a.png", Size: 1}); err != nil {
		t.Fatal(err)
	}
	tk1 := f.next(t)
	tk1.tick(t)

	if err := s.AddFiles(File{Name: "b.csv", Size: 1}); err != nil {
		t.Fatal(err)
	}
	tk1.tick(t)

	tk2 := f.next(t)
	d := s.Draft()
	if !d.Uploading {
		t.Fatal("queued batch should keep the upload in flight")
	}
	if CanAdvance(StepUploadFiles, d) {
		t.Fatal("CanAdvance(1) = true while queued batch uploads")
	}

	tk2.tick(t)
	tk2.tick(t)
	waitUploads(t, s)

	d = s.Draft()
	if d.Uploading || d.UploadProgress != 100 || len(d.Files) != 2 {
		t.Errorf("after queued run: %+v", d)
	}
	select {
	case <-f.created:
		t.Error("unexpected third upload run")
	default:
	}
}

func TestSession_RejectedBatchAddsNothing(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 50)
	defer s.Close()

	err := s.AddFiles(File{Name: "a.png", Size: 1}, File{Name: "b.exe", Size: 1})
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("AddFiles() error = %v, want ErrUnsupportedFile", err)
	}
	if err := s.AddFiles(); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("AddFiles() with no files error = %v, want ErrEmptyFile", err)
	}
	if d := s.Draft(); len(d.Files) != 0 || d.Uploading {
		t.Errorf("draft changed: %+v", d)
	}
	if len(f.created) != 0 {
		t.Error("rejected batch started an upload")
	}
}

func TestSession_RemoveLastFileStopsUpload(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 10)
	defer s.Close()

	if err := s.AddFiles(File{Name: "a.png", Size: 1}); err != nil {
		t.Fatal(err)
	}
	tk := f.next(t)

	if err := s.RemoveFile(3); !errors.Is(err, ErrFileIndex) {
		t.Errorf("RemoveFile(3) error = %v, want ErrFileIndex", err)
	}
	if err := s.RemoveFile(0); err != nil {
		t.Fatalf("RemoveFile(0) error = %v", err)
	}

	d := s.Draft()
	if d.Uploading || d.UploadProgress != 0 || len(d.Files) != 0 {
		t.Errorf("draft = %+v", d)
	}
	eventually(t, tk.stopped.Load, "upload ticker not stopped")
}

func TestSession_Subscribe(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 50)
	defer s.Close()

	ch, cancel := s.Subscribe()
	defer cancel()

	first := <-ch
	if first.Uploading || first.Files != 0 || first.Percent != 0 {
		t.Errorf("initial progress = %+v", first)
	}

	if err := s.AddFiles(File{Name: "a.png", Size: 1}); err != nil {
		t.Fatal(err)
	}
	tk := f.next(t)
	tk.tick(t)
	tk.tick(t)

	var seen []Progress
	timeout := time.After(2 * time.Second)
	for {
		select {
		case p := <-ch:
			seen = append(seen, p)
			if p.Percent == 100 && !p.Uploading {
				if seen[0].Files != 1 || !seen[0].Uploading {
					t.Errorf("first update = %+v, want uploading with 1 file", seen[0])
				}
				return
			}
		case <-timeout:
			t.Fatalf("no completion update, saw %+v", seen)
		}
	}
}

func TestSession_SlowSubscriberGetsFinalState(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 1)
	defer s.Close()

	ch, cancel := s.Subscribe()
	defer cancel()

	if err := s.AddFiles(File{Name: "a.png", Size: 1}); err != nil {
		t.Fatal(err)
	}
	tk := f.next(t)
	for range 100 {
		tk.tick(t)
	}
	waitUploads(t, s)

	// Far more updates than the buffer holds were produced while nobody
	// read; the newest must still be the last one buffered.
	var last Progress
	n := 0
	for len(ch) > 0 {
		last = <-ch
		n++
	}
	if n == 0 || n > cap(ch) {
		t.Fatalf("buffered %d updates", n)
	}
	if last.Percent != 100 || last.Uploading {
		t.Errorf("last update = %+v, want 100%% and not uploading", last)
	}
}

func TestSession_UnsubscribeClosesChannel(t *testing.T) {
	s := testSession(newTickerFactory(), 50)
	defer s.Close()

	ch, cancel := s.Subscribe()
	<-ch
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
}

func TestSession_Close(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 10)

	ch, _ := s.Subscribe()
	if err := s.AddFiles(File{Name: "a.png", Size: 1}); err != nil {
		t.Fatal(err)
	}
	tk := f.next(t)

	s.Close()
	s.Close()

	timeout := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, open = <-ch:
		case <-timeout:
			t.Fatal("listener not closed")
		}
	}
	eventually(t, tk.stopped.Load, "upload ticker not stopped")

	if !s.Closed() {
		t.Error("Closed() = false")
	}
	if err := s.AddFiles(File{Name: "b.png", Size: 1}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("AddFiles() after close error = %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Next() after close error = %v", err)
	}
	if late, _ := s.Subscribe(); late != nil {
		if _, ok := <-late; ok {
			t.Error("Subscribe() after close returned an open channel")
		}
	}
}

func TestSession_SubmitOnlyFromReview(t *testing.T) {
	s := testSession(newTickerFactory(), 50)
	defer s.Close()

	if _, err := s.Submit(context.Background(), AcceptAll{}); !errors.Is(err, ErrNotAtReview) {
		t.Errorf("Submit() error = %v, want ErrNotAtReview", err)
	}
}

func TestSession_SubmitFailureKeepsDraft(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 50)
	defer s.Close()
	reachReview(t, s, f)

	if _, err := s.Next(); !errors.Is(err, ErrAtReview) {
		t.Errorf("Next() at review error = %v, want ErrAtReview", err)
	}

	failing := IntakeFunc(func(context.Context, Submission) (Receipt, error) {
		return Receipt{}, &IntakeError{Code: IntakeUnavailable, Message: "intake offline"}
	})
	_, err := s.Submit(context.Background(), failing)
	var ie *IntakeError
	if !errors.As(err, &ie) || ie.Code != IntakeUnavailable {
		t.Fatalf("Submit() error = %v, want IntakeError unavailable", err)
	}

	d := s.Draft()
	if d.Step != StepReview || len(d.Files) != 1 || d.Metadata.Title == "" {
		t.Fatalf("draft lost after failed submit: %+v", d)
	}

	if _, err := s.Submit(context.Background(), AcceptAll{}); err != nil {
		t.Errorf("retry Submit() error = %v", err)
	}
}

func TestSession_SubmitSnapshot(t *testing.T) {
	f := newTickerFactory()
	s := testSession(f, 50)
	defer s.Close()
	reachReview(t, s, f)
	if err := s.AddTag("Pediatric"); err != nil {
		t.Fatal(err)
	}

	var got Submission
	capture := IntakeFunc(func(_ context.Context, sub Submission) (Receipt, error) {
		got = sub
		return Receipt{SubmissionID: sub.ID, Status: "queued"}, nil
	})
	receipt, err := s.Submit(context.Background(), capture)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got.ID == "" || receipt.SubmissionID != got.ID {
		t.Errorf("submission id = %q, receipt = %+v", got.ID, receipt)
	}
	if !got.SubmittedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("SubmittedAt = %v", got.SubmittedAt)
	}
	if len(got.Files) != 1 || got.Files[0].Name != "topography.png" {
		t.Errorf("Files = %v", got.Files)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "Pediatric" {
		t.Errorf("Tags = %v", got.Tags)
	}
	if got.Metadata != fullMetadata() {
		t.Errorf("Metadata = %+v", got.Metadata)
	}
}

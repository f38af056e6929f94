package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/statement-ingest/internal/jobs"
)

// waitForStatus polls the store until the job reaches the wanted status.
func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.IngestStatementJob {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s never reached status %s (last: %+v)", jobID, want, job)
	return nil
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	processed := make(chan string, 1)
	handler := func(ctx context.Context, job jobs.Job) error {
		processed <- job.GetID()
		return nil
	}

	ctx := context.Background()
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.IngestStatementJob{GCSURI: "gs://bucket/statement.csv"}
	if err := queue.PublishIngestStatement(ctx, job); err != nil {
		t.Fatalf("PublishIngestStatement failed: %v", err)
	}

	if job.JobID == "" {
		t.Fatal("expected job ID to be assigned on publish")
	}
	if job.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", job.MaxRetries)
	}

	select {
	case id := <-processed:
		if id != job.JobID {
			t.Errorf("processed job %s, want %s", id, job.JobID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job was never processed")
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if final.Error != "" {
		t.Errorf("completed job carries error %q", final.Error)
	}
	if final.StartedAt == nil || final.CompletedAt == nil {
		t.Error("expected started/completed timestamps to be set")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	attempts := 0
	handler := func(ctx context.Context, job jobs.Job) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient failure")
		}
		return nil
	}

	ctx := context.Background()
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.IngestStatementJob{GCSURI: "gs://bucket/statement.csv", MaxRetries: 2}
	if err := queue.PublishIngestStatement(ctx, job); err != nil {
		t.Fatalf("PublishIngestStatement failed: %v", err)
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if attempts != 2 {
		t.Errorf("handler ran %d times, want 2", attempts)
	}
	if final.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", final.RetryCount)
	}
}

func TestQueueExhaustsRetries(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	handler := func(ctx context.Context, job jobs.Job) error {
		return errors.New("permanent failure")
	}

	ctx := context.Background()
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.IngestStatementJob{GCSURI: "gs://bucket/statement.csv", MaxRetries: 1}
	if err := queue.PublishIngestStatement(ctx, job); err != nil {
		t.Fatalf("PublishIngestStatement failed: %v", err)
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if final.Error == "" {
		t.Error("failed job must carry the handler error")
	}
	if final.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", final.RetryCount)
	}
}

func TestQueueRejectsPublishAfterClose(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := queue.PublishIngestStatement(context.Background(), &jobs.IngestStatementJob{GCSURI: "gs://b/o"})
	if err == nil {
		t.Error("expected error publishing to a closed queue")
	}
}

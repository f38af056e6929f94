package inmemory

import (
	"context"
	"testing"

	"github.com/dvloznov/statement-ingest/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.IngestStatementJob{
		JobID:  "job-1",
		GCSURI: "gs://bucket/statement.csv",
		Status: jobs.JobStatusPending,
	}

	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.GCSURI != job.GCSURI || got.Status != jobs.JobStatusPending {
		t.Errorf("got %+v, want %+v", got, job)
	}

	// the stored copy is insulated from later mutations of the original
	job.Status = jobs.JobStatusFailed
	got, err = store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != jobs.JobStatusPending {
		t.Errorf("status = %s, want pending (store must copy)", got.Status)
	}
}

func TestStoreSaveRequiresID(t *testing.T) {
	store := NewStore()

	if err := store.SaveJob(context.Background(), &jobs.IngestStatementJob{}); err == nil {
		t.Error("expected error for job without ID")
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()

	if _, err := store.GetJob(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown job ID")
	}
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.IngestStatementJob{
		{JobID: "job-1", StatementID: "stmt-1", Status: jobs.JobStatusCompleted},
		{JobID: "job-2", StatementID: "stmt-1", Status: jobs.JobStatusFailed},
		{JobID: "job-3", StatementID: "stmt-2", Status: jobs.JobStatusCompleted},
	}
	for _, job := range seed {
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d jobs, want 3", len(all))
	}

	byStatement, err := store.ListJobs(ctx, jobs.JobFilter{StatementID: "stmt-1"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatement) != 2 {
		t.Errorf("got %d jobs for stmt-1, want 2", len(byStatement))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("got %d completed jobs, want 2", len(byStatus))
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d jobs with limit 1, want 1", len(limited))
	}

	offside, err := store.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(offside) != 0 {
		t.Errorf("got %d jobs with offset past the end, want 0", len(offside))
	}
}

package handlers

import (
	"testing"

	"github.com/hustlefy/hustlefy_be/internal/models"
)

func TestApplyDecision(t *testing.T) {
	t.Run("accept bumps the count", func(t *testing.T) {
		job := &models.Job{PeopleNeeded: 2, Status: models.JobStatusOpen}
		app := &models.Application{Status: models.ApplicationPending}

		fulfilled, err := applyDecision(job, app, models.ApplicationAccepted)
		if err != nil {
			t.Fatalf("applyDecision: %v", err)
		}
		if fulfilled {
			t.Error("one accept of two slots should not fulfill the job")
		}
		if app.Status != models.ApplicationAccepted {
			t.Errorf("application status = %q", app.Status)
		}
		if job.PeopleAccepted != 1 || job.Status != models.JobStatusOpen {
			t.Errorf("job = %+v", job)
		}
	})

	t.Run("filling the last slot fulfills the job", func(t *testing.T) {
		job := &models.Job{PeopleNeeded: 2, PeopleAccepted: 1, Status: models.JobStatusOpen}
		app := &models.Application{Status: models.ApplicationPending}

		fulfilled, err := applyDecision(job, app, models.ApplicationAccepted)
		if err != nil {
			t.Fatalf("applyDecision: %v", err)
		}
		if !fulfilled || job.Status != models.JobStatusFulfilled {
			t.Errorf("fulfilled = %v, job status = %q", fulfilled, job.Status)
		}
	})

	t.Run("reject leaves the count alone", func(t *testing.T) {
		job := &models.Job{PeopleNeeded: 1, Status: models.JobStatusOpen}
		app := &models.Application{Status: models.ApplicationPending}

		if _, err := applyDecision(job, app, models.ApplicationRejected); err != nil {
			t.Fatalf("applyDecision: %v", err)
		}
		if app.Status != models.ApplicationRejected {
			t.Errorf("application status = %q", app.Status)
		}
		if job.PeopleAccepted != 0 || job.Status != models.JobStatusOpen {
			t.Errorf("job = %+v", job)
		}
	})

	t.Run("already decided is reported, not treated as an error status", func(t *testing.T) {
		job := &models.Job{PeopleNeeded: 2, PeopleAccepted: 1, Status: models.JobStatusOpen}
		app := &models.Application{Status: models.ApplicationAccepted}

		_, err := applyDecision(job, app, models.ApplicationAccepted)
		if err != errAlreadyDecided {
			t.Fatalf("err = %v, want errAlreadyDecided", err)
		}
		// a stale retry must not double-count
		if job.PeopleAccepted != 1 || job.Status != models.JobStatusOpen {
			t.Errorf("job mutated by a repeated decision: %+v", job)
		}
	})
}

package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hustlefy/hustlefy_be/internal/jobfilter"
	"github.com/hustlefy/hustlefy_be/internal/models"
	"github.com/hustlefy/hustlefy_be/internal/realtime"
)

type JobHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewJobHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *JobHandler {
	return &JobHandler{DB: db, Hub: hub, RDB: rdb}
}

func getAuth(c *fiber.Ctx) (uuid.UUID, error) {
	rawID, ok := c.Locals("userId").(string)
	if !ok || rawID == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	uID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return uID, nil
}

type CreateJobReq struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Location     string  `json:"location"`
	Category     string  `json:"category"`
	PeopleNeeded int     `json:"peopleNeeded"`
	Duration     string  `json:"duration"` // e.g. "8 Hours", "3 Days"
	Payment      float64 `json:"payment"`
}

func validateJobReq(req *CreateJobReq) FieldErrors {
	errors := FieldErrors{}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		errors.Add("title", "Title is required")
	} else if len(title) < 3 {
		errors.Add("title", "Title must be at least 3 characters")
	}

	if strings.TrimSpace(req.Description) == "" {
		errors.Add("description", "Description is required")
	}
	if strings.TrimSpace(req.Location) == "" {
		errors.Add("location", "Location is required")
	}
	if req.Category == "" {
		errors.Add("category", "Category is required")
	} else if !models.IsWorkCategory(req.Category) {
		errors.Add("category", "Please select a valid category")
	}
	if req.PeopleNeeded < 1 {
		errors.Add("peopleNeeded", "At least 1 person is required")
	}

	fields := strings.Fields(strings.TrimSpace(req.Duration))
	if len(fields) < 2 {
		errors.Add("duration", "Duration is required")
	} else if n, err := strconv.Atoi(fields[0]); err != nil || n <= 0 || n > 999 {
		errors.Add("duration", "Duration must be between 1 and 999")
	}

	if req.Payment < 0 {
		errors.Add("payment", "Payment cannot be negative")
	}

	return errors
}

// Create posts a new job. Provider-only with onboarding complete.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req CreateJobReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if errors := validateJobReq(&req); len(errors) > 0 {
		return validationFail(c, errors)
	}

	provider, ok := c.Locals("currentUser").(*models.User)
	if !ok {
		return fiber.ErrUnauthorized
	}

	job := models.Job{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Location:     strings.TrimSpace(req.Location),
		Category:     req.Category,
		PeopleNeeded: req.PeopleNeeded,
		Duration:     strings.TrimSpace(req.Duration),
		Payment:      req.Payment,
		ProviderID:   userID,
		ProviderName: provider.Name,
		Status:       models.JobStatusOpen,
	}

	if err := h.DB.Create(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to post job",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Job posted",
		"data":    job,
	})
}

// List is the public job listing with query filtering. Filtering runs
// through the shared engine so the web listing and the shell behave
// identically.
func (h *JobHandler) List(c *fiber.Ctx) error {
	var jobs []models.Job
	if err := h.DB.
		Where("status = ?", models.JobStatusOpen).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load jobs",
		})
	}

	criteria := jobfilter.Criteria{
		SearchTerm: c.Query("search"),
		Category:   c.Query("category"),
		Location:   c.Query("location"),
		Duration:   c.Query("duration"),
		PayRange:   c.Query("payRange"),
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    jobfilter.Apply(jobs, criteria),
	})
}

// Feed is the seeker dashboard listing: open jobs narrowed to the
// seeker's work categories and location, then any explicit filters on
// top.
func (h *JobHandler) Feed(c *fiber.Ctx) error {
	seeker, ok := c.Locals("currentUser").(*models.User)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var jobs []models.Job
	if err := h.DB.
		Where("status = ?", models.JobStatusOpen).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load jobs",
		})
	}

	jobs = jobfilter.RelevantJobs(jobs, seeker.WorkCategories, seeker.Location)

	criteria := jobfilter.Criteria{
		SearchTerm: c.Query("search"),
		Category:   c.Query("category"),
		Location:   c.Query("location"),
		Duration:   c.Query("duration"),
		PayRange:   c.Query("payRange"),
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    jobfilter.Apply(jobs, criteria),
	})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Job not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    job,
	})
}

// MyJobs lists the provider's own postings, newest first.
func (h *JobHandler) MyJobs(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var jobs []models.Job
	if err := h.DB.
		Where("provider_id = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load jobs",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    jobs,
	})
}

// Delete closes a posting. Owner only; applications stay for history.
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Job not found",
		})
	}
	if job.ProviderID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the job owner can delete it",
		})
	}

	if err := h.DB.Model(&job).Update("status", models.JobStatusClosed).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete job",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job deleted",
	})
}

type applyReq struct {
	Message string `json:"message"`
}

// Apply creates an application. Seeker-only with onboarding complete;
// one application per job per seeker.
func (h *JobHandler) Apply(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	var req applyReq
	_ = c.BodyParser(&req) // message is optional

	seeker, ok := c.Locals("currentUser").(*models.User)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Job not found",
		})
	}
	if job.Status != models.JobStatusOpen {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "This job is no longer accepting applications",
		})
	}

	var existing models.Application
	if err := h.DB.Where("job_id = ? AND seeker_id = ?", jobID, userID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "You have already applied to this job",
		})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
		})
	}

	app := models.Application{
		JobID:            jobID,
		SeekerID:         userID,
		SeekerName:       seeker.Name,
		SeekerBio:        seeker.Bio,
		SeekerCategories: datatypes.JSONSlice[string](seeker.WorkCategories),
		Message:          strings.TrimSpace(req.Message),
		Status:           models.ApplicationPending,
	}

	if err := h.DB.Create(&app).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to apply",
		})
	}

	realtime.PublishEvent(c.Context(), h.RDB, job.ProviderID, realtime.EventApplied, fiber.Map{
		"jobId":       job.ID,
		"jobTitle":    job.Title,
		"application": app,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Application sent",
		"data":    app,
	})
}

// Applicants lists applications for a job. Owner only.
func (h *JobHandler) Applicants(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Job not found",
		})
	}
	if job.ProviderID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the job owner can view applicants",
		})
	}

	var apps []models.Application
	if err := h.DB.
		Preload("Seeker").
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&apps).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load applicants",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    apps,
	})
}

// Accept moves an application to accepted and bumps the job's
// accepted count. Filling the last slot fulfills the job and parks the
// remaining pending applications as fulfilled.
func (h *JobHandler) Accept(c *fiber.Ctx) error {
	return h.decide(c, models.ApplicationAccepted)
}

// Reject moves a pending application to rejected.
func (h *JobHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, models.ApplicationRejected)
}

var errAlreadyDecided = errors.New("application already decided")

// applyDecision runs the pure state transition for an accept/reject:
// only pending applications can be decided, an accept bumps the job's
// accepted count, and filling the last slot fulfills the job. Returns
// whether this decision fulfilled the job.
func applyDecision(job *models.Job, app *models.Application, decision models.ApplicationStatus) (bool, error) {
	if app.Status != models.ApplicationPending {
		return false, errAlreadyDecided
	}

	app.Status = decision
	if decision != models.ApplicationAccepted {
		return false, nil
	}

	job.PeopleAccepted++
	if job.PeopleAccepted >= job.PeopleNeeded {
		job.Status = models.JobStatusFulfilled
		return true, nil
	}
	return false, nil
}

func (h *JobHandler) decide(c *fiber.Ctx, decision models.ApplicationStatus) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}
	appID, err := uuid.Parse(c.Params("appId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid application id",
		})
	}

	var job models.Job
	var app models.Application

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&job, "id = ?", jobID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
		if job.ProviderID != userID {
			return fiber.NewError(fiber.StatusForbidden, "Only the job owner can decide applications")
		}
		if err := tx.First(&app, "id = ? AND job_id = ?", appID, jobID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}

		fulfilled, err := applyDecision(&job, &app, decision)
		if err != nil {
			return err
		}
		if err := tx.Save(&app).Error; err != nil {
			return err
		}
		if decision == models.ApplicationAccepted {
			if fulfilled {
				// everyone still waiting hears the job is filled
				if err := tx.Model(&models.Application{}).
					Where("job_id = ? AND status = ?", jobID, models.ApplicationPending).
					Update("status", models.ApplicationFulfilled).Error; err != nil {
					return err
				}
			}
			if err := tx.Save(&job).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		// a repeated decision is a stale client, not a server error
		if err == errAlreadyDecided {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"success": false,
				"message": "Application was already decided",
			})
		}
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"message": fe.Message,
			})
		}
		log.Println("Error deciding application:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
		})
	}

	eventType := realtime.EventAccepted
	if decision == models.ApplicationRejected {
		eventType = realtime.EventRejected
	}
	realtime.PublishEvent(c.Context(), h.RDB, app.SeekerID, eventType, fiber.Map{
		"jobId":    job.ID,
		"jobTitle": job.Title,
		"status":   app.Status,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Application " + string(decision),
		"data":    app,
	})
}

// MyApplications lists the seeker's applications with their jobs.
func (h *JobHandler) MyApplications(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var apps []models.Application
	if err := h.DB.
		Preload("Job").
		Where("seeker_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load applications",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    apps,
	})
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
	// ApplicationFulfilled marks applications that were still pending
	// when the job filled up.
	ApplicationFulfilled ApplicationStatus = "fulfilled"
)

type Application struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID    uuid.UUID `gorm:"type:uuid;index:idx_app_job_seeker,unique;not null" json:"jobId"`
	SeekerID uuid.UUID `gorm:"type:uuid;index:idx_app_job_seeker,unique;not null" json:"seekerId"`

	// Seeker snapshot so applicant cards survive later profile edits.
	SeekerName       string                      `gorm:"type:varchar(120)" json:"seekerName"`
	SeekerBio        string                      `gorm:"type:text" json:"seekerBio"`
	SeekerCategories datatypes.JSONSlice[string] `json:"seekerCategories"`

	Message string            `gorm:"type:text" json:"message"`
	Status  ApplicationStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Job    *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Seeker *User `gorm:"foreignKey:SeekerID" json:"seeker,omitempty"`
}

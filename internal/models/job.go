package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusOpen      JobStatus = "open"      // still accepting applicants
	JobStatusFulfilled JobStatus = "fulfilled" // peopleAccepted reached peopleNeeded
	JobStatusClosed    JobStatus = "closed"    // withdrawn by the provider
)

type Job struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Location    string    `gorm:"type:varchar(120);not null" json:"location"`
	Category    string    `gorm:"type:varchar(60);not null;index" json:"category"`

	PeopleNeeded   int `gorm:"not null;default:1" json:"peopleNeeded"`
	PeopleAccepted int `gorm:"not null;default:0" json:"peopleAccepted"`

	// Duration is free text composed by the client, e.g. "8 Hours" or
	// "3 Days". Bucket classification lives in internal/jobfilter.
	Duration string  `gorm:"type:varchar(40)" json:"duration"`
	Payment  float64 `gorm:"not null" json:"payment"`

	ProviderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"providerId"`
	ProviderName string    `gorm:"type:varchar(120)" json:"providerName"`

	Status JobStatus `gorm:"type:varchar(20);default:open;index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Provider *User `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

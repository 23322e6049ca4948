package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleProvider Role = "provider"
	RoleSeeker   Role = "seeker"
)

// WorkCategories is the fixed category catalog jobs and seeker
// profiles draw from.
var WorkCategories = []string{
	"Setup & Events",
	"Cleaning",
	"Logistics & Warehouse",
	"Food Service",
	"Heavy Lifting",
	"Maintenance",
	"Landscaping",
	"Administrative",
	"Customer Service",
	"Delivery",
}

func IsWorkCategory(c string) bool {
	for _, w := range WorkCategories {
		if w == c {
			return true
		}
	}
	return false
}

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone string    `gorm:"type:varchar(30)" json:"phone,omitempty"`

	Password string `gorm:"not null" json:"-"`
	// Role is fixed at signup; there is no provider<->seeker switch.
	Role     Role `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	Location       string                      `gorm:"type:varchar(120)" json:"location"`
	WorkCategories datatypes.JSONSlice[string] `json:"workCategories"`
	Bio            string                      `gorm:"type:text" json:"bio"`
	PhoneVerified  bool                        `gorm:"default:false" json:"phoneVerified"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

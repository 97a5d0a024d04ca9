package companies

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the business an organiser sells tickets under. Organisers can only
// publish events once an admin has verified their company.
type Company struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OrganiserID   uuid.UUID  `json:"organiser_id" gorm:"type:uuid;not null;uniqueIndex"`
	BusinessID    string     `json:"business_id" gorm:"size:100;not null;uniqueIndex"`
	PhoneNumber   string     `json:"phone_number" gorm:"size:20;not null"`
	GSTNumber     string     `json:"gst_number" gorm:"size:20;not null;uniqueIndex"`
	AadharNumber  string     `json:"-" gorm:"size:20;not null"`
	AccountNumber string     `json:"-" gorm:"size:34;not null"`
	IFSCCode      string     `json:"ifsc_code" gorm:"size:11;not null"`
	Verified      bool       `json:"verified" gorm:"not null;default:false"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Company) TableName() string {
	return "companies"
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LessonPending  = "pending"
	LessonApproved = "approved"
	LessonRejected = "rejected"
)

// Lesson is owned by the catalog; the settlement subsystem reads its price
// and teacher and bumps SalesCount inside the ledger transaction.
type Lesson struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Subject         string    `gorm:"type:varchar(100)" json:"subject"`
	Form            string    `gorm:"type:varchar(50)" json:"form"`
	Price           float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	VideoURL        string    `gorm:"type:varchar(1024)" json:"video_url,omitempty"`
	DurationMinutes int       `gorm:"default:0" json:"duration_minutes"`
	TeacherID       uuid.UUID `gorm:"type:uuid;index;not null" json:"teacher_id"`
	SalesCount      int       `gorm:"default:0" json:"sales_count"`
	Status          string    `gorm:"type:varchar(20);default:pending" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

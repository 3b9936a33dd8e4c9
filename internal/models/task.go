package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:TODO;index:idx_project_status"`
	// Position within the status column. Stored as sort_order because
	// "order" collides with the SQL keyword in raw aggregate queries.
	SortOrder  int  `gorm:"not null;default:0"`
	ProjectID  uint `gorm:"not null;index:idx_project_status"`
	CreatorID  *uint
	ExpiryDate *time.Time

	// Relationships
	Project   Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Creator   *User   `gorm:"foreignKey:CreatorID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Assignees []User  `gorm:"many2many:task_assignments;constraint:OnDelete:CASCADE"`
}

package model

import (
	"time"
)

// Project represents the database model for projects. Query and model lists
// are stored as JSON text; the repository marshals them. Schedule columns
// are flattened onto the row.
type Project struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"not null;size:255;index"`
	Name          string `gorm:"not null;size:255"`
	BrandDomain   string `gorm:"size:255"`
	BrandVariants string `gorm:"type:jsonb"`
	Queries       string `gorm:"not null;type:jsonb"`
	Models        string `gorm:"not null;type:jsonb"`

	ScheduleEnabled    bool       `gorm:"not null;default:false;index:idx_projects_due,priority:1"`
	ScheduleFrequency  string     `gorm:"size:50"`
	ScheduleHour       int        `gorm:"default:0"`
	ScheduleDayOfWeek  int        `gorm:"default:0"`
	ScheduleDayOfMonth int        `gorm:"default:1"`
	ScheduleTimezone   string     `gorm:"size:100"`
	NextRunAt          *time.Time `gorm:"index:idx_projects_due,priority:2"`
	LastRunAt          *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

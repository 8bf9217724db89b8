package models

import "gorm.io/gorm"

type Course struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Subtitle    string
	Description string
	Category    string
	Level       string // beginner, intermediate, advanced
	Price       float64
	Thumbnail   string
	CreatorID   uint
	IsPublished bool `gorm:"default:false"`

	Creator          *User     `gorm:"foreignKey:CreatorID"`
	Lectures         []Lecture `gorm:"constraint:OnDelete:CASCADE"`
	EnrolledStudents []User    `gorm:"many2many:enrollments"`
}

type Lecture struct {
	gorm.Model
	CourseID      uint `gorm:"index"`
	Title         string
	VideoURL      string
	SequenceOrder int
	IsPreviewFree bool `gorm:"default:false"`
}

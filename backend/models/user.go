package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:student"` // student, instructor
	PhotoURL     string

	EnrolledCourses []Course `gorm:"many2many:enrollments"`
}

package models

import "gorm.io/gorm"

type CourseProgress struct {
	gorm.Model
	UserID    uint `gorm:"index:idx_course_progress_user_course,unique"`
	CourseID  uint `gorm:"index:idx_course_progress_user_course,unique"`
	Completed bool `gorm:"default:false"`

	LectureProgresses []LectureProgress `gorm:"constraint:OnDelete:CASCADE"`
}

type LectureProgress struct {
	gorm.Model
	CourseProgressID uint `gorm:"index"`
	LectureID        uint
	Viewed           bool `gorm:"default:false"`
}

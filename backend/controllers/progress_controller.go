package controllers

import (
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// GetCourseProgress godoc
// @Summary Get course progress
// @Description Returns the course with the caller's per-lecture progress
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/{id} [get]
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := pc.DB.Preload("Lectures").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var progress models.CourseProgress
	err = pc.DB.Preload("LectureProgresses").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No activity yet
			return utils.Success(c, fiber.StatusOK, fiber.Map{
				"course":    course,
				"progress":  []models.LectureProgress{},
				"completed": false,
			})
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course":    course,
		"progress":  progress.LectureProgresses,
		"completed": progress.Completed,
	})
}

func (pc *ProgressController) UpdateLectureProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	lectureID, err := strconv.Atoi(c.Params("lectureId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid lecture ID")
	}

	var progress models.CourseProgress
	err = pc.DB.Preload("LectureProgresses").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = models.CourseProgress{
				UserID:   userID,
				CourseID: uint(courseID),
			}
			if err := pc.DB.Create(&progress).Error; err != nil {
				return utils.InternalServerError(c, "Could not create progress record")
			}
		} else {
			return utils.InternalServerError(c, "Could not query database")
		}
	}

	// Mark the lecture viewed, creating its record on first sight
	var found bool
	for i := range progress.LectureProgresses {
		if progress.LectureProgresses[i].LectureID == uint(lectureID) {
			progress.LectureProgresses[i].Viewed = true
			if err := pc.DB.Save(&progress.LectureProgresses[i]).Error; err != nil {
				return utils.InternalServerError(c, "Could not save progress")
			}
			found = true
			break
		}
	}
	if !found {
		lectureProgress := models.LectureProgress{
			CourseProgressID: progress.ID,
			LectureID:        uint(lectureID),
			Viewed:           true,
		}
		if err := pc.DB.Create(&lectureProgress).Error; err != nil {
			return utils.InternalServerError(c, "Could not save progress")
		}
		progress.LectureProgresses = append(progress.LectureProgresses, lectureProgress)
	}

	// The course is complete once every lecture has been viewed
	var lectureCount int64
	pc.DB.Model(&models.Lecture{}).Where("course_id = ?", courseID).Count(&lectureCount)

	viewed := 0
	for _, lp := range progress.LectureProgresses {
		if lp.Viewed {
			viewed++
		}
	}

	if lectureCount > 0 && int64(viewed) >= lectureCount && !progress.Completed {
		progress.Completed = true
		if err := pc.DB.Save(&progress).Error; err != nil {
			return utils.InternalServerError(c, "Could not save progress")
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":   "Lecture progress updated",
		"completed": progress.Completed,
	})
}

func (pc *ProgressController) MarkAsCompleted(c *fiber.Ctx) error {
	return pc.setCompleted(c, true, "Course marked as completed")
}

func (pc *ProgressController) MarkAsIncomplete(c *fiber.Ctx) error {
	return pc.setCompleted(c, false, "Course marked as incomplete")
}

func (pc *ProgressController) setCompleted(c *fiber.Ctx, completed bool, message string) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var progress models.CourseProgress
	err = pc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Progress not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	progress.Completed = completed

	// Flip every lecture record alongside the course flag
	err = pc.DB.Model(&models.LectureProgress{}).
		Where("course_progress_id = ?", progress.ID).
		Update("viewed", completed).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not save progress")
	}

	if err := pc.DB.Save(&progress).Error; err != nil {
		return utils.InternalServerError(c, "Could not save progress")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": message,
	})
}

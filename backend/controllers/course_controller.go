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

type CourseController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCourseController(db *gorm.DB, cfg *config.Config) *CourseController {
	return &CourseController{DB: db, Cfg: cfg}
}

func (cc *CourseController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var input struct {
		Title    string  `json:"title"`
		Category string  `json:"category"`
		Price    float64 `json:"price"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Course title is required",
		})
	}

	course := models.Course{
		Title:     input.Title,
		Category:  input.Category,
		Price:     input.Price,
		CreatorID: userID,
	}

	if err := cc.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create course",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Course created",
		"course":  course,
	})
}

func (cc *CourseController) EditCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var input struct {
		Title       string   `json:"title"`
		Subtitle    string   `json:"subtitle"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Level       string   `json:"level"`
		Price       *float64 `json:"price"`
		Thumbnail   string   `json:"thumbnail"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if course.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit this course",
		})
	}

	// Update fields
	if input.Title != "" {
		course.Title = input.Title
	}
	if input.Subtitle != "" {
		course.Subtitle = input.Subtitle
	}
	if input.Description != "" {
		course.Description = input.Description
	}
	if input.Category != "" {
		course.Category = input.Category
	}
	if input.Level != "" {
		course.Level = input.Level
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if input.Thumbnail != "" {
		course.Thumbnail = input.Thumbnail
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update course",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Course updated",
		"course":  course,
	})
}

func (cc *CourseController) GetCreatorCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var courses []models.Course
	if err := cc.DB.Where("creator_id = ?", userID).Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"courses": courses,
	})
}

func (cc *CourseController) GetPublishedCourses(c *fiber.Ctx) error {
	// Get query parameters
	category := c.Query("category")
	level := c.Query("level")

	query := cc.DB.Model(&models.Course{}).Where("is_published = ?", true)

	if category != "" {
		query = query.Where("category LIKE ?", "%"+category+"%")
	}

	if level != "" {
		query = query.Where("level = ?", level)
	}

	var courses []models.Course
	if err := query.Preload("Creator").Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var result []fiber.Map
	for _, course := range courses {
		creator := fiber.Map{}
		if course.Creator != nil {
			creator = fiber.Map{
				"id":        course.Creator.ID,
				"name":      course.Creator.Name,
				"photo_url": course.Creator.PhotoURL,
			}
		}

		result = append(result, fiber.Map{
			"id":        course.ID,
			"title":     course.Title,
			"subtitle":  course.Subtitle,
			"category":  course.Category,
			"level":     course.Level,
			"price":     course.Price,
			"thumbnail": course.Thumbnail,
			"creator":   creator,
		})
	}

	return c.JSON(fiber.Map{
		"courses": result,
	})
}

func (cc *CourseController) SearchCourses(c *fiber.Ctx) error {
	searchQuery := c.Query("query")
	sortBy := c.Query("sort_by_price") // low, high

	query := cc.DB.Model(&models.Course{}).Where("is_published = ?", true)

	if searchQuery != "" {
		pattern := "%" + searchQuery + "%"
		query = query.Where("title ILIKE ? OR subtitle ILIKE ? OR category ILIKE ?",
			pattern, pattern, pattern)
	}

	switch sortBy {
	case "low":
		query = query.Order("price asc")
	case "high":
		query = query.Order("price desc")
	}

	var courses []models.Course
	if err := query.Preload("Creator").Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"courses": courses,
	})
}

func (cc *CourseController) GetCourseByID(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var course models.Course
	if err := cc.DB.Preload("Creator").Preload("Lectures").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"course": course,
	})
}

func (cc *CourseController) TogglePublishCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	publish := c.Query("publish") == "true"

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if course.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to publish this course",
		})
	}

	course.IsPublished = publish
	if err := cc.DB.Save(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update course",
		})
	}

	message := "Course unpublished"
	if publish {
		message = "Course published"
	}

	return c.JSON(fiber.Map{
		"message": message,
	})
}

func (cc *CourseController) CreateLecture(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var input struct {
		Title    string `json:"title"`
		VideoURL string `json:"video_url"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Lecture title is required",
		})
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if course.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to add lectures to this course",
		})
	}

	// Current lecture count sets the sequence order
	var lectureCount int64
	cc.DB.Model(&models.Lecture{}).Where("course_id = ?", courseID).Count(&lectureCount)

	lecture := models.Lecture{
		CourseID:      uint(courseID),
		Title:         input.Title,
		VideoURL:      input.VideoURL,
		SequenceOrder: int(lectureCount) + 1,
	}

	if err := cc.DB.Create(&lecture).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create lecture",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lecture added",
		"lecture": lecture,
	})
}

func (cc *CourseController) GetCourseLectures(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var lectures []models.Lecture
	err = cc.DB.Where("course_id = ?", courseID).
		Order("sequence_order asc").
		Find(&lectures).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"lectures": lectures,
	})
}

func (cc *CourseController) EditLecture(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	lectureID, err := strconv.Atoi(c.Params("lectureId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lecture ID",
		})
	}

	var input struct {
		Title         string `json:"title"`
		VideoURL      string `json:"video_url"`
		SequenceOrder int    `json:"sequence_order"`
		IsPreviewFree *bool  `json:"is_preview_free"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if course.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit lectures in this course",
		})
	}

	var lecture models.Lecture
	if err := cc.DB.Where("id = ? AND course_id = ?", lectureID, courseID).First(&lecture).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lecture not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Update fields
	if input.Title != "" {
		lecture.Title = input.Title
	}
	if input.VideoURL != "" {
		lecture.VideoURL = input.VideoURL
	}
	if input.SequenceOrder != 0 {
		lecture.SequenceOrder = input.SequenceOrder
	}
	if input.IsPreviewFree != nil {
		lecture.IsPreviewFree = *input.IsPreviewFree
	}

	if err := cc.DB.Save(&lecture).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update lecture",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lecture updated",
		"lecture": lecture,
	})
}

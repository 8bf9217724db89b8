package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"project/backend/config"
	"project/backend/models"
	"project/backend/payment"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrPurchaseNotFound means no pending purchase matches the payment id the
// provider reported. Every confirmed payment must originate from a known
// checkout session, so this is a defensive condition.
var ErrPurchaseNotFound = errors.New("purchase not found")

type PurchaseController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Payments payment.Provider
	Logger   *log.Logger
}

func NewPurchaseController(db *gorm.DB, cfg *config.Config, payments payment.Provider, logger *log.Logger) *PurchaseController {
	return &PurchaseController{DB: db, Cfg: cfg, Payments: payments, Logger: logger}
}

// [+] CreateCheckoutSession godoc
// @Summary Start a course purchase
// @Description Creates a pending purchase and a hosted checkout session
// @Tags purchase
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /purchase/checkout [post]
func (pc *PurchaseController) CreateCheckoutSession(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var input struct {
		CourseID uint   `json:"course_id"`
		Currency string `json:"currency"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := pc.DB.First(&course, input.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	currency := input.Currency
	if currency == "" {
		currency = "inr"
	}

	session, err := pc.Payments.CreateCheckoutSession(payment.CheckoutParams{
		CourseID:   course.ID,
		UserID:     userID,
		Title:      course.Title,
		Thumbnail:  course.Thumbnail,
		UnitAmount: int64(math.Round(course.Price * 100)), // minor currency units
		Currency:   currency,
		SuccessURL: fmt.Sprintf("%s/course-progress/%d", pc.Cfg.FrontendURL, course.ID),
		CancelURL:  fmt.Sprintf("%s/course-detail/%d", pc.Cfg.FrontendURL, course.ID),
	})
	if err != nil {
		pc.Logger.Printf("checkout session creation failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Error while creating checkout session",
		})
	}
	if session.URL == "" {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Error while creating checkout session",
		})
	}

	// The session id is the correlation key for the webhook, so the
	// pending row is persisted only once the provider call succeeded.
	purchase := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    userID,
		Amount:    course.Price,
		Status:    models.PurchasePending,
		PaymentID: session.ID,
	}

	if err := pc.DB.Create(&purchase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create purchase record",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"url":     session.URL,
	})
}

// StripeWebhook handles the provider's asynchronous payment callbacks.
// Verification needs the raw request body, so nothing may parse it first.
func (pc *PurchaseController) StripeWebhook(c *fiber.Ctx) error {
	event, err := pc.Payments.VerifyEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		pc.Logger.Printf("webhook verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + err.Error())
	}

	// The provider evolves its event set independently; everything but a
	// completed checkout is acknowledged untouched.
	if event.Type != "checkout.session.completed" {
		return c.SendStatus(fiber.StatusOK)
	}

	var session struct {
		ID          string `json:"id"`
		AmountTotal int64  `json:"amount_total"`
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse event payload",
		})
	}

	if err := pc.CompletePurchase(session.ID, session.AmountTotal); err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			pc.Logger.Printf("purchase not found for payment ID %s", session.ID)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Purchase not found",
			})
		}
		pc.Logger.Printf("error completing purchase %s: %v", session.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// CompletePurchase transitions the purchase identified by paymentID to
// completed and fans out the unlock updates. Every side effect is a
// set-addition, so a duplicate webhook delivery re-running this is at
// worst a redundant write.
func (pc *PurchaseController) CompletePurchase(paymentID string, amountTotal int64) error {
	var purchase models.CoursePurchase
	err := pc.DB.Preload("Course.Lectures").
		Where("payment_id = ?", paymentID).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurchaseNotFound
		}
		return err
	}

	purchase.Status = models.PurchaseCompleted
	if amountTotal > 0 {
		// The settled amount is authoritative over the requested price.
		purchase.Amount = float64(amountTotal) / 100
	}

	if err := pc.DB.Save(&purchase).Error; err != nil {
		return err
	}

	// Unlock all lectures of the purchased course.
	if len(purchase.Course.Lectures) > 0 {
		err = pc.DB.Model(&models.Lecture{}).
			Where("course_id = ?", purchase.CourseID).
			Update("is_preview_free", true).Error
		if err != nil {
			return err
		}
	}

	// Add the course to the user's enrolled set.
	user := models.User{Model: gorm.Model{ID: purchase.UserID}}
	course := models.Course{Model: gorm.Model{ID: purchase.CourseID}}
	if err := pc.DB.Model(&user).Association("EnrolledCourses").Append(&course); err != nil {
		return err
	}

	// Add the user to the course's enrolled-students set.
	if err := pc.DB.Model(&course).Association("EnrolledStudents").Append(&user); err != nil {
		return err
	}

	return nil
}

func (pc *PurchaseController) GetCourseDetailWithPurchaseStatus(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("courseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var course models.Course
	if err := pc.DB.Preload("Creator").Preload("Lectures").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Any purchase row counts, completed or still pending.
	var count int64
	err = pc.DB.Model(&models.CoursePurchase{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"course":    course,
		"purchased": count > 0,
	})
}

func (pc *PurchaseController) GetAllPurchasedCourses(c *fiber.Ctx) error {
	var purchases []models.CoursePurchase
	err := pc.DB.Preload("Course").
		Where("status = ?", models.PurchaseCompleted).
		Find(&purchases).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"purchases": purchases,
	})
}

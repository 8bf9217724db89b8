package controllers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"project/backend/models"
	"project/backend/payment"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	fakePay.reset()
	user, token := createTestUser(t, "checkout@example.com", "student")
	course := createTestCourse(t, user.ID, 499, 0)

	req := jsonRequest("POST", "/api/purchase/checkout", fiber.Map{
		"course_id": course.ID,
	}, token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", result["url"])

	// Currency omitted defaults to inr, unit amount in minor units
	assert.Equal(t, "inr", fakePay.lastParams.Currency)
	assert.Equal(t, int64(49900), fakePay.lastParams.UnitAmount)
	assert.Equal(t, "Test Course", fakePay.lastParams.Title)
	assert.Equal(t, fmt.Sprintf("http://localhost:5173/course-progress/%d", course.ID), fakePay.lastParams.SuccessURL)
	assert.Equal(t, fmt.Sprintf("http://localhost:5173/course-detail/%d", course.ID), fakePay.lastParams.CancelURL)

	var purchase models.CoursePurchase
	err = db.Where("payment_id = ?", "cs_test_123").First(&purchase).Error
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, purchase.Status)
	assert.Equal(t, 499.0, purchase.Amount)
	assert.Equal(t, course.ID, purchase.CourseID)
	assert.Equal(t, user.ID, purchase.UserID)
}

func TestCreateCheckoutSessionFractionalPrice(t *testing.T) {
	fakePay.reset()
	fakePay.session = payment.Session{ID: "cs_test_fractional", URL: "https://checkout.stripe.com/pay/cs_test_fractional"}
	user, token := createTestUser(t, "checkout-fractional@example.com", "student")
	course := createTestCourse(t, user.ID, 19.99, 0)

	req := jsonRequest("POST", "/api/purchase/checkout", fiber.Map{
		"course_id": course.ID,
	}, token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// 19.99 must round to 1999 minor units, not truncate to 1998
	assert.Equal(t, int64(1999), fakePay.lastParams.UnitAmount)

	var purchase models.CoursePurchase
	require.NoError(t, db.Where("payment_id = ?", "cs_test_fractional").First(&purchase).Error)
	assert.Equal(t, 19.99, purchase.Amount)
}

func TestCreateCheckoutSessionCourseNotFound(t *testing.T) {
	fakePay.reset()
	_, token := createTestUser(t, "checkout-missing@example.com", "student")

	req := jsonRequest("POST", "/api/purchase/checkout", fiber.Map{
		"course_id": 999999,
	}, token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	fakePay.reset()
	fakePay.err = errors.New("provider unavailable")
	user, token := createTestUser(t, "checkout-fail@example.com", "student")
	course := createTestCourse(t, user.ID, 100, 0)

	req := jsonRequest("POST", "/api/purchase/checkout", fiber.Map{
		"course_id": course.ID,
	}, token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	// No payment URL means no purchase row either
	var count int64
	db.Model(&models.CoursePurchase{}).Where("course_id = ?", course.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateCheckoutSessionNoRedirectURL(t *testing.T) {
	fakePay.reset()
	fakePay.session = payment.Session{ID: "cs_test_nourl", URL: ""}
	user, token := createTestUser(t, "checkout-nourl@example.com", "student")
	course := createTestCourse(t, user.ID, 100, 0)

	req := jsonRequest("POST", "/api/purchase/checkout", fiber.Map{
		"course_id": course.ID,
	}, token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	// A session without a redirect URL must not leave a purchase behind
	var count int64
	db.Model(&models.CoursePurchase{}).Where("course_id = ?", course.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestWebhookCompletesPurchase(t *testing.T) {
	fakePay.reset()
	user, _ := createTestUser(t, "webhook@example.com", "student")
	course := createTestCourse(t, user.ID, 499, 2)

	purchase := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    499,
		Status:    models.PurchasePending,
		PaymentID: "cs_test_complete",
	}
	require.NoError(t, db.Create(&purchase).Error)

	payload := checkoutCompletedEvent("cs_test_complete", 49900)
	resp, err := app.Test(signedWebhookRequest(payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.CoursePurchase
	require.NoError(t, db.First(&updated, purchase.ID).Error)
	assert.Equal(t, models.PurchaseCompleted, updated.Status)
	assert.Equal(t, 499.0, updated.Amount)

	// Every lecture of the course is unlocked
	var lectures []models.Lecture
	db.Where("course_id = ?", course.ID).Find(&lectures)
	require.Len(t, lectures, 2)
	for _, lecture := range lectures {
		assert.True(t, lecture.IsPreviewFree)
	}

	// Both enrollment projections contain the pair
	var enrolled int64
	db.Table("enrollments").
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrolled)
	assert.Equal(t, int64(1), enrolled)
}

func TestWebhookOverwritesAmountWithSettledTotal(t *testing.T) {
	fakePay.reset()
	user, _ := createTestUser(t, "webhook-amount@example.com", "student")
	course := createTestCourse(t, user.ID, 499, 0)

	purchase := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    499,
		Status:    models.PurchasePending,
		PaymentID: "cs_test_amount",
	}
	require.NoError(t, db.Create(&purchase).Error)

	// Settled total differs from the requested price
	payload := checkoutCompletedEvent("cs_test_amount", 52500)
	resp, err := app.Test(signedWebhookRequest(payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.CoursePurchase
	require.NoError(t, db.First(&updated, purchase.ID).Error)
	assert.Equal(t, 525.0, updated.Amount)
}

func TestWebhookIsIdempotent(t *testing.T) {
	fakePay.reset()
	user, _ := createTestUser(t, "webhook-idem@example.com", "student")
	course := createTestCourse(t, user.ID, 250, 1)

	purchase := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    250,
		Status:    models.PurchasePending,
		PaymentID: "cs_test_idem",
	}
	require.NoError(t, db.Create(&purchase).Error)

	payload := checkoutCompletedEvent("cs_test_idem", 25000)
	for i := 0; i < 2; i++ {
		resp, err := app.Test(signedWebhookRequest(payload))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	var updated models.CoursePurchase
	require.NoError(t, db.First(&updated, purchase.ID).Error)
	assert.Equal(t, models.PurchaseCompleted, updated.Status)
	assert.Equal(t, 250.0, updated.Amount)

	// Enrollment sets do not duplicate
	var enrolled int64
	db.Table("enrollments").
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrolled)
	assert.Equal(t, int64(1), enrolled)

	var lecture models.Lecture
	require.NoError(t, db.Where("course_id = ?", course.ID).First(&lecture).Error)
	assert.True(t, lecture.IsPreviewFree)
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	fakePay.reset()
	user, _ := createTestUser(t, "webhook-badsig@example.com", "student")
	course := createTestCourse(t, user.ID, 300, 1)

	purchase := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    300,
		Status:    models.PurchasePending,
		PaymentID: "cs_test_badsig",
	}
	require.NoError(t, db.Create(&purchase).Error)

	payload := checkoutCompletedEvent("cs_test_badsig", 30000)
	badReq := signedWebhookRequest(payload)
	badReq.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	resp, err := app.Test(badReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Nothing was mutated
	var updated models.CoursePurchase
	require.NoError(t, db.First(&updated, purchase.ID).Error)
	assert.Equal(t, models.PurchasePending, updated.Status)

	var lecture models.Lecture
	require.NoError(t, db.Where("course_id = ?", course.ID).First(&lecture).Error)
	assert.False(t, lecture.IsPreviewFree)

	var enrolled int64
	db.Table("enrollments").
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrolled)
	assert.Equal(t, int64(0), enrolled)
}

func TestWebhookAcknowledgesOtherEventTypes(t *testing.T) {
	fakePay.reset()
	user, _ := createTestUser(t, "webhook-other@example.com", "student")
	course := createTestCourse(t, user.ID, 300, 0)

	purchase := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    300,
		Status:    models.PurchasePending,
		PaymentID: "cs_test_other",
	}
	require.NoError(t, db.Create(&purchase).Error)

	payload := []byte(`{"id":"evt_other","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	resp, err := app.Test(signedWebhookRequest(payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.CoursePurchase
	require.NoError(t, db.First(&updated, purchase.ID).Error)
	assert.Equal(t, models.PurchasePending, updated.Status)
}

func TestWebhookUnknownPaymentID(t *testing.T) {
	fakePay.reset()

	payload := checkoutCompletedEvent("cs_test_never_seen", 10000)
	resp, err := app.Test(signedWebhookRequest(payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPendingPurchaseReportsPurchased(t *testing.T) {
	fakePay.reset()
	user, token := createTestUser(t, "status-pending@example.com", "student")
	course := createTestCourse(t, user.ID, 300, 0)

	purchase := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    300,
		Status:    models.PurchasePending,
		PaymentID: "cs_test_pending_status",
	}
	require.NoError(t, db.Create(&purchase).Error)

	req := jsonRequest("GET", fmt.Sprintf("/api/purchase/course/%d", course.ID), nil, token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	// A pending (unpaid) purchase still reports as purchased
	assert.Equal(t, true, result["purchased"])
}

func TestGetCourseDetailWithoutPurchase(t *testing.T) {
	fakePay.reset()
	user, token := createTestUser(t, "status-none@example.com", "student")
	course := createTestCourse(t, user.ID, 300, 0)

	req := jsonRequest("GET", fmt.Sprintf("/api/purchase/course/%d", course.ID), nil, token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, false, result["purchased"])
	assert.NotNil(t, result["course"])
}

func TestGetAllPurchasedCoursesListsOnlyCompleted(t *testing.T) {
	fakePay.reset()
	user, token := createTestUser(t, "list-completed@example.com", "student")
	course := createTestCourse(t, user.ID, 300, 0)

	completed := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    300,
		Status:    models.PurchaseCompleted,
		PaymentID: "cs_test_list_completed",
	}
	require.NoError(t, db.Create(&completed).Error)

	pending := models.CoursePurchase{
		CourseID:  course.ID,
		UserID:    user.ID,
		Amount:    300,
		Status:    models.PurchasePending,
		PaymentID: "cs_test_list_pending",
	}
	require.NoError(t, db.Create(&pending).Error)

	req := jsonRequest("GET", "/api/purchase/all", nil, token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Purchases []models.CoursePurchase `json:"purchases"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	for _, p := range result.Purchases {
		assert.Equal(t, models.PurchaseCompleted, p.Status)
	}

	var ids []uint
	for _, p := range result.Purchases {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, completed.ID)
	assert.NotContains(t, ids, pending.ID)
}

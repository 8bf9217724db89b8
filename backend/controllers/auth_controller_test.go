package controllers_test

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	req := jsonRequest("POST", "/api/auth/register", fiber.Map{
		"name":     "New User",
		"email":    "newuser@example.com",
		"password": "password123",
	}, "")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.NotEmpty(t, result["token"])
	assert.NotEmpty(t, result["user"])
	assert.Equal(t, "student", result["user"].(map[string]interface{})["role"])
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	req := jsonRequest("POST", "/api/auth/register", fiber.Map{
		"email": "incomplete@example.com",
	}, "")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	registerReq := jsonRequest("POST", "/api/auth/register", fiber.Map{
		"name":     "Login User",
		"email":    "login@example.com",
		"password": "password123",
	}, "")
	_, err := app.Test(registerReq)
	require.NoError(t, err)

	req := jsonRequest("POST", "/api/auth/login", fiber.Map{
		"email":    "login@example.com",
		"password": "password123",
	}, "")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.NotEmpty(t, result["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	registerReq := jsonRequest("POST", "/api/auth/register", fiber.Map{
		"name":     "Wrong Password User",
		"email":    "wrongpass@example.com",
		"password": "password123",
	}, "")
	_, err := app.Test(registerReq)
	require.NoError(t, err)

	req := jsonRequest("POST", "/api/auth/login", fiber.Map{
		"email":    "wrongpass@example.com",
		"password": "not-the-password",
	}, "")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetProfile(t *testing.T) {
	registerReq := jsonRequest("POST", "/api/auth/register", fiber.Map{
		"name":     "Profile User",
		"email":    "profile@example.com",
		"password": "password123",
	}, "")
	registerResp, err := app.Test(registerReq)
	require.NoError(t, err)

	var registerResult map[string]interface{}
	json.NewDecoder(registerResp.Body).Decode(&registerResult)
	token := registerResult["token"].(string)

	req := jsonRequest("GET", "/api/user/profile", nil, token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, "Profile User", result["name"])
	assert.Equal(t, "profile@example.com", result["email"])
}

func TestGetProfileAcceptsBearerScheme(t *testing.T) {
	_, token := createTestUser(t, "bearer@example.com", "student")

	req := jsonRequest("GET", "/api/user/profile", nil, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetProfileUnauthorized(t *testing.T) {
	req := jsonRequest("GET", "/api/user/profile", nil, "")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

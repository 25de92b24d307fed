package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-api/internal/users"
	"github.com/gin-gonic/gin"
)

// --- User Registration ---

// SignupInput holds the JSON a customer signs up with.
// It is separate from models.User because we never accept an id or role from the client.
type SignupInput struct {
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,min=8"`
	MobileNumber *string `json:"mobileNumber"`
}

// Signup handles POST /v1/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 2. --- Create the user and issue a token ---
	session, err := h.Users.Signup(c.Request.Context(), users.SignupInput{
		Email:        input.Email,
		MobileNumber: input.MobileNumber,
		Password:     input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. --- Send Success Response ---
	// The 'json:"-"' tag keeps the password hash out of the body.
	c.JSON(http.StatusCreated, session)
}

// --- User Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.Users.Login(c.Request.Context(), users.LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type LoginByMobileInput struct {
	MobileNumber string `json:"mobileNumber" binding:"required"`
}

// LoginByMobile handles POST /v1/auth/login-mobile
func (h *Handlers) LoginByMobile(c *gin.Context) {
	var input LoginByMobileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.Users.LoginByMobile(c.Request.Context(), input.MobileNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

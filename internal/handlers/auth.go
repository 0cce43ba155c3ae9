package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/auth"
	"github.com/ukydev/anchor/internal/db"
	"github.com/ukydev/anchor/internal/middleware"
	"github.com/ukydev/anchor/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	validate       *validator.Validate
	logger         *logrus.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		validate:       validator.New(),
		logger:         logger,
	}
}

// Signup registers a new user and returns an identity token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithFields(logrus.Fields{"handler": "auth", "method": "Signup"})
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Avatar = strings.TrimSpace(req.Avatar)

	if err := h.validate.Struct(req); err != nil {
		log.WithError(err).Warn("Validation failed")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if _, err := h.userCollection.FindUserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	if _, err := h.userCollection.FindUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	avatar := req.Avatar
	if avatar == "" {
		avatar = models.SignupAvatar
	}
	user, err := h.userCollection.InsertUser(r.Context(), models.User{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Avatar:       avatar,
		Location:     &models.Location{},
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicateUser) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		log.WithError(err).Error("Failed to create user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, refreshToken, err := h.issueTokens(user)
	if err != nil {
		log.WithError(err).Error("Failed to generate tokens")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.WithField("user_id", user.ID.Hex()).Info("User registered")
	writeJSON(w, http.StatusCreated, models.SignupResponse{
		Message:      "User registered successfully",
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.Public(),
	})
}

// Login authenticates by email or username and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithFields(logrus.Fields{"handler": "auth", "method": "Login"})
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.WithError(err).Warn("Validation failed")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var (
		user *models.User
		err  error
	)
	if req.Email != "" {
		user, err = h.userCollection.FindUserByEmail(r.Context(), req.Email)
	} else {
		user, err = h.userCollection.FindUserByUsername(r.Context(), req.Username)
	}
	if err != nil {
		if !errors.Is(err, db.ErrUserNotFound) {
			log.WithError(err).Error("Failed to look up user")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, refreshToken, err := h.issueTokens(user)
	if err != nil {
		log.WithError(err).Error("Failed to generate tokens")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Message:      "Login successful",
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.Public(),
	})
}

// UserData returns the caller's profile.
func (h *AuthHandler) UserData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	switch {
	case errors.Is(err, db.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, db.ErrInvalidUserID):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	case err != nil:
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to fetch user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(user *models.User) (string, string, error) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}
	return token, refreshToken, nil
}

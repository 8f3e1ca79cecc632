package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"cowrite/internal/models"
	"cowrite/internal/repositories"
	"cowrite/internal/utils"
)

// AuthHandler manages authentication endpoints.
type AuthHandler struct {
	Repo      *repositories.UserRepository
	JWTSecret string
}

func NewAuthHandler(repo *repositories.UserRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{Repo: repo, JWTSecret: jwtSecret}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string            `json:"message"`
	User    models.ActiveUser `json:"user"`
	Email   string            `json:"email"`
	Token   string            `json:"token"`
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing fields")
		return
	}

	if existing, _ := h.Repo.GetUserByEmail(req.Email); existing != nil {
		utils.JSONError(w, http.StatusConflict, "user already exists with this email")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user := &models.User{Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	if err := h.Repo.CreateUser(user); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := utils.SignToken(user.ID, h.JWTSecret)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	utils.JSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    models.ActiveUser{ID: user.ID, Name: user.Name},
		Email:   user.Email,
		Token:   token,
	})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "please provide email and password")
		return
	}

	user, err := h.Repo.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			utils.JSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "server error during login")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		utils.JSONError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := utils.SignToken(user.ID, h.JWTSecret)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	utils.JSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    models.ActiveUser{ID: user.ID, Name: user.Name},
		Email:   user.Email,
		Token:   token,
	})
}

// MeHandler returns the authenticated user's profile.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	user, err := h.Repo.GetUserByID(userID)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "user not found")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{"id": user.ID, "name": user.Name, "email": user.Email},
	})
}

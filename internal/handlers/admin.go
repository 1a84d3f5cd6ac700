package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler handles admin authentication. The kiosk has a single admin
// account configured through the environment; there is no user table.
type AdminHandler struct {
	Cfg *config.Config
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg *config.Config) *AdminHandler {
	return &AdminHandler{Cfg: cfg}
}

// Login authenticates the admin and issues access and refresh tokens.
func (h *AdminHandler) Login(c *gin.Context) {
	var credentials struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	if credentials.Username != h.Cfg.EnvVars.AdminUsername {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.Cfg.EnvVars.AdminPasswordHash), []byte(credentials.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	accessToken, err := generateAdminAccessToken(credentials.Username, h.Cfg.EnvVars.JwtSecretKey)
	if err != nil {
		logger.Get().Error("failed to generate access token on login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	refreshToken, err := generateAdminRefreshToken(credentials.Username, h.Cfg.EnvVars.JwtSecretKey)
	if err != nil {
		logger.Get().Error("failed to generate refresh token on login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "refresh_token": refreshToken, "message": "Logged in successfully"})
}

// RefreshToken validates a refresh token and issues a new token pair.
func (h *AdminHandler) RefreshToken(c *gin.Context) {
	var request struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(request.RefreshToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.Cfg.EnvVars.JwtSecretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token type"})
		return
	}
	username, ok := claims["username"].(string)
	if !ok || username != h.Cfg.EnvVars.AdminUsername {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username in token"})
		return
	}

	accessToken, err := generateAdminAccessToken(username, h.Cfg.EnvVars.JwtSecretKey)
	if err != nil {
		logger.Get().Error("failed to generate access token on refresh", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	newRefreshToken, err := generateAdminRefreshToken(username, h.Cfg.EnvVars.JwtSecretKey)
	if err != nil {
		logger.Get().Error("failed to generate refresh token on refresh", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "refresh_token": newRefreshToken})
}

// generateAdminAccessToken generates a short-lived admin access token.
func generateAdminAccessToken(username, secretKey string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"role":     "admin",
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
		"iat":      time.Now().Unix(),
		"type":     "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("generateAdminAccessToken: %v", err)
	}
	return tokenString, nil
}

// generateAdminRefreshToken generates a long-lived admin refresh token.
func generateAdminRefreshToken(username, secretKey string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"role":     "admin",
		"exp":      time.Now().Add(30 * 24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
		"type":     "refresh",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("generateAdminRefreshToken: %v", err)
	}
	return tokenString, nil
}

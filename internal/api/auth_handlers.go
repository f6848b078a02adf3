package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/readmodel"
	"github.com/google/uuid"
)

// hashToken hashes a refresh token before storage so a leaked session
// document cannot be replayed.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	userService  *user.Service
	jwtService   *auth.JWTService
	queryHandler *query.Handler
	readStore    store.ReadStoreInterface
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(userService *user.Service, jwtService *auth.JWTService, queryHandler *query.Handler, readStore store.ReadStoreInterface) *AuthHandlers {
	return &AuthHandlers{
		userService:  userService,
		jwtService:   jwtService,
		queryHandler: queryHandler,
		readStore:    readStore,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	if _, err := h.queryHandler.GetUserByEmail(req.Email); err == nil {
		respondErrorCode(w, http.StatusConflict, CodeValidation, "email already registered")
		return
	}

	newUser, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.setAuthCookies(w, newUser.ID, newUser.Email, newUser.Role, r)

	respondJSON(w, http.StatusCreated, UserResponse{
		ID:        newUser.ID,
		Email:     newUser.Email,
		Name:      newUser.Name,
		Role:      newUser.Role,
		CreatedAt: newUser.CreatedAt,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	userModel, err := h.queryHandler.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			respondDomainError(w, user.ErrInvalidCredentials)
			return
		}
		respondDomainError(w, err)
		return
	}

	if !userModel.IsActive {
		respondDomainError(w, user.ErrUserDeactivated)
		return
	}

	if !auth.CheckPassword(req.Password, userModel.PasswordHash) {
		respondDomainError(w, user.ErrInvalidCredentials)
		return
	}

	sessionID := h.setAuthCookies(w, userModel.ID, userModel.Email, userModel.Role, r)

	// Best-effort audit event; login succeeds even if it fails
	_ = h.userService.RecordLogin(r.Context(), userModel.ID, sessionID, r.RemoteAddr, r.UserAgent())

	respondJSON(w, http.StatusOK, UserResponse{
		ID:        userModel.ID,
		Email:     userModel.Email,
		Name:      userModel.Name,
		Role:      userModel.Role,
		CreatedAt: userModel.CreatedAt,
	})
}

// Logout handles user logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if ok {
		sessionID := ""
		if cookie, err := r.Cookie("session_id"); err == nil {
			sessionID = cookie.Value
		}
		_ = h.userService.RecordLogout(r.Context(), claims.UserID, sessionID)
		if sessionID != "" {
			_ = h.readStore.Delete(readmodel.CollectionSessions, sessionID)
		}
	}

	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

// Refresh rotates the token pair using the refresh cookie and its
// stored session.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "no refresh token")
		return
	}

	sessionCookie, err := r.Cookie("session_id")
	if err != nil {
		h.clearAuthCookies(w)
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "no session")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "invalid refresh token")
		return
	}

	sessionData, exists, err := h.readStore.Get(readmodel.CollectionSessions, sessionCookie.Value)
	if err != nil || !exists {
		h.clearAuthCookies(w)
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "session not found")
		return
	}
	session, ok := sessionData.(*readmodel.SessionReadModel)
	if !ok {
		h.clearAuthCookies(w)
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "session not found")
		return
	}

	if time.Now().After(session.ExpiresAt) {
		_ = h.readStore.Delete(readmodel.CollectionSessions, sessionCookie.Value)
		h.clearAuthCookies(w)
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "session expired")
		return
	}

	if hashToken(refreshCookie.Value) != session.RefreshTokenHash {
		h.clearAuthCookies(w)
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "invalid refresh token")
		return
	}

	userModel, err := h.queryHandler.GetUser(userID)
	if err != nil {
		h.clearAuthCookies(w)
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "user not found")
		return
	}
	if !userModel.IsActive {
		h.clearAuthCookies(w)
		respondDomainError(w, user.ErrUserDeactivated)
		return
	}

	// Rotate: old session out, fresh pair in
	_ = h.readStore.Delete(readmodel.CollectionSessions, sessionCookie.Value)
	h.setAuthCookies(w, userModel.ID, userModel.Email, userModel.Role, r)

	respondJSON(w, http.StatusOK, map[string]string{"message": "token refreshed"})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	userModel, err := h.queryHandler.GetUser(claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{
		ID:        userModel.ID,
		Email:     userModel.Email,
		Name:      userModel.Name,
		Role:      userModel.Role,
		CreatedAt: userModel.CreatedAt,
	})
}

// UpdateProfile updates the caller's profile fields
func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	if err := h.userService.UpdateProfile(r.Context(), claims.UserID, req.Name, req.Phone); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

// ChangePassword handles password change requests
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	userModel, err := h.queryHandler.GetUser(claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !auth.CheckPassword(req.CurrentPassword, userModel.PasswordHash) {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "current password is incorrect")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), claims.UserID, req.NewPassword); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// setAuthCookies issues a fresh token pair, stores the session and sets
// the cookies. Returns the new session id.
func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, userID, email, role string, r *http.Request) string {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(userID, email, role)
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(userID)

	sessionID := uuid.New().String()
	_ = h.readStore.Set(readmodel.CollectionSessions, sessionID, &readmodel.SessionReadModel{
		ID:               sessionID,
		UserID:           userID,
		RefreshTokenHash: hashToken(refreshToken),
		ExpiresAt:        refreshExpiry,
		IPAddress:        r.RemoteAddr,
		UserAgent:        r.UserAgent(),
		CreatedAt:        time.Now(),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/api/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    sessionID,
		Path:     "/",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	return sessionID
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

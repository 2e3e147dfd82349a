package handlers

import (
	"bufio"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/apperrors"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

const maxAvatarBytes = 5 << 20 // 5MB

type AuthResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token"`
	User    services.AuthUser `json:"user"`
}

type ProfileResponse struct {
	Success bool              `json:"success"`
	Profile *services.Profile `json:"profile"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"idToken"`
}

// AuthHandler serves the /api/auth routes.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates an account and signs the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

// Google signs in with a Google ID token, creating or linking the account on first use.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleSignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.auth.ExternalSignIn(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

// Logout always succeeds; tokens are stateless and the client discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), middleware.BearerToken(r))
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Signed out successfully"})
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.OwnerID(r.Context())

	profile, err := h.auth.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: profile})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.OwnerID(r.Context())

	var req services.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.auth.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: profile})
}

// UploadAvatar accepts a multipart "file" image of at most 5MB.
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.OwnerID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+512)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, r, apperrors.Validation("file", "avatar must be a multipart upload of at most 5MB"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperrors.Validation("file", "file is required"))
		return
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	head, _ := buffered.Peek(512)
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		writeError(w, r, apperrors.Validation("file", "file must be an image"))
		return
	}

	profile, err := h.auth.UploadAvatar(r.Context(), userID, buffered)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: profile})
}

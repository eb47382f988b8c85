package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/moviehub/theater-api/internal/auth"
	"github.com/moviehub/theater-api/internal/httputil"
	"github.com/moviehub/theater-api/internal/logging"
)

// Avatar uploads are capped well below typical photo sizes.
const maxAvatarSize = 5 << 20 // 5 MB

var allowedAvatarTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// FileUploader is the storage surface the profile handler needs.
// Implemented by storage.Client.
type FileUploader interface {
	UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Handler contains HTTP handlers for profile endpoints.
type Handler struct {
	repo     *Repository
	uploader FileUploader
	logger   *logging.Logger
}

func NewHandler(repo *Repository, uploader FileUploader, logger *logging.Logger) *Handler {
	return &Handler{
		repo:     repo,
		uploader: uploader,
		logger:   logger,
	}
}

// Me returns the authenticated user's profile
// @Summary      Get own profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Profile
// @Failure      404 {object} httputil.ErrorResponse "No profile yet"
// @Router       /profiles/me/ [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Authentication required.", http.StatusUnauthorized)
		return
	}

	p, err := h.repo.GetByUserID(r.Context(), currentUser.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondError(w, "Profile not found.", http.StatusNotFound)
			return
		}
		logger.Error("failed to get profile", "user_id", currentUser.ID, "error", err.Error())
		httputil.RespondError(w, "Failed to get profile.", http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, p, http.StatusOK)
}

// Create creates the authenticated user's profile
// @Summary      Create own profile
// @Description  Multipart form with optional avatar image. Each user gets one profile.
// @Tags         profiles
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        first_name    formData string false "First name"
// @Param        last_name     formData string false "Last name"
// @Param        gender        formData string false "Gender (man or woman)"
// @Param        date_of_birth formData string false "Date of birth (YYYY-MM-DD)"
// @Param        info          formData string false "About"
// @Param        avatar        formData file   false "Avatar image"
// @Success      201 {object} Profile
// @Failure      400 {object} httputil.ErrorResponse "Profile exists or invalid field"
// @Router       /profiles/ [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Authentication required.", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		httputil.RespondError(w, "Invalid multipart form.", http.StatusBadRequest)
		return
	}

	p := &Profile{
		UserID:      currentUser.ID,
		FirstName:   formValue(r, "first_name"),
		LastName:    formValue(r, "last_name"),
		Gender:      formValue(r, "gender"),
		DateOfBirth: formValue(r, "date_of_birth"),
		Info:        formValue(r, "info"),
	}

	if p.Gender != nil && *p.Gender != "man" && *p.Gender != "woman" {
		httputil.RespondError(w, "Gender must be 'man' or 'woman'.", http.StatusBadRequest)
		return
	}

	if p.DateOfBirth != nil {
		if _, err := time.Parse("2006-01-02", *p.DateOfBirth); err != nil {
			httputil.RespondError(w, "Date of birth must be in YYYY-MM-DD format.", http.StatusBadRequest)
			return
		}
	}

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		contentType, ok := allowedAvatarTypes[ext]
		if !ok {
			httputil.RespondError(w, "Avatar must be a JPEG, PNG, or WebP image.", http.StatusBadRequest)
			return
		}
		if header.Size > maxAvatarSize {
			httputil.RespondError(w, "Avatar file is too large.", http.StatusBadRequest)
			return
		}

		key := fmt.Sprintf("avatars/%s%s", currentUser.ID, ext)
		url, err := h.uploader.UploadFile(r.Context(), key, file, contentType)
		if err != nil {
			logger.Error("failed to upload avatar", "user_id", currentUser.ID, "error", err.Error())
			httputil.RespondError(w, "Failed to upload avatar.", http.StatusInternalServerError)
			return
		}
		p.AvatarURL = &url
	}

	if err := h.repo.Create(r.Context(), p); err != nil {
		if errors.Is(err, ErrExists) {
			httputil.RespondError(w, "Profile already exists.", http.StatusBadRequest)
			return
		}
		logger.Error("failed to create profile", "user_id", currentUser.ID, "error", err.Error())
		httputil.RespondError(w, "Failed to create profile.", http.StatusInternalServerError)
		return
	}

	logger.Info("profile created", "user_id", currentUser.ID)

	httputil.RespondJSON(w, p, http.StatusCreated)
}

func formValue(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

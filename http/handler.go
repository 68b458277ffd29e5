package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/r2gate"
)

// Authenticator issues and resolves sessions.
type Authenticator interface {
	Login(ctx context.Context, username, token string) (r2gate.Session, r2gate.Identity, error)
	ResolveSession(ctx context.Context, sessionID string) (r2gate.Identity, error)
	EndSessionsForUser(ctx context.Context, username string) error
}

// Storage proxies file operations to the object store.
type Storage interface {
	List(ctx context.Context, q r2gate.ListQuery) ([]r2gate.FileInfo, error)
	Upload(ctx context.Context, filename string, data []byte, contentType string) error
	Download(ctx context.Context, filename string) (r2gate.Object, error)
	Delete(ctx context.Context, filename string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	Cookie CookieConfig
	CORS   CORSConfig
	// MaxUploadSize limits request bodies on upload routes. Zero disables the limit.
	MaxUploadSize int64
	// StaticDir is served at / when it names an existing directory.
	StaticDir string
}

// Handler provides the HTTP API for sessions and files.
type Handler struct {
	config  HandlerConfig
	auth    Authenticator
	storage Storage
}

// NewHandler creates a new Handler with the given configuration and services.
func NewHandler(config *HandlerConfig, auth Authenticator, storage Storage) *Handler {
	return &Handler{
		config:  *config,
		auth:    auth,
		storage: storage,
	}
}

// Router returns an http.Handler with the /api routes and, when configured,
// the static directory mounted at /.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(h.auth))
			r.Post("/logout", h.handleLogout)
			r.Get("/whoami", h.handleWhoAmI)
			r.Get("/files", h.handleList)
			r.Post("/files", h.handleUpload)
			r.Get("/files/{filename}", h.handleDownload)
			r.Put("/files/{filename}", h.handleUpdate)
			r.Delete("/files/{filename}", h.handleDelete)
		})
	})

	if dir := h.config.StaticDir; dir != "" && isDir(dir) {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	} else {
		r.NotFound(writeDefaultNotFound)
	}

	return r
}

type loginRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type loginResponse struct {
	Name string `json:"name"`
}

type listResponse struct {
	Files []r2gate.FileInfo `json:"files"`
	Total int               `json:"total"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Message  string `json:"message"`
}

type deleteResponse struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleError(w, fmt.Errorf("decode login request: %w: %w", r2gate.ErrInvalidInput, err))
		return
	}

	session, identity, err := h.auth.Login(r.Context(), req.Username, req.Token)
	if err != nil {
		slog.Warn("login failed", "user", req.Username)
		HandleError(w, err)
		return
	}

	slog.Info("user logged in", "user", identity.Username)
	http.SetCookie(w, h.config.Cookie.Session(session.ID))
	_ = WriteJSON(w, http.StatusOK, loginResponse{Name: identity.Name})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	if err := h.auth.EndSessionsForUser(r.Context(), identity.Username); err != nil {
		HandleError(w, err)
		return
	}

	slog.Info("user logged out", "user", identity.Username)
	http.SetCookie(w, h.config.Cookie.Cleared())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Logged out")
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, IdentityFromContext(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	prefix := r.URL.Query().Get("prefix")
	limitStr := r.URL.Query().Get("limit")

	var limit int
	if limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		// Zero leaves the page size to the store.
		if err != nil || parsed < 0 {
			HandleError(w, fmt.Errorf("invalid limit %q: %w", limitStr, r2gate.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	slog.Info("listing files", "user", identity.Username, "prefix", prefix, "limit", limit)

	files, err := h.storage.List(r.Context(), r2gate.ListQuery{Prefix: prefix, Limit: limit})
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, listResponse{Files: files, Total: len(files)})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	part, err := h.firstPart(w, r)
	if err != nil {
		HandleError(w, err)
		return
	}
	if part == nil {
		WriteError(w, http.StatusInternalServerError, "No file provided")
		return
	}
	defer func() { _ = part.Close() }()

	filename := part.FileName()
	if filename == "" {
		WriteError(w, http.StatusInternalServerError, "No filename provided")
		return
	}

	contentType := partContentType(part)
	slog.Info("uploading file", "user", identity.Username, "filename", filename, "content_type", contentType)

	h.store(w, r, part, filename, contentType, "File uploaded successfully")
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	filename, err := filenameParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	slog.Info("updating file", "user", identity.Username, "filename", filename)

	part, err := h.firstPart(w, r)
	if err != nil {
		HandleError(w, err)
		return
	}
	if part == nil {
		WriteError(w, http.StatusInternalServerError, "No file provided")
		return
	}
	defer func() { _ = part.Close() }()

	h.store(w, r, part, filename, partContentType(part), "File updated successfully")
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, part *multipart.Part, filename, contentType, message string) {
	data, err := io.ReadAll(part)
	if err != nil {
		HandleError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	if err := h.storage.Upload(r.Context(), filename, data, contentType); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, uploadResponse{
		Filename: filename,
		Size:     len(data),
		Message:  message,
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	filename, err := filenameParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	slog.Info("downloading file", "user", identity.Username, "filename", filename)

	obj, err := h.storage.Download(r.Context(), filename)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = obj.Body.Close() }()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Error("failed to stream file", "filename", filename, "err", err)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	filename, err := filenameParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	slog.Info("deleting file", "user", identity.Username, "filename", filename)

	if err := h.storage.Delete(r.Context(), filename); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, deleteResponse{
		Filename: filename,
		Message:  "File deleted successfully",
	})
}

// firstPart returns the first part of a multipart body, or nil when the body
// has no parts.
func (h *Handler) firstPart(w http.ResponseWriter, r *http.Request) (*multipart.Part, error) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read multipart: %w", err)
	}

	part, err := mr.NextPart()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read multipart: %w", err)
	}
	return part, nil
}

func partContentType(part *multipart.Part) string {
	if ct := part.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return r2gate.DefaultContentType
}

func filenameParam(r *http.Request) (string, error) {
	param := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return param, nil
	}

	// chi matches against RawPath when set, leaving escapes such as %2F in place.
	filename, err := url.PathUnescape(param)
	if err != nil {
		return "", fmt.Errorf("filename: %w", r2gate.ErrInvalidInput)
	}
	return filename, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

package http

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/veriseal/veriseal"
)

type Service interface {
	Upload(ctx context.Context, in veriseal.UploadInput) (veriseal.UploadResult, error)
	Verify(fingerprint string) (veriseal.Record, bool)
	ResolveFileLocation(fingerprint string) (string, error)
	Reports() []veriseal.Report
	StoreConfig(ctx context.Context) veriseal.BucketInfo
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	// ReportsKey is the shared secret guarding the report listing.
	ReportsKey string
	// MaxUploadSize caps the request body in bytes; 0 means no limit.
	MaxUploadSize int64
	CORS          CORSConfig
}

// Handler provides the HTTP handlers for upload and verification.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
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

	r.Get("/", h.handleIndex)
	r.Get("/healthz", h.handleHealthz)
	r.Post("/upload", h.handleUpload)
	r.Get("/file", h.handleFile)
	r.Get("/verify", h.handleVerify)
	r.Get("/config", h.handleConfig)

	r.Group(func(r chi.Router) {
		r.Use(SecretMiddleware(h.config.ReportsKey))
		r.Get("/api/reports", h.handleReports)
	})

	return r
}

type uploadResponse struct {
	OK bool `json:"ok"`
	veriseal.UploadResult
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "no_file", "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "no_file", "Could not read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")

	in := veriseal.UploadInput{
		Data:       data,
		Hash:       r.FormValue("hash"),
		TargetName: r.FormValue("targetName"),
		FileName:   header.Filename,
		MimeType:   mimeType,
	}

	result, err := h.service.Upload(r.Context(), in)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, uploadResponse{OK: true, UploadResult: result})
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		WriteError(w, http.StatusBadRequest, "missing_hash", "Missing hash parameter")
		return
	}

	fileURL, err := h.service.ResolveFileLocation(hash)
	if err != nil {
		HandleError(w, err)
		return
	}

	http.Redirect(w, r, fileURL, http.StatusFound)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		writeVerifyPage(w, verifyPageData{})
		return
	}

	rec, found := h.service.Verify(hash)
	writeVerifyPage(w, verifyPageData{
		Hash:     hash,
		Found:    found,
		FileName: rec.FileName,
		FileURL:  rec.FileURL,
		Created:  rec.CreatedAt,
	})
}

type reportsResponse struct {
	OK      bool              `json:"ok"`
	Reports []veriseal.Report `json:"reports"`
}

func (h *Handler) handleReports(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, reportsResponse{OK: true, Reports: h.service.Reports()})
}

type configResponse struct {
	B2Enabled       bool   `json:"b2Enabled"`
	B2BucketName    string `json:"b2BucketName"`
	B2PublicBaseURL string `json:"b2PublicBaseUrl"`
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	info := h.service.StoreConfig(r.Context())
	_ = WriteJSON(w, http.StatusOK, configResponse{
		B2Enabled:       info.Enabled,
		B2BucketName:    info.BucketName,
		B2PublicBaseURL: info.PublicBaseURL,
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

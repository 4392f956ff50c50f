package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/auth"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/service"
)

const (
	// PresentationContentType задаёт MIME-тип готового .pptx.
	PresentationContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

	// DefaultMaxUpload: лимит тела запроса по умолчанию (32 МБ).
	DefaultMaxUpload int64 = 32 << 20

	fieldTemplate      = "template_file"
	fieldCodes         = "running_numbers"
	fieldPlaceholder   = "placeholder_text"
	fieldItemsPerSlide = "items_per_slide"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexPage = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Handler обслуживает HTTP-маршруты генератора.
type Handler struct {
	Service   *service.GeneratorService
	Logger    *zap.Logger
	MaxUpload int64
}

// NewHandler создаёт обработчик. maxUpload <= 0 означает DefaultMaxUpload.
func NewHandler(svc *service.GeneratorService, logger *zap.Logger, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{
		Service:   svc,
		Logger:    logger,
		MaxUpload: maxUpload,
	}
}

type indexData struct {
	Placeholder   string
	ItemsPerSlide int
	MaxUploadMB   int64
}

// Index отдаёт HTML-форму загрузки шаблона.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{
		Placeholder:   h.Service.DefaultPlaceholder,
		ItemsPerSlide: h.Service.DefaultItemsPerSlide,
		MaxUploadMB:   h.MaxUpload >> 20,
	}
	if err := indexPage.Execute(w, data); err != nil {
		h.Logger.Error("Failed to render index page", zap.Error(err))
	}
}

// Generate принимает шаблон и коды из multipart-формы и возвращает заполненный .pptx.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)

	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Uploaded file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.Logger.Warn("Failed to remove multipart temp files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile(fieldTemplate)
	if err != nil {
		// Часть без имени файла multipart считает обычным полем
		if _, ok := r.MultipartForm.Value[fieldTemplate]; ok {
			http.Error(w, "No selected file", http.StatusBadRequest)
			return
		}
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		http.Error(w, "No selected file", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Error("Failed to read uploaded template", zap.Error(err))
		http.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := checkZipDocument(data); err != nil {
		h.fail(w, header.Filename, err)
		return
	}

	itemsPerSlide, err := parseItemsPerSlide(r.FormValue(fieldItemsPerSlide))
	if err != nil {
		h.fail(w, header.Filename, err)
		return
	}

	req := model.GenerateRequest{
		Filename:       header.Filename,
		RunningNumbers: r.FormValue(fieldCodes),
		Placeholder:    r.FormValue(fieldPlaceholder),
		Template:       data,
		ItemsPerSlide:  itemsPerSlide,
	}

	result, err := h.Service.Generate(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		if errors.Is(err, service.ErrNoCodes) {
			http.Error(w, "Error: No running numbers provided.", http.StatusBadRequest)
			return
		}
		h.fail(w, header.Filename, err)
		return
	}

	w.Header().Set("Content-Type", PresentationContentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Document)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Document); err != nil {
		h.Logger.Warn("Failed to write response", zap.Error(err))
	}
}

// UserGenerations возвращает историю генераций текущего пользователя.
func (h *Handler) UserGenerations(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.History(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("Failed to load history", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, items)
}

// Stats возвращает агрегированную статистику журнала.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, stats)
}

// Ping проверяет доступность хранилища журнала.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Ping(r.Context()); err != nil {
		h.Logger.Error("Storage ping failed", zap.Error(err))
		http.Error(w, "Storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// fail отвечает 500 "An error occurred: <сообщение>" на любую ошибку, кроме трёх клиентских.
func (h *Handler) fail(w http.ResponseWriter, filename string, err error) {
	h.Logger.Error("Generation failed", zap.String("template", filename), zap.Error(err))
	http.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", zap.Error(err))
	}
}

// checkZipDocument проверяет по сигнатуре, что загружен zip-контейнер (pptx, docx, zip...).
func checkZipDocument(data []byte) error {
	detected := mimetype.Detect(data)
	for mt := detected; mt != nil; mt = mt.Parent() {
		if mt.Is("application/zip") {
			return nil
		}
	}
	return fmt.Errorf("uploaded file is not a PowerPoint presentation (detected %s)", detected.String())
}

// parseItemsPerSlide: пустое значение означает значение по умолчанию (0).
func parseItemsPerSlide(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid literal for items per slide: %q", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", service.ErrInvalidItemsPerSlide, n)
	}
	return n, nil
}

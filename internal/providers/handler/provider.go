package handler

import (
	"net/http"
	"strconv"
	"strings"

	"carelink/internal/providers/service"
	"carelink/pkg/auth"
	apperrors "carelink/pkg/errors"
	httputil "carelink/pkg/http"
	"carelink/pkg/logger"
	"carelink/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const filterPath = "filter"

type ProviderHandler struct {
	service service.ProviderService
	log     *logger.Logger
}

func NewProviderHandler(service service.ProviderService, log *logger.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		log:     log,
	}
}

func (h *ProviderHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	h.search(w, r, "GetAll", filter, limit, offset)
}

func (h *ProviderHandler) Filter(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Filter", err)
		return
	}

	var filter model.ProviderFilter
	if err := httputil.DecodeJSON(r, &filter, true); err != nil {
		h.writeError(w, "Filter", err)
		return
	}

	h.search(w, r, "Filter", filter, limit, offset)
}

func (h *ProviderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	provider, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, provider); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	availability, err := h.service.GetAvailability(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "AddReview", apperrors.Unauthorized("Authentication required"))
		return
	}

	var req model.ReviewRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "AddReview", err)
		return
	}

	provider, err := h.service.AddReview(r.Context(), principal, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "AddReview", err)
		return
	}

	if err := httputil.WriteCreated(w, provider); err != nil {
		h.log.Error("failed to write created response", "handler", "AddReview", "operation", "WriteCreated", "error", err)
	}
}

// postByID serves POST /providers/filter. httprouter does not allow a static
// segment next to the :id wildcard, so the filter route shares its node.
func (h *ProviderHandler) postByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == filterPath {
		h.Filter(w, r, ps)
		return
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (h *ProviderHandler) search(w http.ResponseWriter, r *http.Request, name string, filter model.ProviderFilter, limit int, offset int64) {
	providers, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WritePaginated(w, providers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", name, "operation", "WritePaginated", "error", err)
	}
}

func (h *ProviderHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func filterFromQuery(r *http.Request) (model.ProviderFilter, error) {
	query := r.URL.Query()
	filter := model.ProviderFilter{
		Location:     query.Get("location"),
		Modes:        splitList(query["mode"]),
		TherapyTypes: splitList(query["therapyType"]),
	}

	if s := query.Get("minRating"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid minRating parameter: " + s)
		}
		filter.MinRating = v
	}
	if s := query.Get("maxRate"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid maxRate parameter: " + s)
		}
		filter.MaxRate = v
	}
	return filter, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func (h *ProviderHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/providers", h.GetAll)
	router.POST("/api/v1/providers/:id", h.postByID)
	router.GET("/api/v1/providers/:id", h.GetByID)
	router.GET("/api/v1/providers/:id/availability", h.GetAvailability)
	router.POST("/api/v1/providers/:id/reviews", h.AddReview)
}

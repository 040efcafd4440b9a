package handler

import (
	"net/http"
	"strconv"

	"carelink/internal/peerspaces/service"
	"carelink/pkg/auth"
	apperrors "carelink/pkg/errors"
	httputil "carelink/pkg/http"
	"carelink/pkg/logger"
	"carelink/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// WebSocketPath is mounted as a stream next to the REST routes.
const WebSocketPath = "/api/v1/peer-spaces/ws"

type PeerSpaceHandler struct {
	service service.SpaceService
	log     *logger.Logger
}

func NewPeerSpaceHandler(service service.SpaceService, log *logger.Logger) *PeerSpaceHandler {
	return &PeerSpaceHandler{
		service: service,
		log:     log,
	}
}

func (h *PeerSpaceHandler) ListRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.writeError(w, "ListRooms", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "ListRooms", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PeerSpaceHandler) RoomMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, "RoomMessages", apperrors.InvalidInput("invalid limit parameter: "+s))
			return
		}
		limit = v
	}

	messages, err := h.service.RoomMessages(r.Context(), ps.ByName("roomId"), limit)
	if err != nil {
		h.writeError(w, "RoomMessages", err)
		return
	}

	if err := httputil.WriteSuccess(w, messages); err != nil {
		h.log.Error("failed to write success response", "handler", "RoomMessages", "operation", "WriteSuccess", "error", err)
	}
}

// CreateSession links the pseudonym to the caller when a token was sent.
// A userId in the body is ignored.
func (h *PeerSpaceHandler) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SessionRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "CreateSession", err)
		return
	}

	principal, _ := auth.FromContext(r.Context())
	session, err := h.service.CreateSession(r.Context(), principal, &req)
	if err != nil {
		h.writeError(w, "CreateSession", err)
		return
	}

	if err := httputil.WriteCreated(w, session); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateSession", "operation", "WriteCreated", "error", err)
	}
}

func (h *PeerSpaceHandler) CheckPseudonym(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	available, err := h.service.PseudonymAvailable(r.Context(), ps.ByName("pseudonym"))
	if err != nil {
		h.writeError(w, "CheckPseudonym", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]bool{"available": available}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckPseudonym", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PeerSpaceHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	visits, err := h.service.History(r.Context(), ps.ByName("pseudonym"))
	if err != nil {
		h.writeError(w, "History", err)
		return
	}

	if err := httputil.WriteSuccess(w, visits); err != nil {
		h.log.Error("failed to write success response", "handler", "History", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PeerSpaceHandler) DeleteVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteVisit(r.Context(), ps.ByName("pseudonym"), ps.ByName("roomId")); err != nil {
		h.writeError(w, "DeleteVisit", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Visit removed from history", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "DeleteVisit", "operation", "WriteMessage", "error", err)
	}
}

func (h *PeerSpaceHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PeerSpaceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/peer-spaces/rooms", h.ListRooms)
	router.GET("/api/v1/peer-spaces/rooms/:roomId/messages", h.RoomMessages)
	router.POST("/api/v1/peer-spaces/sessions", h.CreateSession)
	router.GET("/api/v1/peer-spaces/check-pseudonym/:pseudonym", h.CheckPseudonym)
	router.GET("/api/v1/peer-spaces/history/:pseudonym", h.History)
	router.DELETE("/api/v1/peer-spaces/history/:pseudonym/:roomId", h.DeleteVisit)
}

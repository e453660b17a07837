package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"locumly/models"
	"locumly/services/candidates"
	"locumly/services/escalation"
	"locumly/services/shifts"
	"locumly/upstream"
	"locumly/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PosterHandler exposes the shift-owner actions.
type PosterHandler struct {
	Shifts shifts.ShiftService
}

func NewPosterHandler(svc shifts.ShiftService) *PosterHandler {
	return &PosterHandler{Shifts: svc}
}

func shiftIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid shift id", c.Param("id"))
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// respondServiceError maps service errors onto HTTP statuses. Every mapped
// response carries a correlation id so a client report can be tied back to
// the server log line.
func respondServiceError(c *gin.Context, err error) {
	corrID := uuid.New().String()
	logger := utils.GetLogger()

	var illegal *escalation.IllegalTransitionError
	var reveal *candidates.RevealError
	var ambiguous *shifts.SlotAmbiguityError
	var notReached *shifts.TierNotReachedError
	var shareTier *shifts.ShareTierError
	var api *upstream.APIError

	switch {
	case errors.Is(err, shifts.ErrShiftNotFound),
		errors.Is(err, shifts.ErrOfferNotFound),
		errors.Is(err, shifts.ErrInterestNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), corrID)
	case errors.Is(err, shifts.ErrActionInFlight):
		utils.JSONError(c, http.StatusConflict, err.Error(), corrID)
	case errors.As(err, &illegal), errors.As(err, &reveal), errors.As(err, &ambiguous):
		utils.JSONError(c, http.StatusUnprocessableEntity, err.Error(), corrID)
	case errors.As(err, &notReached), errors.As(err, &shareTier):
		utils.JSONError(c, http.StatusConflict, err.Error(), corrID)
	case errors.Is(err, upstream.ErrAuthExpired):
		utils.JSONError(c, http.StatusUnauthorized, "Marketplace session expired", corrID)
	case errors.As(err, &api):
		logger.Error("upstream error", zap.String("correlationId", corrID), zap.Int("status", api.Status), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Marketplace request failed", corrID)
	default:
		logger.Error("shift action failed", zap.String("correlationId", corrID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", corrID)
	}
}

// ListShiftsHandler lists the poster's shifts with reconciled marker sets.
func (h *PosterHandler) ListShiftsHandler(c *gin.Context) {
	filters := upstream.ShiftFilters{
		Role:           c.Query("role"),
		EmploymentType: c.Query("employmentType"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filters.Page = page
	}

	shiftList, markerSets, err := h.Shifts.ListShifts(c.Request.Context(), currentUserID(c), filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": shiftList, "markers": markerSets})
}

// EscalateHandler advances a shift's visibility tier.
func (h *PosterHandler) EscalateHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	var input struct {
		TargetLevel models.VisibilityLevel `json:"targetLevel" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	confirmed, err := h.Shifts.Escalate(c.Request.Context(), shiftID, input.TargetLevel)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift": confirmed})
}

// SelectLevelHandler previews a tier tab, or returns the escalate-to-review
// warning without switching.
func (h *PosterHandler) SelectLevelHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	var input struct {
		Level models.VisibilityLevel `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	sel, err := h.Shifts.SelectLevel(c.Request.Context(), shiftID, input.Level)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

// CandidatesHandler returns the reconciled candidate view for one tier tab.
func (h *PosterHandler) CandidatesHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	level := models.VisibilityLevel(c.Query("level"))
	if level == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing level", "query parameter 'level' is required")
		return
	}
	var slotID *int64
	if raw := c.Query("slotId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid slot id", raw)
			return
		}
		slotID = &id
	}

	view, err := h.Shifts.Candidates(c.Request.Context(), shiftID, level, slotID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// OffersHandler returns a shift's counter-offers, loading them on first use.
func (h *PosterHandler) OffersHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	offerList, err := h.Shifts.Offers(c.Request.Context(), shiftID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offerList})
}

// RevealHandler discloses an anonymous interest's identity.
func (h *PosterHandler) RevealHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	var input struct {
		InterestID int64 `json:"interestId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	interest, err := h.Shifts.Reveal(c.Request.Context(), shiftID, input.InterestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interest": interest})
}

// AcceptHandler assigns a candidate. With an offerId the assignment goes
// through the counter-offer's slot resolution; without one the candidate is
// accepted directly.
func (h *PosterHandler) AcceptHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	var input struct {
		UserID  int64  `json:"userId"`
		OfferID *int64 `json:"offerId"`
		SlotID  *int64 `json:"slotId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	var err error
	if input.OfferID != nil {
		err = h.Shifts.AcceptOffer(c.Request.Context(), shiftID, *input.OfferID, input.SlotID)
	} else if input.UserID > 0 {
		err = h.Shifts.AcceptCandidate(c.Request.Context(), shiftID, input.UserID, input.SlotID)
	} else {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", "either userId or offerId is required")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// RejectOfferHandler declines a counter-offer.
func (h *PosterHandler) RejectOfferHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	offerID, err := strconv.ParseInt(c.Param("offerId"), 10, 64)
	if err != nil || offerID <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid offer id", c.Param("offerId"))
		return
	}

	if err := h.Shifts.RejectOffer(c.Request.Context(), shiftID, offerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// DeleteHandler removes a shift.
func (h *PosterHandler) DeleteHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	if err := h.Shifts.Delete(c.Request.Context(), shiftID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ShareHandler returns a share link for a platform-tier shift.
func (h *PosterHandler) ShareHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	link, err := h.Shifts.Share(c.Request.Context(), shiftID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

package handlers

import (
	"net/http"
	"strconv"

	snapshotRepo "locumly/database/repository/snapshot"
	"locumly/models"
	"locumly/services/markers"
	"locumly/upstream"
	"locumly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SweepEnqueuer schedules a deferred marker sweep for a user.
type SweepEnqueuer interface {
	EnqueueMarkerSweep(userID string) error
}

// feedShift is a browse-feed row: the shift plus its slots expanded into
// concrete display occurrences.
type feedShift struct {
	models.Shift
	Occurrences []models.SlotOccurrence `json:"occurrences,omitempty"`
}

func toFeedShift(sh models.Shift) feedShift {
	out := feedShift{Shift: sh}
	for _, slot := range sh.Slots {
		out.Occurrences = append(out.Occurrences, slot.ExpandOccurrences()...)
	}
	return out
}

// WorkerHandler exposes the browse-side shift actions: the feed, apply,
// decline, and save, with the caller's marker sets reconciled in.
type WorkerHandler struct {
	Upstream  upstream.Client
	Markers   markers.MarkerService
	Snapshots snapshotRepo.SnapshotRepository
	Sweeps    SweepEnqueuer
}

func NewWorkerHandler(up upstream.Client, mk markers.MarkerService, snaps snapshotRepo.SnapshotRepository, sweeps SweepEnqueuer) *WorkerHandler {
	return &WorkerHandler{Upstream: up, Markers: mk, Snapshots: snaps, Sweeps: sweeps}
}

// ListShiftsHandler returns the browse feed with the caller's marker sets
// pruned against it. The fresh listing is also snapshotted so the deferred
// sweep has a live-ID reference.
func (h *WorkerHandler) ListShiftsHandler(c *gin.Context) {
	userID := currentUserID(c)
	filters := upstream.ShiftFilters{
		Role:           c.Query("role"),
		EmploymentType: c.Query("employmentType"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filters.Page = page
	}

	shiftList, err := h.Upstream.ListShifts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	liveShiftIDs := models.IDSet{}
	liveSlotIDs := models.IDSet{}
	for _, sh := range shiftList {
		liveShiftIDs.Add(sh.ID)
		for _, slot := range sh.Slots {
			liveSlotIDs.Add(slot.ID)
		}
	}
	if h.Snapshots != nil {
		if err := h.Snapshots.Save(userID, liveShiftIDs.Sorted(), liveSlotIDs.Sorted()); err != nil {
			utils.GetLogger().Warn("worker: snapshot save failed", zap.String("userID", userID), zap.Error(err))
		}
	}

	sets, err := h.Markers.Prune(c.Request.Context(), userID, liveShiftIDs, liveSlotIDs)
	if err != nil {
		utils.GetLogger().Warn("worker: marker prune failed", zap.String("userID", userID), zap.Error(err))
		sets = nil
		if h.Sweeps != nil {
			if err := h.Sweeps.EnqueueMarkerSweep(userID); err != nil {
				utils.GetLogger().Warn("worker: sweep enqueue failed", zap.String("userID", userID), zap.Error(err))
			}
		}
	}

	feed := make([]feedShift, 0, len(shiftList))
	for _, sh := range shiftList {
		feed = append(feed, toFeedShift(sh))
	}
	c.JSON(http.StatusOK, gin.H{"shifts": feed, "markers": sets})
}

// MarkersHandler returns the caller's marker sets as stored.
func (h *WorkerHandler) MarkersHandler(c *gin.Context) {
	sets, err := h.Markers.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markers": sets})
}

// ApplyHandler applies the caller to a shift or to one of its slots. The
// marker only flips after the marketplace confirms the application.
func (h *WorkerHandler) ApplyHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	var input struct {
		SlotID *int64 `json:"slotId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	userID := currentUserID(c)
	var sets *models.MarkerSets
	var err error
	if input.SlotID != nil {
		sets, err = h.Markers.ApplySlot(c.Request.Context(), userID, shiftID, *input.SlotID)
	} else {
		sets, err = h.Markers.ApplyShift(c.Request.Context(), userID, shiftID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markers": sets})
}

// DeclineHandler records the caller's rejection of a shift or slot.
func (h *WorkerHandler) DeclineHandler(c *gin.Context) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	var input struct {
		SlotID *int64 `json:"slotId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	userID := currentUserID(c)
	var sets *models.MarkerSets
	var err error
	if input.SlotID != nil {
		sets, err = h.Markers.RejectSlot(c.Request.Context(), userID, shiftID, *input.SlotID)
	} else {
		sets, err = h.Markers.RejectShift(c.Request.Context(), userID, shiftID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markers": sets})
}

// saveTo drives the shift's saved marker toward the wanted state. The
// toggle is skipped when the marker is already there, so repeated saves
// stay idempotent.
func (h *WorkerHandler) saveTo(c *gin.Context, want bool) {
	shiftID, ok := shiftIDParam(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	sets, err := h.Markers.Get(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if sets.SavedShiftIDs.Has(shiftID) == want {
		c.JSON(http.StatusOK, gin.H{"saved": want})
		return
	}

	saved, err := h.Markers.ToggleSave(c.Request.Context(), userID, shiftID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// SaveHandler marks a shift saved.
func (h *WorkerHandler) SaveHandler(c *gin.Context) {
	h.saveTo(c, true)
}

// UnsaveHandler clears a shift's saved marker.
func (h *WorkerHandler) UnsaveHandler(c *gin.Context) {
	h.saveTo(c, false)
}

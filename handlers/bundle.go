package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Poster endpoints.
	ListPosterShiftsHandler gin.HandlerFunc
	EscalateShiftHandler    gin.HandlerFunc
	SelectLevelHandler      gin.HandlerFunc
	GetCandidatesHandler    gin.HandlerFunc
	GetOffersHandler        gin.HandlerFunc
	RevealInterestHandler   gin.HandlerFunc
	AcceptHandler           gin.HandlerFunc
	RejectOfferHandler      gin.HandlerFunc
	DeleteShiftHandler      gin.HandlerFunc
	ShareShiftHandler       gin.HandlerFunc

	// Worker endpoints.
	ListWorkerShiftsHandler gin.HandlerFunc
	ApplyToShiftHandler     gin.HandlerFunc
	DeclineShiftHandler     gin.HandlerFunc
	SaveShiftHandler        gin.HandlerFunc
	UnsaveShiftHandler      gin.HandlerFunc
	GetMarkersHandler       gin.HandlerFunc
}

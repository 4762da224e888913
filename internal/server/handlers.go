package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	commonerrors "tourchat/internal/common/errors"
	"tourchat/internal/common/validation"
	"tourchat/internal/models"
	"tourchat/internal/orchestrator"
)

// chatRequest is the inbound turn payload. Slot extraction happens
// upstream of this service; the payload carries the extracted delta.
type chatRequest struct {
	ConversationID string            `json:"conversation_id"`
	Message        string            `json:"message"`
	Channel        string            `json:"channel,omitempty"`
	Intent         string            `json:"intent,omitempty"`
	Slots          *models.SlotDelta `json:"slots,omitempty"`
	Confirm        bool              `json:"confirm,omitempty"`
	SelectedOption int               `json:"selected_option,omitempty"`
	FetchMore      bool              `json:"fetch_more,omitempty"`
}

func (s *Server) handleChat(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if result := validation.ValidateChatRequest(body); !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": result.GetErrorMessages(),
		})
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	reply, err := s.engine.HandleTurn(c.Request.Context(), orchestrator.TurnInput{
		ConversationID: req.ConversationID,
		Text:           req.Message,
		Intent:         models.Intent(req.Intent),
		Delta:          req.Slots,
		Confirm:        req.Confirm,
		SelectedOption: req.SelectedOption,
		FetchMore:      req.FetchMore,
	})
	if err != nil {
		if commonerrors.CodeOf(err) == commonerrors.ErrCodeUpstreamUnavailable {
			c.JSON(http.StatusBadGateway, reply)
			return
		}
		s.logger.Error("Turn processing failed", map[string]interface{}{
			"conversation_id": req.ConversationID,
			"error":           err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleActualize(c *gin.Context) {
	tourID := c.Param("tourId")

	act, err := s.details.Actualize(c.Request.Context(), tourID)
	if err != nil {
		s.detailsError(c, err)
		return
	}
	c.JSON(http.StatusOK, act)
}

func (s *Server) handleFlight(c *gin.Context) {
	tourID := c.Param("tourId")

	flight, err := s.details.FlightDetails(c.Request.Context(), tourID)
	if err != nil {
		s.detailsError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (s *Server) handleHotel(c *gin.Context) {
	hotelID, err := strconv.Atoi(c.Param("hotelId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hotel id must be numeric"})
		return
	}

	details, err := s.details.GetHotelDetails(c.Request.Context(), hotelID)
	if err != nil {
		s.detailsError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) detailsError(c *gin.Context, err error) {
	if commonerrors.CodeOf(err) == commonerrors.ErrCodeUpstreamUnavailable {
		c.JSON(http.StatusBadGateway, gin.H{"error": "inventory service unavailable"})
		return
	}
	s.logger.Error("Details lookup failed", map[string]interface{}{
		"error": err.Error(),
	})
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

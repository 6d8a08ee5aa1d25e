package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
)

func (s *Server) CreatePayout(c *gin.Context) {
	var req payoutdomain.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.CreatePayout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayouts(c *gin.Context) {
	vendorID := strings.TrimSpace(c.Query("vendor_id"))

	resp, err := s.payoutSvc.List(c.Request.Context(), vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayout(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.payoutSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ProcessPayout(c *gin.Context) {
	var body struct {
		PaymentReference string `json:"payment_reference"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.ProcessPayout(c.Request.Context(), payoutdomain.ProcessPayoutRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		PaymentReference: body.PaymentReference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FailPayout(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.FailPayout(c.Request.Context(), payoutdomain.FailPayoutRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Reason: body.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelPayout(c *gin.Context) {
	resp, err := s.payoutSvc.CancelPayout(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

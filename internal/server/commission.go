package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
)

func (s *Server) CalculateForOrder(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("order_id"))

	resp, err := s.commissionSvc.CalculateForOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveRate(c *gin.Context) {
	var req commissiondomain.ResolveRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commissionSvc.ResolveRate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCommissions(c *gin.Context) {
	dateFrom, ok := parseDateQuery(c, "date_from")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	dateTo, ok := parseDateQuery(c, "date_to")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := commissiondomain.ListRequest{
		VendorID:  strings.TrimSpace(c.Query("vendor_id")),
		Status:    strings.TrimSpace(c.Query("status")),
		ProductID: strings.TrimSpace(c.Query("product_id")),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
	}
	req.PageToken = strings.TrimSpace(c.Query("page_token"))
	req.PageSize = parseIntQuery(c, "page_size", 50)

	resp, err := s.commissionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCommission(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.commissionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisputeCommission(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commissionSvc.MarkDisputed(c.Request.Context(), commissiondomain.MarkDisputedRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Reason: body.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecalculateCommissions(c *gin.Context) {
	var req commissiondomain.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.commissionSvc.Recalculate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

package api

import (
	"net/http"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.transactions.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// processPayment charges a purchase and answers with the terminal transaction
func (h *Handler) processPayment(c *gin.Context) {
	var req models.ProcessPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.transactions.ProcessPayment(c.Request.Context(), &req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

func (h *Handler) getTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactions.FindOne(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

func (h *Handler) verifyPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.transactions.VerifyPayment(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateStock(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var req models.UpdateStockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.transactions.UpdateStock(c.Request.Context(), productID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) createInventoryHistory(c *gin.Context) {
	var req models.CreateInventoryHistoryRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.inventory.CreateHistory(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) historyByProduct(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	history, err := h.inventory.HistoryByProduct(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) historyByTransaction(c *gin.Context) {
	transactionID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	history, err := h.inventory.HistoryByTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

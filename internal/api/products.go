package api

import (
	"net/http"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.FindAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.FindOne(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var update models.ProductUpdate
	if !bindJSON(c, &update) {
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), id, update)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) productsByName(c *gin.Context) {
	products, err := h.products.FindByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *Handler) productOffers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	offers, err := h.products.ActiveOffers(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, offers)
}

func (h *Handler) productPrice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	quote, err := h.products.QuotePrice(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (h *Handler) userPaymentMethods(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	methods, err := h.users.PaymentMethods(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, methods)
}

// internal/handlers/directory.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/coral-ledger/internal/models"
	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/utils"
)

// DirectoryHandler serves users, businesses and products.
type DirectoryHandler struct {
	directoryService *services.DirectoryService
}

func NewDirectoryHandler(directoryService *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

// GET /users
func (h *DirectoryHandler) ListUsers(c *gin.Context) {
	users, err := h.directoryService.ListUsers(c.Request.Context(), models.UserType(c.Query("type")))
	if err != nil {
		respondError(c, err, "user")
		return
	}
	utils.PaginatedResponse(c, utils.Paginate(users, utils.GetPaginationParams(c)))
}

// GET /users/:id accepts a user id or wallet address.
func (h *DirectoryHandler) GetUser(c *gin.Context) {
	user, err := h.directoryService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "user")
		return
	}
	utils.SuccessResponse(c, user)
}

// POST /users
func (h *DirectoryHandler) UpsertUser(c *gin.Context) {
	if _, ok := callerWallet(c); !ok {
		return
	}
	var req services.UpsertUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.directoryService.UpsertUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	utils.CreatedResponse(c, user)
}

// GET /businesses
func (h *DirectoryHandler) ListBusinesses(c *gin.Context) {
	businesses, err := h.directoryService.ListBusinesses(c.Request.Context())
	if err != nil {
		respondError(c, err, "business")
		return
	}
	utils.PaginatedResponse(c, utils.Paginate(businesses, utils.GetPaginationParams(c)))
}

func (h *DirectoryHandler) GetBusiness(c *gin.Context) {
	business, err := h.directoryService.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "business")
		return
	}
	utils.SuccessResponse(c, business)
}

func (h *DirectoryHandler) UpsertBusiness(c *gin.Context) {
	if _, ok := callerWallet(c); !ok {
		return
	}
	var req services.UpsertBusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := h.directoryService.UpsertBusiness(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "business")
		return
	}
	utils.CreatedResponse(c, business)
}

// GET /products
func (h *DirectoryHandler) ListProducts(c *gin.Context) {
	products, err := h.directoryService.ListProducts(c.Request.Context(), c.Query("business_id"))
	if err != nil {
		respondError(c, err, "product")
		return
	}
	utils.PaginatedResponse(c, utils.Paginate(products, utils.GetPaginationParams(c)))
}

func (h *DirectoryHandler) GetProduct(c *gin.Context) {
	product, err := h.directoryService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "product")
		return
	}
	utils.SuccessResponse(c, product)
}

func (h *DirectoryHandler) UpsertProduct(c *gin.Context) {
	if _, ok := callerWallet(c); !ok {
		return
	}
	var req services.UpsertProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.directoryService.UpsertProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "product")
		return
	}
	utils.CreatedResponse(c, product)
}

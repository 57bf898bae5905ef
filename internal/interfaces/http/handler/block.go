package handler

import (
	"github.com/gin-gonic/gin"
	membershipapp "github.com/mahallubank/backend/internal/application/membership"
)

// BlockHandler handles block and cluster hierarchy endpoints
type BlockHandler struct {
	BaseHandler
	hierarchy *membershipapp.HierarchyService
}

// NewBlockHandler creates a new BlockHandler
func NewBlockHandler(hierarchy *membershipapp.HierarchyService) *BlockHandler {
	return &BlockHandler{hierarchy: hierarchy}
}

// CreateBlockRequest is the request body for creating a block
type CreateBlockRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateClusterRequest is the request body for adding a cluster to a block
type CreateClusterRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// List handles GET /blocks
func (h *BlockHandler) List(c *gin.Context) {
	blocks, err := h.hierarchy.ListBlocks(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, blocks)
}

// Create handles POST /blocks
func (h *BlockHandler) Create(c *gin.Context) {
	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	block, err := h.hierarchy.CreateBlock(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, block)
}

// Delete handles DELETE /blocks/:name
func (h *BlockHandler) Delete(c *gin.Context) {
	if err := h.hierarchy.DeleteBlock(c.Request.Context(), c.Param("name")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateCluster handles POST /blocks/:name/clusters
func (h *BlockHandler) CreateCluster(c *gin.Context) {
	var req CreateClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cluster, err := h.hierarchy.CreateCluster(c.Request.Context(), c.Param("name"), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cluster)
}

// DeleteCluster handles DELETE /blocks/:name/clusters/:cluster
func (h *BlockHandler) DeleteCluster(c *gin.Context) {
	err := h.hierarchy.DeleteCluster(c.Request.Context(), c.Param("name"), c.Param("cluster"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

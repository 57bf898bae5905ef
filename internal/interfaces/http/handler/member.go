package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/mahallubank/backend/internal/application/ledger"
)

// MemberHandler handles member API endpoints
type MemberHandler struct {
	BaseHandler
	members *ledgerapp.MemberService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(members *ledgerapp.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

// CreateMemberRequest is the request body for creating a member
type CreateMemberRequest struct {
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name" binding:"required,min=1,max=200"`
	HouseNumber   string `json:"houseNumber"`
	HusbandName   string `json:"husbandName"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Whatsapp      string `json:"whatsapp"`
	Block         string `json:"block" binding:"required"`
	Cluster       string `json:"cluster" binding:"required"`
}

// UpdateMemberRequest is the request body for a partial member update
type UpdateMemberRequest struct {
	AccountNumber *string `json:"accountNumber"`
	Name          *string `json:"name" binding:"omitempty,min=1,max=200"`
	HouseNumber   *string `json:"houseNumber"`
	HusbandName   *string `json:"husbandName"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	Whatsapp      *string `json:"whatsapp"`
	Block         *string `json:"block"`
	Cluster       *string `json:"cluster"`
}

// Create handles POST /members
func (h *MemberHandler) Create(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	member, err := h.members.AddMember(c.Request.Context(), ledgerapp.AddMemberInput{
		AccountNumber: req.AccountNumber,
		Name:          req.Name,
		HouseNumber:   req.HouseNumber,
		HusbandName:   req.HusbandName,
		Address:       req.Address,
		Phone:         req.Phone,
		Whatsapp:      req.Whatsapp,
		Block:         req.Block,
		Cluster:       req.Cluster,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, member)
}

// Update handles PUT /members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.members.UpdateMember(c.Request.Context(), c.Param("id"), ledgerapp.UpdateMemberInput{
		AccountNumber: req.AccountNumber,
		Name:          req.Name,
		HouseNumber:   req.HouseNumber,
		HusbandName:   req.HusbandName,
		Address:       req.Address,
		Phone:         req.Phone,
		Whatsapp:      req.Whatsapp,
		Block:         req.Block,
		Cluster:       req.Cluster,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Delete handles DELETE /members/:id
func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.members.DeleteMember(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Get handles GET /members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	view, err := h.members.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// List handles GET /members
func (h *MemberHandler) List(c *gin.Context) {
	views, err := h.members.ListMembers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}

// Reset handles POST /settings/reset. It wipes every collection.
func (h *MemberHandler) Reset(c *gin.Context) {
	if err := h.members.ResetAllData(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/collegeconnect/backend/internal/errors"
	"github.com/collegeconnect/backend/internal/middleware"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

// CreateItem lists something for sale in the caller's college market
func (h *Handlers) CreateItem(c *gin.Context) {
	me := middleware.CurrentUser(c)

	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description"`
		Price       float64  `json:"price" binding:"min=0"`
		Images      []string `json:"images"`
		ValidDays   int      `json:"valid_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	item := &models.Item{
		Seller:      me.ID,
		College:     me.College,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
	}
	if req.ValidDays > 0 {
		till := time.Now().AddDate(0, 0, req.ValidDays)
		item.ValidTill = &till
	}

	if err := h.items.Create(c.Request.Context(), item); err != nil {
		internalError(c, "item create failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// ListItems returns the caller's college listings with optional
// status and title filters.
func (h *Handlers) ListItems(c *gin.Context) {
	me := middleware.CurrentUser(c)

	status := models.ItemStatus(c.Query("status"))
	if status != "" && !models.ValidItemStatus(status) {
		respondError(c, apperrors.BadRequest("unknown status"))
		return
	}

	items, err := h.items.ListByCollege(c.Request.Context(), me.College, status, c.Query("q"))
	if err != nil {
		internalError(c, "item list failed", err)
		return
	}

	hidden, err := h.hiddenAuthors(c, me)
	if err != nil {
		internalError(c, "item list failed", err)
		return
	}
	visible := make([]models.Item, 0, len(items))
	for _, item := range items {
		if _, blocked := hidden[item.Seller]; !blocked {
			visible = append(visible, item)
		}
	}
	visible = friendsFirst(visible, func(i models.Item) bool { return me.IsFriend(i.Seller) })

	c.JSON(http.StatusOK, gin.H{"items": visible})
}

// GetItem returns one listing from the caller's college
func (h *Handlers) GetItem(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.items.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("item"))
		} else {
			internalError(c, "item load failed", err)
		}
		return
	}
	if item.College != me.College && !me.Role.IsStaff() {
		respondError(c, apperrors.NotFound("item"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// UpdateItemStatus moves a listing through its lifecycle. Only the
// seller can change it; SOLD is terminal.
func (h *Handlers) UpdateItemStatus(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status      models.ItemStatus `json:"status" binding:"required"`
		ReservedFor string            `json:"reserved_for"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if !models.ValidItemStatus(req.Status) {
		respondError(c, apperrors.BadRequest("unknown status"))
		return
	}

	item, err := h.items.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("item"))
		} else {
			internalError(c, "item load failed", err)
		}
		return
	}
	if item.Seller != me.ID {
		respondError(c, apperrors.Forbidden("only the seller can update this listing"))
		return
	}
	if item.Status == models.ItemSold {
		respondError(c, apperrors.BadRequest("sold listings cannot change status"))
		return
	}

	set := bson.M{"status": req.Status}
	switch req.Status {
	case models.ItemReserved:
		set["reserved_at"] = time.Now()
		if req.ReservedFor != "" {
			buyerID, err := primitive.ObjectIDFromHex(req.ReservedFor)
			if err != nil {
				respondError(c, apperrors.BadRequest("invalid reserved_for"))
				return
			}
			set["reserved_for"] = buyerID
		}
	case models.ItemAvailable:
		set["reserved_at"] = nil
		set["reserved_for"] = nil
	}

	if err := h.items.Update(c.Request.Context(), id, set); err != nil {
		internalError(c, "item update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// DeleteItem removes a listing. Sellers delete their own; moderators
// delete anything in their purview.
func (h *Handlers) DeleteItem(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.items.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("item"))
		} else {
			internalError(c, "item load failed", err)
		}
		return
	}
	if item.Seller != me.ID && !me.Role.IsStaff() {
		respondError(c, apperrors.Forbidden("not your listing"))
		return
	}

	if err := h.items.Delete(c.Request.Context(), id); err != nil {
		internalError(c, "item delete failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}

// AddItemComment asks the seller a question on the listing
func (h *Handlers) AddItemComment(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	item, err := h.items.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("item"))
		} else {
			internalError(c, "item load failed", err)
		}
		return
	}

	comment := models.ItemComment{
		ID:        primitive.NewObjectID(),
		Author:    me.ID,
		Text:      req.Text,
		Replies:   []models.ItemReply{},
		CreatedAt: time.Now(),
	}
	if err := h.items.AddComment(c.Request.Context(), id, comment); err != nil {
		internalError(c, "comment failed", err)
		return
	}

	if item.Seller != me.ID {
		h.notify(c, &models.Notification{
			User:  item.Seller,
			Type:  models.NotifyItemComment,
			Text:  fmt.Sprintf("%s commented on %q", me.Name, item.Title),
			Link:  "/marketplace/" + item.ID.Hex(),
			Actor: &me.ID,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// AddItemReply answers under an existing comment
func (h *Handlers) AddItemReply(c *gin.Context) {
	me := middleware.CurrentUser(c)
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	item, err := h.items.ByID(c.Request.Context(), itemID)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("item"))
		} else {
			internalError(c, "item load failed", err)
		}
		return
	}

	reply := models.ItemReply{
		ID:        primitive.NewObjectID(),
		Author:    me.ID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	if err := h.items.AddReply(c.Request.Context(), itemID, commentID, reply); err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("comment"))
		} else {
			internalError(c, "reply failed", err)
		}
		return
	}

	// Tell the comment author unless they answered themselves.
	for _, comment := range item.Comments {
		if comment.ID == commentID && comment.Author != me.ID {
			h.notify(c, &models.Notification{
				User:  comment.Author,
				Type:  models.NotifyItemReply,
				Text:  fmt.Sprintf("%s replied to your comment on %q", me.Name, item.Title),
				Link:  "/marketplace/" + item.ID.Hex(),
				Actor: &me.ID,
			})
			break
		}
	}

	c.JSON(http.StatusCreated, gin.H{"reply": reply})
}

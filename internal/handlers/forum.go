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

// CreatePost starts a forum thread in the caller's college
func (h *Handlers) CreatePost(c *gin.Context) {
	me := middleware.CurrentUser(c)

	var req struct {
		Title     string   `json:"title" binding:"required"`
		Body      string   `json:"body" binding:"required"`
		Tags      []string `json:"tags"`
		ValidDays int      `json:"valid_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	post := &models.Post{
		Author:  me.ID,
		College: me.College,
		Title:   req.Title,
		Body:    req.Body,
		Tags:    req.Tags,
	}
	if req.ValidDays > 0 {
		till := time.Now().AddDate(0, 0, req.ValidDays)
		post.ValidTill = &till
	}

	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		internalError(c, "post create failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// ListPosts returns the college's threads with optional search
func (h *Handlers) ListPosts(c *gin.Context) {
	me := middleware.CurrentUser(c)

	posts, err := h.posts.ListByCollege(c.Request.Context(), me.College, c.Query("q"))
	if err != nil {
		internalError(c, "post list failed", err)
		return
	}

	hidden, err := h.hiddenAuthors(c, me)
	if err != nil {
		internalError(c, "post list failed", err)
		return
	}
	visible := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if _, blocked := hidden[post.Author]; !blocked {
			visible = append(visible, post)
		}
	}
	visible = friendsFirst(visible, func(p models.Post) bool { return me.IsFriend(p.Author) })

	c.JSON(http.StatusOK, gin.H{"posts": visible})
}

// GetPost returns one thread from the caller's college
func (h *Handlers) GetPost(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, err := h.posts.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("post"))
		} else {
			internalError(c, "post load failed", err)
		}
		return
	}
	if post.College != me.College && !me.Role.IsStaff() {
		respondError(c, apperrors.NotFound("post"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// ReplyToPost adds a reply and notifies the thread author
func (h *Handlers) ReplyToPost(c *gin.Context) {
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

	post, err := h.posts.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("post"))
		} else {
			internalError(c, "post load failed", err)
		}
		return
	}

	reply := models.PostReply{
		ID:        primitive.NewObjectID(),
		Author:    me.ID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	if err := h.posts.AddReply(c.Request.Context(), id, reply); err != nil {
		internalError(c, "reply failed", err)
		return
	}

	// Tell the thread author and everyone else in the thread, once each
	notified := map[primitive.ObjectID]struct{}{me.ID: {}}
	if post.Author != me.ID {
		h.notify(c, &models.Notification{
			User:  post.Author,
			Type:  models.NotifyForumReply,
			Text:  fmt.Sprintf("%s replied to %q", me.Name, post.Title),
			Link:  "/forum/" + post.ID.Hex(),
			Actor: &me.ID,
		})
		notified[post.Author] = struct{}{}
	}
	for _, prev := range post.Replies {
		if _, done := notified[prev.Author]; done {
			continue
		}
		h.notify(c, &models.Notification{
			User:  prev.Author,
			Type:  models.NotifyForumReply,
			Text:  fmt.Sprintf("%s also replied to %q", me.Name, post.Title),
			Link:  "/forum/" + post.ID.Hex(),
			Actor: &me.ID,
		})
		notified[prev.Author] = struct{}{}
	}

	c.JSON(http.StatusCreated, gin.H{"reply": reply})
}

// UpdatePost edits a thread's title, body or tags. Author only.
func (h *Handlers) UpdatePost(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title string   `json:"title"`
		Body  string   `json:"body"`
		Tags  []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	post, err := h.posts.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("post"))
		} else {
			internalError(c, "post load failed", err)
		}
		return
	}
	if post.Author != me.ID {
		respondError(c, apperrors.Forbidden("not your post"))
		return
	}

	set := bson.M{}
	if req.Title != "" {
		set["title"] = req.Title
	}
	if req.Body != "" {
		set["body"] = req.Body
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if len(set) == 0 {
		respondError(c, apperrors.BadRequest("nothing to update"))
		return
	}

	if err := h.posts.Update(c.Request.Context(), id, set); err != nil {
		internalError(c, "post update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post updated"})
}

// EditPostReply rewrites one of the caller's own replies
func (h *Handlers) EditPostReply(c *gin.Context) {
	me := middleware.CurrentUser(c)
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	replyID, ok := pathID(c, "replyId")
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

	if err := h.posts.UpdateReply(c.Request.Context(), postID, replyID, me.ID, req.Text); err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("reply"))
		} else {
			internalError(c, "reply update failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reply updated"})
}

// DeletePostReply removes a reply. Reply authors delete their own;
// the thread author and moderators delete anything.
func (h *Handlers) DeletePostReply(c *gin.Context) {
	me := middleware.CurrentUser(c)
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	replyID, ok := pathID(c, "replyId")
	if !ok {
		return
	}

	post, err := h.posts.ByID(c.Request.Context(), postID)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("post"))
		} else {
			internalError(c, "post load failed", err)
		}
		return
	}

	allowed := post.Author == me.ID || me.Role.IsStaff()
	if !allowed {
		for _, r := range post.Replies {
			if r.ID == replyID && r.Author == me.ID {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		respondError(c, apperrors.Forbidden("not your reply"))
		return
	}

	if err := h.posts.DeleteReply(c.Request.Context(), postID, replyID); err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("reply"))
		} else {
			internalError(c, "reply delete failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reply deleted"})
}

// DeletePost removes a thread. Authors delete their own; moderators
// delete anything.
func (h *Handlers) DeletePost(c *gin.Context) {
	me := middleware.CurrentUser(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, err := h.posts.ByID(c.Request.Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			respondError(c, apperrors.NotFound("post"))
		} else {
			internalError(c, "post load failed", err)
		}
		return
	}
	if post.Author != me.ID && !me.Role.IsStaff() {
		respondError(c, apperrors.Forbidden("not your post"))
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		internalError(c, "post delete failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

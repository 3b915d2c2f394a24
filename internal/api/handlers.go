package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kutbudev/taggable/internal/catalog"
	"github.com/kutbudev/taggable/pkg/taggable"
)

// Handler serves the catalog over HTTP.
type Handler struct {
	svc *catalog.Service
}

// NewHandler creates a handler over svc.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// ItemView is the JSON shape of a taggable item.
type ItemView struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	TagsList string    `json:"tags_list"`
	Tags     []string  `json:"tags"`
}

// CreateItemInput DTO for creating an item
type CreateItemInput struct {
	Title    string `json:"title" binding:"required"`
	TagsList string `json:"tags_list"`
}

// TagsInput DTO for tagging and untagging
type TagsInput struct {
	Tags []string `json:"tags" binding:"required"`
}

// TagsListInput DTO for replacing the tag list
type TagsListInput struct {
	TagsList string `json:"tags_list"`
}

// RenameTagInput DTO for renaming a tag
type RenameTagInput struct {
	Name string `json:"name" binding:"required"`
}

// AttributeInput DTO for tagging on behalf of a user
type AttributeInput struct {
	User string   `json:"user" binding:"required"`
	Tags []string `json:"tags" binding:"required"`
}

// ListTags returns every tag ordered by name.
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.svc.Tags().List(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// RenameTag renames a tag everywhere it is used.
func (h *Handler) RenameTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag id"})
		return
	}
	var input RenameTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tag, err := h.svc.Tags().Get(ctx, id)
	if err != nil {
		abort(c, err)
		return
	}
	if err := h.svc.Tags().Rename(ctx, tag, input.Name); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// ListItems returns every item of the type.
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Param("type"))
	if err != nil {
		abort(c, err)
		return
	}
	h.respondItems(c, items)
}

// CreateItem creates an item with an initial tag list.
func (h *Handler) CreateItem(c *gin.Context) {
	var input CreateItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.svc.Create(c.Request.Context(), c.Param("type"), input.Title, input.TagsList)
	if err != nil {
		abort(c, err)
		return
	}
	h.respondItem(c, http.StatusCreated, item)
}

// GetTags returns an item with its tags.
func (h *Handler) GetTags(c *gin.Context) {
	item, ok := h.item(c)
	if !ok {
		return
	}
	h.respondItem(c, http.StatusOK, item)
}

// AddTags tags an item and saves at once.
func (h *Handler) AddTags(c *gin.Context) {
	var input TagsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, ok := h.item(c)
	if !ok {
		return
	}
	if _, err := item.Taggings().TagAndSave(c.Request.Context(), taggable.Names(input.Tags...)...); err != nil {
		abort(c, err)
		return
	}
	h.respondItem(c, http.StatusOK, item)
}

// RemoveTags untags the names given as repeated "tag" query parameters, or
// every tag when there are none.
func (h *Handler) RemoveTags(c *gin.Context) {
	item, ok := h.item(c)
	if !ok {
		return
	}
	if _, err := item.Taggings().UntagAndSave(c.Request.Context(), taggable.Names(c.QueryArray("tag")...)...); err != nil {
		abort(c, err)
		return
	}
	h.respondItem(c, http.StatusOK, item)
}

// SetTagsList replaces the tag list of an item. Removals and additions are
// written in one transaction.
func (h *Handler) SetTagsList(c *gin.Context) {
	var input TagsListInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, ok := h.item(c)
	if !ok {
		return
	}
	if err := item.Taggings().SetTagsListAndSave(c.Request.Context(), input.TagsList); err != nil {
		abort(c, err)
		return
	}
	h.respondItem(c, http.StatusOK, item)
}

// Tagged lists the items carrying a tag.
func (h *Handler) Tagged(c *gin.Context) {
	items, err := h.svc.Tagged(c.Request.Context(), c.Param("type"), c.Param("tag"))
	if err != nil {
		abort(c, err)
		return
	}
	h.respondItems(c, items)
}

// Attribute tags an item on behalf of a user.
func (h *Handler) Attribute(c *gin.Context) {
	var input AttributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, ok := h.item(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user, err := h.svc.FindUser(ctx, input.User)
	if err != nil {
		abort(c, err)
		return
	}
	if _, err := h.svc.Attribute(ctx, user, item, input.Tags...); err != nil {
		abort(c, err)
		return
	}
	h.respondItem(c, http.StatusOK, item)
}

func (h *Handler) item(c *gin.Context) (catalog.Item, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	item, err := h.svc.Find(c.Request.Context(), c.Param("type"), id)
	if err != nil {
		abort(c, err)
		return nil, false
	}
	return item, true
}

func (h *Handler) respondItem(c *gin.Context, status int, item catalog.Item) {
	view, err := View(c.Request.Context(), item)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(status, view)
}

func (h *Handler) respondItems(c *gin.Context, items []catalog.Item) {
	views, err := Views(c.Request.Context(), items)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// View renders an item with its current tags.
func View(ctx context.Context, item catalog.Item) (ItemView, error) {
	tags := item.Taggings()
	list, err := tags.TagsList(ctx)
	if err != nil {
		return ItemView{}, err
	}
	rows, err := tags.Tags(ctx)
	if err != nil {
		return ItemView{}, err
	}
	names := make([]string, len(rows))
	for i, t := range rows {
		names[i] = t.Name
	}
	return ItemView{
		ID:       item.TaggableID(),
		Type:     tags.Model().Type(),
		Title:    item.Label(),
		TagsList: list,
		Tags:     names,
	}, nil
}

// Views renders items in order.
func Views(ctx context.Context, items []catalog.Item) ([]ItemView, error) {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		view, err := View(ctx, item)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// abort writes err with the status its kind maps to.
func abort(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownType),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, taggable.ErrTagNotFound):
		return http.StatusNotFound
	case errors.Is(err, taggable.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, taggable.ErrNotTaggable):
		return http.StatusForbidden
	case errors.Is(err, taggable.ErrUnsavedResource), taggable.IsUniqueViolation(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

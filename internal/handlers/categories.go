package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listCategories is served from the category cache, so a change becomes
// visible only after the cached entry expires.
func (s *server) listCategories(c *gin.Context) {
	cats, err := s.Categories.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, cats)
}

type categoryRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

func (s *server) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "body", err.Error(), nil)
		return
	}
	cat, err := s.Catalog.CreateCategory(c.Request.Context(), currentUser(c), req.Name, req.Description)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *server) deleteCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.Catalog.DeleteCategory(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

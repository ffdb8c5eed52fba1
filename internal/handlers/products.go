package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
)

const (
	productImageDir = "catalog"
	avatarDir       = "users/avatar"
)

// saveUploadedImage stores the file of a multipart field. No file chosen is
// not an error and yields an empty reference.
func (s *server) saveUploadedImage(c *gin.Context, field, dir string) (string, error) {
	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.Media.Save(c.Request.Context(), dir, file.Filename, f)
}

// discardUpload removes a file saved for a write that then failed.
func (s *server) discardUpload(c *gin.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.Media.Delete(context.WithoutCancel(c.Request.Context()), ref); err != nil {
		s.Log.Warn().Err(err).Str("ref", ref).Msg("failed to remove orphaned upload")
	}
}

func (s *server) listProducts(c *gin.Context) {
	items, err := s.Catalog.ListProducts(c.Request.Context(), catalog.ProductFilter{ActiveOnly: true})
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *server) listMyProducts(c *gin.Context) {
	id := currentUser(c).ID
	items, err := s.Catalog.ListProducts(c.Request.Context(), catalog.ProductFilter{OwnerID: &id})
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, items)
}

type productForm struct {
	Name        string `json:"name"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsActive    string `json:"is_active,omitempty"`
}

func (s *server) createProduct(c *gin.Context) {
	form := productForm{
		Name:        c.PostForm("name"),
		CategoryID:  strings.TrimSpace(c.PostForm("category_id")),
		Description: c.PostForm("description"),
		Price:       strings.TrimSpace(c.PostForm("price")),
		IsActive:    strings.TrimSpace(c.PostForm("is_active")),
	}

	in := catalog.CreateProductInput{Name: form.Name, Description: form.Description}
	categoryID, err := strconv.ParseUint(form.CategoryID, 10, 64)
	if err != nil {
		badRequest(c, catalog.FieldCategory, "must be a category id", form)
		return
	}
	in.CategoryID = uint(categoryID)
	if in.Price, err = decimal.NewFromString(form.Price); err != nil {
		badRequest(c, catalog.FieldPrice, "must be a decimal number", form)
		return
	}
	if form.IsActive != "" {
		active, err := strconv.ParseBool(form.IsActive)
		if err != nil {
			badRequest(c, catalog.FieldIsActive, "must be a boolean", form)
			return
		}
		in.IsActive = &active
	}

	if in.Image, err = s.saveUploadedImage(c, "image", productImageDir); err != nil {
		respondError(c, err, form)
		return
	}

	p, err := s.Catalog.CreateProduct(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.discardUpload(c, in.Image)
		respondError(c, err, form)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// viewProduct is the detail page; every call counts one view.
func (s *server) viewProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := s.Catalog.ViewProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	if s.Metrics != nil {
		s.Metrics.ProductViewsTotal.Inc()
	}
	c.JSON(http.StatusOK, p)
}

// editForm returns the product together with the fields the caller may change.
func (s *server) editForm(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := s.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	scope := catalog.ResolveEditRights(currentUser(c), p)
	if scope == catalog.ScopeDenied {
		respondError(c, catalog.ErrPermissionDenied, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":        p,
		"scope":          scope.String(),
		"allowed_fields": scope.AllowedFields(),
	})
}

func (s *server) updateProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in catalog.UpdateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "body", err.Error(), nil)
		return
	}
	in.ProductID = id

	p, err := s.Catalog.UpdateProduct(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err, in)
		return
	}
	c.JSON(http.StatusOK, p)
}

// uploadProductImage replaces the image through the regular edit workflow.
func (s *server) uploadProductImage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := s.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	scope := catalog.ResolveEditRights(currentUser(c), p)
	if scope == catalog.ScopeDenied {
		respondError(c, catalog.ErrPermissionDenied, nil)
		return
	}
	if !scope.Allows(catalog.FieldImage) {
		badRequest(c, catalog.FieldImage, "is not editable with "+scope.String()+" rights", nil)
		return
	}

	ref, err := s.saveUploadedImage(c, "image", productImageDir)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	if ref == "" {
		badRequest(c, catalog.FieldImage, "is required", nil)
		return
	}
	in := catalog.UpdateProductInput{ProductID: id, Product: catalog.ProductPatch{Image: &ref}}
	updated, err := s.Catalog.UpdateProduct(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.discardUpload(c, ref)
		respondError(c, err, in)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// toggleProduct only needs a logged-in user.
func (s *server) toggleProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := s.Catalog.ToggleActive(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "is_active": p.IsActive})
}

func (s *server) deleteProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.Catalog.DeleteProduct(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

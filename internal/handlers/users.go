package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"storefront/internal/accounts"
)

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (s *server) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fill all fields"})
		return
	}
	u, err := s.Accounts.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "email": u.Email, "is_active": u.IsActive})
}

func (s *server) verify(c *gin.Context) {
	u, err := s.Accounts.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "email": u.Email, "is_active": u.IsActive})
}

func (s *server) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fill all fields"})
		return
	}
	u, err := s.Accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	sess := sessions.Default(c)
	sess.Set(sessionUserKey, u.ID)
	if err := sess.Save(); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *server) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

func (s *server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// updateProfile takes a multipart form; the avatar file is optional.
func (s *server) updateProfile(c *gin.Context) {
	var patch accounts.ProfilePatch
	if v, ok := c.GetPostForm("phone"); ok {
		patch.Phone = &v
	}
	if v, ok := c.GetPostForm("country"); ok {
		patch.Country = &v
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		ref, err := s.saveUploadedImage(c, "avatar", avatarDir)
		if err != nil {
			respondError(c, err, nil)
			return
		}
		if ref != "" {
			patch.Avatar = &ref
		}
	}
	u, err := s.Accounts.UpdateProfile(c.Request.Context(), currentUser(c).ID, patch)
	if err != nil {
		if patch.Avatar != nil {
			s.discardUpload(c, *patch.Avatar)
		}
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, u)
}

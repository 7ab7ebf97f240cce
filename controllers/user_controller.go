// File: /controllers/user_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"minisocial-api/middleware"
	"minisocial-api/services"
	"minisocial-api/utils"
)

type UserController struct {
	profileService *services.ProfileService
}

func NewUserController(profileService *services.ProfileService) *UserController {
	return &UserController{profileService: profileService}
}

// SaveProfileRequest binds from JSON or from a multipart form carrying an optional "avatar" file.
type SaveProfileRequest struct {
	Username string `json:"username" form:"username"`
	Bio      string `json:"bio" form:"bio"`
}

func (uc *UserController) GetProfile(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	profile, err := uc.profileService.Load(c.Request.Context(), session)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (uc *UserController) SaveProfile(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	var req SaveProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	var avatar []byte
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		data, err := readFormFile(c, "avatar")
		if err != nil {
			utils.SendValidationError(c, err.Error())
			return
		}
		avatar = data
	}

	profile, err := uc.profileService.Save(c.Request.Context(), session, req.Username, req.Bio, avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

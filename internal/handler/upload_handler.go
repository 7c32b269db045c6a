package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rakarizky/habitlink/pkg/response"
	"github.com/rakarizky/habitlink/pkg/storage"
)

var allowedUploadFolders = map[string]bool{
	"covers":  true,
	"proofs":  true,
	"avatars": true,
}

type UploadHandler struct {
	imageStorage storage.ImageStorage
}

func NewUploadHandler(imageStorage storage.ImageStorage) *UploadHandler {
	return &UploadHandler{imageStorage: imageStorage}
}

// UploadImage accepts a multipart "image" file plus a "folder" field and
// returns the stored image URL for use as a cover image or log proof.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	if _, err := response.GetUserID(c); err != nil {
		response.ResponseError(c, err)
		return
	}
	if h.imageStorage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads are not enabled"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	folder := c.PostForm("folder")
	if folder == "" {
		folder = "proofs"
	}
	if !allowedUploadFolders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown upload folder"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	url, err := h.imageStorage.UploadImage(c.Request.Context(), file, folder, fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const collegeSearchLimit = 10

// SearchColleges lists directory entries matching a name prefix.
// Public so the signup form can offer suggestions.
func (h *Handlers) SearchColleges(c *gin.Context) {
	colleges, err := h.colleges.Search(c.Request.Context(), c.Query("q"), collegeSearchLimit)
	if err != nil {
		internalError(c, "college search failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"colleges": colleges})
}

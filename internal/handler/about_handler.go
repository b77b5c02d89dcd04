package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func AboutAuthor(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title": "About the author",
		"text":  "Yatube is a small blogging platform: write posts, sort them into groups, comment and follow other authors.",
	})
}

func AboutTech(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title": "Technologies",
		"stack": []string{"Go", "gin", "gorm", "MySQL / PostgreSQL", "Redis", "Kafka", "Cloudinary"},
	})
}

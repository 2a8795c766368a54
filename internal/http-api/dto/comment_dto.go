package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

// CreateCommentRequest for POST under a review path
type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// UpdateCommentRequest: comments only carry text.
type UpdateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

func FromCommentModel(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Author:  c.Author.Username,
		Text:    c.Text,
		PubDate: c.PubDate,
	}
}

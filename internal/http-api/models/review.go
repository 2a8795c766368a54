package models

import "time"

type Review struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleID  int64  `json:"title_id" gorm:"uniqueIndex:idx_review_author_title;not null"`
	AuthorID string `json:"author_id" gorm:"type:uuid;uniqueIndex:idx_review_author_title;not null"`
	Text     string `json:"text" gorm:"type:text;not null"`
	Score    int    `json:"score" gorm:"not null;check:score >= 1 AND score <= 10"`
	// PubDate is set once at creation and never updated.
	PubDate time.Time `json:"pub_date" gorm:"autoCreateTime"`

	Title  Title `json:"-" gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE;"`
	Author User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
}

func (Review) TableName() string {
	return "reviews"
}

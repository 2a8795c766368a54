package models

type Title struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"not null"`
	Year        int    `json:"year" gorm:"index;not null"`
	Description string `json:"description,omitempty" gorm:"size:256"`
	// Deleting a category detaches its titles rather than removing them.
	CategoryID *int64    `json:"category_id,omitempty" gorm:"index"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`

	Genres []Genre `json:"genres,omitempty" gorm:"many2many:title_genres;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}

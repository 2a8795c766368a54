package models

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// The delete semantics live in the GORM constraint tags: a mistyped tag would
// migrate silently and only misbehave at delete time, so the parsed schema is
// checked directly.

func parseSchema(t *testing.T, model interface{}) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	return s
}

func relationOnDelete(t *testing.T, s *schema.Schema, name string) string {
	t.Helper()
	rel, ok := s.Relationships.Relations[name]
	require.True(t, ok, "relation %s not parsed", name)
	constraint := rel.ParseConstraint()
	require.NotNil(t, constraint, "relation %s carries no constraint", name)
	return constraint.OnDelete
}

func TestTitleSchema_CategoryDetachesOnDelete(t *testing.T) {
	s := parseSchema(t, &Title{})

	// Deleting a category must null the reference, never remove the title.
	assert.Equal(t, "SET NULL", relationOnDelete(t, s, "Category"))

	category := s.LookUpField("CategoryID")
	require.NotNil(t, category)
	assert.Equal(t, reflect.Ptr, category.FieldType.Kind(), "category_id must be nullable")
}

func TestTitleSchema_GenresJoinThroughTitleGenres(t *testing.T) {
	s := parseSchema(t, &Title{})

	rel, ok := s.Relationships.Relations["Genres"]
	require.True(t, ok)
	assert.Equal(t, schema.Many2Many, rel.Type)
	require.NotNil(t, rel.JoinTable)
	assert.Equal(t, "title_genres", rel.JoinTable.Table)
}

func TestTitleGenreSchema_CompositeUniquePair(t *testing.T) {
	s := parseSchema(t, &TitleGenre{})

	titleID := s.LookUpField("TitleID")
	genreID := s.LookUpField("GenreID")
	require.NotNil(t, titleID)
	require.NotNil(t, genreID)
	// Both halves of the pair share one unique index.
	assert.Equal(t, "idx_title_genre", titleID.TagSettings["UNIQUEINDEX"])
	assert.Equal(t, "idx_title_genre", genreID.TagSettings["UNIQUEINDEX"])
}

func TestReviewSchema_CascadesAndUniquePair(t *testing.T) {
	s := parseSchema(t, &Review{})

	// Deleting the title or the author takes the review with it.
	assert.Equal(t, "CASCADE", relationOnDelete(t, s, "Title"))
	assert.Equal(t, "CASCADE", relationOnDelete(t, s, "Author"))

	titleID := s.LookUpField("TitleID")
	authorID := s.LookUpField("AuthorID")
	require.NotNil(t, titleID)
	require.NotNil(t, authorID)
	// One review per (author, title) is a single composite unique index.
	assert.Equal(t, "idx_review_author_title", titleID.TagSettings["UNIQUEINDEX"])
	assert.Equal(t, "idx_review_author_title", authorID.TagSettings["UNIQUEINDEX"])
}

func TestCommentSchema_Cascades(t *testing.T) {
	s := parseSchema(t, &Comment{})

	// Comments follow their review, and a review follows its author, so a
	// user delete empties the whole chain.
	assert.Equal(t, "CASCADE", relationOnDelete(t, s, "Review"))
	assert.Equal(t, "CASCADE", relationOnDelete(t, s, "Author"))
}

func TestCatalogSchema_UniqueSlugs(t *testing.T) {
	for _, model := range []interface{}{&Category{}, &Genre{}} {
		s := parseSchema(t, model)
		slug := s.LookUpField("Slug")
		require.NotNil(t, slug)
		_, unique := slug.TagSettings["UNIQUEINDEX"]
		assert.True(t, unique, "%s slug must be unique", s.Name)
	}
}

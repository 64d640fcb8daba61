package repository

import (
	"context"
	"testing"
	"time"

	"refugio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsDeleteRemovesComments(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewNewsRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "quique")
	post := seedNews(t, db, "Se busca hogar")
	otherPost := seedNews(t, db, "Otra")

	root := seedComment(t, db, post.ID, user.ID, nil)
	seedComment(t, db, post.ID, user.ID, &root.ID)
	keep := seedComment(t, db, otherPost.ID, user.ID, nil)

	require.NoError(t, repo.Delete(ctx, post.ID))

	_, err := repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, keep.ID, comments[0].ID)
}

func TestNewsDeleteMissing(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewNewsRepository(db)

	assert.ErrorIs(t, repo.Delete(context.Background(), 777), ErrNotFound)
}

func TestNewsListOrdersByPublicationDesc(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewNewsRepository(db)
	ctx := context.Background()

	older := &models.NewsPost{Titulo: "Vieja", Contenido: "x", FechaPublicacion: time.Now().AddDate(0, -1, 0)}
	newer := &models.NewsPost{Titulo: "Nueva", Contenido: "x", FechaPublicacion: time.Now()}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Nueva", posts[0].Titulo)
	assert.Equal(t, "Vieja", posts[1].Titulo)
}

func TestAnimalDeleteRemovesAdoptionRequests(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewAnimalRepository(db)
	ctx := context.Background()

	animal := seedAnimal(t, db, "Rocky")
	user := seedUser(t, db, "rosa")
	seedRequest(t, db, animal.ID, user.ID, models.AdoptionStatusPending)

	require.NoError(t, repo.Delete(ctx, animal.ID))

	var requests []models.AdoptionRequest
	require.NoError(t, db.Find(&requests).Error)
	assert.Empty(t, requests)
}

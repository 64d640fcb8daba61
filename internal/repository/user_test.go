package repository

import (
	"context"
	"testing"

	"refugio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUniqueConstraints(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedUser(t, db, "karen")

	err := repo.Create(ctx, &models.User{
		Username: "karen",
		Email:    "otra@example.com",
		Password: "hash",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = repo.Create(ctx, &models.User{
		Username: "karen2",
		Email:    "karen@example.com",
		Password: "hash",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserDeleteCascadesOwnedContent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	victim := seedUser(t, db, "laura")
	other := seedUser(t, db, "mario")
	post := seedNews(t, db, "Noticia")
	animal := seedAnimal(t, db, "Nube")

	// Another user's reply under the victim's comment goes with the subtree.
	own := seedComment(t, db, post.ID, victim.ID, nil)
	seedComment(t, db, post.ID, other.ID, &own.ID)
	theirs := seedComment(t, db, post.ID, other.ID, nil)

	seedRequest(t, db, animal.ID, victim.ID, models.AdoptionStatusPending)
	keep := seedRequest(t, db, animal.ID, other.ID, models.AdoptionStatusPending)

	require.NoError(t, repo.Delete(ctx, victim.ID))

	_, err := repo.GetByID(ctx, victim.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, theirs.ID, comments[0].ID)

	var requests []models.AdoptionRequest
	require.NoError(t, db.Find(&requests).Error)
	require.Len(t, requests, 1)
	assert.Equal(t, keep.ID, requests[0].ID)
}

func TestSubscribers(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	sub := seedUser(t, db, "nora")
	require.NoError(t, db.Model(sub).Update("recibir_novedades", true).Error)
	seedUser(t, db, "oscar")

	subs, err := repo.Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "nora", subs[0].Username)
}

func TestGetByUsernameAndEmail(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedUser(t, db, "paula")

	byName, err := repo.GetByUsername(ctx, "paula")
	require.NoError(t, err)
	byEmail, err := repo.GetByEmail(ctx, "paula@example.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byEmail.ID)

	_, err = repo.GetByUsername(ctx, "nadie")
	assert.ErrorIs(t, err, ErrNotFound)
}

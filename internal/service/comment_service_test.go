package service

import (
	"context"
	"testing"

	"refugio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentService(e *env) *CommentService {
	return NewCommentService(e.comments, e.news, e.store)
}

func TestCreateCommentAndReplyChain(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc := newCommentService(e)
	ctx := context.Background()

	user := e.createUser(t, "irene", false)
	post := e.createNews(t, "Jornada de puertas abiertas")

	root, err := svc.Create(ctx, user.ID, post.ID, "Primer comentario", nil)
	require.NoError(t, err)

	depth2, err := svc.Create(ctx, user.ID, post.ID, "Respuesta", &root.ID)
	require.NoError(t, err)

	depth3, err := svc.Create(ctx, user.ID, post.ID, "Respuesta a la respuesta", &depth2.ID)
	require.NoError(t, err)

	// Depth 3 is the floor of the thread; a fourth level is rejected.
	_, err = svc.Create(ctx, user.ID, post.ID, "Demasiado profundo", &depth3.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestCreateCommentValidations(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc := newCommentService(e)
	ctx := context.Background()

	user := e.createUser(t, "jorge", false)
	post := e.createNews(t, "Noticia")
	otherPost := e.createNews(t, "Otra")

	var appErr *models.AppError

	_, err := svc.Create(ctx, user.ID, post.ID, "   ", nil)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	_, err = svc.Create(ctx, user.ID, 999, "hola", nil)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	// Parent on another post.
	parent, err := svc.Create(ctx, user.ID, otherPost.ID, "en otra noticia", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, post.ID, "respuesta cruzada", &parent.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestListByNewsBuildsTreeAscending(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc := newCommentService(e)
	ctx := context.Background()

	user := e.createUser(t, "karen", false)
	post := e.createNews(t, "Noticia")

	first, err := svc.Create(ctx, user.ID, post.ID, "primero", nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, user.ID, post.ID, "segundo", nil)
	require.NoError(t, err)
	reply1, err := svc.Create(ctx, user.ID, post.ID, "respuesta a", &first.ID)
	require.NoError(t, err)
	reply2, err := svc.Create(ctx, user.ID, post.ID, "respuesta b", &first.ID)
	require.NoError(t, err)

	tree, err := svc.ListByNews(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	assert.Equal(t, first.ID, tree[0].ID)
	assert.Equal(t, second.ID, tree[1].ID)
	require.Len(t, tree[0].Respuestas, 2)
	assert.Equal(t, reply1.ID, tree[0].Respuestas[0].ID)
	assert.Equal(t, reply2.ID, tree[0].Respuestas[1].ID)
	assert.Empty(t, tree[1].Respuestas)

	assert.NotEmpty(t, tree[0].Tiempo)
	require.NotNil(t, tree[0].User)
	assert.Equal(t, "karen", tree[0].User.Username)
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc := newCommentService(e)
	ctx := context.Background()

	author := e.createUser(t, "nuria", false)
	stranger := e.createUser(t, "pablo", false)
	post := e.createNews(t, "Noticia")

	comment, err := svc.Create(ctx, author.ID, post.ID, "versión inicial", nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, author.ID, comment.ID, "versión corregida")
	require.NoError(t, err)
	assert.Equal(t, "versión corregida", updated.Contenido)
	assert.Equal(t, comment.FechaHora, updated.FechaHora, "timestamp is immutable")

	var appErr *models.AppError
	_, err = svc.Update(ctx, stranger.ID, comment.ID, "ajena")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	_, err = svc.Update(ctx, author.ID, comment.ID, "   ")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	_, err = svc.Update(ctx, author.ID, 999, "no existe")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestDeleteCommentPermissions(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc := newCommentService(e)
	ctx := context.Background()

	author := e.createUser(t, "laura", false)
	stranger := e.createUser(t, "mario", false)
	staff := e.createUser(t, "staff", true)
	post := e.createNews(t, "Noticia")

	c1, err := svc.Create(ctx, author.ID, post.ID, "mío", nil)
	require.NoError(t, err)
	reply, err := svc.Create(ctx, stranger.ID, post.ID, "respuesta ajena", &c1.ID)
	require.NoError(t, err)

	var appErr *models.AppError
	err = svc.Delete(ctx, stranger.ID, false, c1.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	// Author removal takes the whole subtree, replies by others included.
	require.NoError(t, svc.Delete(ctx, author.ID, false, c1.ID))
	_, err = svc.Get(ctx, reply.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	// Staff can delete anyone's comment.
	c2, err := svc.Create(ctx, author.ID, post.ID, "otro", nil)
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, staff.ID, true, c2.ID))
}

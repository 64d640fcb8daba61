package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"refugio/internal/database"
	"refugio/internal/mailer"
	"refugio/internal/models"
	"refugio/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fakeStore is an in-memory media store.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	nextID  int
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Save(ctx context.Context, folder, filename string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", fmt.Errorf("store unavailable")
	}
	f.nextID++
	key := fmt.Sprintf("%s/obj-%d", folder, f.nextID)
	f.objects[key] = content
	return key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return "http://media.test/" + key
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// stubSender records messages in delivery order.
type stubSender struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (s *stubSender) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *stubSender) sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mailer.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// env bundles everything a service test needs.
type env struct {
	db        *gorm.DB
	store     *fakeStore
	sender    *stubSender
	notifier  *Notifier
	animals   repository.AnimalRepository
	news      repository.NewsRepository
	comments  repository.CommentRepository
	adoptions repository.AdoptionRepository
	users     repository.UserRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	store := newFakeStore()
	sender := &stubSender{}
	notifier := NewNotifier(sender, store, NotifierOptions{
		FrontendURL: "http://frontend.test",
		AdminEmail:  "admin@refugio.test",
		Synchronous: true,
	})

	return &env{
		db:        db,
		store:     store,
		sender:    sender,
		notifier:  notifier,
		animals:   repository.NewAnimalRepository(db),
		news:      repository.NewNewsRepository(db),
		comments:  repository.NewCommentRepository(db),
		adoptions: repository.NewAdoptionRepository(db),
		users:     repository.NewUserRepository(db),
	}
}

func (e *env) createUser(t *testing.T, username string, staff bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsStaff:  staff,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *env) createAnimal(t *testing.T, nombre string) *models.Animal {
	t.Helper()
	animal := &models.Animal{Nombre: nombre}
	require.NoError(t, e.db.Create(animal).Error)
	return animal
}

func (e *env) createNews(t *testing.T, titulo string) *models.NewsPost {
	t.Helper()
	post := &models.NewsPost{Titulo: titulo, Contenido: "contenido"}
	require.NoError(t, e.db.Create(post).Error)
	return post
}

func pdfUpload() Upload {
	return Upload{Filename: "solicitud.pdf", Content: []byte("%PDF-1.4 test")}
}

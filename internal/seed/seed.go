// Package seed populates the database with demo data for development and
// testing. Seeding never sends email; it writes directly through the
// repositories' tables.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"refugio/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumAnimales int
	NumNoticias int
	ShouldClean bool
}

var animalNames = []string{
	"Pelusa", "Luna", "Toby", "Nala", "Rocky", "Mia", "Simba", "Coco",
	"Kira", "Max", "Lola", "Thor", "Nube", "Canela", "Bruno", "Duna",
	"Leo", "Chispa", "Golfo", "Perla", "Rayo", "Manchas", "Trufa", "Zeus",
}

var situaciones = []string{
	"Llegó al refugio tras ser abandonado en la carretera. Es muy cariñoso y se lleva bien con otros animales.",
	"Rescatado de una colonia urbana. Al principio es tímido pero se gana la confianza rápido.",
	"Su familia no podía seguir cuidándolo. Está sano, vacunado y listo para un nuevo hogar.",
	"Encontrado herido y ya recuperado. Necesita una familia con paciencia y espacio.",
	"Nació en el refugio y busca su primera casa. Es juguetón y muy sociable.",
}

// Seed populates the database with demo data.
func Seed(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	log.Printf("Seeding database: %d users, %d animals, %d news posts...",
		opts.NumUsers, opts.NumAnimales, opts.NumNoticias)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	users, err := createUsers(db, opts.NumUsers, r)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	animales, err := createAnimales(db, opts.NumAnimales, r)
	if err != nil {
		return fmt.Errorf("failed to create animals: %w", err)
	}
	log.Printf("created %d animals", len(animales))

	noticias, err := createNoticias(db, opts.NumNoticias, r)
	if err != nil {
		return fmt.Errorf("failed to create news posts: %w", err)
	}
	log.Printf("created %d news posts", len(noticias))

	nComments, err := createComentarios(db, users, noticias, r)
	if err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	log.Printf("created %d comments", nComments)

	nAdoptions, err := createAdopciones(db, users, animales, r)
	if err != nil {
		return fmt.Errorf("failed to create adoption requests: %w", err)
	}
	log.Printf("created %d adoption requests", nAdoptions)

	log.Println("Seeding complete. All seeded users have the password: Password123")
	return nil
}

func clearData(db *gorm.DB) error {
	// Children before parents.
	for _, model := range []any{
		&models.AdoptionRequest{},
		&models.Comment{},
		&models.NewsPost{},
		&models.Animal{},
		&models.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, n int, r *rand.Rand) ([]models.User, error) {
	if n <= 0 {
		n = 20
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n+1)

	admin := models.User{
		Username:         "admin",
		Email:            "admin@refugio.local",
		Password:         string(hash),
		FirstName:        "Admin",
		LastName:         "Refugio",
		IsStaff:          true,
		RecibirNovedades: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 0; i < n; i++ {
		user := models.User{
			Username:         fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:            fmt.Sprintf("user%d.%s", i, gofakeit.Email()),
			Password:         string(hash),
			FirstName:        gofakeit.FirstName(),
			LastName:         gofakeit.LastName(),
			RecibirNovedades: r.Intn(3) == 0,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createAnimales(db *gorm.DB, n int, r *rand.Rand) ([]models.Animal, error) {
	if n <= 0 {
		n = 12
	}
	now := time.Now()
	animales := make([]models.Animal, 0, n)
	for i := 0; i < n; i++ {
		nacimiento := now.AddDate(0, 0, -(r.Intn(12*365) + 60))
		animal := models.Animal{
			Nombre:          animalNames[r.Intn(len(animalNames))],
			FechaNacimiento: nacimiento,
			Situacion:       situaciones[r.Intn(len(situaciones))],
		}
		animal.Edad = animal.AgeAt(now)
		if err := db.Create(&animal).Error; err != nil {
			return nil, err
		}
		animales = append(animales, animal)
	}
	return animales, nil
}

func createNoticias(db *gorm.DB, n int, r *rand.Rand) ([]models.NewsPost, error) {
	if n <= 0 {
		n = 8
	}
	noticias := make([]models.NewsPost, 0, n)
	for i := 0; i < n; i++ {
		titulo := gofakeit.Sentence(6)
		if len(titulo) > 100 {
			titulo = titulo[:100]
		}
		noticia := models.NewsPost{
			Titulo:           titulo,
			Contenido:        gofakeit.Paragraph(2, 4, 8, "\n\n"),
			FechaPublicacion: time.Now().AddDate(0, 0, -r.Intn(120)),
		}
		if err := db.Create(&noticia).Error; err != nil {
			return nil, err
		}
		noticias = append(noticias, noticia)
	}
	return noticias, nil
}

func createComentarios(db *gorm.DB, users []models.User, noticias []models.NewsPost, r *rand.Rand) (int, error) {
	if len(users) == 0 || len(noticias) == 0 {
		return 0, nil
	}
	created := 0
	for _, noticia := range noticias {
		var parents []models.Comment
		for i := 0; i < r.Intn(5)+1; i++ {
			comment := models.Comment{
				NewsID:    noticia.ID,
				UserID:    users[r.Intn(len(users))].ID,
				Contenido: gofakeit.Sentence(10),
			}
			if err := db.Create(&comment).Error; err != nil {
				return created, err
			}
			parents = append(parents, comment)
			created++
		}
		// A few replies, never past the depth limit.
		for i := 0; i < r.Intn(4); i++ {
			parent := parents[r.Intn(len(parents))]
			reply := models.Comment{
				NewsID:    noticia.ID,
				UserID:    users[r.Intn(len(users))].ID,
				Contenido: gofakeit.Sentence(8),
				ParentID:  &parent.ID,
			}
			if err := db.Create(&reply).Error; err != nil {
				return created, err
			}
			created++
			if r.Intn(2) == 0 {
				nested := models.Comment{
					NewsID:    noticia.ID,
					UserID:    users[r.Intn(len(users))].ID,
					Contenido: gofakeit.Sentence(6),
					ParentID:  &reply.ID,
				}
				if err := db.Create(&nested).Error; err != nil {
					return created, err
				}
				created++
			}
		}
	}
	return created, nil
}

func createAdopciones(db *gorm.DB, users []models.User, animales []models.Animal, r *rand.Rand) (int, error) {
	if len(users) < 2 || len(animales) == 0 {
		return 0, nil
	}
	created := 0
	for _, animal := range animales {
		applicants := r.Intn(3)
		if applicants == 0 {
			continue
		}
		perm := r.Perm(len(users))

		// At most one accepted per animal; if one is accepted the rest are
		// rejected, mirroring the cascade.
		accepted := r.Intn(4) == 0
		for i := 0; i < applicants && i < len(perm); i++ {
			status := models.AdoptionStatusPending
			if accepted {
				if i == 0 {
					status = models.AdoptionStatusAccepted
				} else {
					status = models.AdoptionStatusRejected
				}
			}
			req := models.AdoptionRequest{
				AnimalID:     animal.ID,
				UserID:       users[perm[i]].ID,
				Status:       status,
				DocumentoKey: fmt.Sprintf("adopciones/%s.pdf", gofakeit.UUID()),
			}
			if err := db.Create(&req).Error; err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

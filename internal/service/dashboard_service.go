package service

import (
	"context"
	"time"

	"refugio/internal/media"
	"refugio/internal/models"
	"refugio/internal/repository"
)

// dashboardRecent bounds the "latest activity" lists.
const dashboardRecent = 10

// Dashboard aggregates the staff overview: totals plus the latest activity.
type Dashboard struct {
	Totales struct {
		Animales    int64 `json:"animales"`
		Noticias    int64 `json:"noticias"`
		Comentarios int64 `json:"comentarios"`
		Adopciones  int64 `json:"adopciones"`
		Usuarios    int64 `json:"usuarios"`
	} `json:"totales"`
	AdopcionesPendientes int64                    `json:"adopciones_pendientes"`
	UltimasAdopciones    []models.AdoptionRequest `json:"ultimas_adopciones"`
	UltimosComentarios   []models.Comment         `json:"ultimos_comentarios"`
}

// DashboardService builds the staff dashboard.
type DashboardService struct {
	animals   repository.AnimalRepository
	news      repository.NewsRepository
	comments  repository.CommentRepository
	adoptions repository.AdoptionRepository
	users     repository.UserRepository
	store     media.Store
	now       func() time.Time
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(
	animals repository.AnimalRepository,
	news repository.NewsRepository,
	comments repository.CommentRepository,
	adoptions repository.AdoptionRepository,
	users repository.UserRepository,
	store media.Store,
) *DashboardService {
	return &DashboardService{
		animals:   animals,
		news:      news,
		comments:  comments,
		adoptions: adoptions,
		users:     users,
		store:     store,
		now:       time.Now,
	}
}

// Build assembles the dashboard snapshot.
func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var err error

	if d.Totales.Animales, err = s.animals.Count(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	if d.Totales.Noticias, err = s.news.Count(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	if d.Totales.Comentarios, err = s.comments.Count(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	if d.Totales.Adopciones, err = s.adoptions.Count(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	if d.Totales.Usuarios, err = s.users.Count(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	if d.AdopcionesPendientes, err = s.adoptions.CountPending(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}

	adoptions, err := s.adoptions.Recent(ctx, dashboardRecent)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range adoptions {
		adoptions[i].DocumentoURL = s.store.URL(adoptions[i].DocumentoKey)
		if adoptions[i].Animal != nil {
			adoptions[i].Animal.ImagenURL = s.store.URL(adoptions[i].Animal.ImagenKey)
		}
	}
	d.UltimasAdopciones = adoptions

	comments, err := s.comments.Recent(ctx, dashboardRecent)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	now := s.now()
	for i := range comments {
		comments[i].Tiempo = comments[i].TiempoTranscurrido(now)
	}
	d.UltimosComentarios = comments

	return &d, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"refugio/internal/media"
	"refugio/internal/middleware"
	"refugio/internal/models"
	"refugio/internal/repository"
	"refugio/internal/validation"
)

// AdoptionService manages the adoption request lifecycle: submission with a
// supporting PDF, staff resolution with the accept cascade, and withdrawal.
type AdoptionService struct {
	adoptions repository.AdoptionRepository
	animals   repository.AnimalRepository
	store     media.Store
	notifier  *Notifier
}

// NewAdoptionService creates an AdoptionService.
func NewAdoptionService(adoptions repository.AdoptionRepository, animals repository.AnimalRepository, store media.Store, notifier *Notifier) *AdoptionService {
	return &AdoptionService{
		adoptions: adoptions,
		animals:   animals,
		store:     store,
		notifier:  notifier,
	}
}

// Submit files a new request. One request per (animal, user), enforced here
// and again by the unique index for concurrent submissions.
func (s *AdoptionService) Submit(ctx context.Context, userID, animalID uint, documento Upload, skipNotifications bool) (*models.AdoptionRequest, error) {
	if err := validation.ValidatePDF(documento.Filename); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(documento.Content) == 0 {
		return nil, models.NewValidationError("El documento de adopción es obligatorio")
	}

	if _, err := s.animals.GetByID(ctx, animalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Animal", animalID)
		}
		return nil, models.NewInternalError(err)
	}

	exists, err := s.adoptions.HasRequest(ctx, animalID, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if exists {
		return nil, models.NewConflictError("Ya has solicitado la adopción de este animal")
	}

	key, err := s.store.Save(ctx, media.FolderAdopcion, documento.Filename, documento.Content)
	if err != nil {
		return nil, models.NewUpstreamError("media store", err)
	}

	req := &models.AdoptionRequest{
		AnimalID:     animalID,
		UserID:       userID,
		Status:       models.AdoptionStatusPending,
		DocumentoKey: key,
	}
	if err := s.adoptions.Create(ctx, req); err != nil {
		// Lost a race with a concurrent submission; the index caught it.
		if cleanupErr := s.store.Delete(ctx, key); cleanupErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove orphaned adoption document",
				slog.String("key", key), slog.String("error", cleanupErr.Error()))
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Ya has solicitado la adopción de este animal")
		}
		return nil, models.NewInternalError(err)
	}

	full, err := s.adoptions.GetByID(ctx, req.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	s.resolve(full)

	if !skipNotifications {
		s.notifier.AdoptionCreated(full)
	}
	return full, nil
}

// Get returns one request. Non-staff callers may only see their own.
func (s *AdoptionService) Get(ctx context.Context, actorID uint, actorIsStaff bool, id uint) (*models.AdoptionRequest, error) {
	req, err := s.adoptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Adopción", id)
		}
		return nil, models.NewInternalError(err)
	}
	if req.UserID != actorID && !actorIsStaff {
		return nil, models.NewForbiddenError("No puedes ver solicitudes de otros usuarios")
	}
	s.resolve(req)
	return req, nil
}

// List returns every request, for staff review.
func (s *AdoptionService) List(ctx context.Context) ([]models.AdoptionRequest, error) {
	reqs, err := s.adoptions.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range reqs {
		s.resolve(&reqs[i])
	}
	return reqs, nil
}

// ListByUser returns the caller's own requests.
func (s *AdoptionService) ListByUser(ctx context.Context, userID uint) ([]models.AdoptionRequest, error) {
	reqs, err := s.adoptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range reqs {
		s.resolve(&reqs[i])
	}
	return reqs, nil
}

// SetStatus resolves a pending request. Accepting rejects every other
// pending request for the same animal atomically; the acceptance email goes
// out first, then one rejection email per displaced applicant, in a stable
// order. Accepted and Rejected are terminal: resolving an already-resolved
// request is a conflict, as is accepting a request for an animal another
// request already adopted.
func (s *AdoptionService) SetStatus(ctx context.Context, id uint, status models.AdoptionStatus) (*models.AdoptionRequest, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("Estado de adopción no válido")
	}
	if status == models.AdoptionStatusPending {
		return nil, models.NewValidationError("Una solicitud no puede volver a estar pendiente")
	}

	current, err := s.adoptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Adopción", id)
		}
		return nil, models.NewInternalError(err)
	}
	if current.Status != models.AdoptionStatusPending {
		return nil, models.NewConflictError("La solicitud ya está resuelta")
	}

	switch status {
	case models.AdoptionStatusAccepted:
		accepted, displaced, err := s.adoptions.Accept(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrAnimalAdopted) {
				return nil, models.NewConflictError("Este animal ya fue adoptado")
			}
			return nil, models.NewInternalError(err)
		}
		s.notifier.AdoptionAccepted(accepted)
		for i := range displaced {
			s.notifier.AdoptionRejected(displaced[i].User, accepted.Animal)
		}
		s.resolve(accepted)
		return accepted, nil

	default:
		rejected, err := s.adoptions.Reject(ctx, id)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		s.notifier.AdoptionRejected(rejected.User, rejected.Animal)
		s.resolve(rejected)
		return rejected, nil
	}
}

// Withdraw deletes a request and its stored document. The owner may withdraw
// their own request; staff may remove any.
func (s *AdoptionService) Withdraw(ctx context.Context, actorID uint, actorIsStaff bool, id uint) error {
	req, err := s.adoptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewNotFoundError("Adopción", id)
		}
		return models.NewInternalError(err)
	}
	if req.UserID != actorID && !actorIsStaff {
		return models.NewForbiddenError("No puedes retirar solicitudes de otros usuarios")
	}

	if err := s.adoptions.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}

	if req.DocumentoKey != "" {
		if err := s.store.Delete(ctx, req.DocumentoKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove withdrawn adoption document",
				slog.String("key", req.DocumentoKey), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *AdoptionService) resolve(req *models.AdoptionRequest) {
	req.DocumentoURL = s.store.URL(req.DocumentoKey)
	if req.Animal != nil {
		req.Animal.ImagenURL = s.store.URL(req.Animal.ImagenKey)
	}
	if req.User != nil {
		req.User.FotoPerfilURL = s.store.URL(req.User.FotoPerfilKey)
	}
}

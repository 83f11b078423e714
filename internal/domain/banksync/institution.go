package banksync

import (
	"context"
	"log/slog"

	"finboard/internal/domain/institution"
	"finboard/internal/infrastructure/plaid"
)

// InstitutionService lists and disconnects linked institutions.
type InstitutionService struct {
	client plaid.ClientInterface
	repo   institution.Repository
}

func NewInstitutionService(client plaid.ClientInterface, repo institution.Repository) *InstitutionService {
	return &InstitutionService{client: client, repo: repo}
}

func (s *InstitutionService) List(ctx context.Context, userID int64) ([]*institution.Institution, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Unlink revokes the item at the provider and deletes it locally together
// with its accounts and transactions. A provider failure does not block the
// local delete.
func (s *InstitutionService) Unlink(ctx context.Context, userID int64, id string) error {
	inst, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.client.RemoveItem(ctx, inst.AccessToken); err != nil {
		slog.WarnContext(ctx, "failed to remove item at provider",
			"user_id", userID,
			"institution_id", id,
			"error", err,
		)
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "institution unlinked", "user_id", userID, "institution_id", id)
	return nil
}

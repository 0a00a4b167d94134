package repositories

import (
	"context"

	"github.com/BradenHooton/denuncias/internal/database"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/jackc/pgx/v5"
)

// TransitionStore applies a state change and its ledger entry as one unit
type TransitionStore struct {
	db         *database.DB
	complaints *ComplaintRepository
	followUps  *FollowUpRepository
}

func NewTransitionStore(db *database.DB, complaints *ComplaintRepository, followUps *FollowUpRepository) *TransitionStore {
	return &TransitionStore{db: db, complaints: complaints, followUps: followUps}
}

// Apply locks the complaint, updates its state and records the follow-up entry
// in one transaction. It returns the complaint as it was before the change and
// the recorded entry.
func (s *TransitionStore) Apply(ctx context.Context, t models.Transition) (*models.Complaint, *models.FollowUp, error) {
	var before *models.Complaint
	var entry *models.FollowUp

	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		complaints := s.complaints.WithTx(tx)
		followUps := s.followUps.WithTx(tx)

		current, err := complaints.GetForUpdate(ctx, t.ComplaintID)
		if err != nil {
			return err
		}

		if err := complaints.UpdateState(ctx, t.ComplaintID, t.NewState); err != nil {
			return err
		}

		authorityID := t.AuthorityID
		recorded, err := followUps.Record(ctx, &models.FollowUp{
			ComplaintID: t.ComplaintID,
			AuthorityID: &authorityID,
			Comment:     t.Comment,
			StateBefore: current.State,
			StateAfter:  t.NewState,
		})
		if err != nil {
			return err
		}

		before, entry = current, recorded
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return before, entry, nil
}

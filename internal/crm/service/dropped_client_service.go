package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
)

type DroppedClientService struct {
	*base
}

func (s *DroppedClientService) Get(ctx context.Context, id string) (*entity.DroppedClient, error) {
	return s.repos.DroppedClient.FindByID(ctx, id)
}

// List returns the archive, optionally limited to one type.
func (s *DroppedClientService) List(ctx context.Context, typ entity.DroppedType, keyword string) ([]entity.DroppedClient, error) {
	if typ != "" && !typ.Valid() {
		return nil, ErrInvalidDroppedType
	}
	items, err := s.repos.DroppedClient.List(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("list dropped clients: %w", err)
	}
	if keyword == "" {
		return items, nil
	}

	out := items[:0]
	for _, d := range items {
		if matchKeyword(keyword, d.Name(), d.Reason) {
			out = append(out, d)
		}
	}
	return out, nil
}

// UpdateDroppedRequest edits the archive details. Nil fields are left alone.
type UpdateDroppedRequest struct {
	Reason      *string `json:"reason"`
	DroppedDate *string `json:"dropped_date" binding:"omitempty,datetime=2006-01-02"`
}

func (req UpdateDroppedRequest) check() error {
	if req.Reason != nil && strings.TrimSpace(*req.Reason) == "" {
		return ErrReasonRequired
	}
	if req.DroppedDate != nil {
		if *req.DroppedDate == "" {
			return fmt.Errorf("%w: dropped_date is required", ErrInvalidInput)
		}
		return checkDate("dropped_date", *req.DroppedDate)
	}
	return nil
}

// Update rewrites reason and dropped_date of an archive entry. The snapshot
// in original_data is never touched.
func (s *DroppedClientService) Update(ctx context.Context, id string, req UpdateDroppedRequest, operatorID string) (*entity.DroppedClient, error) {
	if err := req.check(); err != nil {
		return nil, err
	}

	var dropped *entity.DroppedClient
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		current, err := repos.DroppedClient.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Reason != nil {
			current.Reason = *req.Reason
		}
		if req.DroppedDate != nil {
			current.DroppedDate = *req.DroppedDate
		}
		if err := repos.DroppedClient.UpdateDetails(ctx, current); err != nil {
			return err
		}
		if err := repos.ActivityLog.Log(ctx, entity.ActivityEntityDropped, current.ID, entity.ActionUpdate,
			"", "", current.Reason, operatorID); err != nil {
			return err
		}
		dropped, err = repos.DroppedClient.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update dropped client: %w", err)
	}

	s.notify(ctx, events.BoardDropped, id, entity.ActionUpdate)
	return dropped, nil
}

// Activity returns the audit trail of an archive entry, newest first.
func (s *DroppedClientService) Activity(ctx context.Context, id string) ([]entity.ActivityLog, error) {
	return s.repos.ActivityLog.FindByEntity(ctx, entity.ActivityEntityDropped, id)
}

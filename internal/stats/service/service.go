package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"leadrouter_backend/internal/stats/repository"
	"leadrouter_backend/internal/stats/transport"
	"leadrouter_backend/platform/apperr"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) System(ctx context.Context) (transport.SystemStatsResponse, error) {
	snap, err := s.repo.SystemSnapshot(ctx)
	if err != nil {
		return transport.SystemStatsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to collect system stats", err)
	}

	operators := make([]transport.OperatorLoadInfo, 0, len(snap.Operators))
	for _, op := range snap.Operators {
		operators = append(operators, transport.OperatorLoadInfo{
			OperatorID:        op.OperatorID,
			Name:              op.Name,
			IsActive:          op.IsActive,
			CurrentLoad:       op.CurrentLoad,
			MaxActiveContacts: op.MaxActiveContacts,
		})
	}

	return transport.SystemStatsResponse{
		TotalOperators:   snap.TotalOperators,
		ActiveOperators:  snap.ActiveOperators,
		TotalSources:     snap.TotalSources,
		ActiveSources:    snap.ActiveSources,
		TotalLeads:       snap.TotalLeads,
		TotalContacts:    snap.TotalContacts,
		ActiveContacts:   snap.ActiveContacts,
		ContactsByStatus: snap.ContactsByStatus,
		UnassignedActive: snap.UnassignedActive,
		Operators:        operators,
		TakenAt:          snap.TakenAt,
	}, nil
}

func (s *Service) Source(ctx context.Context, sourceID uuid.UUID) (transport.SourceStatsResponse, error) {
	snap, err := s.repo.SourceSnapshot(ctx, sourceID)
	if errors.Is(err, repository.ErrSourceNotFound) {
		return transport.SourceStatsResponse{}, apperr.NotFound("source not found")
	}
	if err != nil {
		return transport.SourceStatsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to collect source stats", err)
	}

	// The weight denominator only counts active operators: an inactive
	// operator never takes part in the draw, so its share is zero.
	activeWeight := 0
	for _, share := range snap.Operators {
		if share.IsActive {
			activeWeight += share.Weight
		}
	}

	operators := make([]transport.OperatorShareInfo, 0, len(snap.Operators))
	for _, share := range snap.Operators {
		percent := 0.0
		if share.IsActive && activeWeight > 0 {
			percent = math.Round(float64(share.Weight)/float64(activeWeight)*10000) / 100
		}
		operators = append(operators, transport.OperatorShareInfo{
			OperatorID:        share.OperatorID,
			OperatorName:      share.OperatorName,
			IsActive:          share.IsActive,
			Weight:            share.Weight,
			SharePercent:      percent,
			CurrentLoad:       share.CurrentLoad,
			MaxActiveContacts: share.MaxActiveContacts,
			ContactsReceived:  share.ContactsReceived,
		})
	}

	return transport.SourceStatsResponse{
		SourceID:         snap.SourceID,
		SourceName:       snap.SourceName,
		SourceCode:       snap.SourceCode,
		IsActive:         snap.IsActive,
		TotalContacts:    snap.TotalContacts,
		UnassignedActive: snap.UnassignedActive,
		Operators:        operators,
		TakenAt:          snap.TakenAt,
	}, nil
}

package seeder

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/domain"
)

// TargetSeeder makes sure every configured owner has stored tier targets
type TargetSeeder struct {
	repo     domain.TargetRepository
	owners   []string
	defaults func(owner string) domain.TierTargets
	log      zerolog.Logger
}

// NewTargetSeeder creates a new TargetSeeder instance.
// defaults supplies the targets written for an owner that has none.
func NewTargetSeeder(repo domain.TargetRepository, owners []string, defaults func(owner string) domain.TierTargets, log zerolog.Logger) *TargetSeeder {
	return &TargetSeeder{
		repo:     repo,
		owners:   owners,
		defaults: defaults,
		log:      log.With().Str("component", "target_seeder").Logger(),
	}
}

// Seed writes default targets for owners without any.
// Owners that already have targets are left untouched.
func (s *TargetSeeder) Seed(ctx context.Context) error {
	for _, owner := range s.owners {
		existing, err := s.repo.Get(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load targets for %s: %w", owner, err)
		}
		if len(existing) > 0 {
			continue
		}

		targets := s.defaults(owner)

		// Validate before creating
		if err := targets.Validate(); err != nil {
			return fmt.Errorf("default targets for %s: %w", owner, err)
		}

		if err := s.repo.Save(ctx, owner, targets); err != nil {
			return fmt.Errorf("failed to seed targets for %s: %w", owner, err)
		}
		s.log.Info().Str("owner", owner).Msg("Seeded tier targets")
	}

	return nil
}

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/pokedex/internal/database/repository"
	"github.com/jask/pokedex/internal/roster"
)

// MaintenanceService houses destructive/ops actions surfaced through the TUI and CLI.
type MaintenanceService struct {
	DB      *sql.DB
	Catalog *repository.CatalogRepo
	Team    *roster.Manager
}

// Reset wipes the catalog cache and the team. The team goes through the
// roster manager so the stored key is removed the same way a user clear does.
// The schema stays intact so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.Catalog == nil || s.Team == nil {
		return fmt.Errorf("maintenance: not configured")
	}
	if err := s.Catalog.Clear(ctx); err != nil {
		return fmt.Errorf("reset catalog cache: %w", err)
	}
	if err := s.Team.Clear(ctx); err != nil {
		return fmt.Errorf("reset team: %w", err)
	}
	if s.DB != nil {
		_, _ = s.DB.ExecContext(ctx, "VACUUM")
	}
	return nil
}

package identity

import (
	"context"
	"fmt"
	"log/slog"
)

type Service struct {
	directory Directory
	logger    *slog.Logger
}

func NewService(directory Directory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		directory: directory,
		logger:    logger,
	}
}

// ListIdentities returns the directory as response rows for the user management screen.
func (s *Service) ListIdentities(ctx context.Context) ([]IdentityResponse, error) {
	identities, err := s.directory.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list identities", "error", err)
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	responses := make([]IdentityResponse, 0, len(identities))
	for _, ident := range identities {
		responses = append(responses, ToResponse(ident))
	}

	s.logger.DebugContext(ctx, "listed identities", "count", len(responses))
	return responses, nil
}

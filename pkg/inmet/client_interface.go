package inmet

import (
	"context"

	"github.com/inmet-io/inmet-alert-gateway/pkg/models"
)

// FeedClient defines the interface for the INMET API client.
// This allows us to mock the client for testing.
type FeedClient interface {
	ActiveAlerts(ctx context.Context) (*models.FeedPayload, error)
	SearchCity(ctx context.Context, query string) ([]models.City, error)
}

// Ensure Client implements FeedClient
var _ FeedClient = (*Client)(nil)

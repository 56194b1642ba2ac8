package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// qrSize is the edge length in pixels of generated QR images
const qrSize = 256

// LinkService builds the ballot links shown on the venue display
type LinkService struct {
	settings *SettingsService
}

// NewLinkService creates a new LinkService
func NewLinkService(settings *SettingsService) *LinkService {
	return &LinkService{settings: settings}
}

// BallotURL returns the link voters open to reach a vote
func (s *LinkService) BallotURL(ctx context.Context, voteID string) (string, error) {
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		return "", ErrBaseURLNotConfigured
	}
	return fmt.Sprintf("%s/api/votes/%s", strings.TrimSuffix(baseURL, "/"), voteID), nil
}

// BallotQR returns a PNG QR code encoding the vote's ballot link
func (s *LinkService) BallotQR(ctx context.Context, voteID string) ([]byte, error) {
	url, err := s.BallotURL(ctx, voteID)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(url, qrcode.Medium, qrSize)
}

package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/services"
	"github.com/abrezinsky/cuevote/internal/testutil"
)

func TestLinkService_BallotURL(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	settings := services.NewSettingsService(logger.Discard(), repo)
	svc := services.NewLinkService(settings)
	ctx := context.Background()

	if _, err := svc.BallotURL(ctx, "vote-1"); err != services.ErrBaseURLNotConfigured {
		t.Fatalf("err = %v, want ErrBaseURLNotConfigured", err)
	}

	settings.SetBaseURL(ctx, "http://10.0.0.5:8080/")
	url, err := svc.BallotURL(ctx, "vote-1")
	if err != nil {
		t.Fatalf("BallotURL failed: %v", err)
	}
	if url != "http://10.0.0.5:8080/api/votes/vote-1" {
		t.Errorf("url = %q", url)
	}
}

func TestLinkService_BallotQR(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	settings := services.NewSettingsService(logger.Discard(), repo)
	svc := services.NewLinkService(settings)
	ctx := context.Background()

	if _, err := svc.BallotQR(ctx, "vote-1"); err == nil {
		t.Error("expected error without base_url")
	}

	settings.SetBaseURL(ctx, "http://venue:8080")
	png, err := svc.BallotQR(ctx, "vote-1")
	if err != nil {
		t.Fatalf("BallotQR failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG data")
	}
}

package download

import (
	"context"
	"errors"
	"testing"
	"time"

	"beatforge/model"
)

// stubSigner returns deterministic URLs and records the keys it signed.
type stubSigner struct {
	signed []string
	err    error
	now    time.Time
}

func (s *stubSigner) Sign(_ context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	s.signed = append(s.signed, key)
	return "https://cdn.example/" + key + "?sig=test", s.now.Add(ttl), nil
}

func TestIssueDownloadURLs(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer := &stubSigner{now: now}
	issuer := NewIssuer(signer, 30*time.Minute)

	stems := "stems/night-drive.zip"
	beat := &model.Beat{
		ID:             "beat-1",
		MasterAssetRef: "masters/night-drive.wav",
		StemsAssetRef:  &stems,
	}

	links, err := issuer.IssueDownloadURLs(context.Background(), beat)
	if err != nil {
		t.Fatalf("IssueDownloadURLs failed: %v", err)
	}
	if links.MasterURL != "https://cdn.example/masters/night-drive.wav?sig=test" {
		t.Errorf("master url = %q", links.MasterURL)
	}
	if links.StemsURL == nil {
		t.Fatal("expected stems url")
	}
	if want := now.Add(30 * time.Minute); !links.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", links.ExpiresAt, want)
	}
}

func TestIssueDownloadURLsNoStems(t *testing.T) {
	signer := &stubSigner{now: time.Now()}
	issuer := NewIssuer(signer, 30*time.Minute)

	links, err := issuer.IssueDownloadURLs(context.Background(), &model.Beat{
		ID:             "beat-1",
		MasterAssetRef: "masters/a.wav",
	})
	if err != nil {
		t.Fatalf("IssueDownloadURLs failed: %v", err)
	}
	if links.StemsURL != nil {
		t.Errorf("expected no stems url, got %q", *links.StemsURL)
	}
	if len(signer.signed) != 1 {
		t.Errorf("expected a single signing call, got %v", signer.signed)
	}
}

func TestIssueDownloadURLsLegacyStemsSlot(t *testing.T) {
	signer := &stubSigner{now: time.Now()}
	issuer := NewIssuer(signer, 30*time.Minute)

	legacy := "old-stems/a.zip"
	links, err := issuer.IssueDownloadURLs(context.Background(), &model.Beat{
		ID:                  "beat-1",
		MasterAssetRef:      "masters/a.wav",
		LegacyStemsAssetRef: &legacy,
	})
	if err != nil {
		t.Fatalf("IssueDownloadURLs failed: %v", err)
	}
	if links.StemsURL == nil {
		t.Fatal("expected legacy stems slot to produce a url")
	}
	if signer.signed[1] != legacy {
		t.Errorf("signed %q, want legacy slot key", signer.signed[1])
	}
}

func TestIssueDownloadURLsPreferCurrentSlot(t *testing.T) {
	signer := &stubSigner{now: time.Now()}
	issuer := NewIssuer(signer, 30*time.Minute)

	current := "stems/new.zip"
	legacy := "old-stems/old.zip"
	_, err := issuer.IssueDownloadURLs(context.Background(), &model.Beat{
		ID:                  "beat-1",
		MasterAssetRef:      "masters/a.wav",
		StemsAssetRef:       &current,
		LegacyStemsAssetRef: &legacy,
	})
	if err != nil {
		t.Fatalf("IssueDownloadURLs failed: %v", err)
	}
	if signer.signed[1] != current {
		t.Errorf("signed %q, want current slot to win", signer.signed[1])
	}
}

func TestIssueDownloadURLsNoMaster(t *testing.T) {
	issuer := NewIssuer(&stubSigner{now: time.Now()}, 30*time.Minute)
	if _, err := issuer.IssueDownloadURLs(context.Background(), &model.Beat{ID: "beat-1"}); err == nil {
		t.Fatal("expected error for a beat without a master asset")
	}
}

func TestIssueDownloadURLsSignerError(t *testing.T) {
	wantErr := errors.New("storage offline")
	issuer := NewIssuer(&stubSigner{err: wantErr}, 30*time.Minute)
	if _, err := issuer.IssueDownloadURLs(context.Background(), &model.Beat{
		ID:             "beat-1",
		MasterAssetRef: "masters/a.wav",
	}); !errors.Is(err, wantErr) {
		t.Errorf("expected signer error to propagate, got %v", err)
	}
}

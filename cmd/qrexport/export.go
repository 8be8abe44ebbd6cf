package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/qrcode"
)

const maxFileNameLen = 180

type lister interface {
	List(ctx context.Context) ([]model.Participant, error)
}

type result struct {
	Exported int
	Skipped  int
}

var (
	forbiddenChars     = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	trailingDots       = regexp.MustCompile(`[.\s]+$`)
	repeatedUnderscore = regexp.MustCompile(`_{2,}`)
)

// sanitizeFileName makes name safe on Windows: reserved characters become
// "_", trailing dots and spaces go, runs of "_" collapse and the result is
// cut to maxFileNameLen runes.
func sanitizeFileName(name string) string {
	safe := forbiddenChars.ReplaceAllString(name, "_")
	safe = trailingDots.ReplaceAllString(safe, "")
	safe = repeatedUnderscore.ReplaceAllString(safe, "_")
	if r := []rune(safe); len(r) > maxFileNameLen {
		safe = string(r[:maxFileNameLen])
	}
	return safe
}

// export writes one PNG per participant into dir.  Participants without an
// id, a name or a QR payload are skipped, as are undecodable payloads.
func export(ctx context.Context, src lister, dir string, logger *slog.Logger) (result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result{}, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	list, err := src.List(ctx)
	if err != nil {
		return result{}, fmt.Errorf("list participants: %w", err)
	}
	logger.Info("participants found", "count", len(list))

	var res result
	for _, p := range list {
		if p.ID == "" || strings.TrimSpace(p.Name) == "" || p.QRCode == "" {
			res.Skipped++
			continue
		}
		png, err := qrcode.DecodeDataURL(p.QRCode)
		if err != nil {
			logger.Warn("skipping undecodable QR", "participant_id", p.ID, "error", err)
			res.Skipped++
			continue
		}
		path := filepath.Join(dir, sanitizeFileName(p.ID+"_"+p.Name+".png"))
		if err := os.WriteFile(path, png, 0o644); err != nil {
			logger.Warn("write failed", "participant_id", p.ID, "error", err)
			res.Skipped++
			continue
		}
		res.Exported++
	}
	return res, nil
}

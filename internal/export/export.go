// Package export hands finalized resume snapshots to the object store, where
// a renderer picks them up. Rendering itself happens elsewhere.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"resume-workspace/internal/shared/storage/object"
	"resume-workspace/internal/shared/telemetry"
	"resume-workspace/internal/shared/util"
)

// Format is the requested output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatRTF  Format = "rtf"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for formats outside pdf, rtf, html, json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat normalizes f.
func ParseFormat(f string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(f))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatRTF:
		return FormatRTF, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Snapshot is committed content plus what a renderer needs to lay it out.
type Snapshot struct {
	ResumeID     string    `json:"resumeId"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Format       Format    `json:"format"`
	TemplateID   string    `json:"templateId,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	SectionOrder []string  `json:"sectionOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Receipt identifies a staged snapshot.
type Receipt struct {
	Key       string    `json:"key"`
	FileName  string    `json:"fileName"`
	Format    Format    `json:"format"`
	SizeBytes int64     `json:"sizeBytes"`
	StagedAt  time.Time `json:"stagedAt"`
}

type Service struct {
	Store object.ObjectStore
	Now   func() time.Time
}

func NewService(store object.ObjectStore) *Service {
	return &Service{Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

// Stage writes snap as JSON under exports/<resumeId>/.
func (s *Service) Stage(ctx context.Context, snap Snapshot) (Receipt, error) {
	if _, err := ParseFormat(string(snap.Format)); err != nil {
		return Receipt{}, err
	}
	now := s.Now()
	snap.CreatedAt = now
	payload, err := json.Marshal(snap)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode snapshot: %w", err)
	}

	fileName := util.SlugTitle(snap.Title) + "." + string(snap.Format)
	key := fmt.Sprintf("exports/%s/%s-%s.json", snap.ResumeID, now.Format("20060102T150405.000"), fileName)
	n, err := s.Store.Put(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, fmt.Errorf("stage export: %w", err)
	}
	telemetry.Info("export.staged", map[string]any{
		"resume_id":  snap.ResumeID,
		"format":     string(snap.Format),
		"size_bytes": n,
	})
	return Receipt{Key: key, FileName: fileName, Format: snap.Format, SizeBytes: n, StagedAt: now}, nil
}

// Fetch reads a staged snapshot back.
func (s *Service) Fetch(ctx context.Context, key string) (Snapshot, error) {
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

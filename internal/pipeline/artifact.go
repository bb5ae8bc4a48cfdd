package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// Artifact file names under each date directory.
const (
	SlateFile      = "nhl_daily_slim.json"
	ReportFile     = "nhl_signals.md"
	ReportJSONFile = "nhl_signals.json"
)

// ArtifactStore lays out run artifacts as {prefix}/{date_et}/{file} on a blob
// backend.
type ArtifactStore struct {
	w      domain.BlobWriter
	r      domain.BlobReader
	prefix string
}

// NewArtifactStore creates an ArtifactStore. r may be nil when the run never
// reads artifacts back.
func NewArtifactStore(w domain.BlobWriter, r domain.BlobReader, prefix string) *ArtifactStore {
	return &ArtifactStore{w: w, r: r, prefix: strings.Trim(prefix, "/")}
}

// Path returns the blob path of file for dateET.
func (a *ArtifactStore) Path(dateET, file string) string {
	if a.prefix == "" {
		return path.Join(dateET, file)
	}
	return path.Join(a.prefix, dateET, file)
}

// SaveSlate writes s as indented JSON and returns its path.
func (a *ArtifactStore) SaveSlate(ctx context.Context, s *domain.Slate) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("pipeline: marshal slate: %w", err)
	}
	p := a.Path(s.DataDateET, SlateFile)
	if err := a.w.Put(ctx, p, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("pipeline: save slate: %w", err)
	}
	return p, nil
}

// LoadSlate reads the slate for dateET and rejects artifacts written with a
// different schema version.
func (a *ArtifactStore) LoadSlate(ctx context.Context, dateET string) (*domain.Slate, error) {
	if a.r == nil {
		return nil, fmt.Errorf("pipeline: load slate: no reader configured")
	}
	p := a.Path(dateET, SlateFile)
	rc, err := a.r.Get(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load slate: %w", err)
	}
	defer rc.Close()

	var s domain.Slate
	if err := json.NewDecoder(rc).Decode(&s); err != nil {
		return nil, fmt.Errorf("pipeline: decode slate %s: %w", p, err)
	}
	if s.SchemaVersion != domain.SlateSchemaVersion {
		return nil, fmt.Errorf("pipeline: slate %s has schema %q, want %q", p, s.SchemaVersion, domain.SlateSchemaVersion)
	}
	return &s, nil
}

// SaveReport writes the markdown digest and the JSON report for dateET and
// returns their paths.
func (a *ArtifactStore) SaveReport(ctx context.Context, dateET string, rep domain.SignalReport, markdown string) ([]string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("pipeline: marshal report: %w", err)
	}
	mdPath := a.Path(dateET, ReportFile)
	if err := a.w.Put(ctx, mdPath, strings.NewReader(markdown), "text/markdown; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("pipeline: save report: %w", err)
	}
	jsonPath := a.Path(dateET, ReportJSONFile)
	if err := a.w.Put(ctx, jsonPath, bytes.NewReader(data), "application/json"); err != nil {
		return nil, fmt.Errorf("pipeline: save report json: %w", err)
	}
	return []string{mdPath, jsonPath}, nil
}

// SaveRest writes the rest table alone, for runs that only compute rest.
func (a *ArtifactStore) SaveRest(ctx context.Context, dateET string, rows []domain.GameRest) (string, error) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("pipeline: marshal rest: %w", err)
	}
	p := a.Path(dateET, "nhl_rest.json")
	if err := a.w.Put(ctx, p, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("pipeline: save rest: %w", err)
	}
	return p, nil
}

// Package feed supplies the current active storm set for threat
// classification. A feed failure is never fatal to the classifier: the
// runner degrades to an empty storm set, which clears every threat band.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// Feed is a source of the live storm snapshot.
type Feed interface {
	ActiveStorms(ctx context.Context) ([]domain.ActiveStorm, error)
}

// document is the NHC CurrentStorms payload shape. A bare array is also
// accepted for locally curated snapshots.
type document struct {
	ActiveStorms []domain.ActiveStorm `json:"activeStorms"`
}

// decode parses either payload shape and drops records that fail
// validation, returning the dropped count.
func decode(data []byte, validate *validator.Validate) ([]domain.ActiveStorm, int, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		var bare []domain.ActiveStorm
		if err2 := json.Unmarshal(data, &bare); err2 != nil {
			return nil, 0, fmt.Errorf("decode storm feed: %w", err)
		}
		doc.ActiveStorms = bare
	}

	storms := make([]domain.ActiveStorm, 0, len(doc.ActiveStorms))
	dropped := 0
	for _, s := range doc.ActiveStorms {
		if err := validate.Struct(s); err != nil {
			dropped++
			continue
		}
		if s.Category == "" {
			s.Category = domain.CategorizeWind(s.WindKt)
		}
		storms = append(storms, s)
	}
	return storms, dropped, nil
}

// FileFeed reads a storm snapshot from a local JSON file. A missing file
// reads as no active storms, so quiet periods need no placeholder file.
type FileFeed struct {
	path     string
	validate *validator.Validate
	logger   *slog.Logger
}

// NewFileFeed builds a feed over a local snapshot file.
func NewFileFeed(path string, logger *slog.Logger) *FileFeed {
	return &FileFeed{path: path, validate: validator.New(), logger: logger}
}

// ActiveStorms implements Feed.
func (f *FileFeed) ActiveStorms(_ context.Context) ([]domain.ActiveStorm, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read storm feed %s: %w", f.path, err)
	}

	storms, dropped, err := decode(data, f.validate)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		f.logger.Warn("dropped invalid storm records", "dropped", dropped, "path", f.path)
	}
	return storms, nil
}

// HTTPFeed pulls the storm snapshot from an NHC-style endpoint.
type HTTPFeed struct {
	url      string
	client   *http.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHTTPFeed builds a feed over a remote snapshot endpoint. The client's
// timeout bounds each fetch; pass nil to use http.DefaultClient.
func NewHTTPFeed(url string, client *http.Client, logger *slog.Logger) *HTTPFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeed{url: url, client: client, validate: validator.New(), logger: logger}
}

// ActiveStorms implements Feed.
func (f *HTTPFeed) ActiveStorms(ctx context.Context) ([]domain.ActiveStorm, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build storm feed request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch storm feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storm feed returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read storm feed body: %w", err)
	}

	storms, dropped, err := decode(data, f.validate)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		f.logger.Warn("dropped invalid storm records", "dropped", dropped, "url", f.url)
	}
	return storms, nil
}

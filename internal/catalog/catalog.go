// Package catalog loads the service and location catalogs and seeds the task
// queue with their cross product. Bundled sample catalogs apply when no file
// paths are configured.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
)

//go:embed services.json
var sampleServices []byte

//go:embed locations.json
var sampleLocations []byte

// Service is one catalog entry for a service vertical.
type Service struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Location is one catalog entry for a target location.
type Location struct {
	Key    string `json:"key"`
	City   string `json:"city"`
	State  string `json:"state"`
	Active bool   `json:"active"`
}

// Pair is one service+location combination to produce a page for.
type Pair struct {
	ServiceID   string
	LocationKey string
}

// readCatalogFile reads path when it exists and points at a file, falling
// back to the bundled sample catalog otherwise.
func readCatalogFile(path string, sample []byte) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return sample, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sample, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// LoadServices reads a service catalog file, or the bundled sample catalog
// when path is empty.
func LoadServices(path string) ([]Service, error) {
	raw, err := readCatalogFile(path, sampleServices)
	if err != nil {
		return nil, fmt.Errorf("read service catalog: %w", err)
	}
	var services []Service
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, fmt.Errorf("parse service catalog: %w", err)
	}
	for i, svc := range services {
		if strings.TrimSpace(svc.ID) == "" {
			return nil, fmt.Errorf("service catalog entry %d has no id", i)
		}
	}
	return services, nil
}

// LoadLocations reads a location catalog file, or the bundled sample catalog
// when path is empty.
func LoadLocations(path string) ([]Location, error) {
	raw, err := readCatalogFile(path, sampleLocations)
	if err != nil {
		return nil, fmt.Errorf("read location catalog: %w", err)
	}
	var locations []Location
	if err := json.Unmarshal(raw, &locations); err != nil {
		return nil, fmt.Errorf("parse location catalog: %w", err)
	}
	for i, loc := range locations {
		if strings.TrimSpace(loc.Key) == "" {
			return nil, fmt.Errorf("location catalog entry %d has no key", i)
		}
	}
	return locations, nil
}

// Expand returns the cross product of services and active locations, in
// catalog order.
func Expand(services []Service, locations []Location) []Pair {
	pairs := make([]Pair, 0, len(services)*len(locations))
	for _, svc := range services {
		for _, loc := range locations {
			if !loc.Active {
				continue
			}
			pairs = append(pairs, Pair{ServiceID: svc.ID, LocationKey: loc.Key})
		}
	}
	return pairs
}

// Seed loads both catalogs and inserts a pending task for every pair.
// Existing tasks are left untouched; seeding is safe to repeat. Returns the
// number of pairs in the expansion.
func Seed(ctx context.Context, store *queue.Store, cfg *config.Config, logger *slog.Logger) (int, error) {
	log := logging.NewComponentLogger(logger, "catalog")

	services, err := LoadServices(cfg.Catalog.ServicesPath)
	if err != nil {
		return 0, err
	}
	locations, err := LoadLocations(cfg.Catalog.LocationsPath)
	if err != nil {
		return 0, err
	}

	pairs := Expand(services, locations)
	for _, pair := range pairs {
		if _, err := store.NewTask(ctx, pair.ServiceID, pair.LocationKey); err != nil {
			return 0, fmt.Errorf("seed task for %s/%s: %w", pair.ServiceID, pair.LocationKey, err)
		}
	}
	log.Info("catalog seeded",
		logging.Int("services", len(services)),
		logging.Int("locations", len(locations)),
		logging.Int("tasks", len(pairs)),
	)
	return len(pairs), nil
}

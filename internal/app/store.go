package service

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/config"
	"github.com/iceteam/icelist/internal/listgen"
)

// Size of the synthetic list the memory backend starts with.
const (
	memoryLevels  = 90
	memoryPlayers = 12
	memorySeed    = 1
)

// LayoutFromConfig maps configured tab names onto tables.
func LayoutFromConfig(tabs config.TabsConfig) tabular.Layout {
	return tabular.Layout{
		tabular.Main:        tabs.Main,
		tabular.Archive:     tabs.Archive,
		tabular.Enjoyment:   tabs.Enjoyment,
		tabular.Rating:      tabs.Rating,
		tabular.Waiting:     tabs.Waiting,
		tabular.Extreme:     tabs.Extreme,
		tabular.PlayerLists: tabs.PlayerLists,
		tabular.Leaderboard: tabs.Leaderboard,
		tabular.Aliases:     tabs.Aliases,
	}
}

// OpenStore builds the store selected by cfg.Store.Backend. The memory backend is
// seeded with a generated list so a local server has something to serve.
func OpenStore(ctx context.Context, cfg *config.Config) (tabular.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return listgen.Generate(listgen.Config{
			Levels:  max(memoryLevels, cfg.MaxRank+5),
			Players: memoryPlayers,
			Seed:    memorySeed,
		}).Store(), nil
	case "sheets":
		clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
		if cfg.Store.CredentialsJSON != "" {
			clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.Store.CredentialsJSON)))
		} else {
			clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Store.CredentialsFile))
		}
		return tabular.NewSheetsStore(ctx, cfg.Store.SpreadsheetID,
			tabular.WithLayout(LayoutFromConfig(cfg.Tabs)),
			tabular.WithRequestTimeout(cfg.Store.RequestTimeout()),
			tabular.WithClientOptions(clientOpts...),
		)
	default:
		return nil, fmt.Errorf("%w: backend %q", ErrNoStore, cfg.Store.Backend)
	}
}

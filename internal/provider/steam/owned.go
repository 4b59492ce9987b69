package steam

import (
	"context"
	"fmt"

	"github.com/albapepper/steam-ledger/internal/provider"
)

const ownedGamesPath = "/IPlayerService/GetOwnedGames/v1/"

type ownedGamesResponse struct {
	Response *struct {
		GameCount int                  `json:"game_count"`
		Games     []provider.OwnedItem `json:"games"`
	} `json:"response"`
}

// OwnedItems lists every app owned by the account, including free-to-play
// titles, with app metadata.
//
// On a non-success status the failure is logged and an empty list is
// returned alongside an ErrSourceUnavailable error. A payload without a games
// list is an empty library, not an error.
func (c *Client) OwnedItems(ctx context.Context, creds Credentials) ([]provider.OwnedItem, error) {
	params := c.authParams(creds)
	params.Set("include_appinfo", "true")
	params.Set("include_played_free_games", "true")

	c.logger.Info("Fetching owned games", "steam_id", creds.SteamID)

	var raw ownedGamesResponse
	if err := c.get(ctx, ownedGamesPath, params, &raw); err != nil {
		c.logger.Error("Error fetching owned games", "error", err)
		return []provider.OwnedItem{}, fmt.Errorf("fetch owned games: %w", err)
	}

	if raw.Response == nil || raw.Response.Games == nil {
		c.logger.Warn("Owned games response has no games list", "steam_id", creds.SteamID)
		return []provider.OwnedItem{}, nil
	}

	c.logger.Info("Owned games fetched", "count", len(raw.Response.Games))
	return raw.Response.Games, nil
}

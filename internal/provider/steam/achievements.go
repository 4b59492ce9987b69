package steam

import (
	"context"
	"fmt"
	"strconv"

	"github.com/albapepper/steam-ledger/internal/provider"
)

const playerAchievementsPath = "/ISteamUserStats/GetPlayerAchievements/v1/"

type playerAchievementsResponse struct {
	PlayerStats *struct {
		GameName     string `json:"gameName"`
		Success      bool   `json:"success"`
		Achievements []struct {
			APIName  string `json:"apiname"`
			Achieved int    `json:"achieved"`
		} `json:"achievements"`
	} `json:"playerstats"`
}

// AchievementProgress returns how many of an app's achievements the account
// has unlocked.
//
// Apps without achievements, accounts with no recorded progress and
// non-success statuses all yield (0, 0). Only the latter also returns an error.
func (c *Client) AchievementProgress(ctx context.Context, creds Credentials, appID int) (provider.AchievementProgress, error) {
	params := c.authParams(creds)
	params.Set("appid", strconv.Itoa(appID))

	var raw playerAchievementsResponse
	if err := c.get(ctx, playerAchievementsPath, params, &raw); err != nil {
		return provider.AchievementProgress{}, fmt.Errorf("fetch achievements for app %d: %w", appID, err)
	}

	if raw.PlayerStats == nil || raw.PlayerStats.Achievements == nil {
		return provider.AchievementProgress{}, nil
	}

	progress := provider.AchievementProgress{Total: len(raw.PlayerStats.Achievements)}
	for _, a := range raw.PlayerStats.Achievements {
		if a.Achieved == 1 {
			progress.Achieved++
		}
	}
	return progress, nil
}

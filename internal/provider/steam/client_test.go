package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/provider/transport"
)

var testCreds = Credentials{APIKey: "secret-key", SteamID: "76561198004707326"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, transport.DefaultPolicy(), nil)
}

func TestOwnedItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, ownedGamesPath, r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "secret-key", q.Get("key"))
		require.Equal(t, "76561198004707326", q.Get("steamid"))
		require.Equal(t, "true", q.Get("include_appinfo"))
		require.Equal(t, "true", q.Get("include_played_free_games"))

		fmt.Fprint(w, `{"response":{"game_count":2,"games":[
			{"appid":10,"name":"Counter-Strike","playtime_forever":120,"img_icon_url":"abc"},
			{"appid":620,"name":"Portal 2 – Ωmega","playtime_forever":0}
		]}}`)
	})

	items, err := client.OwnedItems(context.Background(), testCreds)
	require.NoError(t, err)
	require.Equal(t, []provider.OwnedItem{
		{AppID: 10, Name: "Counter-Strike", PlaytimeMinutes: 120},
		{AppID: 620, Name: "Portal 2 – Ωmega", PlaytimeMinutes: 0},
	}, items)
}

func TestOwnedItemsEmpty(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "private profile", body: `{"response":{}}`},
		{name: "no response object", body: `{}`},
		{name: "empty games", body: `{"response":{"game_count":0,"games":[]}}`},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, test.body)
			})
			items, err := client.OwnedItems(context.Background(), testCreds)
			require.NoError(t, err)
			require.NotNil(t, items)
			require.Empty(t, items)
		})
	}
}

func TestOwnedItemsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	})

	items, err := client.OwnedItems(context.Background(), testCreds)
	require.ErrorIs(t, err, provider.ErrSourceUnavailable)
	require.Empty(t, items)
	require.NotContains(t, err.Error(), "secret-key")
}

func TestOwnedItemsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(base, transport.DefaultPolicy(), nil)
	items, err := client.OwnedItems(context.Background(), testCreds)
	require.ErrorIs(t, err, provider.ErrSourceUnavailable)
	require.Empty(t, items)
	require.NotContains(t, err.Error(), testCreds.APIKey)
}

func TestOwnedItemsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not json</html>`)
	})

	items, err := client.OwnedItems(context.Background(), testCreds)
	require.ErrorIs(t, err, provider.ErrMalformedResponse)
	require.Empty(t, items)
}

func TestAchievementProgress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, playerAchievementsPath, r.URL.Path)
		require.Equal(t, "10", r.URL.Query().Get("appid"))
		require.Equal(t, "secret-key", r.URL.Query().Get("key"))

		fmt.Fprint(w, `{"playerstats":{"steamID":"1","gameName":"Foo","success":true,"achievements":[
			{"apiname":"A","achieved":1,"unlocktime":1},
			{"apiname":"B","achieved":0,"unlocktime":0},
			{"apiname":"C","achieved":1,"unlocktime":2},
			{"apiname":"D","achieved":0,"unlocktime":0}
		]}}`)
	})

	progress, err := client.AchievementProgress(context.Background(), testCreds, 10)
	require.NoError(t, err)
	require.Equal(t, provider.AchievementProgress{Achieved: 2, Total: 4}, progress)
	require.LessOrEqual(t, progress.Achieved, progress.Total)
}

func TestAchievementProgressEmpty(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		err    error
	}{
		{
			name:   "no achievements configured",
			status: http.StatusOK,
			body:   `{"playerstats":{"steamID":"1","gameName":"Foo","success":true}}`,
		},
		{
			name:   "no playerstats",
			status: http.StatusOK,
			body:   `{}`,
		},
		{
			name:   "app has no stats",
			status: http.StatusBadRequest,
			body:   `{"playerstats":{"error":"Requested app has no stats","success":false}}`,
			err:    provider.ErrSourceUnavailable,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			err:    provider.ErrSourceUnavailable,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				fmt.Fprint(w, test.body)
			})
			progress, err := client.AchievementProgress(context.Background(), testCreds, 42)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, provider.AchievementProgress{}, progress)
		})
	}
}

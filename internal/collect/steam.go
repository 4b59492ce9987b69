package collect

import (
	"log/slog"

	"github.com/albapepper/steam-ledger/internal/provider/steam"
	"github.com/albapepper/steam-ledger/internal/provider/storefront"
	"github.com/albapepper/steam-ledger/internal/provider/transport"
)

// Endpoints locates the Steam services. Empty fields use the public hosts.
type Endpoints struct {
	APIBaseURL   string
	StoreBaseURL string
}

// NewSteamPipeline wires the Web API client (ownership and achievements) and
// the storefront scraper (catalog metadata) into a pipeline. Both clients
// share one policy but pace independently.
func NewSteamPipeline(ep Endpoints, policy transport.Policy, opts Options, logger *slog.Logger) *Pipeline {
	api := steam.NewClient(ep.APIBaseURL, policy, logger)
	store := storefront.NewScraper(ep.StoreBaseURL, policy, logger)
	return NewPipeline(api, NewEnricher(store, api, logger), opts, logger)
}

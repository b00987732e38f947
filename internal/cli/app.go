package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/mxchai/bullbear/config"
	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/debate"
	"github.com/mxchai/bullbear/internal/decision"
	"github.com/mxchai/bullbear/internal/llm"
	"github.com/mxchai/bullbear/internal/storage"
)

// App wires the whole pipeline together once at startup: one chat model,
// one retrying client, the cached providers, both analysts, and the
// manager. Nothing here is a global; everything is passed down explicitly.
type App struct {
	Config   *config.Config
	Client   *llm.Client
	Manager  *debate.Manager
	Overview *debate.Overviewer
	longport *dataflows.LongportClient
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	chatModel, err := llm.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	client := llm.NewClient(chatModel, cfg)

	cache := dataflows.NewSnapshotCache(cfg.DataCacheDir, cfg.CacheEnabled)

	var longport *dataflows.LongportClient
	if cfg.LongportAppKey != "" {
		longport, err = dataflows.NewLongportClient(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken)
		if err != nil {
			log.Printf("[app] longport client unavailable: %v", err)
		}
	}

	providers := []dataflows.Provider{
		dataflows.Cached(dataflows.NewPriceMarketProvider(), cache),
		dataflows.Cached(dataflows.NewMacroProvider(), cache),
		dataflows.Cached(dataflows.NewFinancialsProvider(), cache),
		dataflows.Cached(dataflows.NewSinaNewsProvider(cfg.NewsStartPage, cfg.NewsEndPage), cache),
		dataflows.Cached(dataflows.NewStockAnalysisProvider(longport), cache),
	}

	recorder := debate.NewRecorder(
		debate.NewAnalyst(debate.Bull, client),
		debate.NewAnalyst(debate.Bear, client),
		providers,
	)
	manager := debate.NewManager(recorder, decision.NewSynthesizer(client), storage.NewResultStore(cfg.ResultsDir))

	return &App{
		Config:   cfg,
		Client:   client,
		Manager:  manager,
		Overview: debate.NewOverviewer(client, providers),
		longport: longport,
	}, nil
}

// Close releases the external connections the app holds open.
func (a *App) Close() {
	if a.longport != nil {
		a.longport.Close()
	}
}

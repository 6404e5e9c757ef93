package scraper

import (
	"go.uber.org/zap"
)

// Credentials holds the API keys of the adapters that need them. An adapter
// whose credentials are missing is left out of the registry.
type Credentials struct {
	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string
	JSearchKey    string
	SerpAPIKey    string
	TheMuseKey    string
}

// Registry returns the adapters in their fixed priority order: Adzuna,
// JSearch, SerpApi, Remotive, RemoteOK, The Muse.
func Registry(creds Credentials, opts ClientOptions, log *zap.Logger) []Source {
	if log == nil {
		log = zap.NewNop()
	}

	var sources []Source
	if creds.AdzunaAppID != "" && creds.AdzunaAppKey != "" {
		sources = append(sources, NewAdzuna(creds.AdzunaAppID, creds.AdzunaAppKey, creds.AdzunaCountry, opts))
	} else {
		log.Info("adapter disabled: credentials not configured", zap.String("source", "Adzuna"))
	}
	if creds.JSearchKey != "" {
		sources = append(sources, NewJSearch(creds.JSearchKey, opts))
	} else {
		log.Info("adapter disabled: credentials not configured", zap.String("source", "JSearch"))
	}
	if creds.SerpAPIKey != "" {
		sources = append(sources, NewSerpAPI(creds.SerpAPIKey, opts))
	} else {
		log.Info("adapter disabled: credentials not configured", zap.String("source", "Google Jobs"))
	}

	sources = append(sources,
		NewRemotive(opts),
		NewRemoteOK(opts),
		NewTheMuse(creds.TheMuseKey, opts),
	)
	return sources
}

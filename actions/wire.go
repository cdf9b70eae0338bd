package actions

import (
	"go.uber.org/zap"

	"musicbridge/config"
	"musicbridge/itunes"
	"musicbridge/resolver"
)

// FromConfig builds the osascript bridge, the resolver and the Service from a
// loaded configuration.
func FromConfig(cfg config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	bridge := itunes.NewOSABridge(itunes.Options{
		App:     cfg.Player.App,
		Timeout: cfg.Player.Timeout(),
		Logger:  logger,
	})
	return NewService(bridge, resolver.New(bridge, logger), bridge.App(), BrowserSettings{
		Name:        cfg.Browser.Name,
		SiteName:    cfg.Browser.SiteName,
		SearchURL:   cfg.Browser.SearchURL,
		SearchParam: cfg.Browser.SearchParam,
	}, logger).WithDeadline(cfg.Server.RequestTimeout())
}

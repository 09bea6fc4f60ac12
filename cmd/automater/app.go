package main

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"osint-automater/internal/catalog"
	"osint-automater/internal/collector"
	"osint-automater/internal/config"
	"osint-automater/internal/logger"
	"osint-automater/internal/models"
)

// app State shared by the commands of one invocation
type app struct {
	v       *viper.Viper
	cfgFile string
	apiKeys []string // site=key pairs from the command line
	cfg     *config.Config
	log     *logrus.Logger
	out     io.Writer
}

func newApp() *app {
	return &app{v: viper.New(), out: os.Stdout}
}

// setup Loads configuration and builds the logger once flags are parsed
func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) sink() models.EventSink {
	return logger.NewEventSink(a.log)
}

// loadCatalog Loads the configured catalog, reporting skipped definitions as config events
func (a *app) loadCatalog(sink models.EventSink) (*catalog.Catalog, error) {
	cat, err := catalog.Load(a.cfg.Catalog)
	if cat != nil {
		for _, rejected := range cat.Rejected {
			sink.Emit(models.Event{Kind: models.EventConfigError, Message: "site definition skipped", Err: rejected})
		}
		for _, warning := range cat.Warnings {
			sink.Emit(models.Event{Kind: models.EventConfigError, Message: warning})
		}
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// sources Configured source filter, nil meaning every site
func (a *app) sources() []string {
	return catalog.ParseSources(strings.Join(a.cfg.Sources, ";"))
}

// mergedKeys Configured API keys with command line pairs applied on top
func (a *app) mergedKeys() (map[string]string, error) {
	return config.MergeAPIKeys(a.cfg.APIKeys, a.apiKeys)
}

func (a *app) newEngine(sink models.EventSink, apiKeys map[string]string) (*collector.Engine, error) {
	return collector.New(collector.Options{
		Sources:       a.sources(),
		Delay:         a.cfg.DelayDuration(),
		Proxy:         a.cfg.Proxy,
		UserAgent:     a.cfg.UserAgent,
		PostByDefault: a.cfg.Post,
		Workers:       a.cfg.Workers,
		Timeout:       a.cfg.TimeoutDuration(),
		APIKeys:       apiKeys,
		Sink:          sink,
	})
}

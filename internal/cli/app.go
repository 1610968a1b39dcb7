package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/mediator/internal/cache"
	"github.com/ppiankov/mediator/internal/challenge"
	"github.com/ppiankov/mediator/internal/dispute"
	"github.com/ppiankov/mediator/internal/logging"
	"github.com/ppiankov/mediator/internal/model"
	"github.com/ppiankov/mediator/internal/pipeline"
	"github.com/ppiankov/mediator/internal/recall"
	"github.com/ppiankov/mediator/internal/store"
	"github.com/ppiankov/mediator/internal/validate"
	"github.com/ppiankov/mediator/internal/worker"
)

// app holds the components shared by every command
type app struct {
	cfg      *model.Config
	rules    *model.Rules
	logger   *logging.Logger
	index    *recall.Index
	mediator *pipeline.Mediator
	limiter  *worker.Limiter
	stores   *store.Stores
}

// newApp wires configuration, logging, the recall index and the pipeline
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rules, err := model.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	var c cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	index := recall.NewIndex(cfg.Canon.Dir, rules,
		recall.WithCache(c, cfg.Cache.DiskTTL),
		recall.WithLogger(logger))

	validator, err := validate.New(cfg.Validator, rules)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Recall.Enabled {
		opts = append(opts, pipeline.WithRecall(index, cfg.Recall.TopN))
	}
	if cfg.Canon.WriteDocuments {
		opts = append(opts, pipeline.WithCanonDocuments(pipeline.NewRenderer(cfg.Canon.Dir)))
	}

	limiter := worker.NewLimiter(cfg.Limits.PerAgentPerSecond, cfg.Limits.Burst)
	for agent, l := range cfg.Limits.Agents {
		limiter.SetAgentRate(agent, l.PerSecond, l.Burst)
	}

	return &app{
		cfg:      cfg,
		rules:    rules,
		logger:   logger,
		index:    index,
		mediator: pipeline.NewMediator(validator, opts...),
		limiter:  limiter,
	}, nil
}

// openStores connects the dispute and challenge stores
func (a *app) openStores(ctx context.Context) error {
	stores, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.stores = stores
	return nil
}

func (a *app) disputes() *dispute.Service {
	return dispute.NewService(a.stores.Disputes, a.mediator,
		dispute.WithTTL(a.cfg.Dispute.TTL),
		dispute.WithLimiter(a.limiter),
		dispute.WithLogger(a.logger))
}

func (a *app) challenges() *challenge.Service {
	return challenge.NewService(a.stores.Challenges, a.mediator,
		challenge.WithGate(validate.NewGroundsValidator(a.rules)),
		challenge.WithLimiter(a.limiter),
		challenge.WithLogger(a.logger))
}

// Close releases stores and the log file
func (a *app) Close() {
	if a.stores != nil {
		a.stores.Close()
	}
	_ = a.logger.Close()
}

// printJSON writes v to stdout as indented JSON
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// readJSON decodes a JSON file into v
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", model.ErrInvalidInput, path, err)
	}
	return nil
}

package container

import (
	"context"
	"fmt"

	"moralsim/adapters/excel"
	"moralsim/adapters/llm"
	"moralsim/adapters/redisstore"
	"moralsim/adapters/sqlstore"
	"moralsim/internal"
	"moralsim/internal/api"
	"moralsim/internal/config"
	"moralsim/internal/dataset"
	"moralsim/internal/errors"
	"moralsim/internal/generator"
	"moralsim/internal/selector"
	"moralsim/internal/session"
	"moralsim/internal/similarity"
	"moralsim/internal/usage"
	"moralsim/ports"

	"github.com/gin-gonic/gin"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Data
	Dataset *dataset.Holder
	Results ports.ResultRepository

	// Engine
	Provider ports.ScenarioProvider
	Usage    *usage.Tracker
	Engine   *session.Engine
	Sessions *session.Manager

	// Transport
	SSEHub  *api.SSEHub
	Handler *api.Handler
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	level := internal.ParseLogLevel(cfg.Log.Level)
	internal.SetDefaultLevel(level)

	return &Container{
		Config: cfg,
		Logger: internal.NewLogger(level),
	}, nil
}

// Init builds every component. Only the provider and store can fail; a
// missing dataset is reported lazily and never blocks startup.
func (c *Container) Init(ctx context.Context) error {
	c.initDataset()

	if err := c.initProvider(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize scenario provider")
	}

	if err := c.initResults(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize result store")
	}

	c.initEngine()
	return nil
}

func (c *Container) initDataset() {
	var source ports.DatasetSource
	if c.Config.Data.DatasetFile != "" {
		source = excel.NewDataReader(c.Config.Data.DatasetFile).WithLogger(c.Logger)
	}
	c.Dataset = dataset.NewHolder(source, c.Logger)
}

func (c *Container) initProvider(ctx context.Context) error {
	pc := c.Config.Provider
	cfg := llm.Config{
		Model:       pc.Model,
		APIKey:      pc.APIKey,
		BaseURL:     pc.BaseURL,
		Temperature: pc.Temperature,
		MaxTokens:   pc.MaxTokens,
		Timeout:     pc.Timeout,
		PromptsDir:  pc.PromptsDir,
	}

	var err error
	switch pc.Kind {
	case config.ProviderOpenAI:
		c.Provider, err = llm.NewOpenAIProvider(cfg, c.Logger)
	case config.ProviderGemini:
		c.Provider, err = llm.NewGeminiProvider(ctx, cfg, c.Logger)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	c.Usage = usage.NewTracker(c.Logger)
	c.Provider = c.Usage.Wrap(c.Provider)
	c.Logger.Info("[Container] scenario provider %s enabled (fallback=%v)", pc.Kind, pc.Fallback)
	return nil
}

func (c *Container) initResults(ctx context.Context) error {
	sc := c.Config.Store
	switch sc.Kind {
	case config.StorePostgres:
		db, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, sc.DatabaseURL)
		if err != nil {
			return err
		}
		c.Results = sqlstore.NewReportRepository(db)
	case config.StoreSQLite:
		db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, sc.SQLitePath)
		if err != nil {
			return err
		}
		c.Results = sqlstore.NewReportRepository(db)
	case config.StoreRedis:
		store, err := redisstore.Dial(ctx, sc.RedisAddr, redisstore.Config{TTL: sc.RedisTTL})
		if err != nil {
			return err
		}
		c.Results = store
	default:
		return nil
	}
	c.Logger.Info("[Container] result store %s enabled", sc.Kind)
	return nil
}

func (c *Container) initEngine() {
	ec := c.Config.Engine

	rng := generator.NewUnseededRand()
	if ec.Seed != 0 {
		rng = generator.NewRand(ec.Seed)
	}
	genOpts := []generator.Option{
		generator.WithLogger(c.Logger),
		generator.WithRowSampler(c.Dataset, ec.PromptSampleRows),
	}
	if c.Provider != nil {
		genOpts = append(genOpts, generator.WithProvider(c.Provider, c.Config.Provider.Fallback))
	}

	c.SSEHub = api.NewSSEHub(c.Logger)
	c.Engine = &session.Engine{
		Selector:  selector.New(ec.TotalScenarios, selector.WithRotationOffset(ec.RotationOffset)),
		Generator: generator.New(rng, genOpts...),
		Similarity: similarity.New(
			similarity.WithSampleLimit(ec.SimilaritySampleLimit),
			similarity.WithLogger(c.Logger),
		),
		Dataset:   c.Dataset,
		Results:   c.Results,
		Publisher: c.SSEHub,
		Logger:    c.Logger,
		TopK:      ec.SimilarityTopK,
	}
	c.Sessions = session.NewManager(c.Engine, c.Config.Server.SessionTTL)
	c.Handler = api.NewHandler(c.Sessions, c.Dataset, c.Results, c.SSEHub, c.Logger)
}

// Router builds the public API router
func (c *Container) Router() *gin.Engine {
	mode := c.Config.Server.GinMode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	return api.NewRouter(c.Handler, mode)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	var err error
	if c.Results != nil {
		err = c.Results.Close()
	}
	_ = c.Logger.Sync()
	return err
}

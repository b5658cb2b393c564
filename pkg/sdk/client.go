package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/db"
	dbRedis "github.com/draftforge/draftforge/internal/db/redis"
	"github.com/draftforge/draftforge/internal/domain"
	companyrepo "github.com/draftforge/draftforge/internal/repository/company"
	indexrepo "github.com/draftforge/draftforge/internal/repository/index"
	templaterepo "github.com/draftforge/draftforge/internal/repository/templates"
	openaiLLM "github.com/draftforge/draftforge/internal/transport/openai"
	assembleuc "github.com/draftforge/draftforge/internal/usecase/assemble"
	pipelineuc "github.com/draftforge/draftforge/internal/usecase/pipeline"
	querybuilduc "github.com/draftforge/draftforge/internal/usecase/querybuild"
	rerankuc "github.com/draftforge/draftforge/internal/usecase/rerank"
	retrievaluc "github.com/draftforge/draftforge/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the embedded draftforge entry point.
type Client struct {
	store      db.Store
	pipeline   *pipelineuc.Service
	documents  *indexrepo.Repo
	templates  *templaterepo.Store
	companies  *companyrepo.Provider
	collection string
}

// New creates a Client and connects to the database. The provided context
// bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		chatModel:  "gpt-4o",
		embedModel: "text-embedding-3-small",
		dimensions: 1536,
		collection: "community",
		keyPrefix:  "draftforge:",
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("sdk: database address required (use WithRedis)")
	}
	if cfg.apiKey == "" {
		return nil, errors.New("sdk: provider API key required (use WithOpenAI)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("sdk: create store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("sdk: database not ready: %w", err)
	}

	completer := openaiLLM.NewCompleter(&openaiLLM.CompleterConfig{
		APIKey:  cfg.apiKey,
		BaseURL: cfg.baseURL,
		Model:   cfg.chatModel,
		Logger:  cfg.logger,
	})
	embedder := openaiLLM.NewEmbedder(&openaiLLM.EmbedderConfig{
		APIKey:     cfg.apiKey,
		BaseURL:    cfg.baseURL,
		Model:      cfg.embedModel,
		Dimensions: cfg.dimensions,
		Logger:     cfg.logger,
	})

	docIndex := indexrepo.New(store, embedder, cfg.keyPrefix, cfg.dimensions)
	if err := docIndex.EnsureIndexes(ctx, cfg.collection); err != nil {
		store.Close()
		return nil, fmt.Errorf("sdk: ensure indexes: %w", err)
	}
	tplStore := templaterepo.New(store, cfg.keyPrefix)
	companies := companyrepo.New(store, cfg.keyPrefix)

	pipeline := pipelineuc.New(
		pipelineuc.NewGuard(),
		querybuilduc.New(tplStore, completer, cfg.logger),
		retrievaluc.New(docIndex, cfg.limits, cfg.logger),
		rerankuc.New(tplStore, completer, cfg.logger),
		assembleuc.New(tplStore, cfg.logger),
		completer, companies,
		cfg.collection,
		cfg.logger,
	)

	return &Client{
		store:      store,
		pipeline:   pipeline,
		documents:  docIndex,
		templates:  tplStore,
		companies:  companies,
		collection: cfg.collection,
	}, nil
}

// Close releases the database connection.
func (c *Client) Close() {
	c.store.Close()
}

// CreateDraft runs the full pipeline for one request.
func (c *Client) CreateDraft(ctx context.Context, req domain.DraftRequest) (domain.DraftResult, error) {
	return c.pipeline.Run(ctx, req)
}

// IngestDocument embeds and stores one source document.
func (c *Client) IngestDocument(ctx context.Context, doc *domain.SourceDocument) error {
	return c.documents.Upsert(ctx, c.collection, doc)
}

// GetTemplate fetches a prompt template, falling back to the builtin set.
func (c *Client) GetTemplate(ctx context.Context, name string) (domain.Template, error) {
	return c.templates.GetLatest(ctx, name)
}

// PutTemplate stores a prompt template.
func (c *Client) PutTemplate(ctx context.Context, tpl domain.Template) error {
	return c.templates.Put(ctx, tpl)
}

// PutCompanyContext stores the positioning material for a company.
func (c *Client) PutCompanyContext(ctx context.Context, cc domain.CompanyContext) error {
	return c.companies.Put(ctx, cc)
}

// GetCompanyContext reads a stored company context.
func (c *Client) GetCompanyContext(ctx context.Context, name string) (domain.CompanyContext, error) {
	return c.companies.Get(ctx, name)
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

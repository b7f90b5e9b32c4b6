package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"gorm.io/gorm"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/blob"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/cache"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/db"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/httpclient"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/logger"
	mq "github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/queue"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/handler"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/classify"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/detect"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/interpret"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/llm"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/rag"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/telemetry"
)

const (
	visionLLM = "llm.vision"
	chatLLM   = "llm.chat"

	labelFontSize = 14
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level, cfg.Log.Format)
	})

	// telemetry, shut down with the container
	do.Provide(inj, func(i *do.Injector) (*telemetry.Providers, error) {
		return telemetry.NewProviders(context.Background(), do.MustInvoke[*config.Config](i))
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		tp := do.MustInvoke[*telemetry.Providers](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		if tp.Tracer != nil {
			if err := db.RegisterOpenTelemetryPlugin(d, tp.Tracer); err != nil {
				log.Warn("register gorm otel plugin", zap.Error(err))
			}
		}
		if cfg.Database.AutoMigrate {
			if err := Migrate(context.Background(), d, cfg, log); err != nil {
				return nil, err
			}
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rdb, err := cache.New(cfg)
		if err != nil {
			return nil, err
		}
		if tp := do.MustInvoke[*telemetry.Providers](i); tp.Tracer != nil {
			if err := cache.RegisterOpenTelemetryPlugin(rdb, tp.Tracer); err != nil {
				do.MustInvoke[*zap.Logger](i).Warn("register redis otel plugin", zap.Error(err))
			}
		}
		return rdb, nil
	})

	// RabbitMQ DialFunc for connection and reconnection
	do.Provide(inj, func(i *do.Injector) (mq.DialFunc, error) {
		return mq.NewDialFunc(do.MustInvoke[*config.Config](i)), nil
	})

	// RabbitMQ Connection, with the analysis topology declared up front
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		cfg := do.MustInvoke[*config.Config](i)
		conn, err := do.MustInvoke[mq.DialFunc](i)()
		if err != nil {
			return nil, err
		}
		if err := mq.DeclareTopology(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	})

	// RabbitMQ Publisher
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		return mq.NewPublisher(
			do.MustInvoke[*amqp.Connection](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*config.Config](i),
		)
	})

	// S3
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return blob.NewS3(context.Background(), cfg)
	})

	// Artifact store: local directory served under storage.url_prefix, or S3
	// with presigned URLs.
	do.Provide(inj, func(i *do.Injector) (artifact.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Storage.Backend == "s3" {
			expire := 15 * time.Minute
			if cfg.S3.PresignExpireSec > 0 {
				expire = time.Duration(cfg.S3.PresignExpireSec) * time.Second
			}
			return artifact.NewS3Store(do.MustInvoke[*blob.S3Deps](i), expire), nil
		}
		fsStore, err := artifact.NewFSStore(cfg.Storage.Root, cfg.App.PublicBaseURL+cfg.Storage.URLPrefix)
		if err != nil {
			return nil, err
		}
		return fsStore, nil
	})

	// Progress markers
	do.Provide(inj, func(i *do.Injector) (progress.Tracker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return progress.NewRedisTracker(do.MustInvoke[*redis.Client](i), cfg.Analysis.MarkerTTL), nil
	})

	// LLM clients
	do.ProvideNamed(inj, visionLLM, func(i *do.Injector) (llm.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return llm.New(cfg, cfg.LLM.VisionModel)
	})
	do.ProvideNamed(inj, chatLLM, func(i *do.Injector) (llm.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return llm.New(cfg, cfg.LLM.ChatModel)
	})

	// Embeddings, cached in Redis per model
	do.Provide(inj, func(i *do.Injector) (rag.Embedder, error) {
		cfg := do.MustInvoke[*config.Config](i)
		e := cfg.Embedding
		base := rag.NewOpenAIEmbedder(e.BaseURL, e.APIKey, e.Model, e.Dim, e.BatchSize, cfg.LLM.Timeout)
		if e.CacheTTL <= 0 {
			return base, nil
		}
		return rag.NewCachedEmbedder(base, do.MustInvoke[*redis.Client](i), e.Model, e.CacheTTL), nil
	})

	// Hybrid retrieval
	do.Provide(inj, func(i *do.Injector) (rag.Searcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		var reranker rag.Reranker
		if cfg.Reranker.Enabled {
			reranker = rag.HTTPReranker{
				Client: httpclient.NewRerankerClient(cfg.Reranker.URL, cfg.Reranker.Token, cfg.Reranker.Timeout, log),
			}
		}
		return rag.NewSearcher(
			repo.NewRAGDocumentRepo(do.MustInvoke[*gorm.DB](i)),
			do.MustInvoke[rag.Embedder](i),
			reranker,
			rag.Options{EfSearch: cfg.RAG.EfSearch, CandidatePool: cfg.RAG.CandidatePool, RRFK: cfg.RAG.RRFK},
			log,
		), nil
	})

	// Pipeline stages
	do.Provide(inj, func(i *do.Injector) (*detect.Stage, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		var face font.Face = detect.DefaultFace()
		if cfg.Detector.FontPath != "" {
			f, err := detect.LoadFace(cfg.Detector.FontPath, labelFontSize)
			if err != nil {
				log.Warn("load label font, using built-in face", zap.String("path", cfg.Detector.FontPath), zap.Error(err))
			} else {
				face = f
			}
		}
		client := httpclient.NewDetectorClient(cfg.Detector.URL, cfg.Detector.Token, cfg.Detector.Timeout, log)
		return detect.NewStage(
			detect.HTTPDetector{Client: client},
			do.MustInvoke[artifact.Store](i),
			do.MustInvoke[progress.Tracker](i),
			face,
			cfg.Detector.MinConfidence,
			log,
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*interpret.Stage, error) {
		cfg := do.MustInvoke[*config.Config](i)
		var searcher rag.Searcher
		if cfg.RAG.Enabled {
			searcher = do.MustInvoke[rag.Searcher](i)
		}
		return interpret.NewStage(
			do.MustInvokeNamed[llm.Client](i, visionLLM),
			searcher,
			do.MustInvoke[artifact.Store](i),
			do.MustInvoke[progress.Tracker](i),
			interpret.Options{
				Temperature: cfg.LLM.AnalysisTemp,
				MaxTokens:   cfg.Chat.MaxTokens,
				UseReranker: cfg.Reranker.Enabled,
			},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*classify.Stage, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		ambient, err := classify.LoadAmbient(cfg.Classifier.AmbientKeywordFiles)
		if err != nil {
			return nil, fmt.Errorf("load ambient keywords: %w", err)
		}
		client := httpclient.NewClassifierClient(cfg.Classifier.BaseURL, cfg.Classifier.Token, cfg.Classifier.ModelName, cfg.Classifier.Timeout, log)
		if cfg.Classifier.Required {
			if err := client.Ping(context.Background()); err != nil {
				return nil, fmt.Errorf("classifier unavailable: %w", err)
			}
		}
		return classify.NewStage(
			classify.HFClassifier{Client: client},
			do.MustInvoke[progress.Tracker](i),
			ambient,
			cfg.Classifier.AmbientLimit,
			log,
		), nil
	})

	// Background runner. Every job opens its own DB session.
	do.Provide(inj, func(i *do.Injector) (*service.PipelineRunner, error) {
		d := do.MustInvoke[*gorm.DB](i)
		return &service.PipelineRunner{
			NewRepo: func() repo.DrawingRepo {
				return repo.NewDrawingRepo(d.Session(&gorm.Session{NewDB: true}))
			},
			Detect:    do.MustInvoke[*detect.Stage](i),
			Interpret: do.MustInvoke[*interpret.Stage](i),
			Classify:  do.MustInvoke[*classify.Stage](i),
			Log:       do.MustInvoke[*zap.Logger](i),
		}, nil
	})

	// Dispatcher: in-process pool, or RabbitMQ for separate workers
	do.Provide(inj, func(i *do.Injector) (service.Dispatcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Analysis.Dispatch == "rabbitmq" {
			return &service.MQDispatcher{
				Publisher:  do.MustInvoke[*mq.Publisher](i),
				Exchange:   cfg.RabbitMQ.Exchange,
				RoutingKey: cfg.RabbitMQ.RoutingKey,
			}, nil
		}
		runner := do.MustInvoke[*service.PipelineRunner](i)
		return service.NewInlineDispatcher(context.Background(), cfg.Analysis.Workers, 0, runner.Run, do.MustInvoke[*zap.Logger](i)), nil
	})

	// Prompt catalog and chat engine
	do.Provide(inj, func(i *do.Injector) (*chatchain.Catalog, error) {
		return chatchain.LoadCatalog(do.MustInvoke[*config.Config](i).Chat.PromptDir)
	})
	do.Provide(inj, func(i *do.Injector) (*chatchain.Engine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return chatchain.NewEngine(
			do.MustInvokeNamed[llm.Client](i, chatLLM),
			do.MustInvoke[*chatchain.Catalog](i),
			chatchain.Options{
				Temperature:      cfg.Chat.Temperature,
				MaxTokens:        cfg.Chat.MaxTokens,
				SummaryMaxChars:  cfg.Chat.SummaryMaxChars,
				GreetingMaxChars: cfg.Chat.GreetingMaxChars,
			},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.UserRepo, error) {
		return repo.NewUserRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.PersonaRepo, error) {
		return repo.NewPersonaRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.DrawingRepo, error) {
		return repo.NewDrawingRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ChatRepo, error) {
		return repo.NewChatRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.RAGDocumentRepo, error) {
		return repo.NewRAGDocumentRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.UserService, error) {
		return service.NewUserService(do.MustInvoke[repo.UserRepo](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.PersonaService, error) {
		return service.NewPersonaService(do.MustInvoke[repo.PersonaRepo](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.AnalysisService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		loc, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.App.Timezone, err)
		}
		return service.NewAnalysisService(
			do.MustInvoke[repo.DrawingRepo](i),
			do.MustInvoke[artifact.Store](i),
			do.MustInvoke[progress.Tracker](i),
			do.MustInvoke[service.Dispatcher](i),
			service.AnalysisOptions{
				MaxUploadBytes: int64(cfg.Analysis.MaxUploadMB) << 20,
				EstimatedTime:  cfg.Analysis.EstimatedTime,
				Location:       loc,
			},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.DrawingService, error) {
		return service.NewDrawingService(
			do.MustInvoke[repo.DrawingRepo](i),
			do.MustInvoke[artifact.Store](i),
			do.MustInvoke[progress.Tracker](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ChatService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewChatService(
			do.MustInvoke[repo.ChatRepo](i),
			do.MustInvoke[repo.PersonaRepo](i),
			do.MustInvoke[repo.DrawingRepo](i),
			do.MustInvoke[artifact.Store](i),
			do.MustInvoke[*chatchain.Engine](i),
			service.ChatOptions{WindowSize: cfg.Chat.WindowSize, SummarizeThreshold: cfg.Chat.SummarizeThreshold},
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.AnalysisHandler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return handler.NewAnalysisHandler(do.MustInvoke[service.AnalysisService](i), int64(cfg.Analysis.MaxUploadMB)<<20), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.DrawingHandler, error) {
		return handler.NewDrawingHandler(do.MustInvoke[service.DrawingService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ChatHandler, error) {
		return handler.NewChatHandler(do.MustInvoke[service.ChatService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.PersonaHandler, error) {
		return handler.NewPersonaHandler(do.MustInvoke[service.PersonaService](i)), nil
	})
	return inj
}

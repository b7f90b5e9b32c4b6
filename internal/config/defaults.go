package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultEmbeddingDim       = 1024
	DefaultWindowSize         = 8
	DefaultSummarizeThreshold = 10
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "htp-counsel")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8000)
	v.SetDefault("app.public_base_url", "")
	v.SetDefault("app.timezone", "Asia/Seoul")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.dsn", "host=localhost user=htp password=htp dbname=htp port=5432 sslmode=disable")
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rabbitmq.exchange", "htp.analysis")
	v.SetDefault("rabbitmq.routing_key", "analysis.start")
	v.SetDefault("rabbitmq.queue", "htp.analysis.jobs")
	v.SetDefault("rabbitmq.prefetch", 2)
	v.SetDefault("rabbitmq.consumer_size", 2)

	v.SetDefault("s3.region", "ap-northeast-2")
	v.SetDefault("s3.presign_expire_sec", 900)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.root", "./data")
	v.SetDefault("storage.url_prefix", "/static")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.vision_model", "gpt-4o")
	v.SetDefault("llm.chat_model", "gpt-4o")
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.analysis_temperature", 0.3)

	v.SetDefault("embedding.base_url", "http://localhost:8081/v1")
	v.SetDefault("embedding.model", "nlpai-lab/KURE-v1")
	v.SetDefault("embedding.dim", DefaultEmbeddingDim)
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.cache_ttl", 24*time.Hour)

	v.SetDefault("reranker.enabled", true)
	v.SetDefault("reranker.url", "http://localhost:8082")
	v.SetDefault("reranker.timeout", 30*time.Second)

	v.SetDefault("detector.url", "http://localhost:8083")
	v.SetDefault("detector.timeout", time.Minute)
	v.SetDefault("detector.min_confidence", 0.25)

	v.SetDefault("classifier.base_url", "https://api-inference.huggingface.co/models")
	v.SetDefault("classifier.model_name", "htp-personality-classifier")
	v.SetDefault("classifier.timeout", time.Minute)
	v.SetDefault("classifier.ambient_limit", 15)

	v.SetDefault("rag.enabled", true)
	v.SetDefault("rag.table", "rag_documents")
	v.SetDefault("rag.hnsw_m", 24)
	v.SetDefault("rag.ef_construction", 128)
	v.SetDefault("rag.ef_search", 100)
	v.SetDefault("rag.candidate_pool", 20)
	v.SetDefault("rag.rrf_k", 60)

	v.SetDefault("analysis.dispatch", "inline")
	v.SetDefault("analysis.workers", 2)
	v.SetDefault("analysis.estimated_time", "약 1-2분")
	v.SetDefault("analysis.marker_ttl", 24*time.Hour)
	v.SetDefault("analysis.max_upload_mb", 20)

	v.SetDefault("chat.window_size", DefaultWindowSize)
	v.SetDefault("chat.summarize_threshold", DefaultSummarizeThreshold)
	v.SetDefault("chat.summary_max_chars", 200)
	v.SetDefault("chat.greeting_max_chars", 150)
	v.SetDefault("chat.temperature", 0.9)
	v.SetDefault("chat.max_tokens", 1000)

	v.SetDefault("auth.token_prefix", "htp_")
	v.SetDefault("auth.secret_pepper", "change-me")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

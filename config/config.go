package config

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"laurel-api"`
	Port                          int      `env:"PORT" env-default:"3002"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// Dataset output
	OutDir string `env:"OUT_DIR" env-default:"data/deaths" validate:"required"`

	// Triplet index (SQLite)
	TripletDBPath      string `env:"TRIPLET_DB_PATH" env-default:"data/triplets.db"`
	TripletFeedEnabled bool   `env:"TRIPLET_FEED_ENABLED" env-default:"true"`
	TripletWindowDays  int    `env:"TRIPLET_WINDOW_DAYS" env-default:"7" validate:"gt=0"`

	// Death report feed (JSONL)
	ReportFeedPath    string `env:"REPORT_FEED_PATH" env-default:"data/ice_death_reports.jsonl"`
	ReportFeedEnabled bool   `env:"REPORT_FEED_ENABLED" env-default:"true"`

	// Press release feed (JSONL)
	NewsroomFeedPath    string `env:"NEWSROOM_FEED_PATH" env-default:"data/ice_newsroom.jsonl"`
	NewsroomFeedEnabled bool   `env:"NEWSROOM_FEED_ENABLED" env-default:"true"`

	// Earliest death year the official feeds accept
	FeedMinYear int `env:"FEED_MIN_YEAR" env-default:"2025" validate:"gt=1900"`

	// Kafka Consumer (candidate intake)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaCandidateTopic  string   `env:"KAFKA_CANDIDATE_TOPIC" env-default:"death-candidates"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"laurel-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"false"`

	// Kafka Producer settings (diff events)
	KafkaDiffTopic       string `env:"KAFKA_DIFF_TOPIC" env-default:"death-record-diffs"`
	KafkaProducerEnabled bool   `env:"KAFKA_PRODUCER_ENABLED" env-default:"false"`
	KafkaBatchSize       int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout    int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks    int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression     string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Matching
	NameVariantWindowDays int `env:"NAME_VARIANT_WINDOW_DAYS" env-default:"7" validate:"gt=0"`
}

package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SAMPLEFORGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SAMPLEFORGE_APP_ENV"
	EnvPort     = "SAMPLEFORGE_APP_PORT"
	EnvLogLevel = "SAMPLEFORGE_LOG_LEVEL"

	EnvDBDSN    = "SAMPLEFORGE_DB_DSN"
	EnvDBHost   = "SAMPLEFORGE_DB_HOST"
	EnvDBUser   = "SAMPLEFORGE_DB_USER"
	EnvDBName   = "SAMPLEFORGE_DB_NAME"
	EnvRedisURL = "SAMPLEFORGE_REDIS_URL"

	EnvJWTSecret  = "SAMPLEFORGE_JWT_SECRET"
	EnvJWTIssuer  = "SAMPLEFORGE_JWT_ISSUER"
	EnvJWTExpMins = "SAMPLEFORGE_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID      = "SAMPLEFORGE_GCP_PROJECT_ID"
	EnvGCSBucket         = "SAMPLEFORGE_GCS_BUCKET_NAME"
	EnvGCSDownloadExpiry = "SAMPLEFORGE_GCS_DOWNLOAD_URL_EXPIRY"

	EnvPubSubOrdersTopic       = "SAMPLEFORGE_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub         = "SAMPLEFORGE_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "SAMPLEFORGE_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "SAMPLEFORGE_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvStripeAPIKey        = "SAMPLEFORGE_STRIPE_API_KEY"
	EnvStripeSigningSecret = "SAMPLEFORGE_STRIPE_SIGNING_SECRET"

	EnvFrontendBaseURL = "SAMPLEFORGE_FRONTEND_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

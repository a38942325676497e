package config

import (
	"encoding/base64"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const MsgFailedToReadConfiguration = "failed to read configuration"

var ErrFailedToReadConfiguration = errors.New(MsgFailedToReadConfiguration)

type PostgresDB struct {
	Host     string `envconfig:"POSTGRES_DB_HOST" default:"localhost"`
	Port     uint32 `envconfig:"POSTGRES_DB_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_DB_USER" default:"postgres"`
	Pass     string `envconfig:"POSTGRES_DB_PASS" default:"postgres"`
	Database string `envconfig:"POSTGRES_DB_DATABASE" default:"labops"`
	SSLMode  string `envconfig:"POSTGRES_DB_SSL_MODE" default:"disable"`

	MaxOpenConns       int `envconfig:"POSTGRES_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns       int `envconfig:"POSTGRES_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetimeMin int `envconfig:"POSTGRES_DB_CONN_MAX_LIFETIME_MINUTES" default:"30"`
}

type Loqusdb struct {
	Binary   string `envconfig:"LOQUSDB_BINARY" default:"loqusdb"`
	Database string `envconfig:"LOQUSDB_DATABASE" default:"loqusdb"`
	Host     string `envconfig:"LOQUSDB_HOST" default:"localhost"`
	Port     int    `envconfig:"LOQUSDB_PORT" default:"27017"`
	Username string `envconfig:"LOQUSDB_USERNAME" default:""`
	Password string `envconfig:"LOQUSDB_PASSWORD" default:""`
}

type Configuration struct {
	PostgresDB PostgresDB
	Loqusdb    Loqusdb

	APIPort                         uint16        `envconfig:"API_PORT" default:"8080"`
	Authorization                   bool          `envconfig:"AUTHORIZATION" default:"true"`
	ClientID                        string        `envconfig:"CLIENT_ID" default:""`
	ClientSecret                    string        `envconfig:"CLIENT_SECRET" default:""`
	Development                     bool          `envconfig:"DEVELOPMENT" default:"false"`
	PermittedOrigin                 string        `envconfig:"PERMITTED_ORIGIN_URL" default:"*"`
	OIDCBaseURL                     string        `envconfig:"OIDC_BASE_URL" default:""`
	LogLevel                        zerolog.Level `envconfig:"LOG_LEVEL" default:"1"`
	ApplicationName                 string        `envconfig:"APPLICATION_NAME" default:"labops"`
	DBSchema                        string        `envconfig:"DB_SCHEMA" default:"labops"`
	LimsURL                         string        `envconfig:"LIMS_URL" required:"true" default:"http://lims"`
	TicketURL                       string        `envconfig:"TICKET_URL" default:""`
	TicketAPIKey                    string        `envconfig:"TICKET_API_KEY" default:""`
	StatsDSN                        string        `envconfig:"STATS_DSN" default:""`
	StatsRoot                       string        `envconfig:"STATS_ROOT" default:"/home/proj/production/demultiplexed-runs"`
	RedisUrl                        string        `envconfig:"REDIS_URL" default:""`
	RedisPort                       int           `envconfig:"REDIS_PORT" default:"6379"`
	ObservationLockSeconds          int           `envconfig:"OBSERVATION_LOCK_SECONDS" default:"1800"`
	TransferSchedule                string        `envconfig:"TRANSFER_SCHEDULE" default:"0 * * * *"`
	InvoiceFallbackCustomer         string        `envconfig:"INVOICE_FALLBACK_CUSTOMER" default:"cust999"`
	StandardAPIClientTimeoutSeconds uint          `envconfig:"STANDARD_API_CLIENT_TIMEOUT_SECONDS" default:"10"`
	APIClientRetryCount             int           `envconfig:"API_CLIENT_RETRY_COUNT" default:"2"`
	APIClientRetryWaitMillis        int           `envconfig:"API_CLIENT_RETRY_WAIT_MILLIS" default:"500"`
	APIRequestTimeoutSeconds        uint          `envconfig:"API_REQUEST_TIMEOUT_SECONDS" default:"120"`
	Proxy                           string        `envconfig:"PROXY" default:""`

	ClientCredentialAuthHeaderValue string
}

func ReadConfiguration() (Configuration, error) {
	var config Configuration
	err := envconfig.Process("", &config)
	if err != nil {
		err = errors.Wrap(err, MsgFailedToReadConfiguration)
		log.Error().Err(err).Msgf("%s\n", ErrFailedToReadConfiguration)
		return config, err
	}
	config.ClientCredentialAuthHeaderValue = base64.StdEncoding.EncodeToString([]byte(config.ClientID + ":" + config.ClientSecret))
	return config, nil
}

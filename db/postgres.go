package db

import (
	"context"
	"fmt"
	"time"

	"github.com/blutspende/labops/config"
	// registers the "pgx" driver for sqlx
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Postgres holds the single connection pool of the status and bundle stores.
type Postgres interface {
	Connect() error
	GetDbConnection() (*sqlx.DB, error)
	Close() error
}

type postgres struct {
	ctx     context.Context
	config  config.PostgresDB
	appName string
	pgConn  *sqlx.DB
}

func NewPostgres(ctx context.Context, configuration *config.Configuration) Postgres {
	return &postgres{
		ctx:     ctx,
		config:  configuration.PostgresDB,
		appName: configuration.ApplicationName,
	}
}

func (p *postgres) dataSourceName() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		p.config.Host, p.config.Port, p.config.User, p.config.Pass, p.config.Database, p.config.SSLMode, p.appName)
}

func (p *postgres) Connect() error {
	pgDB, err := sqlx.ConnectContext(p.ctx, "pgx", p.dataSourceName())
	if err != nil {
		log.Error().Err(err).Str("host", p.config.Host).Str("database", p.config.Database).Msg(MsgDbConnectionNotAvailable)
		return errors.Wrap(ErrDbConnectionNotAvailable, err.Error())
	}
	if p.config.MaxOpenConns > 0 {
		pgDB.SetMaxOpenConns(p.config.MaxOpenConns)
	}
	if p.config.MaxIdleConns > 0 {
		pgDB.SetMaxIdleConns(p.config.MaxIdleConns)
	}
	if p.config.ConnMaxLifetimeMin > 0 {
		pgDB.SetConnMaxLifetime(time.Duration(p.config.ConnMaxLifetimeMin) * time.Minute)
	}
	log.Info().Str("host", p.config.Host).Str("database", p.config.Database).Int("maxOpenConns", p.config.MaxOpenConns).Msg("postgres connected")
	p.pgConn = pgDB
	return nil
}

func (p *postgres) GetDbConnection() (*sqlx.DB, error) {
	if p.pgConn == nil {
		return nil, ErrDbConnectionNotAvailable
	}
	return p.pgConn, nil
}

func (p *postgres) Close() error {
	if p.pgConn == nil {
		return nil
	}
	err := p.pgConn.Close()
	p.pgConn = nil
	return err
}

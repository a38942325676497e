package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// DbConnector runs queries either directly on the pool or, once created through
// CreateTransactionConnector, inside a single transaction.
type DbConnector interface {
	CreateTransactionConnector() (DbConnector, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
	Commit() error
	Rollback() error
	Ping() error
}

type dbConnector struct {
	pg Postgres
	db *sqlx.DB
	tx *sqlx.Tx
}

func NewDbConnector(pg Postgres) DbConnector {
	return &dbConnector{
		pg: pg,
	}
}

// CreateDbConnector wraps an already opened connection, mostly used by tests.
func CreateDbConnector(db *sqlx.DB) DbConnector {
	return &dbConnector{
		db: db,
	}
}

func (c *dbConnector) connection() (*sqlx.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	if c.pg == nil {
		return nil, ErrDbConnectionNotAvailable
	}
	dbConn, err := c.pg.GetDbConnection()
	if err != nil {
		log.Error().Err(err).Msg(MsgDbConnectionNotAvailable)
		return nil, ErrDbConnectionNotAvailable
	}
	c.db = dbConn
	return c.db, nil
}

func (c *dbConnector) CreateTransactionConnector() (DbConnector, error) {
	dbConn, err := c.connection()
	if err != nil {
		return nil, err
	}

	tx, err := dbConn.Beginx()
	if err != nil {
		log.Error().Err(err).Msg(MsgBeginTransactionFailed)
		return nil, ErrBeginTransactionFailed
	}

	return &dbConnector{
		pg: c.pg,
		db: dbConn,
		tx: tx,
	}, nil
}

func (c *dbConnector) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.tx != nil {
		return c.tx.ExecContext(ctx, query, args...)
	}
	dbConn, err := c.connection()
	if err != nil {
		return nil, err
	}
	return dbConn.ExecContext(ctx, query, args...)
}

func (c *dbConnector) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	if c.tx != nil {
		return c.tx.NamedExecContext(ctx, query, arg)
	}
	dbConn, err := c.connection()
	if err != nil {
		return nil, err
	}
	return dbConn.NamedExecContext(ctx, query, arg)
}

func (c *dbConnector) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	if c.tx != nil {
		return c.tx.QueryxContext(ctx, query, args...)
	}
	dbConn, err := c.connection()
	if err != nil {
		return nil, err
	}
	return dbConn.QueryxContext(ctx, query, args...)
}

func (c *dbConnector) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if c.tx != nil {
		return c.tx.GetContext(ctx, dest, query, args...)
	}
	dbConn, err := c.connection()
	if err != nil {
		return err
	}
	return dbConn.GetContext(ctx, dest, query, args...)
}

func (c *dbConnector) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if c.tx != nil {
		return c.tx.SelectContext(ctx, dest, query, args...)
	}
	dbConn, err := c.connection()
	if err != nil {
		return err
	}
	return dbConn.SelectContext(ctx, dest, query, args...)
}

func (c *dbConnector) Rebind(query string) string {
	if c.tx != nil {
		return c.tx.Rebind(query)
	}
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

func (c *dbConnector) Commit() error {
	if c.tx != nil {
		err := c.tx.Commit()
		if err != nil {
			log.Error().Err(err).Msg(MsgCommitTransactionFailed)
			return ErrCommitTransactionFailed
		}
	}
	return nil
}

func (c *dbConnector) Rollback() error {
	if c.tx != nil {
		err := c.tx.Rollback()
		if err != nil && err != sql.ErrTxDone {
			log.Error().Err(err).Msg(MsgRollbackTransactionFailed)
			return ErrRollbackTransactionFailed
		}
	}
	return nil
}

func (c *dbConnector) Ping() error {
	dbConn, err := c.connection()
	if err != nil {
		return err
	}
	return dbConn.Ping()
}

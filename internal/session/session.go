package session

import (
	"context"
	"database/sql"
	"fmt"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/oraops/oradbctl/internal/logger"
	oraerrors "github.com/oraops/oradbctl/pkg/errors"
)

// Params describes how to reach a database over its listener.
type Params struct {
	Host     string
	Port     int
	Service  string
	User     string
	Password string
	AsSysdba bool
}

// Session is a live connection to one database. Statements run serially on a
// single underlying connection so ALTER DATABASE state is never split across
// sessions.
type Session interface {
	QueryRow(ctx context.Context, query string, dest ...any) error
	Exec(ctx context.Context, stmt string) error
	Close() error
}

// Factory opens sessions. The production implementation speaks the Oracle
// wire protocol; tests substitute a scripted fake.
type Factory interface {
	Open(ctx context.Context, p Params) (Session, error)
}

// OracleFactory opens real sessions through the go-ora driver.
type OracleFactory struct {
	log *logger.Logger
}

// NewOracleFactory creates the production session factory.
func NewOracleFactory(log *logger.Logger) *OracleFactory {
	return &OracleFactory{log: log}
}

// Open dials the listener and verifies the connection with a ping.
func (f *OracleFactory) Open(ctx context.Context, p Params) (Session, error) {
	opts := map[string]string{}
	if p.AsSysdba {
		opts["dba privilege"] = "sysdba"
	}

	url := go_ora.BuildUrl(p.Host, p.Port, p.Service, p.User, p.Password, opts)
	db, err := sql.Open("oracle", url)
	if err != nil {
		return nil, fmt.Errorf("opening session to %s:%d/%s: %w", p.Host, p.Port, p.Service, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s:%d/%s as %s: %w", p.Host, p.Port, p.Service, p.User, err)
	}

	f.log.WithFields(map[string]any{
		"host":    p.Host,
		"port":    p.Port,
		"service": p.Service,
		"user":    p.User,
		"sysdba":  p.AsSysdba,
	}).Debug("session opened")

	return &oracleSession{db: db, log: f.log}, nil
}

type oracleSession struct {
	db  *sql.DB
	log *logger.Logger
}

func (s *oracleSession) QueryRow(ctx context.Context, query string, dest ...any) error {
	row := s.db.QueryRowContext(ctx, query)
	if err := row.Scan(dest...); err != nil {
		return oraerrors.NewSQLError(query, err)
	}
	return nil
}

func (s *oracleSession) Exec(ctx context.Context, stmt string) error {
	s.log.WithFields(map[string]any{"statement": stmt}).Debug("executing statement")
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return oraerrors.NewSQLError(stmt, err)
	}
	return nil
}

func (s *oracleSession) Close() error {
	return s.db.Close()
}

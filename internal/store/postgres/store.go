package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jpd-dfo/spacos/internal/domain"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, letting every
// repository run against either the pool or an open transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool        *pgxpool.Pool
	orgs        *OrganizationRepo
	memberships *MembershipRepo
	users       *UserRepo
	spacs       *SPACRepo
	targets     *TargetRepo
	documents   *DocumentRepo
	analyses    *AnalysisRepo
	contacts    *ContactRepo
	audit       *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	s := newStore(pool)
	s.pool = pool
	return s, nil
}

func newStore(db DB) *Store {
	return &Store{
		orgs:        NewOrganizationRepo(db),
		memberships: NewMembershipRepo(db),
		users:       NewUserRepo(db),
		spacs:       NewSPACRepo(db),
		targets:     NewTargetRepo(db),
		documents:   NewDocumentRepo(db),
		analyses:    NewAnalysisRepo(db),
		contacts:    NewContactRepo(db),
		audit:       NewAuditRepo(db),
	}
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Pool exposes the underlying connection pool for migrations.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// WithTx runs fn against a store view bound to one transaction. A non-nil
// error from fn rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	if s.pool == nil {
		// Already inside a transaction; reuse it.
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.WithTx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.WithTx: commit: %w", err)
	}
	return nil
}

func (s *Store) Organizations() domain.OrganizationRepository { return s.orgs }
func (s *Store) Memberships() domain.MembershipRepository     { return s.memberships }
func (s *Store) Users() domain.UserRepository                 { return s.users }
func (s *Store) SPACs() domain.SPACRepository                 { return s.spacs }
func (s *Store) Targets() domain.TargetRepository             { return s.targets }
func (s *Store) Documents() domain.DocumentRepository         { return s.documents }
func (s *Store) Analyses() domain.AnalysisRepository          { return s.analyses }
func (s *Store) Contacts() domain.ContactRepository           { return s.contacts }
func (s *Store) Audit() domain.AuditRepository                { return s.audit }

package sqlstore

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type SqlCommons interface {
	GetTable(...interface{}) string
}

type ConnectConfig interface {
	FormatDSN() string
}

// SqlProvider holds one master and any number of read replicas.
type SqlProvider struct {
	master   *sqlx.DB
	replicas []*sqlx.DB
}

type TransactionKey struct{}

func NewSqlProvider(master *sqlx.DB, replicas ...*sqlx.DB) *SqlProvider {
	if len(replicas) == 0 {
		replicas = []*sqlx.DB{master}
	}
	return &SqlProvider{
		master:   master,
		replicas: replicas,
	}
}

func MustSetupProvider(m ConnectConfig, s ...ConnectConfig) *SqlProvider {
	master := sqlx.MustOpen("postgres", m.FormatDSN())

	var replicas []*sqlx.DB
	for _, v := range s {
		replicas = append(replicas, sqlx.MustOpen("postgres", v.FormatDSN()))
	}

	return NewSqlProvider(master, replicas...)
}

func (s *SqlProvider) GetTxFromCtx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	if len(s.replicas) == 1 {
		return s.replicas[0]
	}
	return s.replicas[rand.Intn(len(s.replicas))]
}

// Transaction runs next inside a transaction stored in ctx. Nested calls reuse the outer one.
func (s *SqlProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.GetTxFromCtx(ctx) != nil {
		return next(ctx)
	}

	tx, err := s.GetMaster().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Transaction rollbacked", slog.Any("recover", r))
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			slog.Error("Transaction rollbacked", slog.String("error", err.Error()))
			_ = tx.Rollback()
		}
	}()

	if err = next(context.WithValue(ctx, TransactionKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

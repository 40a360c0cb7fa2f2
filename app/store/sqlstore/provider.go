package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/quka-ai/studymate/app/store"
	"github.com/quka-ai/studymate/pkg/register"
	"github.com/quka-ai/studymate/pkg/sqlstore"
	"github.com/quka-ai/studymate/pkg/types"
)

//go:embed *.sql
var CreateTableFiles embed.FS

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var provider = &Provider{
	stores: &Stores{},
}

func GetProvider() *Provider {
	return provider
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.ChatSessionStore
	store.ChatMessageStore
	store.DocumentStore
	store.NoteStore
	store.AudioJobStore
}

type RegisterKey struct{}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	provider.SqlProvider = sqlstore.MustSetupProvider(m, s...)

	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(provider)
	}

	// every store must have been registered by its init hook
	val := reflect.ValueOf(provider.stores).Elem()
	for i := 0; i < val.NumField(); i++ {
		if val.Field(i).IsNil() {
			panic(fmt.Sprintf("sqlstore: %s not registered", val.Type().Field(i).Name))
		}
	}

	return func() *Provider {
		return provider
	}
}

// Install 按文件名顺序执行未执行过的建表文件
func (p *Provider) Install() error {
	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	files, err := CreateTableFiles.ReadDir(".")
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		executed, err := p.isFileExecuted(file.Name())
		if err != nil {
			return err
		}
		if executed {
			continue
		}

		raw, err := CreateTableFiles.ReadFile(file.Name())
		if err != nil {
			return err
		}

		content := strings.ReplaceAll(string(raw), "{{prefix}}", types.TABLE_PREFIX)
		if _, err = p.GetMaster().Exec(content); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file.Name(), err)
		}

		if err = p.markFileExecuted(file.Name()); err != nil {
			return err
		}
		slog.Info("sql file executed", slog.String("file", file.Name()))
	}
	return nil
}

func (p *Provider) ensureMigrationTable() error {
	_, err := p.GetMaster().Exec(`CREATE TABLE IF NOT EXISTS ` + types.TABLE_PREFIX + `schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`)
	return err
}

func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.GetMaster().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) markFileExecuted(filename string) error {
	_, err := p.GetMaster().Exec(
		"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}

func (p *Provider) Transaction(ctx context.Context, next func(ctx context.Context) error) error {
	return p.SqlProvider.Transaction(ctx, next)
}

func (p *Provider) ChatSessionStore() store.ChatSessionStore {
	return p.stores.ChatSessionStore
}

func (p *Provider) ChatMessageStore() store.ChatMessageStore {
	return p.stores.ChatMessageStore
}

func (p *Provider) DocumentStore() store.DocumentStore {
	return p.stores.DocumentStore
}

func (p *Provider) NoteStore() store.NoteStore {
	return p.stores.NoteStore
}

func (p *Provider) AudioJobStore() store.AudioJobStore {
	return p.stores.AudioJobStore
}

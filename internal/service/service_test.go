package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/repository"
	"github.com/spec-kit/incident-service/internal/repository/sqlite"
	"github.com/spec-kit/incident-service/internal/storage"
)

var pngBytes = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

type testEnv struct {
	db         *sql.DB
	users      repository.UserRepository
	reports    repository.ReportRepository
	history    repository.StatusHistoryRepository
	dispatcher events.Dispatcher
	auth       *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	handle, err := persistence.OpenSQLite("file::memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(handle.Close)
	require.NoError(t, persistence.MigrateSQLite(handle.DB, zap.NewNop()))

	env := &testEnv{
		db:         handle.DB,
		users:      sqlite.NewUserRepository(handle.DB),
		reports:    sqlite.NewReportRepository(handle.DB),
		history:    sqlite.NewStatusHistoryRepository(handle.DB),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
	}
	env.auth = NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 10,
		BcryptCost:            4,
		AllowRegistration:     true,
	}, "incident-service", env.users, zap.NewNop())
	return env
}

func (e *testEnv) reportService(mutate func(*ReportDependencies)) *ReportService {
	deps := ReportDependencies{
		Reports:    e.reports,
		History:    e.history,
		Images:     storage.NewImageStore(nil, 1<<20),
		Dispatcher: e.dispatcher,
		Logger:     zap.NewNop(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewReportService(deps)
}

type failingBackend struct{}

func (failingBackend) EnsureBucket(context.Context) error { return nil }
func (failingBackend) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket unreachable")
}
func (failingBackend) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("bucket unreachable")
}
func (failingBackend) Delete(context.Context, string) error { return nil }
func (failingBackend) Bucket() string                       { return "reports" }
func (failingBackend) Scheme() string                       { return "s3" }

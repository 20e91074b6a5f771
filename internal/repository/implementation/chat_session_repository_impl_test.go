package implementation

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqlRecorder captures the SQL GORM generates so statement shape can be
// asserted without a live database.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}
func (r *sqlRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func newDryRunRepo(t *testing.T) (*ChatSessionRepositoryImpl, *sqlRecorder) {
	t.Helper()
	recorder := &sqlRecorder{}
	db, err := gorm.Open(postgres.Open("host=localhost user=docchat dbname=docchat port=5432 sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               recorder,
	})
	require.NoError(t, err)
	return NewChatSessionRepository(db, nil).(*ChatSessionRepositoryImpl), recorder
}

func TestGetAllSessionsOrdersWithIdTiebreaker(t *testing.T) {
	repo, recorder := newDryRunRepo(t)

	_, err := repo.GetAllSessions(context.Background())
	require.NoError(t, err)

	var listSQL string
	for _, stmt := range recorder.statements {
		if strings.Contains(stmt, "chat_sessions") && strings.Contains(stmt, "ORDER BY") {
			listSQL = stmt
			break
		}
	}
	require.NotEmpty(t, listSQL, "no list query was generated")
	assert.Contains(t, listSQL, "created_at DESC, id DESC")
}

package creatorgateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabaseLogsThroughSlogWithoutValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := OpenDatabase(DatabaseConfig{Driver: DriverSQLite, DSN: dsn}, logger)
	require.NoError(t, err)
	store, err := NewStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	wallet := testWallet(t)
	_, err = store.CreateProfile(ctx, wallet, "first@example.com")
	require.NoError(t, err)

	_, err = store.ProfileByWallet(ctx, testWallet(t))
	require.True(t, errors.Is(err, ErrProfileNotFound))
	require.NotContains(t, buf.String(), "record not found")

	_, err = store.CreateProfile(ctx, wallet, "second@example.com")
	require.Error(t, err)

	out := buf.String()
	require.Contains(t, out, `"component":"gorm"`)
	require.Contains(t, out, "SQL executed")
	require.NotContains(t, out, wallet)
	require.NotContains(t, out, "second@example.com")
}

package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerCmd_Flags(t *testing.T) {
	cmd := newServerCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-m", "--shutdown-timeout", "5s"}))

	autoMigrate, err := cmd.Flags().GetBool("auto-migrate")
	require.NoError(t, err)
	assert.True(t, autoMigrate)

	timeout, err := cmd.Flags().GetDuration("shutdown-timeout")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
}

func TestServerCmd_RejectsArguments(t *testing.T) {
	cmd := newServerCmd()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.Error(t, cmd.Execute())
}

func TestServe_InvalidSubmitterBudgetStopsStartup(t *testing.T) {
	t.Setenv("SKIP_DOTENV", "true")
	t.Setenv("OTEL_TRACES_ENABLED", "false")
	t.Setenv("CRPT_REQUEST_LIMIT", "0")

	logger := log.NewLogger(io.Discard, slog.LevelError, "text")
	err := serve(context.Background(), logger, &serverOptions{shutdownTimeout: time.Second})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.GetErrorType(err))
}

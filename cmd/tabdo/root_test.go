package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/tabdo/internal/config"
	"github.com/sandeepkv93/tabdo/internal/history"
	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, dbPath string, h model.DailyHistory) {
	t.Helper()
	kv, err := storage.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer kv.Close()
	require.NoError(t, history.NewStore(kv, nil).Save(context.Background(), h))
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TABDO_LOG_PATH", filepath.Join(t.TempDir(), "tabdo.log"))
	cmd := newRootCmd(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func doneSnapshot(d model.Date) model.DaySnapshot {
	return model.NewSnapshot(d, model.TaskList{{ID: d.String(), Text: "ship it", Done: true}})
}

func TestStreakCommandPrintsCurrentAndBest(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tabdo.db")
	today := model.Today(time.Now())
	seedHistory(t, db, model.DailyHistory{
		today.AddDays(-1): doneSnapshot(today.AddDays(-1)),
		today.AddDays(-2): doneSnapshot(today.AddDays(-2)),
	})

	out, err := runRoot(t, "streak", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "current: 2")
	assert.Contains(t, out, "best: 2")
}

func TestMonthCommandRendersRecordedDays(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tabdo.db")
	feb := model.NewDate(2026, time.February, 9)
	seedHistory(t, db, model.DailyHistory{feb: doneSnapshot(feb)})

	out, err := runRoot(t, "month", "2026-02", "--db", db, "--week-start", "monday")
	require.NoError(t, err)
	assert.Contains(t, out, "calendar: February 2026")
	assert.Contains(t, out, "recorded: 1 | all done: 1")
	assert.Contains(t, out, "Mo")
}

func TestMonthCommandRejectsBadMonth(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tabdo.db")
	_, err := runRoot(t, "month", "2026-13", "--db", db)
	require.Error(t, err)
}

func TestDayCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tabdo.db")
	day := model.NewDate(2026, time.January, 3)
	seedHistory(t, db, model.DailyHistory{day: doneSnapshot(day)})

	out, err := runRoot(t, "day", "2026-01-03", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ship it")
	assert.Contains(t, out, "2026-01-03")

	_, err = runRoot(t, "day", "2026-01-04", "--db", db)
	require.ErrorContains(t, err, "no history for 2026-01-04")

	_, err = runRoot(t, "day", "03/01/2026", "--db", db)
	require.ErrorIs(t, err, model.ErrInvalidDate)
}

func TestInvalidWeekStartFailsBeforeRunning(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tabdo.db")
	_, err := runRoot(t, "streak", "--db", db, "--week-start", "someday")
	require.ErrorIs(t, err, config.ErrInvalidWeekStart)
}

func TestEnvironmentSuppliesDBPath(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	today := model.Today(time.Now())
	seedHistory(t, db, model.DailyHistory{today: doneSnapshot(today)})
	t.Setenv("TABDO_DB_PATH", db)

	out, err := runRoot(t, "streak")
	require.NoError(t, err)
	assert.Contains(t, out, "current: 1")
}

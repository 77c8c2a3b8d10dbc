package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/tabdo/internal/badge"
	"github.com/sandeepkv93/tabdo/internal/calendar"
	"github.com/sandeepkv93/tabdo/internal/config"
	"github.com/sandeepkv93/tabdo/internal/history"
	"github.com/sandeepkv93/tabdo/internal/logging"
	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/scheduler"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"github.com/sandeepkv93/tabdo/internal/streak"
	"github.com/sandeepkv93/tabdo/internal/update"
	"github.com/sandeepkv93/tabdo/internal/views"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app holds what every subcommand resolves before it runs.
type app struct {
	v   *viper.Viper
	cfg config.RuntimeConfig
	log *zap.Logger
	now func() time.Time
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v, log: zap.NewNop(), now: time.Now}
	config.Prepare(v, config.DefaultRuntimeConfig())

	root := &cobra.Command{
		Use:           "tabdo",
		Short:         "A daily task list with streaks and a history calendar",
		Long:          "tabdo keeps today's tasks, records a snapshot of every day, and tracks how many days in a row you finished everything.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync(a.log)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (yaml, toml or json)")
	flags.String("db", "", "path to the sqlite database")
	flags.String("week-start", "", "first day of the calendar week")
	flags.Bool("debug", false, "enable debug logging")
	_ = v.BindPFlag(config.KeyConfigFile, flags.Lookup("config"))
	_ = v.BindPFlag(config.KeyDBPath, flags.Lookup("db"))
	_ = v.BindPFlag(config.KeyWeekStart, flags.Lookup("week-start"))
	_ = v.BindPFlag(config.KeyDebug, flags.Lookup("debug"))

	root.AddCommand(a.newStreakCmd(), a.newMonthCmd(), a.newDayCmd())
	return root
}

func (a *app) init() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.NewOrNop(cfg.LogPath, cfg.Debug)
	return nil
}

func (a *app) runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	kv, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer kv.Close()

	watcher, err := storage.NewWatcher(kv, storage.KeyTasks, storage.KeyDailyHistory, storage.KeyBadgeEnabled)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()
	go a.logWatchErrors(ctx, watcher.Errors())

	opts := []badge.Option{badge.WithLogger(a.log)}
	if a.cfg.BadgeFile != "" {
		opts = append(opts, badge.WithOnRender(badge.FileSink(a.cfg.BadgeFile, a.log)))
	}
	renderer := badge.NewRenderer(a.cfg.SchedulerBuffer, opts...)
	if err := renderer.Prime(ctx, kv); err != nil {
		a.log.Warn("prime badge failed", zap.Error(err))
	}
	badgeChanges, unsubscribeBadge := kv.Subscribe(a.cfg.SchedulerBuffer)
	defer unsubscribeBadge()
	go renderer.Run(ctx, badgeChanges)

	engine := scheduler.NewEngine(a.cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	uiChanges, unsubscribeUI := watcher.Subscribe(a.cfg.SchedulerBuffer)
	defer unsubscribeUI()

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if a.cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}

	m := update.NewModel(update.Deps{
		Context:              ctx,
		Log:                  a.log,
		Now:                  a.now,
		KV:                   kv,
		Badge:                renderer.Sender(),
		BadgeText:            renderer.Text,
		Notifier:             notifier,
		Scheduler:            engine,
		Changes:              uiChanges,
		DesktopNotifications: a.cfg.DesktopNotifications,
		WeekStart:            a.cfg.WeekStart,
	})
	a.log.Info("starting tabdo", zap.String("db", a.cfg.DBPath))
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func (a *app) logWatchErrors(ctx context.Context, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			a.log.Warn("storage watch failed", zap.Error(err))
		}
	}
}

func (a *app) newStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Print the current and best streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.loadHistory(cmd.Context())
			if err != nil {
				return err
			}
			res := streak.Compute(h, model.Today(a.now()))
			return writeLine(cmd.OutOrStdout(), fmt.Sprintf("current: %d\nbest: %d", res.Current, res.Best))
		},
	}
}

func (a *app) newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Print the history calendar for a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today := model.Today(a.now())
			month := calendar.MonthOf(today)
			if len(args) == 1 {
				parsed, err := calendar.ParseMonth(args[0])
				if err != nil {
					return err
				}
				month = parsed
			}
			h, err := a.loadHistory(cmd.Context())
			if err != nil {
				return err
			}
			cells := calendar.LayoutMonth(h, month.Year, month.Month, today, a.cfg.WeekStart)
			return writeLine(cmd.OutOrStdout(), renderMonth(month, cells, a.cfg.WeekStart))
		},
	}
}

func (a *app) newDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "Print the stored snapshot for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := model.ParseDate(args[0])
			if err != nil {
				return err
			}
			h, err := a.loadHistory(cmd.Context())
			if err != nil {
				return err
			}
			snap, ok := calendar.DayDetail(h, date)
			if !ok {
				return fmt.Errorf("no history for %s", date)
			}
			items := make([]views.SnapshotItemData, 0, len(snap.Tasks))
			for _, item := range snap.Tasks {
				items = append(items, views.SnapshotItemData{Text: item.Text, Done: item.Done})
			}
			return writeLine(cmd.OutOrStdout(), views.DayDetailMarkdown(views.DayDetailData{
				Date:    snap.Date.String(),
				Items:   items,
				AllDone: snap.AllDone,
			}))
		},
	}
}

func (a *app) loadHistory(ctx context.Context) (model.DailyHistory, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	kv, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer kv.Close()
	return history.NewStore(kv, a.log).Load(ctx)
}

func renderMonth(month calendar.Month, cells []calendar.Cell, weekStart time.Weekday) string {
	data := make([]views.CalendarCellData, 0, len(cells))
	for _, c := range cells {
		data = append(data, views.CalendarCellData{
			Empty:   c.Empty,
			Day:     c.Date.Day(),
			IsToday: c.IsToday,
			HasData: c.HasData,
			AllDone: c.AllDone,
		})
	}
	summary := calendar.Summarize(cells)
	return views.RenderCalendarPanel(views.CalendarPanelData{
		Title:    month.String(),
		Headers:  calendar.WeekdayHeaders(weekStart),
		Cells:    data,
		Recorded: summary.Recorded,
		AllDone:  summary.AllDone,
	})
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

package update

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/tabdo/internal/badge"
	"github.com/sandeepkv93/tabdo/internal/calendar"
	"github.com/sandeepkv93/tabdo/internal/history"
	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/scheduler"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"github.com/sandeepkv93/tabdo/internal/streak"
	"github.com/sandeepkv93/tabdo/internal/tasks"
	"go.uber.org/zap"
)

type View string

const (
	ViewToday    View = "Today"
	ViewCalendar View = "Calendar"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today    string
	Calendar string
	Help     string
	Quit     string
}

type Model struct {
	CurrentView    View
	Today          model.Date
	Tasks          model.TaskList
	History        model.DailyHistory
	Streak         streak.Result
	BadgeEnabled   bool
	Cursor         int
	Capture        CaptureState
	Calendar       CalendarState
	Review         ReviewState
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	WeekStart      time.Weekday
	Status         StatusBar
	Keys           GlobalKeyMap
	Loaded         bool
	Quitting       bool
	LastError      error

	ctx       context.Context
	log       *zap.Logger
	now       func() time.Time
	taskStore *tasks.Store
	histStore *history.Store
	kv        storage.Store
	sender    badge.Sender
	badgeText func() string
	notifier  DesktopNotifier
	scheduler *scheduler.Engine
	changes   <-chan storage.Change
	writes    *ownWrites

	addInput     textinput.Model
	commandInput textinput.Model
	helpModel    help.Model
	dayProgress  progress.Model
	detailView   viewport.Model
}

type CaptureState struct {
	Active bool
	Input  string
}

type CalendarState struct {
	Month    calendar.Month
	Selected model.Date
	Detail   *model.DaySnapshot
}

// ReviewState holds yesterday's snapshot, shown once on the first open of a day.
type ReviewState struct {
	Visible  bool
	Snapshot model.DaySnapshot
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

// ExecDesktopNotifier shells out to the platform notifier. Send starts the command and
// returns; the process is reaped in the background so Update never waits on it.
type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	cmd := notifyCommand(runtime.GOOS, n)
	if cmd == nil {
		return nil
	}
	return startDetached(cmd)
}

func notifyCommand(goos string, n Notification) *exec.Cmd {
	switch goos {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body)
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script)
	default:
		return nil
	}
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Deps wires the model to storage and its collaborators. Nil fields get inert defaults.
// The task and history stores are built over KV so every write is known as the model's own.
type Deps struct {
	Context   context.Context
	Log       *zap.Logger
	Now       func() time.Time
	KV        storage.Store
	Badge     badge.Sender
	BadgeText func() string
	Notifier  DesktopNotifier
	Scheduler *scheduler.Engine
	// Changes carries writes made by other processes. Echoes of the model's own
	// writes are ignored if they show up.
	Changes <-chan storage.Change

	DesktopNotifications bool
	WeekStart            time.Weekday
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// LoadedMsg carries the stored state read at startup.
type LoadedMsg struct {
	Tasks        model.TaskList
	History      model.DailyHistory
	BadgeEnabled bool
	LastReviewed model.Date
	Err          error
}

type SchedulerEventMsg struct {
	Event scheduler.Event
}

type StorageChangeMsg struct {
	Change storage.Change
}

func NewModel(deps Deps) Model {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Badge == nil {
		deps.Badge = badge.NopSender{}
	}
	if deps.Notifier == nil {
		deps.Notifier = NoopDesktopNotifier{}
	}
	writes := newOwnWrites()
	var (
		taskStore *tasks.Store
		histStore *history.Store
	)
	if deps.KV != nil {
		deps.KV = recordingStore{Store: deps.KV, writes: writes}
		taskStore = tasks.NewStore(deps.KV, deps.Log)
		histStore = history.NewStore(deps.KV, deps.Log)
	}

	today := model.Today(deps.Now())
	m := Model{
		CurrentView:    ViewToday,
		Today:          today,
		Tasks:          model.TaskList{},
		History:        model.DailyHistory{},
		BadgeEnabled:   true,
		DesktopEnabled: deps.DesktopNotifications,
		WeekStart:      deps.WeekStart,
		Calendar: CalendarState{
			Month:    calendar.MonthOf(today),
			Selected: today,
		},
		Keys: GlobalKeyMap{
			Today:    "1",
			Calendar: "2",
			Help:     "?",
			Quit:     "q",
		},
		ctx:       deps.Context,
		log:       deps.Log,
		now:       deps.Now,
		taskStore: taskStore,
		histStore: histStore,
		kv:        deps.KV,
		sender:    deps.Badge,
		badgeText: deps.BadgeText,
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		changes:   deps.Changes,
		writes:    writes,
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.addInput = textinput.New()
	m.addInput.Prompt = "add> "
	m.addInput.Placeholder = "what needs doing today?"
	m.addInput.CharLimit = 256
	m.addInput.Width = 42

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
	m.dayProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	m.detailView = viewport.New(90, 12)
}

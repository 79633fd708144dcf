package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-travel/internal/agent"
	"github.com/ilkoid/poncho-travel/internal/trip"
	"github.com/ilkoid/poncho-travel/pkg/events"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// Planner — то, что нужно форме от приложения. *app.Components ему удовлетворяет.
type Planner interface {
	Plan(ctx context.Context, destination string, days int) (agent.Outcome, error)
}

// Config — параметры формы.
type Config struct {
	Planner Planner

	// ConfigErr — ошибка проверки ключей; форма не показывается.
	ConfigErr error

	Model       string
	ColorScheme string

	// SaveDir — куда Ctrl+S сохраняет маршрут. Пусто = текущая директория.
	SaveDir string
}

const (
	fieldDestination = iota
	fieldDays
)

// planDoneMsg — заявка обработана.
type planDoneMsg struct {
	outcome agent.Outcome
	err     error
}

// planEventMsg — событие заявки, привязанное к её подписке.
type planEventMsg struct {
	sub   events.Subscriber
	event events.Event
}

type saveSuccessMsg struct {
	filename string
}

type saveErrorMsg struct {
	err error
}

// Model — Bubble Tea модель формы.
type Model struct {
	ctx    context.Context
	cfg    Config
	keys   KeyMap
	styles styles

	destination textinput.Model
	days        textinput.Model
	focus       int

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	showHelp bool

	width  int
	height int
	ready  bool

	running  bool
	progress string   // текст рядом со спиннером
	statuses []string // "✓ Research completed"
	notice   string   // ошибка для пользователя
	info     string   // результат сохранения и т.п.

	itinerary   string
	lastRequest trip.Request

	sub events.Subscriber
}

// New создаёт модель формы.
func New(ctx context.Context, cfg Config) *Model {
	dest := textinput.New()
	dest.Placeholder = "e.g. Kyoto"
	dest.CharLimit = trip.MaxDestinationLen
	dest.Prompt = "› "
	dest.Focus()

	days := textinput.New()
	days.CharLimit = 2
	days.Prompt = "› "
	days.SetValue(strconv.Itoa(trip.DefaultDays))

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	cs := GetColorScheme(cfg.ColorScheme)
	st := newStyles(cs)
	sp.Style = st.spinner

	return &Model{
		ctx:         ctx,
		cfg:         cfg,
		keys:        DefaultKeyMap(),
		styles:      st,
		destination: dest,
		days:        days,
		spinner:     sp,
		viewport:    viewport.New(80, 10),
		help:        help.New(),
	}
}

// Init реализует tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.cfg.ConfigErr != nil {
		return nil
	}
	return textinput.Blink
}

// CanSubmit — кнопка "Generate Itinerary" активна.
func (m *Model) CanSubmit() bool {
	return m.cfg.ConfigErr == nil && !m.running && trip.CanSubmit(m.destination.Value())
}

// Update реализует tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.handleEvent(events.Event(msg))
		return m, nil

	case planEventMsg:
		// событие прошлой заявки: её канал уже дочитывает свой Cmd
		if msg.sub == nil || msg.sub != m.sub {
			return m, nil
		}
		m.handleEvent(msg.event)
		return m, m.receiveEvent()

	case planDoneMsg:
		m.handlePlanDone(msg)
		return m, nil

	case saveSuccessMsg:
		m.info = "Saved to " + msg.filename
		return m, nil

	case saveErrorMsg:
		m.info = "Save failed: " + msg.err.Error()
		return m, nil
	}

	return m, nil
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width, m.height = msg.Width, msg.Height
	m.help.Width = msg.Width

	w := msg.Width - 4
	if w < 20 {
		w = 20
	}
	m.destination.Width = w - 4
	m.days.Width = 4

	// заголовок, форма, статусы и подсказка занимают ~16 строк
	h := msg.Height - 16
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.ready = true
	m.refreshViewport()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.cfg.ConfigErr != nil:
		return m, nil
	case key.Matches(msg, m.keys.ToggleHelp):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.SaveToFile):
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		m.switchFocus()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	}

	if m.running {
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == fieldDays {
		// только цифры
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				if !unicode.IsDigit(r) {
					return m, nil
				}
			}
		}
		m.days, cmd = m.days.Update(msg)
		return m, cmd
	}
	m.destination, cmd = m.destination.Update(msg)
	return m, cmd
}

func (m *Model) switchFocus() {
	if m.focus == fieldDestination {
		m.focus = fieldDays
		m.destination.Blur()
		m.days.Focus()
		return
	}
	m.clampDays()
	m.focus = fieldDestination
	m.days.Blur()
	m.destination.Focus()
}

// clampDays приводит поле дней к [1,30] и возвращает значение.
func (m *Model) clampDays() int {
	days, err := trip.ParseDays(m.days.Value())
	if err != nil {
		days = trip.DefaultDays
	}
	m.days.SetValue(strconv.Itoa(days))
	return days
}

// submit запускает заявку, если форма заполнена.
func (m *Model) submit() tea.Cmd {
	if !m.CanSubmit() {
		return nil
	}
	days := m.clampDays()
	destination := strings.TrimSpace(m.destination.Value())

	m.running = true
	m.statuses = nil
	m.notice = ""
	m.info = ""
	m.itinerary = ""
	m.progress = agent.MsgResearching
	m.refreshViewport()

	emitter := events.NewChanEmitter(16)
	m.sub = emitter.Subscribe()

	return tea.Batch(
		m.planCmd(destination, days, emitter),
		m.receiveEvent(),
		m.spinner.Tick,
	)
}

// receiveEvent ждёт следующее событие текущей заявки.
func (m *Model) receiveEvent() tea.Cmd {
	sub := m.sub
	return ReceiveEventCmd(sub, func(e events.Event) tea.Msg {
		return planEventMsg{sub: sub, event: e}
	})
}

// planCmd выполняет заявку в горутине Bubble Tea.
func (m *Model) planCmd(destination string, days int, emitter *events.ChanEmitter) tea.Cmd {
	planner := m.cfg.Planner
	ctx := events.WithEmitter(m.ctx, emitter)
	return func() tea.Msg {
		defer emitter.Close()
		out, err := planner.Plan(ctx, destination, days)
		return planDoneMsg{outcome: out, err: err}
	}
}

func (m *Model) handleEvent(ev events.Event) {
	switch data := ev.Data.(type) {
	case events.StageData:
		switch ev.Type {
		case events.EventStageStarted:
			m.progress = data.Message
		case events.EventStageCompleted:
			m.addStatus(data.Message)
		}
	case events.ToolCallData:
		m.progress = fmt.Sprintf("%s → %s", data.Agent, data.ToolName)
	}
}

func (m *Model) addStatus(s string) {
	for _, existing := range m.statuses {
		if existing == s {
			return
		}
	}
	m.statuses = append(m.statuses, s)
}

func (m *Model) handlePlanDone(msg planDoneMsg) {
	m.running = false
	m.progress = ""
	m.sub = nil

	if msg.err != nil {
		m.notice = msg.err.Error()
		return
	}

	out := msg.outcome
	m.lastRequest = out.Request
	if out.Research != nil {
		m.addStatus(agent.MsgResearchDone)
	}
	if out.OK() {
		m.itinerary = out.Itinerary.Content
	} else {
		m.notice = out.Notice()
	}
	m.refreshViewport()
	m.viewport.GotoTop()
}

func (m *Model) refreshViewport() {
	AppendToViewport(&m.viewport, wrapText(m.itinerary, m.viewport.Width))
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// saveCmd сохраняет маршрут в markdown файл.
func (m *Model) saveCmd() tea.Cmd {
	if m.itinerary == "" {
		return nil
	}
	content := fmt.Sprintf("# %s (%d days)\n\n%s\n", m.lastRequest.Destination, m.lastRequest.Days, m.itinerary)
	name := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(m.lastRequest.Destination), "-"), "-")
	if name == "" {
		name = "trip"
	}
	filename := "itinerary-" + name + ".md"
	if m.cfg.SaveDir != "" {
		filename = filepath.Join(m.cfg.SaveDir, filename)
	}

	return func() tea.Msg {
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			utils.Error("Failed to save itinerary", "file", filename, "error", err)
			return saveErrorMsg{err: err}
		}
		utils.Info("Itinerary saved", "file", filename)
		return saveSuccessMsg{filename: filename}
	}
}

// View реализует tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	title := "AI Travel Planner ✈️"
	if m.cfg.Model != "" {
		title = fmt.Sprintf("AI Travel Planner using %s ✈️", m.cfg.Model)
	}
	b.WriteString(m.styles.title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.styles.caption.Render("Research and plan a personalized itinerary on autopilot."))
	b.WriteString("\n\n")

	if m.cfg.ConfigErr != nil {
		b.WriteString(m.styles.err.Render(m.cfg.ConfigErr.Error()))
		b.WriteString("\n\n")
		b.WriteString(m.help.View(KeyMap{Quit: m.keys.Quit}))
		return b.String()
	}

	b.WriteString(m.styles.label.Render("Where do you want to go?"))
	b.WriteString("\n")
	b.WriteString(m.destination.View())
	b.WriteString("\n")
	b.WriteString(m.styles.label.Render(fmt.Sprintf("How many days do you want to travel for? (%d-%d)", trip.MinDays, trip.MaxDays)))
	b.WriteString("\n")
	b.WriteString(m.days.View())
	b.WriteString("\n\n")

	button := "[ Generate Itinerary ]"
	if !m.CanSubmit() {
		button = m.styles.caption.Render(button)
	}
	b.WriteString(button)
	b.WriteString("\n\n")

	if m.running {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.progress)
		b.WriteString("\n")
	}
	for _, s := range m.statuses {
		b.WriteString(m.styles.status.Render(s))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(m.styles.err.Render(m.notice))
		b.WriteString("\n")
	}
	if m.itinerary != "" {
		b.WriteString(m.styles.box.Render(m.viewport.View()))
		b.WriteString("\n")
	}
	if m.info != "" {
		b.WriteString(m.styles.caption.Render(m.info))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

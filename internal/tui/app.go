package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/config"
	"github.com/jask/pokedex/internal/logging"
	"github.com/jask/pokedex/internal/roster"
	"github.com/jask/pokedex/internal/service"
)

// App ties together views.
type App struct {
	ctx      context.Context
	team     *roster.Manager
	services Services
	cfg      config.Config
	logger   *zap.Logger
	keys     *KeyRegistry
	state    appState
	modal    modalState

	entries    []catalog.Entry
	query      catalog.Query
	page       catalog.Page
	cursor     int
	typeCursor int
	search     textinput.Model
	searching  bool
	pager      paginator.Model
	spinner    spinner.Model
	loading    bool

	detail    *catalog.Detail
	detailErr error
	comparing bool

	teamCursor int
	status     string
	width      int
}

// Catalog is what the TUI needs from the catalog service.
type Catalog interface {
	Entries(ctx context.Context) ([]catalog.Entry, error)
	Refresh(ctx context.Context) ([]catalog.Entry, error)
	Detail(ctx context.Context, e catalog.Entry) (catalog.Detail, error)
}

// Maintenance resets local data.
type Maintenance interface {
	Reset(ctx context.Context) error
}

type Services struct {
	Catalog     Catalog
	Maintenance Maintenance
}

type appState string

const (
	viewList   appState = "list"
	viewDetail appState = "detail"
	viewTeam   appState = "team"
)

type modalState string

const (
	modalNone         modalState = ""
	modalTypePicker   modalState = "typePicker"
	modalConfirmClear modalState = "confirmClear"
	modalConfirmReset modalState = "confirmReset"
)

func New(ctx context.Context, cfg config.Config, team *roster.Manager, services Services, logger *zap.Logger) *App {
	logger = logging.OrNop(logger)
	pageSize := cfg.UI.PageSize
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}

	search := textinput.New()
	search.Placeholder = "Rechercher un Pokémon"
	search.Prompt = "/ "
	search.CharLimit = 32

	pager := paginator.New()
	pager.Type = paginator.Dots
	pager.PerPage = pageSize

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	keys := NewKeyRegistry()
	if err := keys.ApplyKeybindingConfig(cfg.UI.Keybindings); err != nil {
		logger.Warn("ignoring keybinding overrides", zap.Error(err))
	}

	return &App{
		ctx:      ctx,
		team:     team,
		services: services,
		cfg:      cfg,
		logger:   logger,
		keys:     keys,
		state:    viewList,
		query:    catalog.Query{Page: 1, PageSize: pageSize, Lang: cfg.Catalog.Language},
		search:   search,
		pager:    pager,
		spinner:  sp,
		loading:  true,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadEntries(), a.loadTeam())
}

func (a *App) loadEntries() tea.Cmd {
	return func() tea.Msg {
		list, err := a.services.Catalog.Entries(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return entriesMsg(list)
	}
}

func (a *App) refreshEntries() tea.Cmd {
	return func() tea.Msg {
		list, err := a.services.Catalog.Refresh(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return entriesMsg(list)
	}
}

func (a *App) loadTeam() tea.Cmd {
	return func() tea.Msg {
		names, err := a.team.Load(a.ctx)
		if errors.Is(err, roster.ErrCorruptState) {
			return teamMsg{names: names, status: "équipe enregistrée illisible, nouvelle équipe vide"}
		}
		if err != nil {
			return errMsg{err}
		}
		return teamMsg{names: names}
	}
}

func (a *App) loadDetail(e catalog.Entry) tea.Cmd {
	return func() tea.Msg {
		d, err := a.services.Catalog.Detail(a.ctx, e)
		return detailMsg{detail: d, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		if a.searching {
			return a.handleSearchKey(m)
		}
		switch a.state {
		case viewDetail:
			return a.handleDetailKey(m)
		case viewTeam:
			return a.handleTeamKey(m)
		default:
			return a.handleListKey(m)
		}
	case tea.WindowSizeMsg:
		a.width = m.Width
	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case entriesMsg:
		a.loading = false
		a.entries = []catalog.Entry(m)
		a.applyQuery()
	case detailMsg:
		a.loading = false
		d := m.detail
		a.detailErr = m.err
		if m.err != nil && d.Slug == "" {
			a.status = "erreur : " + m.err.Error()
			return a, nil
		}
		a.detail = &d
	case teamMsg:
		if m.names != nil {
			a.teamCursor = min(a.teamCursor, max(len(m.names)-1, 0))
		}
		a.status = m.status
	case statusMsg:
		a.loading = false
		a.status = string(m)
	case errMsg:
		a.loading = false
		a.logger.Warn("tui command failed", zap.Error(m.error))
		a.status = "erreur : " + m.Error()
	default:
		if a.searching {
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	switch a.state {
	case viewDetail:
		body = a.renderDetail()
	case viewTeam:
		body = a.renderTeam()
	default:
		body = a.renderList()
	}
	if a.modal != modalNone {
		body += "\n\n" + a.renderModal()
	}
	return fitWidth(body, a.width)
}

func (a *App) handleListKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keys.Action(m.String(), scopeList) {
	case actionQuit:
		return a, tea.Quit
	case actionSearch:
		a.searching = true
		return a, a.search.Focus()
	case actionFilterType:
		a.modal = modalTypePicker
	case actionSort:
		a.query.Sort = nextSort(a.query.Sort)
		a.query.Page = 1
		a.applyQuery()
	case actionPrevPage:
		if a.page.HasPrev() {
			a.query.Page = a.page.Number - 1
			a.applyQuery()
		}
	case actionNextPage:
		if a.page.HasNext() {
			a.query.Page = a.page.Number + 1
			a.applyQuery()
		}
	case actionUp:
		if a.cursor > 0 {
			a.cursor--
		}
	case actionDown:
		if a.cursor < len(a.page.Items)-1 {
			a.cursor++
		}
	case actionSelect:
		if e, ok := a.selected(); ok {
			return a, a.openDetail(e)
		}
	case actionAdd:
		if e, ok := a.selected(); ok {
			return a, a.addCmd(e.Name)
		}
	case actionTeam:
		a.state = viewTeam
		a.status = ""
	case actionRandom:
		return a, a.randomCmd()
	case actionRefresh:
		a.loading = true
		a.status = ""
		return a, tea.Batch(a.spinner.Tick, a.refreshEntries())
	case actionReset:
		a.modal = modalConfirmReset
	}
	return a, nil
}

func (a *App) handleSearchKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	// no global fallback: every unbound key is text
	var action Action
	if b := a.keys.lookupInScope(normalizeKeyName(m.String()), scopeSearch); b != nil {
		action = b.Action
	}
	switch action {
	case actionQuit:
		return a, tea.Quit
	case actionConfirm, actionCancel:
		a.searching = false
		a.search.Blur()
		if action == actionCancel {
			a.search.SetValue("")
			a.query.Search = ""
			a.query.Page = 1
			a.applyQuery()
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	if v := a.search.Value(); v != a.query.Search {
		a.query.Search = v
		a.query.Page = 1
		a.applyQuery()
	}
	return a, cmd
}

func (a *App) handleDetailKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keys.Action(m.String(), scopeDetail) {
	case actionQuit:
		return a, tea.Quit
	case actionBack:
		a.state = viewList
		a.detail, a.detailErr, a.comparing = nil, nil, false
		a.status = ""
	case actionAdd:
		if a.detail != nil {
			return a, a.addCmd(a.detail.Name)
		}
	case actionCompare:
		a.comparing = !a.comparing
	case actionTeam:
		a.state = viewTeam
		a.status = ""
	}
	return a, nil
}

func (a *App) handleTeamKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keys.Action(m.String(), scopeTeam) {
	case actionQuit:
		return a, tea.Quit
	case actionBack:
		a.state = viewList
		a.status = ""
	case actionUp:
		if a.teamCursor > 0 {
			a.teamCursor--
		}
	case actionDown:
		if a.teamCursor < len(a.teamEntries())-1 {
			a.teamCursor++
		}
	case actionSelect:
		members := a.teamEntries()
		if a.teamCursor < len(members) {
			return a, a.openDetail(members[a.teamCursor])
		}
	case actionRemoveLast:
		return a, a.removeLastCmd()
	case actionClearTeam:
		a.modal = modalConfirmClear
	case actionRandom:
		return a, a.randomCmd()
	}
	return a, nil
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalTypePicker:
		// index 0 is "all types"
		switch a.keys.Action(m.String(), scopeTypePicker) {
		case actionCancel:
			a.modal = modalNone
		case actionUp:
			if a.typeCursor > 0 {
				a.typeCursor--
			}
		case actionDown:
			if a.typeCursor < len(catalog.TypeLabels) {
				a.typeCursor++
			}
		case actionSelect:
			a.modal = modalNone
			a.query.Type = ""
			if a.typeCursor > 0 {
				a.query.Type = catalog.TypeLabels[a.typeCursor-1]
			}
			a.query.Page = 1
			a.applyQuery()
		case actionQuit:
			return a, tea.Quit
		}
	case modalConfirmClear, modalConfirmReset:
		switch a.keys.Action(m.String(), scopeConfirmModal) {
		case actionConfirm:
			confirmed := a.modal
			a.modal = modalNone
			if confirmed == modalConfirmClear {
				return a, a.clearCmd()
			}
			return a, a.resetCmd()
		case actionCancel:
			a.modal = modalNone
		case actionQuit:
			return a, tea.Quit
		}
	}
	return a, nil
}

func (a *App) openDetail(e catalog.Entry) tea.Cmd {
	a.state = viewDetail
	a.detail, a.detailErr, a.comparing = nil, nil, false
	a.loading = true
	a.status = ""
	return tea.Batch(a.spinner.Tick, a.loadDetail(e))
}

// applyQuery recomputes the visible page from the cached entries.
func (a *App) applyQuery() {
	a.page = catalog.Browse(a.entries, a.query)
	a.query.Page = a.page.Number
	a.pager.SetTotalPages(a.page.Total)
	a.pager.Page = max(a.page.Number-1, 0)
	if a.cursor >= len(a.page.Items) {
		a.cursor = max(len(a.page.Items)-1, 0)
	}
}

func (a *App) selected() (catalog.Entry, bool) {
	if a.cursor < 0 || a.cursor >= len(a.page.Items) {
		return catalog.Entry{}, false
	}
	return a.page.Items[a.cursor], true
}

// teamEntries joins the team with the catalog. Members missing from the
// catalog are left out.
func (a *App) teamEntries() []catalog.Entry {
	var out []catalog.Entry
	for _, name := range a.team.List() {
		if e, ok := service.Find(a.entries, name); ok {
			out = append(out, e)
		}
	}
	return out
}

// commands
func (a *App) addCmd(name string) tea.Cmd {
	return func() tea.Msg {
		err := a.team.Add(a.ctx, name)
		if err != nil && !roster.IsWarning(err) && !errors.Is(err, roster.ErrDuplicate) && !errors.Is(err, roster.ErrFull) {
			return errMsg{err}
		}
		return teamMsg{names: a.team.List(), status: withWarning(service.AddMessage(name, err), err)}
	}
}

func (a *App) removeLastCmd() tea.Cmd {
	return func() tea.Msg {
		removed, err := a.team.RemoveLast(a.ctx)
		if errors.Is(err, roster.ErrEmpty) {
			return teamMsg{status: "Votre équipe est vide."}
		}
		if err != nil && !roster.IsWarning(err) {
			return errMsg{err}
		}
		names := a.team.List()
		return teamMsg{names: names, status: withWarning(service.RemoveMessage(removed, len(names)), err)}
	}
}

func (a *App) clearCmd() tea.Cmd {
	return func() tea.Msg {
		err := a.team.Clear(a.ctx)
		if err != nil && !roster.IsWarning(err) {
			return errMsg{err}
		}
		return teamMsg{names: []string{}, status: withWarning("Votre équipe a été vidée.", err)}
	}
}

func (a *App) randomCmd() tea.Cmd {
	size := a.cfg.Team.RandomSize
	if size <= 0 {
		size = roster.Capacity
	}
	entries := a.entries
	return func() tea.Msg {
		names, err := a.team.GenerateRandom(a.ctx, entries, size)
		if errors.Is(err, roster.ErrInsufficientCandidates) {
			return statusMsg(fmt.Sprintf("Pas assez de Pokémon pour une équipe de %d.", size))
		}
		if err != nil && !roster.IsWarning(err) {
			return errMsg{err}
		}
		return teamMsg{names: names, status: withWarning(roster.Summary(names), err)}
	}
}

func (a *App) resetCmd() tea.Cmd {
	return func() tea.Msg {
		if a.services.Maintenance == nil {
			return errMsg{fmt.Errorf("maintenance not configured")}
		}
		if err := a.services.Maintenance.Reset(a.ctx); err != nil {
			return errMsg{err}
		}
		return teamMsg{names: []string{}, status: "données effacées, catalogue à recharger [r]"}
	}
}

// withWarning appends the persistence failure, if any, to msg.
func withWarning(msg string, err error) string {
	if !errors.Is(err, roster.ErrPersistenceWriteFailed) {
		return msg
	}
	return msg + " (sauvegarde impossible : " + err.Error() + ")"
}

func nextSort(s catalog.SortOrder) catalog.SortOrder {
	switch s {
	case catalog.SortNone:
		return catalog.SortAsc
	case catalog.SortAsc:
		return catalog.SortDesc
	default:
		return catalog.SortNone
	}
}

type entriesMsg []catalog.Entry

type detailMsg struct {
	detail catalog.Detail
	err    error
}

// teamMsg reports a team change; names is nil when the team did not change.
type teamMsg struct {
	names  []string
	status string
}

type statusMsg string

type errMsg struct{ error }

func sortLabel(s catalog.SortOrder) string {
	switch s {
	case catalog.SortAsc:
		return "A→Z"
	case catalog.SortDesc:
		return "Z→A"
	default:
		return "n° Pokédex"
	}
}

func typeFilterLabel(t string) string {
	if strings.TrimSpace(t) == "" {
		return "tous"
	}
	return t
}

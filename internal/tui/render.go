package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/roster"
	"github.com/jask/pokedex/internal/service"
)

// styles
var (
	titleStyle     = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorOverlay1)
	currentStyle   = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	cursorStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	memberStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	barStyle       = lipgloss.NewStyle().Foreground(colorSuccess)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorSurface1)
	upStyle        = lipgloss.NewStyle().Foreground(colorSuccess)
	downStyle      = lipgloss.NewStyle().Foreground(colorError)
	footerStyle    = lipgloss.NewStyle().Foreground(colorSubtext0).Background(colorMantle).Padding(0, 2)
	statusBarStyle = lipgloss.NewStyle().Foreground(colorText)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	helpKeyStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	helpDescStyle  = lipgloss.NewStyle().Foreground(colorSubtext0)
	modalStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFocus).Padding(0, 1)
)

const (
	barWidth  = 20
	nameWidth = 14
)

func (a *App) renderList() string {
	out := titleStyle.Render("Pokédex") + "\n"
	if a.searching || a.query.Search != "" {
		out += a.search.View() + "\n"
	}
	out += mutedStyle.Render(fmt.Sprintf("Type : %s  Tri : %s  Équipe : %d/%d", typeFilterLabel(a.query.Type), sortLabel(a.query.Sort), a.team.Len(), roster.Capacity)) + "\n"

	if a.loading && len(a.entries) == 0 {
		out += a.spinner.View() + " chargement du Pokédex...\n"
	}
	for i, e := range a.page.Items {
		marker := " "
		if i == a.cursor {
			marker = cursorStyle.Render("▶")
		}
		member := ""
		if a.team.Contains(e.Name) {
			member = memberStyle.Render(" ★")
		}
		out += fmt.Sprintf("%s #%03d %s %s%s\n", marker, e.ID, padRight(e.Name, nameWidth), typeBadges(e.Types), member)
	}
	if len(a.page.Items) == 0 && !a.loading {
		out += "Aucun Pokémon trouvé.\n"
		if len(a.page.Suggestions) > 0 {
			out += "Vouliez-vous dire : " + strings.Join(a.page.Suggestions, ", ") + " ?\n"
		}
	}
	if a.page.TotalPages > 1 {
		out += fmt.Sprintf("Page %d/%d %s\n", a.page.Number, a.page.TotalPages, a.pager.View())
	}
	scope := scopeList
	if a.searching {
		scope = scopeSearch
	}
	return out + a.renderFooter(scope)
}

func (a *App) renderDetail() string {
	if a.detail == nil {
		out := titleStyle.Render("Détail") + "\n"
		if a.loading {
			out += a.spinner.View() + " chargement...\n"
		}
		return out + a.renderFooter(scopeDetail)
	}
	d := a.detail
	out := titleStyle.Render(fmt.Sprintf("#%03d %s", d.ID, d.Name)) + "\n"
	out += "Types : " + typeLabels(d.Types, d.TypeLabels) + "\n"
	out += mutedStyle.Render(d.ImageURL) + "\n\n"

	statMax := a.cfg.UI.StatMax
	for _, name := range catalog.StatNames(d.Stats) {
		v := d.Stats[name]
		out += fmt.Sprintf("%-16s %3d %s\n", name, v, statBar(catalog.StatBar(v, statMax)))
	}
	out += fmt.Sprintf("%-16s %3d\n", "total", catalog.StatTotal(d.Stats))

	if len(d.Evolutions) > 0 {
		var names []string
		for _, st := range d.Evolutions {
			if st.Slug == d.Slug {
				names = append(names, currentStyle.Render(st.Name))
			} else {
				names = append(names, st.Name)
			}
		}
		out += "\nÉvolutions : " + strings.Join(names, " → ") + "\n"
	}
	if a.detailErr != nil {
		out += mutedStyle.Render("évolutions incomplètes : "+a.detailErr.Error()) + "\n"
	}
	if a.comparing {
		out += a.renderCompare()
	}

	if a.team.Contains(d.Name) {
		out += "\n★ dans votre équipe\n"
	}
	return out + a.renderFooter(scopeDetail)
}

func (a *App) renderCompare() string {
	next, ok := service.NextEvolution(*a.detail)
	if !ok {
		return "\nPas d'évolution suivante.\n"
	}
	out := "\n" + titleStyle.Render("Comparaison avec "+next.Name) + "\n"
	deltas := catalog.CompareStats(a.detail.Stats, next.Stats)
	for _, d := range deltas {
		delta := fmt.Sprintf("%+d", d.Delta)
		switch {
		case d.Delta > 0:
			delta = upStyle.Render(delta)
		case d.Delta < 0:
			delta = downStyle.Render(delta)
		}
		out += fmt.Sprintf("%-16s %3d → %3d  %s\n", d.Name, d.From, d.To, delta)
	}
	return out
}

func (a *App) renderTeam() string {
	names := a.team.List()
	out := titleStyle.Render(fmt.Sprintf("Mon équipe (%d/%d)", len(names), roster.Capacity)) + "\n"
	members := a.teamEntries()
	if len(names) == 0 {
		out += roster.Summary(names) + "\n"
	}
	for i, e := range members {
		marker := " "
		if i == a.teamCursor {
			marker = cursorStyle.Render("▶")
		}
		out += fmt.Sprintf("%s %d. %s %s\n", marker, i+1, padRight(e.Name, nameWidth), typeBadges(e.Types))
	}
	if hidden := len(names) - len(members); hidden > 0 {
		out += mutedStyle.Render(fmt.Sprintf("(%d absent(s) du catalogue)", hidden)) + "\n"
	}
	return out + a.renderFooter(scopeTeam)
}

func (a *App) renderModal() string {
	var body, scope string
	switch a.modal {
	case modalTypePicker:
		scope = scopeTypePicker
		body = titleStyle.Render("Filtrer par type") + "\n"
		options := append([]string{"tous"}, catalog.TypeLabels...)
		for i, opt := range options {
			marker := " "
			if i == a.typeCursor {
				marker = cursorStyle.Render("▶")
			}
			body += fmt.Sprintf("%s %s\n", marker, opt)
		}
	case modalConfirmClear:
		scope = scopeConfirmModal
		body = titleStyle.Render("Vider l'équipe ?") + "\n"
	case modalConfirmReset:
		scope = scopeConfirmModal
		body = titleStyle.Render("Réinitialiser ?") + "\nL'équipe et le cache du catalogue seront effacés.\n"
	default:
		return ""
	}
	return modalStyle.Render(body + renderHelp(a.keys.HelpBindings(scope)))
}

// renderFooter draws the key hints of scope followed by the status line.
func (a *App) renderFooter(scope string) string {
	out := footerStyle.Render(renderHelp(a.keys.HelpBindings(scope)))
	if a.status != "" {
		style := statusBarStyle
		if strings.Contains(a.status, "sauvegarde impossible") || strings.HasPrefix(a.status, "erreur") {
			style = warningStyle
		}
		out += "\n" + style.Render(a.status)
	}
	return out
}

func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		help := b.Help()
		parts = append(parts, helpKeyStyle.Render(help.Key)+" "+helpDescStyle.Render(help.Desc))
	}
	return strings.Join(parts, "  ")
}

func typeBadges(slugs []string) string {
	parts := make([]string, 0, len(slugs))
	for _, t := range slugs {
		parts = append(parts, lipgloss.NewStyle().Foreground(TypeColor(t)).Render(t))
	}
	return strings.Join(parts, "/")
}

// typeLabels colors localized labels by the type slug at the same index.
func typeLabels(slugs, labels []string) string {
	parts := make([]string, 0, len(labels))
	for i, l := range labels {
		color := colorOverlay1
		if i < len(slugs) {
			color = TypeColor(slugs[i])
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(color).Render(l))
	}
	return strings.Join(parts, ", ")
}

func statBar(f float64) string {
	filled := int(math.Round(f * barWidth))
	return barStyle.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

// padRight pads s with spaces so its visual width equals width.
func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// fitWidth truncates every line of s to width cells. A zero width, before the
// first WindowSizeMsg, leaves s untouched.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "…")
	}
	return strings.Join(lines, "\n")
}

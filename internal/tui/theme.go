package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, https://catppuccin.com/palette
const (
	colorRosewater lipgloss.Color = "#f5e0dc"
	colorFlamingo  lipgloss.Color = "#f2cdcd"
	colorPink      lipgloss.Color = "#f5c2e7"
	colorMauve     lipgloss.Color = "#cba6f7"
	colorRed       lipgloss.Color = "#f38ba8"
	colorMaroon    lipgloss.Color = "#eba0ac"
	colorPeach     lipgloss.Color = "#fab387"
	colorYellow    lipgloss.Color = "#f9e2af"
	colorGreen     lipgloss.Color = "#a6e3a1"
	colorTeal      lipgloss.Color = "#94e2d5"
	colorSky       lipgloss.Color = "#89dceb"
	colorSapphire  lipgloss.Color = "#74c7ec"
	colorBlue      lipgloss.Color = "#89b4fa"
	colorLavender  lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface2 lipgloss.Color = "#585b70"
	colorSurface1 lipgloss.Color = "#45475a"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent  = colorPink
	colorBrand   = colorRed
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
)

// typeColors keys are the PokeAPI type slugs.
var typeColors = map[string]lipgloss.Color{
	"normal":   colorSubtext0,
	"fire":     colorPeach,
	"water":    colorBlue,
	"grass":    colorGreen,
	"electric": colorYellow,
	"ice":      colorSky,
	"fighting": colorMaroon,
	"poison":   colorMauve,
	"ground":   colorFlamingo,
	"flying":   colorLavender,
	"psychic":  colorPink,
	"bug":      colorTeal,
	"rock":     colorRosewater,
	"ghost":    colorSurface2,
	"dragon":   colorSapphire,
	"dark":     colorOverlay0,
	"steel":    colorOverlay1,
	"fairy":    colorPink,
}

// TypeColor returns the badge color for a type slug, muted for unknown types.
func TypeColor(slug string) lipgloss.Color {
	if c, ok := typeColors[slug]; ok {
		return c
	}
	return colorOverlay1
}

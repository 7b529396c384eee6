package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/comply/internal/cli/formatter"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
)

// variantFlag is a pflag.Value restricted to the known catalogue variants.
type variantFlag struct {
	value domain.CatalogueVariant
}

var _ pflag.Value = (*variantFlag)(nil)

func (f *variantFlag) String() string { return string(f.value) }

func (f *variantFlag) Set(s string) error {
	v := domain.CatalogueVariant(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		f.value = ""
		return nil
	}
	if domain.ValidCatalogueVariants[v] {
		f.value = v
		return nil
	}
	return fmt.Errorf("unknown catalogue variant %q (want branches or flow)", s)
}

func (f *variantFlag) Type() string { return "variant" }

// resolve falls back to the app default when the flag was not given.
func (f *variantFlag) resolve(app *App) domain.CatalogueVariant {
	if f.value != "" {
		return f.value
	}
	return app.DefaultVariant
}

func addVariantFlag(fs *pflag.FlagSet, f *variantFlag) {
	fs.Var(f, "variant", "Catalogue variant (branches|flow); empty lets the backend choose")
}

// orgFlag turns an empty --org into "no organisation".
func orgFlag(org string) *string {
	return domain.StrPtr(strings.TrimSpace(org))
}

func complyHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}

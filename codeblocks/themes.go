package codeblocks

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// Theme is one entry of the code theme picker. Style names the chroma
// style used to color it.
type Theme struct {
	ID    string
	Label string
	Style string
}

// DefaultTheme is selected when the page has no stored preference.
const DefaultTheme = "github-light"

// Themes is the fixed palette offered by the theme picker.
var Themes = []Theme{
	{"github-light", "GitHub Light", "github"},
	{"github-dark", "GitHub Dark", "github-dark"},
	{"rose-pine-dawn", "Rose Pine Dawn", "rose-pine-dawn"},
	{"rose-pine", "Rose Pine", "rose-pine"},
	{"rose-pine-moon", "Rose Pine Moon", "rose-pine-moon"},
	{"solarized-light", "Solarized Light", "solarized-light"},
	{"solarized-dark", "Solarized Dark", "solarized-dark"},
	{"vitesse-light", "Vitesse Light", "modus-operandi"},
	{"vitesse-dark", "Vitesse Dark", "modus-vivendi"},
	{"vitesse-black", "Vitesse Black", "native"},
	{"synthwave-84", "Synthwave '84", "paraiso-dark"},
	{"dracula", "Dracula", "dracula"},
	{"dracula-soft", "Dracula Soft", "doom-one"},
	{"everforest-light", "Everforest Light", "paraiso-light"},
	{"everforest-dark", "Everforest Dark", "vulcan"},
	{"nord", "Nord", "nord"},
	{"tokyo-night", "Tokyo Night", "tokyonight-night"},
	{"night-owl", "Night Owl", "doom-one2"},
	{"monokai", "Monokai", "monokai"},
	{"one-dark-pro", "One Dark Pro", "onedark"},
	{"one-light", "One Light", "vs"},
	{"catppuccin-latte", "Catppuccin Latte", "catppuccin-latte"},
	{"catppuccin-frappe", "Catppuccin Frappé", "catppuccin-frappe"},
	{"catppuccin-macchiato", "Catppuccin Macchiato", "catppuccin-macchiato"},
	{"catppuccin-mocha", "Catppuccin Mocha", "catppuccin-mocha"},
	{"gruvbox-light-medium", "Gruvbox Light", "gruvbox-light"},
	{"gruvbox-dark-medium", "Gruvbox Dark", "gruvbox"},
	{"material-theme-lighter", "Material Lighter", "friendly"},
	{"material-theme-darker", "Material Darker", "witchhazel"},
	{"material-theme-ocean", "Material Ocean", "base16-snazzy"},
	{"poimandres", "Poimandres", "aura-theme-dark"},
	{"slack-dark", "Slack Dark", "xcode-dark"},
	{"slack-ochin", "Slack Ochin", "tango"},
	{"min-light", "Min Light", "bw"},
	{"min-dark", "Min Dark", "average"},
}

// ThemeByID returns the palette entry with id.
func ThemeByID(id string) (Theme, bool) {
	for _, t := range Themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

var (
	themeCSSOnce sync.Once
	themeCSS     string
	themeCSSErr  error
)

// ThemeCSS returns the stylesheet for every palette theme, each scoped to
// wrappers whose data-code-theme attribute names it.
func ThemeCSS() (string, error) {
	themeCSSOnce.Do(func() {
		themeCSS, themeCSSErr = buildThemeCSS()
	})
	return themeCSS, themeCSSErr
}

func buildThemeCSS() (string, error) {
	formatter := html.New(html.WithClasses(true))
	var out strings.Builder
	for _, t := range Themes {
		var buf bytes.Buffer
		if err := formatter.WriteCSS(&buf, styles.Get(t.Style)); err != nil {
			return "", fmt.Errorf("codeblocks: css for %s: %w", t.ID, err)
		}
		scope := fmt.Sprintf(`.code-block-wrapper[data-code-theme="%s"]`, t.ID)
		fmt.Fprintf(&out, "/* %s */\n", t.Label)
		out.WriteString(scopeCSS(buf.String(), scope))
	}
	return out.String(), nil
}

var reCSSRule = regexp.MustCompile(`^(/\*.*?\*/\s*)?([^{]+?)\s*\{(.*)\}\s*$`)

// scopeCSS prefixes every selector of the one-rule-per-line css with scope.
func scopeCSS(css, scope string) string {
	var out strings.Builder
	sc := bufio.NewScanner(strings.NewReader(css))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m := reCSSRule.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		selectors := strings.Split(m[2], ",")
		for i, s := range selectors {
			selectors[i] = scope + " " + strings.TrimSpace(s)
		}
		fmt.Fprintf(&out, "%s { %s }\n", strings.Join(selectors, ", "), strings.TrimSpace(m[3]))
	}
	return out.String()
}

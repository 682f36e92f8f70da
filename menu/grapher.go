package menu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/milk9111/overworld/ecs/component"
	"github.com/sirupsen/logrus"
)

// GeneralText is the default dialog menu.
const GeneralText = "GeneralText"

// Option is one selectable line of a list menu.
type Option struct {
	Text     string
	Callback func() error
}

// Menu is an open menu: either a dialog being read or a list of options.
type Menu struct {
	Name       string
	Attributes map[string]any

	Dialog       []string
	Line         int
	onCompletion func() error

	Options  []Option
	Selected int
}

// Text returns the dialog line being shown.
func (m *Menu) Text() string {
	if m == nil || m.Line >= len(m.Dialog) {
		return ""
	}
	return m.Dialog[m.Line]
}

func (m *Menu) keepOnFinish() bool {
	v, _ := m.Attributes["keepOnFinish"].(bool)
	return v
}

// Grapher keeps the open menus and routes A/B/direction presses to the
// active one. It does no drawing.
type Grapher struct {
	menus  map[string]*Menu
	active string
	log    logrus.FieldLogger

	// Replacements substitutes %%%%%%%NAME%%%%%%% markers in dialog text.
	Replacements map[string]string
}

func NewGrapher(log logrus.FieldLogger) *Grapher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Grapher{
		menus: make(map[string]*Menu),
		log:   log,
		Replacements: map[string]string{
			"PLAYER":  "RED",
			"RIVAL":   "BLUE",
			"POKEMON": "POKéMON",
		},
	}
}

// CreateMenu opens name, replacing any menu already open under it.
func (g *Grapher) CreateMenu(name string, attrs map[string]any) {
	g.DeleteMenu(name)
	g.menus[name] = &Menu{Name: name, Attributes: attrs}
	g.log.WithField("menu", name).Debug("menu created")
}

func (g *Grapher) HasMenu(name string) bool {
	_, ok := g.menus[name]
	return ok
}

func (g *Grapher) Menu(name string) (*Menu, bool) {
	m, ok := g.menus[name]
	return m, ok
}

func (g *Grapher) DeleteMenu(name string) {
	if _, ok := g.menus[name]; !ok {
		return
	}
	delete(g.menus, name)
	if g.active == name {
		g.active = ""
	}
}

func (g *Grapher) DeleteAllMenus() {
	for name := range g.menus {
		delete(g.menus, name)
	}
	g.active = ""
}

// Names lists open menus in sorted order.
func (g *Grapher) Names() []string {
	out := make([]string, 0, len(g.menus))
	for name := range g.menus {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddMenuDialog shows dialog in name and calls onCompletion once the last
// line is acknowledged.
func (g *Grapher) AddMenuDialog(name string, dialog []string, onCompletion func() error) {
	m, ok := g.menus[name]
	if !ok {
		m = &Menu{Name: name}
		g.menus[name] = m
	}
	m.Dialog = make([]string, 0, len(dialog))
	for _, line := range dialog {
		m.Dialog = append(m.Dialog, g.replace(line))
	}
	m.Line = 0
	m.onCompletion = onCompletion
}

func (g *Grapher) AddMenuList(name string, options []Option) {
	m, ok := g.menus[name]
	if !ok {
		m = &Menu{Name: name}
		g.menus[name] = m
	}
	m.Options = append([]Option(nil), options...)
	m.Selected = 0
}

func (g *Grapher) SetActiveMenu(name string) {
	if _, ok := g.menus[name]; !ok {
		g.log.WithField("menu", name).Warn("activating a menu that is not open")
		return
	}
	g.active = name
}

// ActiveMenu returns the name of the active menu, or "".
func (g *Grapher) ActiveMenu() string {
	return g.active
}

func (g *Grapher) RegisterDirection(d component.Direction) error {
	m, ok := g.menus[g.active]
	if !ok || len(m.Options) == 0 {
		return nil
	}
	switch d {
	case component.Top:
		if m.Selected > 0 {
			m.Selected--
		}
	case component.Bottom:
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	}
	return nil
}

// RegisterA selects the highlighted option or advances the dialog.
func (g *Grapher) RegisterA() error {
	m, ok := g.menus[g.active]
	if !ok {
		return nil
	}
	if len(m.Options) > 0 {
		opt := m.Options[m.Selected]
		if opt.Callback == nil {
			return nil
		}
		if err := opt.Callback(); err != nil {
			return fmt.Errorf("menu %s option %q: %w", m.Name, opt.Text, err)
		}
		return nil
	}
	return g.advance(m)
}

// RegisterB closes a list or advances a dialog.
func (g *Grapher) RegisterB() error {
	m, ok := g.menus[g.active]
	if !ok {
		return nil
	}
	if len(m.Options) > 0 {
		g.DeleteMenu(m.Name)
		return nil
	}
	return g.advance(m)
}

func (g *Grapher) advance(m *Menu) error {
	if m.Line < len(m.Dialog)-1 {
		m.Line++
		return nil
	}
	done := m.onCompletion
	m.onCompletion = nil
	if !m.keepOnFinish() {
		g.DeleteMenu(m.Name)
	}
	if done == nil {
		return nil
	}
	if err := done(); err != nil {
		return fmt.Errorf("menu %s dialog completion: %w", m.Name, err)
	}
	return nil
}

func (g *Grapher) replace(line string) string {
	for key, value := range g.Replacements {
		line = strings.ReplaceAll(line, "%%%%%%%"+key+"%%%%%%%", value)
	}
	return line
}

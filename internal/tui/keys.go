package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/jask/pokedex/internal/config"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scopes []string
}

// KeyRegistry resolves key presses to actions per scope, falling back to the
// global scope.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal       = "global"
	scopeList         = "list"
	scopeSearch       = "search"
	scopeDetail       = "detail"
	scopeTeam         = "team"
	scopeTypePicker   = "type_picker"
	scopeConfirmModal = "confirm_modal"
)

const (
	actionQuit       Action = "quit"
	actionUp         Action = "up"
	actionDown       Action = "down"
	actionPrevPage   Action = "prev_page"
	actionNextPage   Action = "next_page"
	actionSelect     Action = "select"
	actionBack       Action = "back"
	actionSearch     Action = "search"
	actionFilterType Action = "filter_type"
	actionSort       Action = "sort"
	actionAdd        Action = "add"
	actionTeam       Action = "team"
	actionRandom     Action = "random"
	actionRefresh    Action = "refresh"
	actionReset      Action = "reset"
	actionCompare    Action = "compare"
	actionRemoveLast Action = "remove_last"
	actionClearTeam  Action = "clear_team"
	actionConfirm    Action = "confirm"
	actionCancel     Action = "cancel"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scopes: []string{scope}})
	}

	// Global fallback lookup.
	reg(scopeGlobal, actionQuit, []string{"q", "ctrl+c"}, "quitter")

	reg(scopeList, actionUp, []string{"k", "up"}, "")
	reg(scopeList, actionDown, []string{"j", "down"}, "")
	reg(scopeList, actionSelect, []string{"enter"}, "détail")
	reg(scopeList, actionSearch, []string{"/"}, "rechercher")
	reg(scopeList, actionFilterType, []string{"f"}, "type")
	reg(scopeList, actionSort, []string{"s"}, "tri")
	reg(scopeList, actionPrevPage, []string{"h", "left"}, "page préc.")
	reg(scopeList, actionNextPage, []string{"l", "right"}, "page suiv.")
	reg(scopeList, actionAdd, []string{"a"}, "ajouter")
	reg(scopeList, actionTeam, []string{"e"}, "équipe")
	reg(scopeList, actionRandom, []string{"R"}, "équipe aléatoire")
	reg(scopeList, actionRefresh, []string{"r"}, "recharger")
	reg(scopeList, actionReset, []string{"x"}, "réinitialiser")
	reg(scopeList, actionQuit, []string{"q", "ctrl+c"}, "quitter")

	// Search only reserves its exits; every other key goes to the input.
	reg(scopeSearch, actionConfirm, []string{"enter"}, "valider")
	reg(scopeSearch, actionCancel, []string{"esc"}, "effacer")
	reg(scopeSearch, actionQuit, []string{"ctrl+c"}, "quitter")

	reg(scopeDetail, actionAdd, []string{"a"}, "ajouter")
	reg(scopeDetail, actionCompare, []string{"c"}, "comparer")
	reg(scopeDetail, actionTeam, []string{"e"}, "équipe")
	reg(scopeDetail, actionBack, []string{"esc", "backspace"}, "retour")
	reg(scopeDetail, actionQuit, []string{"q", "ctrl+c"}, "quitter")

	reg(scopeTeam, actionUp, []string{"k", "up"}, "")
	reg(scopeTeam, actionDown, []string{"j", "down"}, "")
	reg(scopeTeam, actionSelect, []string{"enter"}, "détail")
	reg(scopeTeam, actionRemoveLast, []string{"d"}, "retirer le dernier")
	reg(scopeTeam, actionClearTeam, []string{"C"}, "vider")
	reg(scopeTeam, actionRandom, []string{"R"}, "aléatoire")
	reg(scopeTeam, actionBack, []string{"esc", "backspace"}, "retour")
	reg(scopeTeam, actionQuit, []string{"q", "ctrl+c"}, "quitter")

	reg(scopeTypePicker, actionUp, []string{"k", "up"}, "")
	reg(scopeTypePicker, actionDown, []string{"j", "down"}, "")
	reg(scopeTypePicker, actionSelect, []string{"enter"}, "choisir")
	reg(scopeTypePicker, actionCancel, []string{"esc"}, "annuler")

	reg(scopeConfirmModal, actionConfirm, []string{"y"}, "oui")
	reg(scopeConfirmModal, actionCancel, []string{"n", "esc"}, "non")

	return r
}

func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	for _, scope := range b.Scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" || len(b.Keys) == 0 {
			continue
		}
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*Binding)
		}
		normKeys := normalizeKeyList(b.Keys)
		if len(normKeys) == 0 || r.scopeHasAnyKey(scope, normKeys) {
			continue
		}

		copyBinding := b
		copyBinding.Keys = normKeys
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range copyBinding.Keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

// Lookup finds the binding for keyName in scope, then in the global scope.
func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.lookupInScope(keyName, scope); b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.lookupInScope(keyName, scopeGlobal)
	}
	return nil
}

// Action is Lookup reduced to the action name, "" when unbound.
func (r *KeyRegistry) Action(keyName, scope string) Action {
	if b := r.Lookup(keyName, scope); b != nil {
		return b.Action
	}
	return ""
}

// HelpBindings returns the footer hints of scope. Bindings without help text
// are left out.
func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.bindingsByScope[scope]
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		if b.Help == "" {
			continue
		}
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

// ApplyKeybindingConfig replaces the keys of existing bindings. Unknown scopes
// or actions, empty key lists and conflicts within a scope are errors; the
// registry is left unchanged on error.
func (r *KeyRegistry) ApplyKeybindingConfig(items []config.KeybindingConfig) error {
	if r == nil || len(items) == 0 {
		return nil
	}
	type pair struct {
		scope  string
		action Action
	}
	pending := make(map[pair][]string, len(items))
	for _, o := range items {
		scope := strings.TrimSpace(o.Scope)
		if scope == "" {
			return fmt.Errorf("keybinding override: scope is required")
		}
		action := Action(strings.TrimSpace(o.Action))
		if action == "" {
			return fmt.Errorf("keybinding override scope=%q: action is required", scope)
		}
		keys := normalizeKeyList(o.Keys)
		if len(keys) == 0 {
			return fmt.Errorf("keybinding override scope=%q action=%q: keys are required", scope, action)
		}
		if r.find(scope, action) == nil {
			return fmt.Errorf("keybinding override scope=%q action=%q: unknown binding", scope, action)
		}
		p := pair{scope: scope, action: action}
		if _, dup := pending[p]; dup {
			return fmt.Errorf("keybinding override scope=%q action=%q: duplicated entry", scope, action)
		}
		pending[p] = keys
	}

	for scope, bindings := range r.bindingsByScope {
		seen := make(map[string]Action)
		for _, b := range bindings {
			keys := b.Keys
			if override, ok := pending[pair{scope, b.Action}]; ok {
				keys = override
			}
			for _, k := range keys {
				if prev, ok := seen[k]; ok {
					return fmt.Errorf("keybinding override conflict in scope=%q: key %q used by both %q and %q", scope, k, prev, b.Action)
				}
				seen[k] = b.Action
			}
		}
	}

	for p, keys := range pending {
		r.find(p.scope, p.action).Keys = keys
	}
	r.rebuildIndex()
	return nil
}

func (r *KeyRegistry) find(scope string, action Action) *Binding {
	for _, b := range r.bindingsByScope[scope] {
		if b.Action == action {
			return b
		}
	}
	return nil
}

func (r *KeyRegistry) lookupInScope(keyName, scope string) *Binding {
	lookup, ok := r.indexByScope[scope]
	if !ok {
		return nil
	}
	return lookup[keyName]
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	lookup := r.indexByScope[scope]
	for _, k := range keys {
		if _, exists := lookup[k]; exists {
			return true
		}
	}
	return false
}

func (r *KeyRegistry) rebuildIndex() {
	r.indexByScope = make(map[string]map[string]*Binding, len(r.bindingsByScope))
	for scope, bindings := range r.bindingsByScope {
		r.indexByScope[scope] = make(map[string]*Binding)
		for _, b := range bindings {
			for _, k := range b.Keys {
				r.indexByScope[scope][k] = b
			}
		}
	}
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 1 {
		ch := trimmed[0]
		if ch >= 'A' && ch <= 'Z' {
			// uppercase and lowercase are distinct bindings
			return trimmed
		}
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	s = strings.ReplaceAll(s, "spacebar", "space")
	return s
}

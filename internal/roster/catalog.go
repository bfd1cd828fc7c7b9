package roster

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/pokemon-chess-battle/internal/battle"
)

//go:embed roster.yaml
var defaultFiles embed.FS

var (
	sides = []battle.Color{battle.White, battle.Black}
	kinds = []battle.PieceKind{battle.King, battle.Queen, battle.Rook, battle.Bishop, battle.Knight, battle.Pawn}

	requiredKeys = []string{
		"terms.check", "terms.checkmate", "terms.capture", "terms.move", "terms.turn", "terms.game_over",
		"notation.move", "notation.capture", "notation.evolution",
		"headline.active", "headline.capture", "headline.check", "headline.checkmate",
		"headline.stalemate", "headline.promotion",
	}
)

// Pokemon is the creature standing in for one piece.
type Pokemon struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Catalog holds the roster and battle wording loaded from the embedded
// defaults plus an optional override directory. Templates are rendered
// with text/template; missing keys are errors.
type Catalog struct {
	mu   sync.RWMutex
	data map[string]string // flattened dot-keys → text
}

// New loads the embedded roster and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{data: make(map[string]string)}
	if err := c.loadEmbedded(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the embedded roster. It panics only if the embedded file is broken.
func Default() *Catalog {
	c, err := New("")
	if err != nil {
		panic(fmt.Sprintf("roster: embedded defaults: %v", err))
	}
	return c
}

func (c *Catalog) loadEmbedded() error {
	raw, err := fs.ReadFile(defaultFiles, "roster.yaml")
	if err != nil {
		return fmt.Errorf("read embedded roster: %w", err)
	}
	flat, err := parseYAMLToFlat(raw)
	if err != nil {
		return fmt.Errorf("parse embedded roster: %w", err)
	}
	c.apply(flat)
	return nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read roster dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	seen := make(map[string]string) // key -> filename
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := parseYAMLToFlat(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.apply(flat)
	}
	return nil
}

func (c *Catalog) apply(flat map[string]string) {
	c.mu.Lock()
	for k, v := range flat {
		c.data[k] = v
	}
	c.mu.Unlock()
}

func (c *Catalog) validate() error {
	var missing []string
	for _, side := range sides {
		for _, kind := range kinds {
			for _, field := range []string{"name", "type"} {
				if k := pieceKey(side, kind, field); strings.TrimSpace(c.get(k)) == "" {
					missing = append(missing, k)
				}
			}
		}
	}
	for _, k := range requiredKeys {
		if strings.TrimSpace(c.get(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("roster is missing keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	if err := flattenStrings(m, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenStrings(vv, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		// Only string leaves
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

func pieceKey(side battle.Color, kind battle.PieceKind, field string) string {
	return "pieces." + side.String() + "." + kind.String() + "." + field
}

func (c *Catalog) get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[key]
}

// Lookup returns the raw text stored under key.
func (c *Catalog) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[strings.TrimSpace(key)]
	return v, ok
}

// Render executes a template by key with the provided data.
func (c *Catalog) Render(key string, data any) (string, error) {
	tpl, ok := c.Lookup(key)
	if !ok || strings.TrimSpace(tpl) == "" {
		return "", fmt.Errorf("template not found: %s", key)
	}
	t, err := template.New(key).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Pokemon returns the creature standing in for p.
func (c *Catalog) Pokemon(p battle.Piece) Pokemon {
	return Pokemon{
		Name: c.get(pieceKey(p.Color, p.Kind, "name")),
		Type: c.get(pieceKey(p.Color, p.Kind, "type")),
	}
}

// Term returns a battle term such as "check" or "capture".
func (c *Catalog) Term(name string) string { return c.get("terms." + name) }

func (c *Catalog) terms() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string)
	for k, v := range c.data {
		if name, ok := strings.CutPrefix(k, "terms."); ok {
			out[name] = v
		}
	}
	return out
}

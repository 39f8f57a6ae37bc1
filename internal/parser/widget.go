// Package parser reads widget definitions from YAML files or from Markdown
// documents carrying the definition as YAML frontmatter.
package parser

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/relation"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoYAML []byte

// Definition is the file form of a widget configuration.
type Definition struct {
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	DimOpacity  *float64 `yaml:"dim_opacity,omitempty" json:"dim_opacity,omitempty"`
	Opacity     *float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"` // Legacy percentage (0-100)
	Strict      *bool    `yaml:"strict,omitempty" json:"strict,omitempty"`
	Set1        SetDef   `yaml:"set1" json:"set1"`
	Set2        SetDef   `yaml:"set2" json:"set2"`
	Links       [][]int  `yaml:"links" json:"links"`
}

// SetDef is the file form of one item set.
type SetDef struct {
	Name      string    `yaml:"name,omitempty" json:"name,omitempty"`
	Images    string    `yaml:"images,omitempty" json:"images,omitempty"`
	ImageSize []int     `yaml:"image_size,omitempty" json:"image_size,omitempty"` // [width, height]
	Items     []ItemDef `yaml:"items" json:"items"`
}

// ItemDef is one item. In YAML a bare string is shorthand for a label.
type ItemDef struct {
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	ImageIndex  *int   `yaml:"image_index,omitempty" json:"image_index,omitempty"`
}

// UnmarshalYAML accepts either a scalar label or a mapping. Unknown mapping
// keys are rejected like unknown top-level keys.
func (d *ItemDef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Label = value.Value
		return nil
	}
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			switch key.Value {
			case "label", "description", "image_index":
			default:
				return fmt.Errorf("line %d: unknown item field %q", key.Line, key.Value)
			}
		}
	}
	type plain ItemDef
	return value.Decode((*plain)(d))
}

// ParseWidget decodes a YAML widget definition into a widget config.
func ParseWidget(data []byte) (highlight.Config, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return highlight.Config{}, fmt.Errorf("%w: parse widget: %v", models.ErrInvalidConfiguration, err)
	}
	return def.Config()
}

// ParseWidgetMarkdown reads a Markdown document whose frontmatter holds the
// widget definition. Without a description in the frontmatter the first
// heading of the body is used.
func ParseWidgetMarkdown(content string) (highlight.Config, error) {
	frontmatter, body, ok := splitFrontmatter(content)
	if !ok {
		return highlight.Config{}, fmt.Errorf("%w: markdown widget has no frontmatter", models.ErrInvalidConfiguration)
	}

	cfg, err := ParseWidget([]byte(frontmatter))
	if err != nil {
		return highlight.Config{}, err
	}
	if cfg.Description == "" {
		cfg.Description = firstHeading(body)
	}
	return cfg, nil
}

// LoadWidget reads a widget definition from path. Files ending in .md are
// read as Markdown with frontmatter, everything else as YAML.
func LoadWidget(path string) (highlight.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return highlight.Config{}, fmt.Errorf("read widget file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return ParseWidgetMarkdown(string(data))
	default:
		return ParseWidget(data)
	}
}

// DemoWidget returns the built-in numbers example.
func DemoWidget() highlight.Config {
	cfg, err := ParseWidget(demoYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded demo widget: %v", err))
	}
	return cfg
}

// Config converts the definition, resolving every item's sprite cell.
func (d Definition) Config() (highlight.Config, error) {
	if d.Opacity != nil && d.DimOpacity != nil {
		return highlight.Config{}, fmt.Errorf("%w: both opacity and dim_opacity given", models.ErrInvalidConfiguration)
	}

	setA, err := d.Set1.itemSet("set1")
	if err != nil {
		return highlight.Config{}, err
	}
	setB, err := d.Set2.itemSet("set2")
	if err != nil {
		return highlight.Config{}, err
	}

	links := make([]models.Link, 0, len(d.Links))
	for i, pair := range d.Links {
		if len(pair) != 2 {
			return highlight.Config{}, fmt.Errorf("%w: link %d must be a pair of indices, got %v",
				models.ErrInvalidConfiguration, i, pair)
		}
		links = append(links, models.Link{A: pair[0], B: pair[1]})
	}

	cfg := highlight.Config{
		SetA:        setA,
		SetB:        setB,
		Links:       links,
		Description: d.Description,
		DimOpacity:  d.DimOpacity,
	}
	if d.Opacity != nil {
		v := *d.Opacity / 100
		cfg.DimOpacity = &v
	}
	if d.Strict != nil && !*d.Strict {
		cfg.Mode = relation.ModePermissive
	}

	if err := cfg.Validate(); err != nil {
		return highlight.Config{}, err
	}
	return cfg, nil
}

func (s SetDef) itemSet(name string) (models.ItemSet, error) {
	set := models.ItemSet{
		Name:   s.Name,
		Images: s.Images,
		Items:  make([]models.Item, len(s.Items)),
	}
	if set.Name == "" {
		set.Name = name
	}

	switch len(s.ImageSize) {
	case 0:
	case 2:
		set.ImageSize = models.Size{Width: s.ImageSize[0], Height: s.ImageSize[1]}
	default:
		return models.ItemSet{}, fmt.Errorf("%w: %s image_size must be [width, height]", models.ErrInvalidConfiguration, name)
	}

	for i, item := range s.Items {
		iconIndex := i
		if item.ImageIndex != nil {
			iconIndex = *item.ImageIndex
		}
		set.Items[i] = models.Item{
			Label:       item.Label,
			Description: item.Description,
			IconIndex:   iconIndex,
		}
	}
	return set, nil
}

// FromConfig converts a widget config back into its file form.
func FromConfig(cfg highlight.Config) Definition {
	def := Definition{
		Description: cfg.Description,
		DimOpacity:  cfg.DimOpacity,
		Set1:        setDef(cfg.SetA),
		Set2:        setDef(cfg.SetB),
		Links:       make([][]int, len(cfg.Links)),
	}
	if cfg.Mode == relation.ModePermissive {
		strict := false
		def.Strict = &strict
	}
	for i, l := range cfg.Links {
		def.Links[i] = []int{l.A, l.B}
	}
	return def
}

func setDef(set models.ItemSet) SetDef {
	def := SetDef{
		Name:   set.Name,
		Images: set.Images,
		Items:  make([]ItemDef, len(set.Items)),
	}
	if set.ImageSize != (models.Size{}) {
		def.ImageSize = []int{set.ImageSize.Width, set.ImageSize.Height}
	}
	for i, item := range set.Items {
		iconIndex := item.IconIndex
		def.Items[i] = ItemDef{
			Label:       item.Label,
			Description: item.Description,
			ImageIndex:  &iconIndex,
		}
	}
	return def
}

// splitFrontmatter separates a leading "---" YAML block from the body.
func splitFrontmatter(content string) (frontmatter, body string, ok bool) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return "", content, false
	}
	endIdx := strings.Index(content[4:], "\n---")
	if endIdx < 0 {
		return "", content, false
	}
	frontmatter = content[4 : 4+endIdx]
	body = strings.TrimPrefix(content[4+endIdx+4:], "\n")
	return frontmatter, body, true
}

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

func firstHeading(body string) string {
	if m := h1Regex.FindStringSubmatch(body); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

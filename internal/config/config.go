// Package config loads marquee.yml, the site-level settings for timelines,
// navigation, animation, and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dusk-indust/marquee/internal/sitedata"
	"github.com/dusk-indust/marquee/internal/timeline"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoPages            = errors.New("config: no pages configured")
	ErrUnknownDefaultPage = errors.New("config: defaultPage is not a configured page")
	ErrAmbiguousPage      = errors.New("config: page sets both stages and chains")
	ErrNegativeDuration   = errors.New("config: negative duration")
)

// FileNames are the names Load looks for, in order.
var FileNames = []string{"marquee.yml", "marquee.yaml"}

// Duration is a time.Duration that reads from YAML as "750ms"/"2s" or as an
// integer number of milliseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: line %d: duration must be a scalar", n.Line)
	}
	raw := strings.TrimSpace(n.Value)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// PageTimeline describes the stages of one page type. Stages is a single
// chain; Chains lists independent chains.
type PageTimeline struct {
	Stages []string   `yaml:"stages,omitempty"`
	Chains [][]string `yaml:"chains,omitempty"`
}

// Animation holds the transition timing handed to consumers.
type Animation struct {
	Duration Duration            `yaml:"duration,omitempty"`
	Easing   string              `yaml:"easing,omitempty"`
	Stages   map[string]Duration `yaml:"stages,omitempty"`
}

// SiteConfig holds the site settings loaded from marquee.yml.
type SiteConfig struct {
	StageTimeout Duration                `yaml:"stageTimeout,omitempty"`
	// GraceDelay keeps the navigation guard held after a route change. An
	// explicit 0 releases it at once; leaving it out uses the default.
	GraceDelay   *Duration               `yaml:"graceDelay,omitempty"`
	Animation    Animation               `yaml:"animation,omitempty"`
	LogLevel     string                  `yaml:"logLevel,omitempty"`
	LogFormat    string                  `yaml:"logFormat,omitempty"`
	ContentDir   string                  `yaml:"contentDir,omitempty"`
	DefaultPage  string                  `yaml:"defaultPage,omitempty"`
	Pages        map[string]PageTimeline `yaml:"pages,omitempty"`
}

// Load reads marquee.yml or marquee.yaml from dir. When neither exists it
// returns the defaults rather than an error.
func Load(dir string) (*SiteConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return cfg, nil
	}
	return Default(), nil
}

// Parse decodes data, fills unset fields from the defaults, and validates.
func Parse(data []byte) (*SiteConfig, error) {
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.fill(Default()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the embedded default configuration.
func Default() *SiteConfig {
	var cfg SiteConfig
	if err := yaml.Unmarshal(sitedata.DefaultConfig, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded default is invalid: %v", err))
	}
	return &cfg
}

func (c *SiteConfig) fill(def *SiteConfig) error {
	if c.StageTimeout == 0 {
		c.StageTimeout = def.StageTimeout
	}
	if c.GraceDelay == nil {
		c.GraceDelay = def.GraceDelay
	}
	if c.Animation.Duration == 0 {
		c.Animation.Duration = def.Animation.Duration
	}
	if c.Animation.Easing == "" {
		c.Animation.Easing = def.Animation.Easing
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if c.ContentDir == "" {
		c.ContentDir = def.ContentDir
	}
	if len(c.Pages) == 0 {
		c.Pages = def.Pages
		if c.DefaultPage == "" {
			c.DefaultPage = def.DefaultPage
		}
	}
	if c.DefaultPage == "" {
		names := c.PageTypes()
		if len(names) > 0 {
			c.DefaultPage = names[0]
		}
	}
	return nil
}

// Validate checks that the configuration can build timelines.
func (c *SiteConfig) Validate() error {
	if len(c.Pages) == 0 {
		return ErrNoPages
	}
	if _, ok := c.Pages[c.DefaultPage]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDefaultPage, c.DefaultPage)
	}
	for name, d := range map[string]Duration{
		"stageTimeout":       c.StageTimeout,
		"graceDelay":         Duration(c.Grace()),
		"animation.duration": c.Animation.Duration,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeDuration, name)
		}
	}
	for id, d := range c.Animation.Stages {
		if d < 0 {
			return fmt.Errorf("%w: animation.stages.%s", ErrNegativeDuration, id)
		}
	}
	_, err := c.Timelines()
	return err
}

// Grace returns the configured grace delay, or 0 when none is set.
func (c *SiteConfig) Grace() time.Duration {
	if c.GraceDelay == nil {
		return 0
	}
	return c.GraceDelay.Std()
}

// PageTypes returns the configured page types, sorted.
func (c *SiteConfig) PageTypes() []string {
	names := make([]string, 0, len(c.Pages))
	for name := range c.Pages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Timelines builds one timeline.Configuration per page type.
func (c *SiteConfig) Timelines() (map[string]*timeline.Configuration, error) {
	out := make(map[string]*timeline.Configuration, len(c.Pages))
	for _, name := range c.PageTypes() {
		pt := c.Pages[name]
		if len(pt.Stages) > 0 && len(pt.Chains) > 0 {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguousPage, name)
		}

		var chains []timeline.Chain
		if len(pt.Stages) > 0 {
			chains = append(chains, toChain(pt.Stages))
		}
		for _, ch := range pt.Chains {
			chains = append(chains, toChain(ch))
		}

		cfg, err := timeline.NewConfiguration(name, chains...)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		out[name] = cfg
	}
	return out, nil
}

// StageDuration returns the animation duration for stage id.
func (c *SiteConfig) StageDuration(id timeline.StageID) time.Duration {
	if d, ok := c.Animation.Stages[string(id)]; ok {
		return d.Std()
	}
	return c.Animation.Duration.Std()
}

// Marshal renders the configuration as YAML.
func (c *SiteConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func toChain(ids []string) timeline.Chain {
	ch := make(timeline.Chain, len(ids))
	for i, id := range ids {
		ch[i] = timeline.StageID(id)
	}
	return ch
}

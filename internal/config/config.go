package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CanvasNotionSync/internal/domain"
)

const (
	defaultTimezone = "UTC"
	defaultDBTitle  = "Canvas Course - Track Assignments"

	configPathEnv       = "CANVAS_SYNC_CONFIG"
	canvasBaseURLEnv    = "CANVAS_BASE_URL"
	canvasTokenEnv      = "CANVAS_API_TOKEN"
	canvasCourseIDsEnv  = "CANVAS_COURSE_IDS"
	notionTokenEnv      = "NOTION_API_KEY"
	notionParentPageEnv = "NOTION_PARENT_PAGE_ID"
	notionDBTitleEnv    = "NOTION_DB_TITLE"
)

// dateLayout is the format for window bounds in config.
const dateLayout = "2006-01-02"

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Canvas    CanvasConfig    `yaml:"canvas"`
	Notion    NotionConfig    `yaml:"notion"`
	Window    WindowConfig    `yaml:"window"`
	Sync      SyncConfig      `yaml:"sync"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CanvasConfig describes the Canvas API connection and the optional
// course allow-list. An empty list means all active courses.
type CanvasConfig struct {
	BaseURL   string   `yaml:"baseUrl"`
	Token     string   `yaml:"token"`
	CourseIDs []string `yaml:"courseIds"`
}

// NotionConfig locates the parent page and names the target database.
type NotionConfig struct {
	Token         string `yaml:"token"`
	ParentPageID  string `yaml:"parentPageId"`
	DatabaseTitle string `yaml:"databaseTitle"`
}

// WindowConfig carries due-date window bounds as plain dates.
type WindowConfig struct {
	Start          string `yaml:"start"`
	End            string `yaml:"end"`
	IncludeUndated bool   `yaml:"includeUndated"`
}

// Window parses the bounds into a domain value. The end bound covers
// the whole end day so that dates compare inclusively.
func (w WindowConfig) Window() (domain.SyncWindow, error) {
	window := domain.SyncWindow{IncludeUndated: w.IncludeUndated}

	if w.Start != "" {
		start, err := time.ParseInLocation(dateLayout, w.Start, time.UTC)
		if err != nil {
			return domain.SyncWindow{}, fmt.Errorf("window start %q: %w", w.Start, err)
		}
		window.Start = &start
	}

	if w.End != "" {
		end, err := time.ParseInLocation(dateLayout, w.End, time.UTC)
		if err != nil {
			return domain.SyncWindow{}, fmt.Errorf("window end %q: %w", w.End, err)
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		window.End = &end
	}

	return window, nil
}

// SyncConfig tunes write concurrency and the in-progress heuristic.
type SyncConfig struct {
	WriteConcurrency int      `yaml:"writeConcurrency"`
	InProgressStates []string `yaml:"inProgressStates"`
}

// Scheduler modes: "once" performs a single run and exits, matching an
// externally scheduled trigger; "interval" keeps re-running in-process.
const (
	ModeOnce     = "once"
	ModeInterval = "interval"
)

// SchedulerConfig defines when sync runs execute.
type SchedulerConfig struct {
	Mode     string         `yaml:"mode"`
	Interval string         `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// RunOnce reports whether the application should exit after one run.
func (s SchedulerConfig) RunOnce() bool {
	return s.Mode != ModeInterval
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// IntervalDuration parses the interval string, defaulting to daily.
func (s SchedulerConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file is honored when one exists.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate checks required connection values and the window before any
// network call is made.
func (c Config) Validate() error {
	if c.Canvas.BaseURL == "" {
		return errors.New("canvas base url is required")
	}
	if c.Canvas.Token == "" {
		return errors.New("canvas api token is required")
	}
	if c.Notion.Token == "" {
		return errors.New("notion api token is required")
	}
	if c.Notion.ParentPageID == "" {
		return errors.New("notion parent page id is required")
	}
	if c.Notion.DatabaseTitle == "" {
		return errors.New("notion database title is required")
	}

	window, err := c.Window.Window()
	if err != nil {
		return err
	}
	if err := window.Validate(); err != nil {
		return err
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(canvasBaseURLEnv); v != "" {
		c.Canvas.BaseURL = v
	}

	if v := os.Getenv(canvasTokenEnv); v != "" {
		c.Canvas.Token = v
	}

	if v := os.Getenv(canvasCourseIDsEnv); v != "" {
		c.Canvas.CourseIDs = splitCourseIDs(v)
	}

	if v := os.Getenv(notionTokenEnv); v != "" {
		c.Notion.Token = v
	}

	if v := os.Getenv(notionParentPageEnv); v != "" {
		c.Notion.ParentPageID = v
	}

	if v := os.Getenv(notionDBTitleEnv); v != "" {
		c.Notion.DatabaseTitle = v
	}
}

func splitCourseIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Canvas.BaseURL != "" {
		base.Canvas.BaseURL = override.Canvas.BaseURL
	}
	if override.Canvas.Token != "" {
		base.Canvas.Token = override.Canvas.Token
	}
	if len(override.Canvas.CourseIDs) > 0 {
		base.Canvas.CourseIDs = override.Canvas.CourseIDs
	}

	if override.Notion.Token != "" {
		base.Notion.Token = override.Notion.Token
	}
	if override.Notion.ParentPageID != "" {
		base.Notion.ParentPageID = override.Notion.ParentPageID
	}
	if override.Notion.DatabaseTitle != "" {
		base.Notion.DatabaseTitle = override.Notion.DatabaseTitle
	}

	if override.Window.Start != "" {
		base.Window.Start = override.Window.Start
	}
	if override.Window.End != "" {
		base.Window.End = override.Window.End
	}
	if override.Window.IncludeUndated {
		base.Window.IncludeUndated = true
	}

	if override.Sync.WriteConcurrency > 0 {
		base.Sync.WriteConcurrency = override.Sync.WriteConcurrency
	}
	if len(override.Sync.InProgressStates) > 0 {
		base.Sync.InProgressStates = override.Sync.InProgressStates
	}

	if override.Scheduler.Mode != "" {
		base.Scheduler.Mode = override.Scheduler.Mode
	}
	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Canvas:  CanvasConfig{BaseURL: "https://canvas.instructure.com"},
		Notion:  NotionConfig{DatabaseTitle: defaultDBTitle},
		Window:  WindowConfig{},
		Sync:    SyncConfig{WriteConcurrency: 4},
		Scheduler: SchedulerConfig{
			Mode:     ModeOnce,
			Interval: "24h",
			Timezone: defaultTimezone,
			location: tz,
		},
	}
}

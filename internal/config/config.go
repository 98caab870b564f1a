// Package config loads postbot configuration from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/postbot/internal/deduplication"
	"github.com/steveyegge/postbot/internal/github"
)

// DefaultFile is the config file Load reads when given an empty path.
const DefaultFile = "postbot.yaml"

// GitHubConfig configures the review host.
type GitHubConfig struct {
	Token       string // GITHUB_TOKEN
	Repo        string // owner/name
	Branch      string // trunk pull requests target
	AutoMerge   bool
	MergeMethod string
	APIURL      string
}

// RepositoryConfig locates the local work tree and its artifacts.
type RepositoryConfig struct {
	Path           string // work tree root
	Remote         string
	PostsDirectory string // relative to Path
	Pattern        string // doublestar pattern inside PostsDirectory
}

// WorkflowConfig tunes the remote change workflow.
type WorkflowConfig struct {
	MergeWait     time.Duration
	MergePoll     time.Duration
	RetryAttempts int
}

// HistoryConfig locates the publish history database.
type HistoryConfig struct {
	// Enabled is false when POSTBOT_DB_PATH is set to the empty string.
	Enabled bool
	// DBPath overrides <repo>/.postbot/history.db when set.
	DBPath    string
	Retention HistoryRetentionConfig
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	File   string // also write logs here when set
}

// Config is the complete postbot configuration.
type Config struct {
	GitHub     GitHubConfig
	Repository RepositoryConfig
	Dedup      deduplication.Config
	Workflow   WorkflowConfig
	History    HistoryConfig
	Branches   BranchCleanupConfig
	Log        LogConfig

	// Source is the config file that was read, or "" when none was.
	Source string
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			Branch:      "main",
			AutoMerge:   true,
			MergeMethod: github.MergeMethodSquash,
			APIURL:      github.DefaultBaseURL,
		},
		Repository: RepositoryConfig{
			Path:           ".",
			Remote:         "origin",
			PostsDirectory: "_posts",
			Pattern:        "*.md",
		},
		Dedup: deduplication.DefaultConfig(),
		Workflow: WorkflowConfig{
			MergeWait:     30 * time.Second,
			MergePoll:     2 * time.Second,
			RetryAttempts: 3,
		},
		History: HistoryConfig{
			Enabled:   true,
			Retention: DefaultHistoryRetentionConfig(),
		},
		Branches: DefaultBranchCleanupConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path,
// then environment variables. An empty path reads DefaultFile if it
// exists; an explicit path must exist. Load checks that values parse but
// not that credentials are present; call Validate or ValidateLocal.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.Source = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file; defaults and env only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the YAML layout of postbot.yaml. Durations are whole
// seconds or days so the file reads the same as the environment.
type fileConfig struct {
	GitHub struct {
		Token       string `yaml:"token"`
		Repo        string `yaml:"repo"`
		Branch      string `yaml:"branch"`
		AutoMerge   bool   `yaml:"auto_merge"`
		MergeMethod string `yaml:"merge_method"`
		APIURL      string `yaml:"api_url"`
	} `yaml:"github"`
	Repository struct {
		Path           string `yaml:"path"`
		Remote         string `yaml:"remote"`
		PostsDirectory string `yaml:"posts_directory"`
		Pattern        string `yaml:"pattern"`
	} `yaml:"repository"`
	Dedup struct {
		Threshold           float64 `yaml:"threshold"`
		WindowDays          int     `yaml:"window_days"`
		FreshnessWindowDays int     `yaml:"freshness_window_days"`
		ExactContent        bool    `yaml:"exact_content"`
	} `yaml:"dedup"`
	Workflow struct {
		MergeWaitSecs int `yaml:"merge_wait_secs"`
		MergePollSecs int `yaml:"merge_poll_secs"`
		RetryAttempts int `yaml:"retry_attempts"`
	} `yaml:"workflow"`
	History struct {
		Enabled          bool   `yaml:"enabled"`
		DBPath           string `yaml:"db_path"`
		RetentionDays    int    `yaml:"retention_days"`
		CleanupBatchSize int    `yaml:"cleanup_batch_size"`
		CleanupVacuum    bool   `yaml:"cleanup_vacuum"`
	} `yaml:"history"`
	Branches struct {
		RetentionHours int  `yaml:"retention_hours"`
		DeleteRemote   bool `yaml:"delete_remote"`
	} `yaml:"branches"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

// applyFile overlays data onto c. The file struct is seeded from c so keys
// absent from the file keep their current values.
func (c *Config) applyFile(data []byte) error {
	var f fileConfig
	f.GitHub.Token = c.GitHub.Token
	f.GitHub.Repo = c.GitHub.Repo
	f.GitHub.Branch = c.GitHub.Branch
	f.GitHub.AutoMerge = c.GitHub.AutoMerge
	f.GitHub.MergeMethod = c.GitHub.MergeMethod
	f.GitHub.APIURL = c.GitHub.APIURL
	f.Repository.Path = c.Repository.Path
	f.Repository.Remote = c.Repository.Remote
	f.Repository.PostsDirectory = c.Repository.PostsDirectory
	f.Repository.Pattern = c.Repository.Pattern
	f.Dedup.Threshold = c.Dedup.Threshold
	f.Dedup.WindowDays = int(c.Dedup.Window / (24 * time.Hour))
	f.Dedup.FreshnessWindowDays = int(c.Dedup.FreshnessWindow / (24 * time.Hour))
	f.Dedup.ExactContent = c.Dedup.ExactContentMatch
	f.Workflow.MergeWaitSecs = int(c.Workflow.MergeWait / time.Second)
	f.Workflow.MergePollSecs = int(c.Workflow.MergePoll / time.Second)
	f.Workflow.RetryAttempts = c.Workflow.RetryAttempts
	f.History.Enabled = c.History.Enabled
	f.History.DBPath = c.History.DBPath
	f.History.RetentionDays = c.History.Retention.RetentionDays
	f.History.CleanupBatchSize = c.History.Retention.CleanupBatchSize
	f.History.CleanupVacuum = c.History.Retention.CleanupVacuum
	f.Branches.RetentionHours = c.Branches.RetentionHours
	f.Branches.DeleteRemote = c.Branches.DeleteRemote
	f.Log.Level = c.Log.Level
	f.Log.Format = c.Log.Format
	f.Log.File = c.Log.File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	c.GitHub = GitHubConfig{
		Token:       f.GitHub.Token,
		Repo:        f.GitHub.Repo,
		Branch:      f.GitHub.Branch,
		AutoMerge:   f.GitHub.AutoMerge,
		MergeMethod: f.GitHub.MergeMethod,
		APIURL:      f.GitHub.APIURL,
	}
	c.Repository = RepositoryConfig{
		Path:           f.Repository.Path,
		Remote:         f.Repository.Remote,
		PostsDirectory: f.Repository.PostsDirectory,
		Pattern:        f.Repository.Pattern,
	}
	c.Dedup.Threshold = f.Dedup.Threshold
	c.Dedup.Window = time.Duration(f.Dedup.WindowDays) * 24 * time.Hour
	c.Dedup.FreshnessWindow = time.Duration(f.Dedup.FreshnessWindowDays) * 24 * time.Hour
	c.Dedup.ExactContentMatch = f.Dedup.ExactContent
	c.Workflow = WorkflowConfig{
		MergeWait:     time.Duration(f.Workflow.MergeWaitSecs) * time.Second,
		MergePoll:     time.Duration(f.Workflow.MergePollSecs) * time.Second,
		RetryAttempts: f.Workflow.RetryAttempts,
	}
	c.History = HistoryConfig{
		Enabled: f.History.Enabled,
		DBPath:  f.History.DBPath,
		Retention: HistoryRetentionConfig{
			RetentionDays:    f.History.RetentionDays,
			CleanupBatchSize: f.History.CleanupBatchSize,
			CleanupVacuum:    f.History.CleanupVacuum,
		},
	}
	c.Branches = BranchCleanupConfig{
		RetentionHours: f.Branches.RetentionHours,
		DeleteRemote:   f.Branches.DeleteRemote,
	}
	c.Log = LogConfig{Level: f.Log.Level, Format: f.Log.Format, File: f.Log.File}
	return nil
}

// applyEnv overlays environment variables onto c.
//
// Environment variables:
//   - GITHUB_TOKEN, GITHUB_REPO, GITHUB_BRANCH, GITHUB_AUTO_MERGE, GITHUB_MERGE_METHOD, GITHUB_API_URL
//   - POSTBOT_REPO_PATH, POSTBOT_REMOTE, POSTS_DIRECTORY, POSTBOT_POSTS_PATTERN
//   - POSTBOT_DEDUP_THRESHOLD, POSTBOT_DEDUP_WINDOW_DAYS, POSTBOT_FRESHNESS_WINDOW_DAYS, POSTBOT_DEDUP_EXACT_CONTENT
//   - POSTBOT_MERGE_WAIT_SECS, POSTBOT_MERGE_POLL_SECS, POSTBOT_RETRY_ATTEMPTS
//   - POSTBOT_DB_PATH (set but empty disables history), POSTBOT_HISTORY_*, POSTBOT_BRANCH_*
//   - LOG_LEVEL, LOG_FORMAT, LOG_FILE
func (c *Config) applyEnv() error {
	strs := []struct {
		key  string
		dest *string
	}{
		{"GITHUB_TOKEN", &c.GitHub.Token},
		{"GITHUB_REPO", &c.GitHub.Repo},
		{"GITHUB_BRANCH", &c.GitHub.Branch},
		{"GITHUB_MERGE_METHOD", &c.GitHub.MergeMethod},
		{"GITHUB_API_URL", &c.GitHub.APIURL},
		{"POSTBOT_REPO_PATH", &c.Repository.Path},
		{"POSTBOT_REMOTE", &c.Repository.Remote},
		{"POSTS_DIRECTORY", &c.Repository.PostsDirectory},
		{"POSTBOT_POSTS_PATTERN", &c.Repository.Pattern},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"LOG_FILE", &c.Log.File},
	}
	for _, s := range strs {
		if err := parseEnvString(s.key, s.dest); err != nil {
			return err
		}
	}

	if err := parseEnvBool("GITHUB_AUTO_MERGE", &c.GitHub.AutoMerge); err != nil {
		return err
	}
	if err := parseEnvFloat("POSTBOT_DEDUP_THRESHOLD", &c.Dedup.Threshold); err != nil {
		return err
	}
	if err := parseEnvDuration("POSTBOT_DEDUP_WINDOW_DAYS", &c.Dedup.Window, 24*time.Hour); err != nil {
		return err
	}
	if err := parseEnvDuration("POSTBOT_FRESHNESS_WINDOW_DAYS", &c.Dedup.FreshnessWindow, 24*time.Hour); err != nil {
		return err
	}
	if err := parseEnvBool("POSTBOT_DEDUP_EXACT_CONTENT", &c.Dedup.ExactContentMatch); err != nil {
		return err
	}
	if err := parseEnvDuration("POSTBOT_MERGE_WAIT_SECS", &c.Workflow.MergeWait, time.Second); err != nil {
		return err
	}
	if err := parseEnvDuration("POSTBOT_MERGE_POLL_SECS", &c.Workflow.MergePoll, time.Second); err != nil {
		return err
	}
	if err := parseEnvInt("POSTBOT_RETRY_ATTEMPTS", &c.Workflow.RetryAttempts); err != nil {
		return err
	}

	if dbPath, ok := os.LookupEnv("POSTBOT_DB_PATH"); ok {
		c.History.Enabled = dbPath != ""
		c.History.DBPath = dbPath
	}

	// The retention helpers validate their section as they parse
	var err error
	if c.History.Retention, err = HistoryRetentionConfigFromEnv(c.History.Retention); err != nil {
		return err
	}
	if c.Branches, err = BranchCleanupConfigFromEnv(c.Branches); err != nil {
		return err
	}
	return nil
}

// ValidateLocal checks every setting that does not involve GitHub
// credentials. Commands that never talk to GitHub only need this.
func (c *Config) ValidateLocal() error {
	var problems []string
	add := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	if strings.TrimSpace(c.Repository.Path) == "" {
		problems = append(problems, "repository path is required")
	}
	if strings.TrimSpace(c.Repository.Remote) == "" {
		problems = append(problems, "remote name is required")
	}
	if strings.TrimSpace(c.Repository.PostsDirectory) == "" {
		problems = append(problems, "posts directory is required")
	}
	add(c.Dedup.Validate())
	if c.Workflow.MergeWait < 0 {
		problems = append(problems, fmt.Sprintf("merge wait cannot be negative (got %v)", c.Workflow.MergeWait))
	}
	if c.Workflow.MergePoll <= 0 {
		problems = append(problems, fmt.Sprintf("merge poll interval must be positive (got %v)", c.Workflow.MergePoll))
	}
	if c.Workflow.RetryAttempts < 1 || c.Workflow.RetryAttempts > 10 {
		problems = append(problems, fmt.Sprintf("retry attempts must be between 1 and 10 (got %d)", c.Workflow.RetryAttempts))
	}
	add(c.History.Retention.Validate())
	add(c.Branches.Validate())
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log format must be text or json (got %q)", c.Log.Format))
	}

	return joinProblems(problems)
}

// Validate checks the whole configuration, GitHub credentials included.
// All problems are reported together.
func (c *Config) Validate() error {
	var problems []string

	switch {
	case strings.TrimSpace(c.GitHub.Token) == "":
		problems = append(problems, "GITHUB_TOKEN is required")
	case IsPlaceholder(c.GitHub.Token):
		problems = append(problems, "GITHUB_TOKEN looks like a placeholder value")
	}

	switch {
	case strings.TrimSpace(c.GitHub.Repo) == "":
		problems = append(problems, "GITHUB_REPO is required")
	case IsPlaceholder(c.GitHub.Repo):
		problems = append(problems, "GITHUB_REPO looks like a placeholder value")
	default:
		if _, _, err := github.ParseRepository(c.GitHub.Repo); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if strings.TrimSpace(c.GitHub.Branch) == "" {
		problems = append(problems, "GITHUB_BRANCH cannot be empty")
	}
	if !github.ValidMergeMethod(c.GitHub.MergeMethod) {
		problems = append(problems, fmt.Sprintf("merge method must be merge, squash or rebase (got %q)", c.GitHub.MergeMethod))
	}
	if u, err := url.Parse(c.GitHub.APIURL); err != nil || u.Scheme != "https" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("GITHUB_API_URL must be an https URL (got %q)", c.GitHub.APIURL))
	}

	if err := c.ValidateLocal(); err != nil {
		problems = append(problems, err.Error())
	}
	return joinProblems(problems)
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

var placeholderPrefixes = []string{
	"your_", "example_", "placeholder_", "test_", "demo_", "fake_", "dummy_", "sample_",
}

var placeholderValues = map[string]bool{
	"your_github_personal_access_token": true,
	"your_github_token_here":            true,
	"username/repository_name":          true,
	"owner/repo":                        true,
	"changeme":                          true,
}

// IsPlaceholder reports whether value looks like a template placeholder
// rather than a real credential or repository name.
func IsPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, prefix := range placeholderPrefixes {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	if placeholderValues[v] {
		return true
	}
	if len(v) < 10 {
		for _, word := range []string{"test", "demo", "fake", "example"} {
			if strings.Contains(v, word) {
				return true
			}
		}
	}
	return false
}

// Safe returns the configuration with secrets masked, for display.
func (c *Config) Safe() map[string]string {
	source := c.Source
	if source == "" {
		source = "(environment only)"
	}
	dbPath := c.History.DBPath
	switch {
	case !c.History.Enabled:
		dbPath = "(disabled)"
	case dbPath == "":
		dbPath = "(repository default)"
	}
	return map[string]string{
		"config_file":            source,
		"github_token":           maskSecret(c.GitHub.Token),
		"has_github_token":       strconv.FormatBool(c.GitHub.Token != ""),
		"github_repo":            c.GitHub.Repo,
		"github_branch":          c.GitHub.Branch,
		"github_auto_merge":      strconv.FormatBool(c.GitHub.AutoMerge),
		"github_merge_method":    c.GitHub.MergeMethod,
		"github_api_url":         c.GitHub.APIURL,
		"repo_path":              c.Repository.Path,
		"remote":                 c.Repository.Remote,
		"posts_directory":        c.Repository.PostsDirectory,
		"posts_pattern":          c.Repository.Pattern,
		"dedup_threshold":        strconv.FormatFloat(c.Dedup.Threshold, 'f', 2, 64),
		"dedup_window":           c.Dedup.Window.String(),
		"freshness_window":       c.Dedup.FreshnessWindow.String(),
		"dedup_exact_content":    strconv.FormatBool(c.Dedup.ExactContentMatch),
		"merge_wait":             c.Workflow.MergeWait.String(),
		"merge_poll":             c.Workflow.MergePoll.String(),
		"retry_attempts":         strconv.Itoa(c.Workflow.RetryAttempts),
		"history_db":             dbPath,
		"history_retention_days": strconv.Itoa(c.History.Retention.RetentionDays),
		"branch_retention_hours": strconv.Itoa(c.Branches.RetentionHours),
		"log_level":              c.Log.Level,
		"log_format":             c.Log.Format,
		"log_file":               c.Log.File,
	}
}

// SafeKeys returns the keys of Safe in display order.
func SafeKeys(safe map[string]string) []string {
	keys := make([]string, 0, len(safe))
	for k := range safe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// maskSecret keeps just enough of a token to tell two apart.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

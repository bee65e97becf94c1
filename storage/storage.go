// Package storage persists accepted scripts and conversation logs into a
// per-script project directory ready for the downstream asset pipeline.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const slugMaxLen = 60

var slugStripRe = regexp.MustCompile(`[^\w\s-]`)

// Slugify turns a script title into a filesystem-safe directory name:
// lowercase, punctuation stripped, whitespace collapsed to underscores,
// capped at 60 characters. An empty result falls back to a uuid-based name.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "_")
	if len(s) > slugMaxLen {
		s = s[:slugMaxLen]
		s = strings.Trim(s, "_")
	}
	if s == "" {
		s = "script-" + uuid.NewString()
	}
	return s
}

// Store writes script projects under a root directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, fmt.Errorf("storage: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create projects root: %w", err)
	}
	return &Store{root: dir, logger: logger}, nil
}

// Project is one on-disk script project.
type Project struct {
	// Dir is the project root: <store root>/<slug>.
	Dir string

	// ScriptPath is where SaveScript wrote the script document.
	ScriptPath string
}

// CreateProject lays out the project directory for a script title, including
// the asset subdirectories the downstream pipeline expects. An existing
// directory with the same slug gets a timestamp suffix instead of being
// overwritten.
func (s *Store) CreateProject(title string) (*Project, error) {
	slug := Slugify(title)
	dir := filepath.Join(s.root, slug)

	if _, err := os.Stat(dir); err == nil {
		dir = filepath.Join(s.root, fmt.Sprintf("%s_%s", slug, time.Now().Format("20060102_150405")))
	}

	for _, sub := range []string{"", "images", "audio", "output"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create project directory: %w", err)
		}
	}

	s.logger.Info("project created", zap.String("dir", dir))
	return &Project{Dir: dir}, nil
}

// SaveScript writes the normalized script JSON into the project as
// script.json, indented for hand inspection.
func (s *Store) SaveScript(project *Project, scriptJSON string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(scriptJSON), &doc); err != nil {
		return fmt.Errorf("script payload is not valid JSON: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}

	path := filepath.Join(project.Dir, "script.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}

	project.ScriptPath = path
	s.logger.Info("script saved", zap.String("path", path))
	return nil
}

// ConversationEntry is one line of the persisted conversation log.
type ConversationEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SaveConversationLog writes the textual conversation transcript alongside the
// script, one JSON object per message, for later debugging of a generation.
func (s *Store) SaveConversationLog(project *Project, entries []ConversationEntry) error {
	var b strings.Builder
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal log entry: %w", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}

	path := filepath.Join(project.Dir, "conversation.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write conversation log: %w", err)
	}

	s.logger.Info("conversation log saved", zap.String("path", path), zap.Int("entries", len(entries)))
	return nil
}

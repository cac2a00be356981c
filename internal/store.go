package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	metaStart = "---\n"
	metaEnd   = "\n---\n"

	insightSuffix = ".insight.md"

	// EnvRoot overrides the insight store root directory.
	EnvRoot = "INSIGHTS_ROOT"
)

// insightMeta is the structured metadata block at the top of an insight file.
type insightMeta struct {
	Topic             string     `yaml:"topic,omitempty"`
	Name              string     `yaml:"name,omitempty"`
	Overview          string     `yaml:"overview"`
	EmbeddingVersion  string     `yaml:"embedding_version,omitempty"`
	Embedding         []float32  `yaml:"embedding,omitempty"`
	EmbeddingText     string     `yaml:"embedding_text,omitempty"`
	EmbeddingComputed *time.Time `yaml:"embedding_computed,omitempty"`
}

// FileStore persists insights as one file per (topic, name) under a root
// directory, one subdirectory per topic. Writes are whole-file and not
// cross-process transactional.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// ResolveRoot returns the insight root directory, honoring EnvRoot.
func ResolveRoot() (string, error) {
	if custom := os.Getenv(EnvRoot); custom != "" {
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".insights"), nil
}

func (s *FileStore) Root() string {
	return s.root
}

// filePath is the canonical on-disk location for an insight. Topic and name
// are lowercased for cross-platform stability; original case lives in the
// metadata block.
func (s *FileStore) filePath(topic, name string) string {
	return filepath.Join(s.root, strings.ToLower(topic), strings.ToLower(name)+insightSuffix)
}

// resolvePath prefers the normalized location but falls back to the original
// case for files written before normalization.
func (s *FileStore) resolvePath(topic, name string) string {
	normalized := s.filePath(topic, name)
	if _, err := os.Stat(normalized); err == nil {
		return normalized
	}

	legacy := filepath.Join(s.root, topic, name+insightSuffix)
	if _, err := os.Stat(legacy); err == nil {
		return legacy
	}

	return normalized
}

// Save writes a new insight. It fails with ErrAlreadyExists if the (topic,
// name) pair is already stored.
func (s *FileStore) Save(ins *Insight) error {
	path := s.resolvePath(ins.Topic, ins.Name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s/%s: %w", ins.Topic, ins.Name, ErrAlreadyExists)
	}

	return s.write(ins, s.filePath(ins.Topic, ins.Name))
}

// SaveExisting overwrites an insight in place. Used for lazy embedding
// persistence, where the content is unchanged and only embedding fields move.
func (s *FileStore) SaveExisting(ins *Insight) error {
	return s.write(ins, s.resolvePath(ins.Topic, ins.Name))
}

// RelPath is the normalized insight file path relative to the root.
func (s *FileStore) RelPath(topic, name string) string {
	return filepath.Join(strings.ToLower(topic), strings.ToLower(name)+insightSuffix)
}

// Render serializes an insight to its on-disk file format.
func (s *FileStore) Render(ins *Insight) (string, error) {
	meta := insightMeta{
		Topic:             ins.Topic,
		Name:              ins.Name,
		Overview:          ins.Overview,
		EmbeddingVersion:  ins.EmbeddingVersion,
		Embedding:         ins.Embedding,
		EmbeddingText:     ins.EmbeddingText,
		EmbeddingComputed: ins.EmbeddingComputed,
	}

	data, err := yaml.Marshal(&meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return fmt.Sprintf("---\n%s---\n\n# Details\n%s", data, ins.Details), nil
}

func (s *FileStore) write(ins *Insight, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create topic directory: %w", err)
	}

	content, err := s.Render(ins)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write insight: %w", err)
	}

	return nil
}

// Load reads an insight by key. Fails with ErrNotFound if absent.
func (s *FileStore) Load(topic, name string) (*Insight, error) {
	path := s.resolvePath(topic, name)

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s/%s: %w", topic, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read insight: %w", err)
	}

	return parseInsight(topic, name, string(content))
}

// LoadPath reads an insight file directly, deriving topic and name from the
// path when the metadata block does not carry them.
func (s *FileStore) LoadPath(path string) (*Insight, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read insight: %w", err)
	}

	topic := filepath.Base(filepath.Dir(path))
	name := strings.TrimSuffix(filepath.Base(path), insightSuffix)
	return parseInsight(topic, name, string(content))
}

// Update applies overview and/or details changes, clears all embedding
// fields, and rewrites the file at its normalized location. At least one of
// the two fields must be non-nil.
func (s *FileStore) Update(ins *Insight, overview, details *string) error {
	if overview == nil && details == nil {
		return fmt.Errorf("%w: at least one of overview or details must be provided", ErrInvalidArgument)
	}

	existing := s.resolvePath(ins.Topic, ins.Name)
	if _, err := os.Stat(existing); os.IsNotExist(err) {
		return fmt.Errorf("%s/%s: %w", ins.Topic, ins.Name, ErrNotFound)
	}

	if overview != nil {
		ins.Overview = *overview
	}
	if details != nil {
		ins.Details = *details
	}

	// Content changed, so any stored embedding is stale. It gets recomputed
	// lazily on the next vector search or index run.
	ins.ClearEmbedding()

	// Remove the old file first so case-insensitive filesystems never see
	// the normalized path as an alias of the legacy one.
	if err := os.Remove(existing); err != nil {
		return fmt.Errorf("remove old insight: %w", err)
	}
	_ = os.Remove(filepath.Dir(existing))

	return s.write(ins, s.filePath(ins.Topic, ins.Name))
}

// Delete removes an insight file and prunes its topic directory if empty.
func (s *FileStore) Delete(topic, name string) error {
	path := s.resolvePath(topic, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s/%s: %w", topic, name, ErrNotFound)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove insight: %w", err)
	}

	dir := filepath.Dir(path)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}

	return nil
}

// Topics lists all topic directories, sorted.
func (s *FileStore) Topics() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read insights root: %w", err)
	}

	var topics []string
	for _, entry := range entries {
		if entry.IsDir() {
			topics = append(topics, entry.Name())
		}
	}

	sort.Strings(topics)
	return topics, nil
}

// List loads all insights, optionally restricted to one topic, sorted by
// (topic, name).
func (s *FileStore) List(topicFilter string) ([]*Insight, error) {
	topics, err := s.searchTopics(topicFilter)
	if err != nil {
		return nil, err
	}

	var insights []*Insight
	for _, topic := range topics {
		dir := filepath.Join(s.root, topic)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read topic directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), insightSuffix) {
				continue
			}
			ins, err := s.LoadPath(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			insights = append(insights, ins)
		}
	}

	sort.Slice(insights, func(a, b int) bool {
		if insights[a].Topic != insights[b].Topic {
			return insights[a].Topic < insights[b].Topic
		}
		return insights[a].Name < insights[b].Name
	})

	return insights, nil
}

func (s *FileStore) searchTopics(topicFilter string) ([]string, error) {
	if topicFilter != "" {
		return []string{strings.ToLower(topicFilter)}, nil
	}
	return s.Topics()
}

// parseInsight splits the metadata block from the body and decodes it.
// Structured yaml metadata is tried first; when it fails to decode, the
// block is treated as the legacy free-text overview form.
func parseInsight(topic, name, content string) (*Insight, error) {
	if !strings.HasPrefix(content, metaStart) {
		return nil, fmt.Errorf("%w: missing metadata block", ErrInvalidArgument)
	}

	rest := content[len(metaStart):]
	end := strings.Index(rest, metaEnd)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated metadata block", ErrInvalidArgument)
	}

	metaSection := rest[:end]
	body := rest[end+len(metaEnd):]

	meta, structured := decodeMeta(metaSection)
	if structured {
		body = cleanBody(body)
	} else {
		// Legacy form: the metadata region is the overview itself.
		meta = insightMeta{Overview: strings.TrimSpace(metaSection)}
		body = strings.TrimSpace(body)
	}

	ins := &Insight{
		Topic:             topic,
		Name:              name,
		Overview:          meta.Overview,
		Details:           body,
		EmbeddingVersion:  meta.EmbeddingVersion,
		Embedding:         meta.Embedding,
		EmbeddingText:     meta.EmbeddingText,
		EmbeddingComputed: meta.EmbeddingComputed,
	}

	// Metadata preserves original case; fall back to path-derived values for
	// files written before topic/name landed in the block.
	if meta.Topic != "" {
		ins.Topic = meta.Topic
	}
	if meta.Name != "" {
		ins.Name = meta.Name
	}

	return ins, nil
}

// decodeMeta decodes the structured metadata form. Only a yaml parse
// failure or a missing overview key selects the legacy free-text form;
// an empty overview value is still structured.
func decodeMeta(section string) (insightMeta, bool) {
	var meta insightMeta
	if yaml.Unmarshal([]byte(section), &meta) != nil {
		return insightMeta{}, false
	}

	var keys map[string]any
	if yaml.Unmarshal([]byte(section), &keys) != nil {
		return insightMeta{}, false
	}
	if _, ok := keys["overview"]; !ok {
		return insightMeta{}, false
	}

	return meta, true
}

// cleanBody drops the leading blank and heading lines the writer emits
// before the details text.
func cleanBody(body string) string {
	lines := strings.Split(body, "\n")
	start := 0
	for start < len(lines) {
		trimmed := strings.TrimSpace(lines[start])
		if trimmed == "" || strings.HasPrefix(lines[start], "#") {
			start++
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

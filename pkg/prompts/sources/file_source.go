package sources

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileSource — загрузка определений из YAML файлов <baseDir>/<promptID>.yaml.
type FileSource struct {
	baseDir string
}

// NewFileSource создаёт FileSource. baseDir обычно cfg.App.PromptsDir.
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{
		baseDir: baseDir,
	}
}

// Load загружает определение из YAML файла.
func (s *FileSource) Load(promptID string) (*PromptData, error) {
	if !validID(promptID) {
		return nil, fmt.Errorf("invalid prompt id %q", promptID)
	}
	path := filepath.Join(s.baseDir, promptID+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	return parseYAML(data, path)
}

func parseYAML(data []byte, origin string) (*PromptData, error) {
	var file PromptData
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt YAML %s: %w", origin, err)
	}
	return &file, nil
}

// validID — id идёт в путь файла и ключ объекта, без разделителей.
func validID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

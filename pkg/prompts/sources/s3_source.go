package sources

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/s3storage"
)

// S3Source — определения ролей как YAML объекты <prefix>/<promptID>.yaml в бакете.
type S3Source struct {
	client  s3storage.ClientInterface
	prefix  string
	timeout time.Duration
}

// NewS3Source создаёт источник поверх S3 клиента.
func NewS3Source(client s3storage.ClientInterface, prefix string) *S3Source {
	return &S3Source{
		client:  client,
		prefix:  prefix,
		timeout: 10 * time.Second,
	}
}

// Load скачивает и парсит YAML объект.
func (s *S3Source) Load(promptID string) (*PromptData, error) {
	if !validID(promptID) {
		return nil, fmt.Errorf("invalid prompt id %q", promptID)
	}
	key := path.Join(s.prefix, promptID+".yaml")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.client.DownloadFile(ctx, key)
	if err != nil {
		if errors.Is(err, s3storage.ErrNotFound) {
			return nil, fmt.Errorf("s3 object %s: %w", key, ErrNotFound)
		}
		return nil, err
	}
	return parseYAML(data, "s3://"+key)
}

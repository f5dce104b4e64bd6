package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/boothwise/internal/domain/model"
)

// LoadCatalog reads a booth catalog from a YAML file shaped as
//
//	booths:
//	  - id: acme
//	    name: Acme
//	    tags: [ai, robotics]
//	    looking_for: [python]
func LoadCatalog(_ context.Context, path string) ([]model.Booth, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: catalog %s: %w", ErrLoadConfig, path, err)
	}

	var booths []model.Booth
	if err := k.UnmarshalWithConf("booths", &booths, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: catalog %s: %w", ErrLoadConfig, path, err)
	}

	for i := range booths {
		if strings.TrimSpace(booths[i].ID) == "" {
			return nil, fmt.Errorf("%w: catalog %s: booth #%d has no id", ErrInvalidConfig, path, i)
		}
	}
	return booths, nil
}

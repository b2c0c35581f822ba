package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadDefinitions reads an override document mapping "arch_platform" to
// template definitions. The format follows the file extension: .json,
// .yaml/.yml or .toml. A missing file yields no definitions.
func LoadDefinitions(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read backend definitions: %w", err)
	}
	return DecodeDefinitions(filepath.Ext(path), data)
}

// DecodeDefinitions decodes an override document in the format named by ext.
func DecodeDefinitions(ext string, data []byte) (map[string]map[string]string, error) {
	defs := make(map[string]map[string]string)

	var err error
	switch strings.ToLower(ext) {
	case ".json", "":
		err = json.Unmarshal(data, &defs)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &defs)
	case ".toml":
		err = toml.Unmarshal(data, &defs)
	default:
		return nil, fmt.Errorf("unsupported backend definition format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode backend definitions: %w", err)
	}
	return defs, nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelList is the YAML document listing channel usernames to collect
// beyond the account's own dialogs.
type ChannelList struct {
	Channels []string `yaml:"channels"`
}

// LoadChannels reads the channel username list. A missing file is not an
// error: the chatlist then covers dialogs only.
func LoadChannels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	var f ChannelList
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channels file %s: %w", path, err)
	}
	return f.Channels, nil
}

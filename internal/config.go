package internal

import (
	"fmt"

	"github.com/MdMeraj01/youtube-downloader/internal/api"
	"github.com/MdMeraj01/youtube-downloader/internal/download"
	"github.com/MdMeraj01/youtube-downloader/internal/provider/youtube"
	"github.com/ilyakaznacheev/cleanenv"
)

// GrabberConfig is the struct used to contain the various user config
// supplied by file or environment.
type GrabberConfig struct {
	Rest     api.RestConfig  `yaml:"api"`
	Download download.Config `yaml:"download"`
	YouTube  youtube.Config  `yaml:"youtube"`
}

// LoadFromFile loads a YAML configuration file into a GrabberConfig,
// applying environment overrides on top.
func (config *GrabberConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration - %v", err.Error())
	}

	return nil
}

// LoadFromEnv populates the config purely from environment variables
// and defaults, for deployments that carry no config file.
func (config *GrabberConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration from environment - %v", err.Error())
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/q-controller/catcaption/src/pkg/utils"
)

type ImageServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	BaseURL string        `yaml:"base_url"`
	Folder  string        `yaml:"folder"`
	Timeout time.Duration `yaml:"timeout"`
}

type FilesConfig struct {
	// Image is the staging path for the fetched picture.
	Image          string `yaml:"image"`
	TokenFile      string `yaml:"token_file"`
	MetadataDir    string `yaml:"metadata_dir"`
	MetadataPrefix string `yaml:"metadata_prefix"`
	MetadataSuffix string `yaml:"metadata_suffix"`
}

// HistoryConfig enables the run history store when Root is set.
type HistoryConfig struct {
	Root string `yaml:"root"`
}

type GatewayConfig struct {
	Port int `yaml:"port"`
}

type Config struct {
	ImageService ImageServiceConfig `yaml:"image_service"`
	Storage      StorageConfig      `yaml:"storage"`
	Files        FilesConfig        `yaml:"files"`
	History      HistoryConfig      `yaml:"history"`
	Gateway      GatewayConfig      `yaml:"gateway"`
}

func Default() *Config {
	return &Config{
		ImageService: ImageServiceConfig{
			BaseURL: "https://cataas.com",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			BaseURL: "https://cloud-api.yandex.net/v1/disk",
			Folder:  "PY-140",
			Timeout: 30 * time.Second,
		},
		Files: FilesConfig{
			Image:          "image.jpg",
			TokenFile:      "token.txt",
			MetadataDir:    ".",
			MetadataPrefix: "file_info_",
			MetadataSuffix: ".json",
		},
		Gateway: GatewayConfig{
			Port: 8080,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults unchanged.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		if unmarshalErr := utils.Unmarshal(config, path); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to read config: %w", unmarshalErr)
		}
	}

	if validateErr := config.Validate(); validateErr != nil {
		return nil, fmt.Errorf("failed to read config: %w", validateErr)
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error
	if !utils.IsHTTP(c.ImageService.BaseURL) {
		errs = append(errs, fmt.Errorf("image_service.base_url is not an http(s) URL: %q", c.ImageService.BaseURL))
	}
	if c.ImageService.Timeout <= 0 {
		errs = append(errs, errors.New("image_service.timeout must be positive"))
	}
	if !utils.IsHTTP(c.Storage.BaseURL) {
		errs = append(errs, fmt.Errorf("storage.base_url is not an http(s) URL: %q", c.Storage.BaseURL))
	}
	if c.Storage.Folder == "" {
		errs = append(errs, errors.New("storage.folder is not set"))
	}
	if c.Storage.Timeout <= 0 {
		errs = append(errs, errors.New("storage.timeout must be positive"))
	}
	if c.Files.Image == "" {
		errs = append(errs, errors.New("files.image is not set"))
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("gateway.port is out of range: %d", c.Gateway.Port))
	}
	return errors.Join(errs...)
}

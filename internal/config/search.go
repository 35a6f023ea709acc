package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/imje/scheduled-helper/internal/models"
)

// LoadSearch resolves the search bundle: built-in defaults, then the YAML
// file at path (if any), then SEARCH_* environment overrides such as
// SEARCH_MODEL or SEARCH_LOCATION_CITY.
func LoadSearch(path string) (models.SearchRequest, error) {
	d := models.DefaultSearchRequest()

	v := viper.New()
	v.SetDefault("model", d.Model)
	v.SetDefault("input", d.Input)
	v.SetDefault("location.country", d.Location.Country)
	v.SetDefault("location.city", d.Location.City)
	v.SetDefault("location.region", d.Location.Region)
	v.SetDefault("search_context_size", string(d.SearchContextSize))
	v.SetDefault("verbosity", string(d.Verbosity))
	v.SetDefault("reasoning_effort", string(d.ReasoningEffort))

	v.SetEnvPrefix("SEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return models.SearchRequest{}, fmt.Errorf("read search config %s: %w", path, err)
		}
	}

	var req models.SearchRequest
	if err := v.Unmarshal(&req); err != nil {
		return models.SearchRequest{}, fmt.Errorf("decode search config: %w", err)
	}
	if err := req.Validate(); err != nil {
		return models.SearchRequest{}, fmt.Errorf("invalid search config: %w", err)
	}

	return req, nil
}

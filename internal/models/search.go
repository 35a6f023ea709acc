package models

import (
	"encoding/json"
	"fmt"
)

// Level is a low/medium/high knob understood by the search API.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Valid reports whether l is one of the enumerated levels.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Effort controls how much reasoning the model spends on a request.
type Effort string

const (
	EffortMinimal Effort = "minimal"
	EffortLow     Effort = "low"
	EffortMedium  Effort = "medium"
	EffortHigh    Effort = "high"
)

func (e Effort) Valid() bool {
	switch e {
	case EffortMinimal, EffortLow, EffortMedium, EffortHigh:
		return true
	}
	return false
}

// Location is the approximate user location passed to web search.
type Location struct {
	Country string `mapstructure:"country"`
	City    string `mapstructure:"city"`
	Region  string `mapstructure:"region"`
}

// SearchRequest is the static configuration bundle sent on every run.
type SearchRequest struct {
	Model             string   `mapstructure:"model"`
	Input             string   `mapstructure:"input"`
	Location          Location `mapstructure:"location"`
	SearchContextSize Level    `mapstructure:"search_context_size"`
	Verbosity         Level    `mapstructure:"verbosity"`
	ReasoningEffort   Effort   `mapstructure:"reasoning_effort"`
}

// DefaultSearchRequest returns the bundle the scheduled task ships with.
func DefaultSearchRequest() SearchRequest {
	return SearchRequest{
		Model: "gpt-5-nano",
		Input: "Find 1 positive news article URL from today in Norway. Return just the URL.",
		Location: Location{
			Country: "NO",
			City:    "Trondheim",
			Region:  "Trondheim",
		},
		SearchContextSize: LevelLow,
		Verbosity:         LevelLow,
		ReasoningEffort:   EffortLow,
	}
}

// Validate checks required fields and enumerations.
func (r SearchRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("search model must not be empty")
	}
	if r.Input == "" {
		return fmt.Errorf("search input must not be empty")
	}
	if !r.SearchContextSize.Valid() {
		return fmt.Errorf("invalid search_context_size %q", r.SearchContextSize)
	}
	if !r.Verbosity.Valid() {
		return fmt.Errorf("invalid verbosity %q", r.Verbosity)
	}
	if !r.ReasoningEffort.Valid() {
		return fmt.Errorf("invalid reasoning_effort %q", r.ReasoningEffort)
	}
	return nil
}

type wireUserLocation struct {
	Type    string `json:"type"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
}

type wireTool struct {
	Type              string           `json:"type"`
	UserLocation      wireUserLocation `json:"user_location"`
	SearchContextSize Level            `json:"search_context_size"`
}

type wireRequest struct {
	Model     string     `json:"model"`
	Tools     []wireTool `json:"tools"`
	Input     string     `json:"input"`
	Reasoning struct {
		Effort Effort `json:"effort"`
	} `json:"reasoning"`
	Text struct {
		Verbosity Level `json:"verbosity"`
	} `json:"text"`
}

// MarshalJSON encodes the request in the Responses API wire shape.
func (r SearchRequest) MarshalJSON() ([]byte, error) {
	w := wireRequest{
		Model: r.Model,
		Tools: []wireTool{{
			Type: "web_search_preview",
			UserLocation: wireUserLocation{
				Type:    "approximate",
				Country: r.Location.Country,
				City:    r.Location.City,
				Region:  r.Location.Region,
			},
			SearchContextSize: r.SearchContextSize,
		}},
		Input: r.Input,
	}
	w.Reasoning.Effort = r.ReasoningEffort
	w.Text.Verbosity = r.Verbosity
	return json.Marshal(w)
}

package processing

import (
	"encoding/json"
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// Summary is what the run reports about a response. It is derived for logs
// and run events only; result files always hold the raw body.
type Summary struct {
	OutputText string
	URLs       []string
	Usage      map[string]any
}

type responseBody struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage map[string]any `json:"usage"`
}

// Summarize extracts the assistant text, the article URLs it mentions and
// token usage from a Responses API body. Unknown shapes yield an empty
// summary rather than an error.
func Summarize(body []byte) Summary {
	var parsed responseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Summary{}
	}

	text := parsed.OutputText
	if text == "" {
		var parts []string
		for _, item := range parsed.Output {
			if item.Type != "message" {
				continue
			}
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					parts = append(parts, c.Text)
				}
			}
		}
		text = strings.Join(parts, "\n")
	}

	return Summary{
		OutputText: text,
		URLs:       ValidateURLs(ExtractURLs(text)),
		Usage:      parsed.Usage,
	}
}

// ExtractURLs extracts all HTTP(S) URLs from the input text.
func ExtractURLs(input string) []string {
	if input == "" {
		return nil
	}
	matches := urlRegex.FindAllString(input, -1)
	if len(matches) == 0 {
		return nil
	}
	// Remove duplicates while preserving order
	seen := make(map[string]struct{})
	var urls []string
	for _, url := range matches {
		if _, ok := seen[url]; !ok {
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
	}
	return urls
}

// ValidateURLs keeps http(s) URLs that are long enough to name a page.
func ValidateURLs(urls []string) []string {
	var valid []string
	for _, url := range urls {
		url = strings.TrimRight(strings.TrimSpace(url), ").,;")
		if (strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) && len(url) > 10 {
			valid = append(valid, url)
		}
	}
	return valid
}

// Preview shortens text for log lines.
func Preview(text string, max int) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}

package processing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imje/scheduled-helper/internal/processing"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "no urls", input: "Hello world", want: nil},
		{name: "single url", input: "Check https://example.com for more", want: []string{"https://example.com"}},
		{name: "multiple urls", input: "Go to https://example.com or http://test.org now", want: []string{"https://example.com", "http://test.org"}},
		{name: "duplicate urls", input: "https://example.com and https://example.com again", want: []string{"https://example.com"}},
		{name: "stops at brackets", input: "[link](https://nrk.no/nyheter/a-1)", want: []string{"https://nrk.no/nyheter/a-1)"}},
		{name: "stops at quotes", input: `"https://vg.no/x"`, want: []string{"https://vg.no/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processing.ExtractURLs(tt.input)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidateURLs(t *testing.T) {
	got := processing.ValidateURLs([]string{
		" https://www.nrk.no/trondelag/story ",
		"http://a.b",
		"ftp://files.example.com/x",
		"https://nrk.no/nyheter/a-1).",
	})
	require.Equal(t, []string{"https://www.nrk.no/trondelag/story", "https://nrk.no/nyheter/a-1"}, got)
	require.Nil(t, processing.ValidateURLs(nil))
}

func TestSummarizeResponsesBody(t *testing.T) {
	body := []byte(`{
		"id": "resp_123",
		"output": [
			{"type": "web_search_call", "id": "ws_1", "status": "completed"},
			{"type": "message", "content": [
				{"type": "output_text", "text": "https://www.nrk.no/trondelag/good-news-1.2345"}
			]}
		],
		"usage": {"input_tokens": 12, "output_tokens": 34, "total_tokens": 46}
	}`)

	s := processing.Summarize(body)
	require.Equal(t, "https://www.nrk.no/trondelag/good-news-1.2345", s.OutputText)
	require.Equal(t, []string{"https://www.nrk.no/trondelag/good-news-1.2345"}, s.URLs)
	require.EqualValues(t, 46, s.Usage["total_tokens"])
}

func TestSummarizePrefersOutputText(t *testing.T) {
	s := processing.Summarize([]byte(`{"output_text":"See https://www.vg.no/nyheter/i/abc","output":[]}`))
	require.Equal(t, []string{"https://www.vg.no/nyheter/i/abc"}, s.URLs)
}

func TestSummarizeUnknownShape(t *testing.T) {
	require.Equal(t, processing.Summary{}, processing.Summarize([]byte(`not json`)))

	s := processing.Summarize([]byte(`{"results":[]}`))
	require.Empty(t, s.OutputText)
	require.Nil(t, s.URLs)
}

func TestPreview(t *testing.T) {
	require.Equal(t, "hello", processing.Preview("  hello ", 10))
	require.Equal(t, "hel...", processing.Preview("hello", 3))
	require.Equal(t, "blåbær...", processing.Preview("blåbærsyltetøy", 6))
	require.Equal(t, "hello", processing.Preview("hello", 0))
}

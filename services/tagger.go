package services

import (
	"sort"
	"strings"
	"unicode"
)

// tagMapping maps a keyword found in the content to the tags it implies.
type tagMapping struct {
	keyword string
	tags    []string
}

var tagMappings = []tagMapping{
	{"chatgpt", []string{"chatgpt", "openai", "llm"}},
	{"openai", []string{"openai", "company"}},
	{"deepmind", []string{"deepmind", "google", "company"}},
	{"anthropic", []string{"anthropic", "company"}},
	{"claude", []string{"claude", "anthropic", "llm"}},
	{"gemini", []string{"gemini", "google", "llm"}},
	{"llama", []string{"llama", "meta", "llm"}},
	{"gpt", []string{"gpt", "llm"}},
	{"hugging face", []string{"hugging-face", "company", "open-source"}},
	{"nvidia", []string{"nvidia", "company", "hardware"}},
	{"machine learning", []string{"machine-learning"}},
	{"deep learning", []string{"deep-learning", "machine-learning"}},
	{"neural network", []string{"neural-networks", "machine-learning"}},
	{"large language model", []string{"llm"}},
	{"generative", []string{"generative-ai"}},
	{"ethic", []string{"ethics"}},
	{"regulat", []string{"policy", "regulation"}},
	{"policy", []string{"policy"}},
	{"robot", []string{"robotics"}},
	{"education", []string{"education"}},
	{"classroom", []string{"education", "teaching"}},
	{"student", []string{"education"}},
	{"teacher", []string{"education", "teaching"}},
	{"university", []string{"education", "higher-education"}},
	{"school", []string{"education"}},
	{"curriculum", []string{"education", "curriculum"}},
	{"literacy", []string{"ai-literacy", "education"}},
	{"research", []string{"research"}},
	{"startup", []string{"startup", "business"}},
	{"funding", []string{"funding", "business"}},
	{"open source", []string{"open-source"}},
	{"open-source", []string{"open-source"}},
}

var internationalEventTerms = []string{
	"conference",
	"summit",
	"congress",
	"world economic forum",
	"unesco",
	"oecd",
	"united nations",
	"g7",
	"g20",
	"neurips",
	"icml",
	"iclr",
}

// ExtractTags derives a deduplicated, sorted tag set from title+description.
// Every article carries the baseline "ai" tag.
func ExtractTags(title, description string) []string {
	content := strings.ToLower(title + " " + description)

	set := map[string]bool{"ai": true}

	for _, mapping := range tagMappings {
		if strings.Contains(content, mapping.keyword) {
			for _, tag := range mapping.tags {
				set[tag] = true
			}
		}
	}

	for _, account := range influentialAccounts {
		if strings.Contains(content, account) {
			set["influential-expert"] = true
			break
		}
	}

	for _, term := range internationalEventTerms {
		if strings.Contains(content, term) {
			set["international-event"] = true
			break
		}
	}

	// Non-ASCII content is treated as non-English coverage
	if containsNonASCII(title + description) {
		set["international"] = true
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func containsNonASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}

package services

import (
	"regexp"
	"strings"
)

// Allow-lists for the relevance filter. Deliberately permissive: recall over
// precision, since downstream curation can always drop an article but never
// recover one that was filtered out here.

var influentialAccounts = []string{
	"sam altman",
	"demis hassabis",
	"geoffrey hinton",
	"yann lecun",
	"yoshua bengio",
	"andrew ng",
	"fei-fei li",
	"ilya sutskever",
	"dario amodei",
	"andrej karpathy",
	"mustafa suleyman",
	"jensen huang",
	"timnit gebru",
	"stuart russell",
}

var organizationAccounts = []string{
	"openai",
	"deepmind",
	"anthropic",
	"google ai",
	"meta ai",
	"microsoft research",
	"hugging face",
	"stability ai",
	"mistral ai",
	"nvidia",
	"allen institute",
	"unesco",
	"oecd",
}

var aiKeywords = []string{
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural network",
	"large language model",
	"generative ai",
	"chatgpt",
	"gpt-4",
	"gpt-5",
	"gemini",
	"claude",
	"llama",
	"copilot",
	"prompt engineering",
	"ai literacy",
	"ai education",
	"ai ethics",
	"ai policy",
	"ai regulation",
	"edtech",
	"foundation model",
	"transformer model",
	"reinforcement learning",
	"computer vision",
	"natural language processing",
	// Conference acronyms
	"neurips",
	"icml",
	"iclr",
	"aaai",
	"acl 20",
	// Multilingual
	"inteligencia artificial",
	"intelligence artificielle",
	"künstliche intelligenz",
	"intelligenza artificiale",
	"inteligência artificial",
	"人工知能",
	"人工智能",
	"인공지능",
}

// Short tokens like "ai", "llm" or "gpt" need word boundaries, otherwise
// "award" or "egyptian" would match.
var shortTokenExpr = regexp.MustCompile(`\b(ai|ml|llm|llms|gpt|nlp)\b`)

// IsRelevant decides whether an item is AI-education-relevant. Relevance is
// a keyword match OR an influential-account match OR an organization match.
// Pure function; called per item in a tight loop.
func IsRelevant(title, description string) bool {
	content := strings.ToLower(title + " " + description)

	for _, keyword := range aiKeywords {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	if shortTokenExpr.MatchString(content) {
		return true
	}
	for _, account := range influentialAccounts {
		if strings.Contains(content, account) {
			return true
		}
	}
	for _, org := range organizationAccounts {
		if strings.Contains(content, org) {
			return true
		}
	}

	return false
}

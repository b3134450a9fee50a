package relay

import (
	"regexp"
	"strings"
)

// Profile selects a prompt template and its generation parameters.
type Profile string

const (
	ProfileGeneral Profile = "general"
	ProfileCode    Profile = "code"
)

// Params captures generation parameters sent with every upstream request.
type Params struct {
	MaxTokens         int
	Temperature       float64
	TopK              int
	TopP              float64
	RepetitionPenalty float64
}

// Generation parameters per profile.
const (
	generalMaxTokens         = 800
	generalTemperature       = 0.7
	generalTopK              = 50
	generalTopP              = 0.7
	generalRepetitionPenalty = 1.0

	codeMaxTokens         = 1500
	codeTemperature       = 0.2
	codeTopK              = 40
	codeTopP              = 0.9
	codeRepetitionPenalty = 1.1
)

const generalTemplate = `You are a helpful AI assistant with expertise in programming, technology, and general knowledge.
Please provide a clear, direct, and accurate answer to the following question.

Question: %QUERY%
Answer: `

const codeTemplate = `You are an expert software engineer.
Answer the following programming question precisely. Put every code sample in a fenced markdown block tagged with its language, and keep explanations short and step-by-step.

Question: %QUERY%
Answer: `

// Prompt is the upstream-ready rendition of a query.
type Prompt struct {
	Profile Profile
	Text    string
	Params  Params
}

var codeKeywords = regexp.MustCompile(`(?i)\b(code|coding|function|program|programming|script|snippet|implement|algorithm|compile|compiler|syntax|debug|stack ?trace|exception|regex|regexp|api|sql|json|yaml|recursion|loop|array|struct|interface)\b`)

var codeLanguages = regexp.MustCompile(`(?i)(\b(python|javascript|typescript|java|golang|rust|ruby|php|kotlin|swift|scala|haskell|perl|bash|shell|powershell|html|css|react|node\.?js|django|flask)\b|c\+\+|c#|\.net\b)`)

// IsCodeQuery reports whether the query looks programming related. Plain "go"
// is not matched to avoid treating everyday English as code.
func IsCodeQuery(q string) bool {
	if strings.Contains(q, "```") {
		return true
	}
	return codeKeywords.MatchString(q) || codeLanguages.MatchString(q)
}

// BuildPrompt wraps an already trimmed query in the matching template.
func BuildPrompt(query string) Prompt {
	if IsCodeQuery(query) {
		return Prompt{
			Profile: ProfileCode,
			Text:    strings.Replace(codeTemplate, "%QUERY%", query, 1),
			Params: Params{
				MaxTokens:         codeMaxTokens,
				Temperature:       codeTemperature,
				TopK:              codeTopK,
				TopP:              codeTopP,
				RepetitionPenalty: codeRepetitionPenalty,
			},
		}
	}
	return Prompt{
		Profile: ProfileGeneral,
		Text:    strings.Replace(generalTemplate, "%QUERY%", query, 1),
		Params: Params{
			MaxTokens:         generalMaxTokens,
			Temperature:       generalTemperature,
			TopK:              generalTopK,
			TopP:              generalTopP,
			RepetitionPenalty: generalRepetitionPenalty,
		},
	}
}

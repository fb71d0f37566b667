package insights

import (
	"context"
	"strings"

	"github.com/aarsakian/CryptoTriage/model"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

type Insights struct {
	Summary    string
	Suspicious string
	NextSteps  string
}

// Service generates post analysis commentary from an analysis result.
type Service struct {
	client        *Client
	extraKeywords []string
}

func NewService(config Config, extraKeywords ...string) *Service {
	return &Service{client: NewClient(config), extraKeywords: extraKeywords}
}

// Summarize asks for a strict JSON verdict and tolerates sloppy replies, a
// non JSON answer lands unparsed in Summary.
func (service *Service) Summarize(ctx context.Context, result *model.AnalysisResult) (Insights, error) {
	contextJSON, err := BuildContext(result, service.extraKeywords...)
	if err != nil {
		return Insights{}, err
	}
	system := "You are a digital forensics assistant. Reply in English. " +
		"You must base your output strictly on the provided JSON context. " +
		"If information is missing, say so explicitly. " +
		"Keep output concise and structured."
	user := "Given this disk analysis context (JSON), produce a STRICT JSON object with keys:\n" +
		"- summary: string (5-10 concise bullet lines)\n" +
		"- suspicious: string (bullet lines; reference suspicious_hits when present)\n" +
		"- next_steps: string (bullet lines)\n" +
		"Rules: output JSON only, no markdown fences, no extra keys. Values MUST be strings (not arrays).\n\n" +
		"CONTEXT_JSON:\n" + string(contextJSON)

	text, err := service.client.Chat(ctx, system, user, 0.2)
	if err != nil {
		return Insights{}, err
	}
	parsed := gjson.Parse(text)
	if !parsed.IsObject() {
		return Insights{Summary: text}, nil
	}
	return Insights{
		Summary:    normalizeBullets(parsed.Get("summary")),
		Suspicious: normalizeSuspicious(parsed.Get("suspicious")),
		NextSteps:  normalizeBullets(parsed.Get("next_steps")),
	}, nil
}

// Answer responds to a free form question about the result.
func (service *Service) Answer(ctx context.Context, result *model.AnalysisResult, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("question cannot be empty")
	}
	contextJSON, err := BuildContext(result, service.extraKeywords...)
	if err != nil {
		return "", err
	}
	system := "You are a digital forensics assistant. Reply in English. " +
		"Answer the user's question strictly using the provided JSON context. " +
		"If the answer cannot be derived from the context, say what is missing."
	user := "Question: " + question + "\n\nCONTEXT_JSON:\n" + string(contextJSON)
	return service.client.Chat(ctx, system, user, 0.1)
}

// normalizeBullets accepts either a plain string or an array of lines, models
// regularly ignore the strings-only instruction.
func normalizeBullets(value gjson.Result) string {
	if !value.Exists() {
		return ""
	}
	if value.Type == gjson.String {
		return value.String()
	}
	if value.IsArray() {
		var lines []string
		for _, item := range value.Array() {
			appendBullet(&lines, strings.TrimSpace(item.String()))
		}
		return strings.Join(lines, "\n")
	}
	return value.String()
}

// normalizeSuspicious additionally accepts {path, reason} objects inside the
// array form.
func normalizeSuspicious(value gjson.Result) string {
	if !value.Exists() {
		return ""
	}
	if value.Type == gjson.String {
		return value.String()
	}
	if value.IsArray() {
		var lines []string
		for _, item := range value.Array() {
			text := ""
			if item.IsObject() {
				path := strings.TrimSpace(item.Get("path").String())
				reason := strings.TrimSpace(item.Get("reason").String())
				switch {
				case path != "" && reason != "":
					text = path + " - " + reason
				case path != "":
					text = path
				default:
					text = reason
				}
			} else {
				text = strings.TrimSpace(item.String())
			}
			appendBullet(&lines, text)
		}
		return strings.Join(lines, "\n")
	}
	return value.String()
}

func appendBullet(lines *[]string, text string) {
	if text == "" {
		return
	}
	if !strings.HasPrefix(text, "-") {
		text = "- " + text
	}
	*lines = append(*lines, text)
}

package ai

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DraftChange is one structural edit the model reports for a resume section.
type DraftChange struct {
	Section string `mapstructure:"section"`
	Action  string `mapstructure:"action"`
	Detail  string `mapstructure:"detail"`
}

// ResumeDraft is the decoded answer to a resume tailoring prompt.
type ResumeDraft struct {
	Resume  string        `mapstructure:"resume"`
	Skills  []string      `mapstructure:"skills"`
	Changes []DraftChange `mapstructure:"changes"`
	Usage   Usage         `mapstructure:"-"`
}

// CoverLetter is the decoded answer to a cover letter prompt.
type CoverLetter struct {
	Text  string
	Usage Usage
}

func decodeDraft(raw string) (*ResumeDraft, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, &BackendError{Kind: ErrInvalidResponse, Message: "resume draft is not a JSON object: " + err.Error()}
	}

	var draft ResumeDraft
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &draft,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, &BackendError{Kind: ErrInvalidResponse, Message: "decode resume draft: " + err.Error()}
	}

	draft.Resume = strings.TrimSpace(draft.Resume)
	if draft.Resume == "" {
		return nil, &BackendError{Kind: ErrInvalidResponse, Message: "resume draft has no resume text"}
	}

	draft.Skills = splitSkills(draft.Skills)
	for i := range draft.Changes {
		c := &draft.Changes[i]
		c.Section = strings.TrimSpace(c.Section)
		c.Action = strings.ToLower(strings.TrimSpace(c.Action))
		c.Detail = strings.TrimSpace(c.Detail)
	}

	return &draft, nil
}

func decodeCoverLetter(raw string) (string, error) {
	text := extractJSON(raw)
	if text == "" {
		return "", &BackendError{Kind: ErrInvalidResponse, Message: "empty cover letter"}
	}
	return text, nil
}

// splitSkills flattens entries like "go, python" that weak decoding keeps as one element.
func splitSkills(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// extractJSON strips markdown code fences around a model answer.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

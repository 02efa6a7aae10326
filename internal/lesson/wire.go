package lesson

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// exerciseWire is the content format produced by the lesson service.
// "answer" is a string or a string array depending on the exercise type;
// match_pairs keys are taken from "pairs".
type exerciseWire struct {
	ID          string       `json:"id" yaml:"id"`
	Type        ExerciseType `json:"type" yaml:"type"`
	Prompt      string       `json:"prompt_en" yaml:"prompt_en"`
	Answer      any          `json:"answer,omitempty" yaml:"answer,omitempty"`
	Choices     []string     `json:"choices,omitempty" yaml:"choices,omitempty"`
	Bank        []string     `json:"bank,omitempty" yaml:"bank,omitempty"`
	Pairs       []Pair       `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Tolerance   *Tolerance   `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Explanation string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

func (e *Exercise) UnmarshalJSON(b []byte) error {
	var w exerciseWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = fromWire(w)
	return nil
}

func (e *Exercise) UnmarshalYAML(n *yaml.Node) error {
	var w exerciseWire
	if err := n.Decode(&w); err != nil {
		return err
	}
	*e = fromWire(w)
	return nil
}

func (e Exercise) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(e))
}

func fromWire(w exerciseWire) Exercise {
	ex := Exercise{
		ID:          w.ID,
		Type:        w.Type,
		Prompt:      w.Prompt,
		Choices:     w.Choices,
		Bank:        w.Bank,
		Pairs:       w.Pairs,
		Explanation: w.Explanation,
	}
	if w.Tolerance != nil {
		ex.Tolerance = *w.Tolerance
	}
	ex.Key = keyFromWire(w.Type, w.Answer, w.Pairs)
	return ex
}

func keyFromWire(t ExerciseType, answer any, pairs []Pair) AnswerKey {
	switch t {
	case TypeMultipleChoice:
		if s, ok := answer.(string); ok {
			return ChoiceKey(s)
		}
	case TypeTypeAnswer:
		if ss, ok := toStrings(answer); ok {
			return AcceptedKey(ss)
		}
	case TypeWordBank:
		if ss, ok := toStrings(answer); ok {
			return SequenceKey(ss)
		}
	case TypeMatchPairs:
		if len(pairs) > 0 {
			return PairsKey(append([]Pair(nil), pairs...))
		}
	}
	return MalformedKey{Raw: answer}
}

func toWire(e Exercise) exerciseWire {
	w := exerciseWire{
		ID:          e.ID,
		Type:        e.Type,
		Prompt:      e.Prompt,
		Choices:     e.Choices,
		Bank:        e.Bank,
		Pairs:       e.Pairs,
		Explanation: e.Explanation,
	}
	if e.Tolerance != (Tolerance{}) {
		t := e.Tolerance
		w.Tolerance = &t
	}
	switch k := e.Key.(type) {
	case ChoiceKey:
		w.Answer = string(k)
	case AcceptedKey:
		w.Answer = []string(k)
	case SequenceKey:
		w.Answer = []string(k)
	case MalformedKey:
		w.Answer = k.Raw
	}
	return w
}

// toStrings accepts []string as well as the []any produced by generic decoders.
func toStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

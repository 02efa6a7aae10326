package lesson

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Answer is a learner submission. The variant is chosen from the exercise
// type when the raw value is decoded; RawAnswer holds a value whose shape
// does not fit the type and is graded as an invalid submission.
type Answer interface{ isAnswer() }

type (
	ChoiceAnswer     string         // multiple_choice
	TextAnswer       string         // type_answer
	TokensAnswer     []string       // word_bank, one token per blank
	PlacementsAnswer map[int]string // match_pairs, slot index -> right-hand text
	RawAnswer        json.RawMessage
)

func (ChoiceAnswer) isAnswer()     {}
func (TextAnswer) isAnswer()       {}
func (TokensAnswer) isAnswer()     {}
func (PlacementsAnswer) isAnswer() {}
func (RawAnswer) isAnswer()        {}

var ErrBadAnswerJSON = errors.New("answer is not valid json")

// DecodeAnswer maps a raw JSON submission onto the variant for t.
// Only malformed JSON is an error; a well-formed value of the wrong shape
// comes back as RawAnswer.
func DecodeAnswer(t ExerciseType, raw json.RawMessage) (Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, ErrBadAnswerJSON
	}
	keep := RawAnswer(append([]byte(nil), raw...))

	switch t {
	case TypeMultipleChoice, TypeTypeAnswer:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return keep, nil
		}
		if t == TypeMultipleChoice {
			return ChoiceAnswer(s), nil
		}
		return TextAnswer(s), nil

	case TypeWordBank:
		var ss []string
		if err := json.Unmarshal(raw, &ss); err != nil {
			return keep, nil
		}
		return TokensAnswer(ss), nil

	case TypeMatchPairs:
		if p, ok := decodePlacements(raw); ok {
			return p, nil
		}
		return keep, nil
	}
	return keep, nil
}

// decodePlacements accepts {"0":"perro","1":"gato"} or the positional
// ["perro","gato"] form saved by older clients. Empty slots are left out.
func decodePlacements(raw json.RawMessage) (PlacementsAnswer, bool) {
	var byKey map[string]*string
	if err := json.Unmarshal(raw, &byKey); err == nil {
		out := make(PlacementsAnswer, len(byKey))
		for k, v := range byKey {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 {
				return nil, false
			}
			if v != nil && *v != "" {
				out[i] = *v
			}
		}
		return out, true
	}
	var list []*string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make(PlacementsAnswer, len(list))
		for i, v := range list {
			if v != nil && *v != "" {
				out[i] = *v
			}
		}
		return out, true
	}
	return nil, false
}

// EncodeAnswer is the inverse of DecodeAnswer and is what snapshots store.
func EncodeAnswer(a Answer) (json.RawMessage, error) {
	switch v := a.(type) {
	case ChoiceAnswer:
		return json.Marshal(string(v))
	case TextAnswer:
		return json.Marshal(string(v))
	case TokensAnswer:
		return json.Marshal([]string(v))
	case PlacementsAnswer:
		m := make(map[string]string, len(v))
		for k, text := range v {
			m[strconv.Itoa(k)] = text
		}
		return json.Marshal(m)
	case RawAnswer:
		return json.RawMessage(v), nil
	case nil:
		return nil, errors.New("nil answer")
	}
	return nil, errors.New("unknown answer variant")
}

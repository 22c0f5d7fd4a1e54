package persistence

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/petrijr/formflow/pkg/api"
)

// EncodeAnswers serializes an answer map as JSON. A nil map encodes as "{}".
func EncodeAnswers(a api.Answers) ([]byte, error) {
	if a == nil {
		a = api.Answers{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return data, nil
}

// DecodeAnswers is the inverse of EncodeAnswers. Empty input decodes to an
// empty map.
func DecodeAnswers(data []byte) (api.Answers, error) {
	out := api.Answers{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return out, nil
}

func cloneSubmission(sub *api.Submission) *api.Submission {
	c := *sub
	c.Answers = sub.Answers.Clone()
	return &c
}

func sortSubmissions(subs []*api.Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
		}
		return subs[i].ID < subs[j].ID
	})
}

func (f SubmissionFilter) match(sub *api.Submission) bool {
	if f.FormID != "" && sub.FormID != f.FormID {
		return false
	}
	if f.SessionID != "" && sub.SessionID != f.SessionID {
		return false
	}
	return true
}

func (f SubmissionFilter) truncate(subs []*api.Submission) []*api.Submission {
	if f.Limit > 0 && len(subs) > f.Limit {
		return subs[:f.Limit]
	}
	return subs
}

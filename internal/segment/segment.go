// Package segment defines the transient records returned by the
// classification provider and the normalization applied to them at the
// ingestion boundary. Provider output is loosely typed: list fields may
// arrive as a single string, and older responses used "subjects" instead
// of "subjectDescriptors". All of that tolerance lives here; the rest of
// the codebase only ever sees the strict Segment type.
package segment

import (
	"encoding/json"
	"fmt"
)

// StringList decodes either a JSON array of strings or a single string.
// Absent, null or unusable values decode to an empty list.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}

	// Mixed-type arrays: keep the string elements.
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		out := make(StringList, 0, len(raw))
		for _, item := range raw {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	}

	*l = nil
	return nil
}

// Segment is one provider-identified time range with classification
// metadata. Segments exist only for the duration of one classification
// call; accepted ones are turned into catalog clips.
type Segment struct {
	StartTime          string     `json:"startTime"`
	EndTime            string     `json:"endTime"`
	BestMoment         string     `json:"bestMoment"`
	ShotType           string     `json:"shotType"`
	BrollScore         float64    `json:"brollScore"`
	Equipment          StringList `json:"equipment"`
	Products           StringList `json:"products"`
	Technique          StringList `json:"technique"`
	SubjectDescriptors StringList `json:"subjectDescriptors"`
	Description        string     `json:"description"`
	PresenterVisible   bool       `json:"presenterVisible"`
	Other              StringList `json:"other"`
}

func (s *Segment) UnmarshalJSON(data []byte) error {
	type alias Segment
	aux := struct {
		*alias
		LegacySubjects StringList `json:"subjects"`
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(s.SubjectDescriptors) == 0 && len(aux.LegacySubjects) > 0 {
		s.SubjectDescriptors = aux.LegacySubjects
	}
	return nil
}

// Decode parses a provider JSON payload into segments. A lone object is
// treated as a one-element array.
func Decode(data []byte) ([]Segment, error) {
	var segs []Segment
	if err := json.Unmarshal(data, &segs); err == nil {
		return segs, nil
	}

	var one Segment
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("response is neither a segment array nor a segment object: %w", err)
	}
	return []Segment{one}, nil
}

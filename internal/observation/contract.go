package observation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Columns are the seven fields the search query projects, in request order.
var Columns = []string{
	"targprop",
	"targ_ra",
	"targ_dec",
	"instrume",
	"opticalElements",
	"targtype",
	"date_obs",
}

// SearchRequest is the fixed body POSTed to the upstream search API.
type SearchRequest struct {
	Conditions []any    `json:"conditions"`
	Columns    []string `json:"columns"`
	Limit      int      `json:"limit"`
	SortBy     []string `json:"sort_by"`
	SortDesc   []bool   `json:"sort_desc"`
	SkipCount  bool     `json:"skip_count"`
}

// LatestQuery asks for the ten most recent observations. Counting is
// skipped because the upstream is much slower when it has to total results.
func LatestQuery() SearchRequest {
	return SearchRequest{
		Conditions: []any{},
		Columns:    append([]string(nil), Columns...),
		Limit:      10,
		SortBy:     []string{"date_obs"},
		SortDesc:   []bool{true},
		SkipCount:  true,
	}
}

// SearchResponse is the upstream response envelope.
type SearchResponse struct {
	Results []Record `json:"results"`
}

// Record is one result row. Numeric columns arrive as numbers or strings
// depending on the upstream's mood.
type Record struct {
	TargProp        Text   `json:"targprop"`
	TargRA          Number `json:"targ_ra"`
	TargDec         Number `json:"targ_dec"`
	Instrume        Text   `json:"instrume"`
	OpticalElements Text   `json:"opticalElements"`
	TargType        Text   `json:"targtype"`
	DateObs         Text   `json:"date_obs"`
}

// Number decodes a JSON number, numeric string or null. Anything that is
// not numeric decodes to NaN instead of failing the whole response.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		v = math.NaN()
	}
	*n = Number(v)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

// Text decodes a JSON string, number, list of strings or null into a
// trimmed string. Lists are joined with ";".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case b[0] == '[':
		var parts []Text
		if err := json.Unmarshal(b, &parts); err != nil {
			return err
		}
		ss := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				ss = append(ss, string(p))
			}
		}
		*t = Text(strings.Join(ss, ";"))
	default:
		*t = Text(b)
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Snapshot converts a record. Missing text fields stay empty and bad
// coordinates stay NaN; the parameter mapper owns the defaults.
func (r Record) Snapshot() Snapshot {
	return Snapshot{
		TargetName: string(r.TargProp),
		RA:         float64(r.TargRA),
		Dec:        float64(r.TargDec),
		Instrument: string(r.Instrume),
		Filter:     string(r.OpticalElements),
		TargetType: string(r.TargType),
		CapturedAt: parseDate(string(r.DateObs)),
	}
}

// ErrNoResults is returned when the upstream answered with an empty list.
var ErrNoResults = errors.New("no observations in response")

// ParseLatest decodes a search response body and returns its newest
// observation.
func ParseLatest(body []byte) (Snapshot, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Snapshot{}, fmt.Errorf("decoding search response: %w", err)
	}
	if len(resp.Results) == 0 {
		return Snapshot{}, ErrNoResults
	}
	return resp.Results[0].Snapshot(), nil
}

// FallbackBody is a single-observation response built from Default, served
// when neither the upstream nor a cached response is available.
func FallbackBody() []byte {
	d := Default()
	resp := SearchResponse{Results: []Record{{
		TargProp:        Text(d.TargetName),
		TargRA:          Number(d.RA),
		TargDec:         Number(d.Dec),
		Instrume:        Text(d.Instrument),
		OpticalElements: Text(d.Filter),
		TargType:        Text(d.TargetType),
		DateObs:         Text(d.CapturedAt.Format(time.RFC3339)),
	}}}
	b, _ := json.Marshal(resp)
	return b
}

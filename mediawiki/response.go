package mediawiki

import (
	"encoding/json"
	"fmt"
)

// APIError is the error object MediaWiki returns with a 200 status.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Info)
}

type envelope interface {
	apiError() *APIError
}

type categoryMembersResponse struct {
	Error    *APIError `json:"error"`
	Continue struct {
		CMContinue string `json:"cmcontinue"`
	} `json:"continue"`
	Query *struct {
		CategoryMembers []struct {
			NS    int    `json:"ns"`
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

func (r *categoryMembersResponse) apiError() *APIError { return r.Error }

type parseResponse struct {
	Error *APIError `json:"error"`
	Parse *struct {
		Title    string    `json:"title"`
		Wikitext textField `json:"wikitext"`
		Text     textField `json:"text"`
	} `json:"parse"`
}

func (r *parseResponse) apiError() *APIError { return r.Error }

// textField accepts both the legacy {"*": "..."} shape and the plain string
// returned with formatversion=2.
type textField struct {
	value string
	ok    bool
}

func (f *textField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.value, f.ok = s, true
		return nil
	}
	var legacy map[string]string
	if err := json.Unmarshal(b, &legacy); err != nil {
		return err
	}
	f.value, f.ok = legacy["*"]
	return nil
}

package discord

import (
	"encoding/json"
	"fmt"
	"io"
)

// apiError is the body discord sends with a failed request
type apiError struct {
	StatusCode int            `json:"-"`
	Code       int            `json:"code"`
	Message    string         `json:"message"`
	Errors     map[string]any `json:"errors,omitempty"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("discord api error %d (status %d): %s", e.Code, e.StatusCode, e.Message)
}

func readErr(status int, r io.Reader) (*apiError, error) {
	er := &apiError{StatusCode: status}
	if err := json.NewDecoder(r).Decode(er); err != nil {
		return nil, fmt.Errorf("error decoding error: %s", err)
	}

	return er, nil
}

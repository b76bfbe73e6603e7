package billing

import (
	"bytes"
	"encoding/json"
)

var jsonNullLiteral = []byte("null")

// Reference points at a related resource. The platform returns references either
// as a bare identifier or as an expanded object carrying an "id" field.
type Reference struct {
	ID string
}

// UnmarshalJSON accepts both the identifier and the expanded object representations.
func (reference *Reference) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNullLiteral) {
		reference.ID = ""
		return nil
	}

	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &reference.ID)
	}

	var expanded struct {
		ID string `json:"id"`
	}
	if decodeError := json.Unmarshal(trimmed, &expanded); decodeError != nil {
		return decodeError
	}
	reference.ID = expanded.ID
	return nil
}

// MarshalJSON always emits the collapsed identifier form.
func (reference Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(reference.ID)
}

// ReferenceID returns the identifier of a possibly absent reference.
func ReferenceID(reference *Reference) string {
	if reference == nil {
		return ""
	}
	return reference.ID
}

// ReferenceIDs collapses a list of references into their identifiers, dropping empty entries.
func ReferenceIDs(references []Reference) []string {
	if len(references) == 0 {
		return nil
	}
	identifiers := make([]string, 0, len(references))
	for _, reference := range references {
		if len(reference.ID) == 0 {
			continue
		}
		identifiers = append(identifiers, reference.ID)
	}
	return identifiers
}

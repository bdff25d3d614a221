// Package document models the "introduce goods into circulation" document accepted by the
// registration service and its tolerant JSON mapping.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/pkg/constants"
)

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(constants.DocumentDateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected %s", s, constants.DocumentDateFormat)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(constants.DocumentDateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Description struct {
	ParticipantInn *string `json:"participantInn,omitempty"`
}

type Product struct {
	CertificateDocument       *string `json:"certificate_document,omitempty"`
	CertificateDocumentDate   *Date   `json:"certificate_document_date,omitempty"`
	CertificateDocumentNumber *string `json:"certificate_document_number,omitempty"`
	OwnerInn                  *string `json:"owner_inn,omitempty"`
	ProducerInn               *string `json:"producer_inn,omitempty"`
	ProductionDate            *Date   `json:"production_date,omitempty"`
	TnvedCode                 *string `json:"tnved_code,omitempty"`
	UitCode                   *string `json:"uit_code,omitempty"`
	UituCode                  *string `json:"uitu_code,omitempty"`
}

// Document is the body of a create-document request. Every field is optional; nil means absent.
type Document struct {
	Description    *Description   `json:"description,omitempty"`
	DocID          *string        `json:"doc_id,omitempty"`
	DocStatus      *string        `json:"doc_status,omitempty"`
	DocType        map[string]int `json:"doc_type,omitempty"`
	ImportRequest  *bool          `json:"importRequest,omitempty"`
	OwnerInn       *string        `json:"owner_inn,omitempty"`
	ParticipantInn *string        `json:"participant_inn,omitempty"`
	ProducerInn    *string        `json:"producer_inn,omitempty"`
	ProductionDate *Date          `json:"production_date,omitempty"`
	ProductionType *string        `json:"production_type,omitempty"`
	Products       []Product      `json:"products,omitempty"`
	RegDate        *Date          `json:"reg_date,omitempty"`
	RegNumber      *string        `json:"reg_number,omitempty"`
}

// Marshal renders the wire form. Absent fields are omitted so that Decode(Marshal(d)) reproduces d.
func Marshal(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document: nil document")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("document: marshal: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// PrimaryDocType returns the first doc_type code in lexical order, or "" when none is set.
func (d *Document) PrimaryDocType() string {
	primary := ""
	for code := range d.DocType {
		if primary == "" || code < primary {
			primary = code
		}
	}
	return primary
}

// StringOrEmpty dereferences an optional string field.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func String(s string) *string {
	return &s
}

func Bool(b bool) *bool {
	return &b
}

func DatePtr(d Date) *Date {
	return &d
}

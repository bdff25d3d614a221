package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	errNotString = errors.New("expected a string")
	errNotBool   = errors.New("expected a boolean")
	errNotInt    = errors.New("expected an integer")
	errNotObject = errors.New("expected an object")
	errNotArray  = errors.New("expected an array")
	errEmpty     = errors.New("has no entries")
	errNoneValid = errors.New("has no valid entries")
)

// FieldIssue records a field that was present but could not be mapped.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Report lists how each top-level field was mapped. Nested paths use dots and indexes,
// e.g. "products[1].production_date".
type Report struct {
	Present []string     `json:"present"`
	Missing []string     `json:"missing"`
	Invalid []FieldIssue `json:"invalid,omitempty"`
}

func (r *Report) HasIssues() bool {
	return len(r.Invalid) > 0
}

func (r *Report) invalid(field string, err error) {
	r.Invalid = append(r.Invalid, FieldIssue{Field: field, Reason: err.Error()})
}

// fields lists every top-level field in wire order with its decoder.
var fields = []struct {
	name   string
	decode func(doc *Document, raw json.RawMessage, report *Report) error
}{
	{"description", func(doc *Document, raw json.RawMessage, _ *Report) error {
		obj, err := asObject(raw)
		if err != nil {
			return err
		}
		description := &Description{}
		if inn, ok := obj["participantInn"]; ok && !isNull(inn) {
			v, err := asString(inn)
			if err != nil {
				return fmt.Errorf("participantInn: %w", err)
			}
			description.ParticipantInn = v
		}
		doc.Description = description
		return nil
	}},
	{"doc_id", stringField(func(d *Document) **string { return &d.DocID })},
	{"doc_status", stringField(func(d *Document) **string { return &d.DocStatus })},
	{"doc_type", func(doc *Document, raw json.RawMessage, report *Report) error {
		obj, err := asObject(raw)
		if err != nil {
			return err
		}
		caser := cases.Upper(language.Und)
		codes := make(map[string]int, len(obj))
		for _, key := range sortedKeys(obj) {
			n, err := asInt(obj[key])
			if err != nil {
				report.invalid("doc_type."+key, err)
				continue
			}
			codes[caser.String(strings.TrimSpace(key))] = n
		}
		if err := requireEntries(len(obj), len(codes)); err != nil {
			return err
		}
		doc.DocType = codes
		return nil
	}},
	{"importRequest", func(doc *Document, raw json.RawMessage, _ *Report) error {
		v, err := asBool(raw)
		if err != nil {
			return err
		}
		doc.ImportRequest = v
		return nil
	}},
	{"owner_inn", stringField(func(d *Document) **string { return &d.OwnerInn })},
	{"participant_inn", stringField(func(d *Document) **string { return &d.ParticipantInn })},
	{"producer_inn", stringField(func(d *Document) **string { return &d.ProducerInn })},
	{"production_date", dateField(func(d *Document) **Date { return &d.ProductionDate })},
	{"production_type", stringField(func(d *Document) **string { return &d.ProductionType })},
	{"products", func(doc *Document, raw json.RawMessage, report *Report) error {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return errNotArray
		}
		products := make([]Product, 0, len(items))
		for i, item := range items {
			product, err := decodeProduct(item, fmt.Sprintf("products[%d]", i), report)
			if err != nil {
				report.invalid(fmt.Sprintf("products[%d]", i), err)
				continue
			}
			products = append(products, product)
		}
		if err := requireEntries(len(items), len(products)); err != nil {
			return err
		}
		doc.Products = products
		return nil
	}},
	{"reg_date", dateField(func(d *Document) **Date { return &d.RegDate })},
	{"reg_number", stringField(func(d *Document) **string { return &d.RegNumber })},
}

// Decode maps a JSON object onto a Document field by field. A missing or malformed field is left
// absent and noted in the report; only input that is not a JSON object is rejected.
func Decode(data []byte) (*Document, *Report, error) {
	root, err := asObject(bytes.TrimSpace(data))
	if err != nil {
		return nil, nil, fmt.Errorf("document: decode: %w", err)
	}

	doc := &Document{}
	report := &Report{Present: []string{}, Missing: []string{}}

	for _, f := range fields {
		raw, ok := root[f.name]
		if !ok || isNull(raw) {
			report.Missing = append(report.Missing, f.name)
			continue
		}
		if err := f.decode(doc, raw, report); err != nil {
			report.invalid(f.name, err)
			continue
		}
		report.Present = append(report.Present, f.name)
	}

	return doc, report, nil
}

// requireEntries keeps a collection field out of Present when nothing in it could be mapped, since
// Marshal omits empty collections.
func requireEntries(total, mapped int) error {
	switch {
	case total == 0:
		return errEmpty
	case mapped == 0:
		return errNoneValid
	}
	return nil
}

var productFields = []struct {
	name   string
	decode func(p *Product, raw json.RawMessage) error
}{
	{"certificate_document", productString(func(p *Product) **string { return &p.CertificateDocument })},
	{"certificate_document_date", productDate(func(p *Product) **Date { return &p.CertificateDocumentDate })},
	{"certificate_document_number", productString(func(p *Product) **string { return &p.CertificateDocumentNumber })},
	{"owner_inn", productString(func(p *Product) **string { return &p.OwnerInn })},
	{"producer_inn", productString(func(p *Product) **string { return &p.ProducerInn })},
	{"production_date", productDate(func(p *Product) **Date { return &p.ProductionDate })},
	{"tnved_code", productString(func(p *Product) **string { return &p.TnvedCode })},
	{"uit_code", productString(func(p *Product) **string { return &p.UitCode })},
	{"uitu_code", productString(func(p *Product) **string { return &p.UituCode })},
}

func decodeProduct(raw json.RawMessage, path string, report *Report) (Product, error) {
	obj, err := asObject(raw)
	if err != nil {
		return Product{}, err
	}

	var p Product
	for _, f := range productFields {
		v, ok := obj[f.name]
		if !ok || isNull(v) {
			continue
		}
		if err := f.decode(&p, v); err != nil {
			report.invalid(path+"."+f.name, err)
		}
	}
	return p, nil
}

func stringField(target func(*Document) **string) func(*Document, json.RawMessage, *Report) error {
	return func(doc *Document, raw json.RawMessage, _ *Report) error {
		v, err := asString(raw)
		if err != nil {
			return err
		}
		*target(doc) = v
		return nil
	}
}

func dateField(target func(*Document) **Date) func(*Document, json.RawMessage, *Report) error {
	return func(doc *Document, raw json.RawMessage, _ *Report) error {
		v, err := asDate(raw)
		if err != nil {
			return err
		}
		*target(doc) = v
		return nil
	}
}

func productString(target func(*Product) **string) func(*Product, json.RawMessage) error {
	return func(p *Product, raw json.RawMessage) error {
		v, err := asString(raw)
		if err != nil {
			return err
		}
		*target(p) = v
		return nil
	}
}

func productDate(target func(*Product) **Date) func(*Product, json.RawMessage) error {
	return func(p *Product, raw json.RawMessage) error {
		v, err := asDate(raw)
		if err != nil {
			return err
		}
		*target(p) = v
		return nil
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotObject, err)
	}
	return obj, nil
}

// asString accepts JSON strings and numbers; numeric identifiers are common in INN fields.
func asString(raw json.RawMessage) (*string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		str := n.String()
		return &str, nil
	}
	return nil, errNotString
}

func asBool(raw json.RawMessage) (*bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return &parsed, nil
		}
	}
	return nil, errNotBool
}

func asInt(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := strconv.Atoi(n.String()); err == nil {
			return v, nil
		}
		return 0, errNotInt
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v, nil
		}
	}
	return 0, errNotInt
}

func asDate(raw json.RawMessage) (*Date, error) {
	var d Date
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func sortedKeys(obj map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package payout

import "strings"

// DestinationField reads one destination candidate from a profile.
type DestinationField struct {
	Name string
	Get  func(p *Profile) *string
}

// DefaultDestinationFields is the lookup priority used when none is configured.
var DefaultDestinationFields = []DestinationField{
	{Name: "paystack_recipient_code", Get: func(p *Profile) *string { return p.PaystackRecipientCode }},
	{Name: "transfer_recipient_code", Get: func(p *Profile) *string { return p.TransferRecipientCode }},
	{Name: "payout_recipient_code", Get: func(p *Profile) *string { return p.PayoutRecipientCode }},
	{Name: "bank_recipient_code", Get: func(p *Profile) *string { return p.BankRecipientCode }},
}

// DestinationResolver picks the payout destination of a developer by checking
// fields in order and returning the first non-blank value.
type DestinationResolver struct {
	fields []DestinationField
}

func NewDestinationResolver(fields []DestinationField) *DestinationResolver {
	if len(fields) == 0 {
		fields = DefaultDestinationFields
	}

	return &DestinationResolver{fields: fields}
}

// Resolve returns the destination and the field it came from. ok is false when
// the profile is nil or every field is empty.
func (r *DestinationResolver) Resolve(p *Profile) (destination, field string, ok bool) {
	if p == nil {
		return "", "", false
	}

	for _, f := range r.fields {
		v := f.Get(p)
		if v == nil {
			continue
		}

		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			return trimmed, f.Name, true
		}
	}

	return "", "", false
}

// Fields returns the configured priority order by name.
func (r *DestinationResolver) Fields() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}

	return names
}

// DestinationFieldsByName builds a priority list from column names, ignoring unknown ones.
func DestinationFieldsByName(names []string) []DestinationField {
	known := make(map[string]DestinationField, len(DefaultDestinationFields))
	for _, f := range DefaultDestinationFields {
		known[f.Name] = f
	}

	var fields []DestinationField

	for _, name := range names {
		if f, ok := known[strings.TrimSpace(name)]; ok {
			fields = append(fields, f)
		}
	}

	return fields
}

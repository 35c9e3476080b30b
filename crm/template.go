package crm

import (
	"strings"
)

// DefaultTemplate is the reminder offered in the bulk view.
const DefaultTemplate = "Dear {name}, your policy {policy_no} with {insurer} is due on {expiry}. " +
	"Please contact your agent to renew. —Your Insurance Advisor"

// Placeholder is one of the named slots a reminder template may use.
type Placeholder string

const (
	PlaceholderName     Placeholder = "name"
	PlaceholderPolicyNo Placeholder = "policy_no"
	PlaceholderInsurer  Placeholder = "insurer"
	PlaceholderExpiry   Placeholder = "expiry"
)

var knownPlaceholders = map[Placeholder]bool{
	PlaceholderName:     true,
	PlaceholderPolicyNo: true,
	PlaceholderInsurer:  true,
	PlaceholderExpiry:   true,
}

// TemplateValues are the substitutions for a single recipient.
type TemplateValues struct {
	Name     string
	PolicyNo string
	Insurer  string
	Expiry   Date

	// ExpiryText is rendered for {expiry} when Expiry is the zero Date.
	ExpiryText string
}

func (v TemplateValues) lookup(p Placeholder) string {
	switch p {
	case PlaceholderName:
		return v.Name
	case PlaceholderPolicyNo:
		return v.PolicyNo
	case PlaceholderInsurer:
		return v.Insurer
	case PlaceholderExpiry:
		if v.Expiry.IsZero() {
			return v.ExpiryText
		}
		return v.Expiry.DayMonthYear()
	}
	return ""
}

// ValuesFor builds the substitutions for a due policy. An expiry that does
// not parse is rendered as stored.
func ValuesFor(p PolicyView) TemplateValues {
	v := TemplateValues{
		Name:     p.ClientName,
		PolicyNo: p.PolicyNo,
		Insurer:  p.Insurer,
	}
	if expiry, ok := p.Expiry(); ok {
		v.Expiry = expiry
	} else {
		v.ExpiryText = strings.TrimSpace(p.ExpiryDate)
	}
	return v
}

// segment is either literal text or a placeholder.
type segment struct {
	text string
	slot Placeholder
}

// Template is a validated reminder template.
type Template struct {
	raw      string
	segments []segment
}

// ParseTemplate validates a template against the closed placeholder set.
// "{{" and "}}" stand for literal braces. Anything else inside braces that
// is not a known placeholder is a *RenderError.
func ParseTemplate(raw string) (*Template, error) {
	t := &Template{raw: raw}
	var lit strings.Builder

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(raw[i+1:], '}')
			if end < 0 {
				return nil, &RenderError{Offset: i, Reason: "unclosed '{'"}
			}
			name := raw[i+1 : i+1+end]
			if !knownPlaceholders[Placeholder(name)] {
				return nil, &RenderError{Placeholder: name, Offset: i, Reason: "unknown placeholder"}
			}
			if lit.Len() > 0 {
				t.segments = append(t.segments, segment{text: lit.String()})
				lit.Reset()
			}
			t.segments = append(t.segments, segment{slot: Placeholder(name)})
			i += end + 1
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &RenderError{Offset: i, Reason: "single '}'"}
		default:
			lit.WriteByte(c)
		}
	}
	if lit.Len() > 0 {
		t.segments = append(t.segments, segment{text: lit.String()})
	}
	return t, nil
}

// Render substitutes every placeholder. It cannot fail once parsed.
func (t *Template) Render(v TemplateValues) string {
	var b strings.Builder
	for _, s := range t.segments {
		if s.slot != "" {
			b.WriteString(v.lookup(s.slot))
			continue
		}
		b.WriteString(s.text)
	}
	return b.String()
}

// String returns the template as written.
func (t *Template) String() string {
	return t.raw
}

// RenderTemplate parses and renders in one step.
func RenderTemplate(raw string, v TemplateValues) (string, error) {
	t, err := ParseTemplate(raw)
	if err != nil {
		return "", err
	}
	return t.Render(v), nil
}

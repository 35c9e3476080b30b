package crm_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-crm/crm"
)

func TestRenderTemplate_DefaultTemplate(t *testing.T) {
	// GIVEN: Asha's policy P1 with Acme expiring 2025-03-05
	p := policy(1, "Asha", "+911", "P1", "2025-03-05")

	// WHEN: rendering the default template
	msg, err := crm.RenderTemplate(crm.DefaultTemplate, crm.ValuesFor(p))

	// THEN: expiry is DD-MM-YYYY and the rest is verbatim
	require.NoError(t, err)
	assert.Equal(t,
		"Dear Asha, your policy P1 with Acme is due on 05-03-2025. Please contact your agent to renew. —Your Insurance Advisor",
		msg)
}

func TestRenderTemplate_ZeroPadsDayAndMonth(t *testing.T) {
	v := crm.TemplateValues{Expiry: date(2025, time.July, 4)}

	msg, err := crm.RenderTemplate("{expiry}", v)

	require.NoError(t, err)
	assert.Equal(t, "04-07-2025", msg)
}

func TestRenderTemplate_PlaceholdersMayRepeatOrBeOmitted(t *testing.T) {
	v := crm.TemplateValues{Name: "Ravi", PolicyNo: "X9"}

	msg, err := crm.RenderTemplate("{name} {name}: {policy_no}", v)

	require.NoError(t, err)
	assert.Equal(t, "Ravi Ravi: X9", msg)
}

func TestRenderTemplate_EscapedBraces(t *testing.T) {
	msg, err := crm.RenderTemplate("{{name}} is {name}}}", crm.TemplateValues{Name: "Asha"})

	require.NoError(t, err)
	assert.Equal(t, "{name} is Asha}", msg)
}

func TestValuesFor_UnparseableExpiryRendersAsStored(t *testing.T) {
	// GIVEN: a policy whose expiry was imported as free text
	p := policy(1, "Asha", "+911", "P1", " end of March ")

	// WHEN: rendering a reminder for it
	msg, err := crm.RenderTemplate("due {expiry}.", crm.ValuesFor(p))

	// THEN: the stored text is used, never a zero date
	require.NoError(t, err)
	assert.Equal(t, "due end of March.", msg)
}

func TestValuesFor_MissingExpiryRendersEmpty(t *testing.T) {
	msg, err := crm.RenderTemplate("due [{expiry}]", crm.ValuesFor(policy(1, "Asha", "+911", "P1", "")))

	require.NoError(t, err)
	assert.Equal(t, "due []", msg)
}

func TestParseTemplate_UnknownPlaceholder(t *testing.T) {
	// WHEN: a template uses a placeholder outside the known set
	_, err := crm.ParseTemplate("Hi {first_name}, renew {policy_no}")

	// THEN: a RenderError naming it is returned
	var renderErr *crm.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "first_name", renderErr.Placeholder)
	assert.Equal(t, 3, renderErr.Offset)
	assert.ErrorIs(t, err, crm.ErrRender)
	assert.True(t, crm.IsClientError(err))
}

func TestParseTemplate_MalformedBraces(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unclosed", "Dear {name"},
		{"stray close", "Dear name}"},
		{"empty placeholder", "Dear {}"},
		{"format spec", "Dear {name:>10}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := crm.ParseTemplate(tt.raw)
			assert.ErrorIs(t, err, crm.ErrRender)
		})
	}
}

func TestParseTemplate_KeepsRawText(t *testing.T) {
	tmpl, err := crm.ParseTemplate(crm.DefaultTemplate)

	require.NoError(t, err)
	assert.Equal(t, crm.DefaultTemplate, tmpl.String())
}

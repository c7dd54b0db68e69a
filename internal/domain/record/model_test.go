package record_test

import (
	"encoding/json"
	"testing"

	"github.com/rpggio/taskdesk/internal/domain/record"
	"github.com/stretchr/testify/require"
)

func TestRef_DecodesIDOrSummary(t *testing.T) {
	var holder struct {
		Manager record.Ref  `json:"projectManager"`
		Team    record.Refs `json:"teamMembers"`
		Missing record.Ref  `json:"missing"`
	}
	raw := `{
		"projectManager": {"_id": "u1", "name": "Ana", "email": "ana@example.com"},
		"teamMembers": ["u2", {"_id": "u3", "name": "Bo"}],
		"missing": null
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &holder))

	require.Equal(t, record.Ref{ID: "u1", Name: "Ana", Email: "ana@example.com"}, holder.Manager)
	require.Equal(t, []string{"u2", "u3"}, holder.Team.IDs())
	require.Equal(t, "Bo", holder.Team[1].Label())
	require.Equal(t, "u2", holder.Team[0].Label())
	require.True(t, holder.Missing.IsZero())
}

func TestRef_SummaryRoundTrips(t *testing.T) {
	in := record.Refs{{ID: "u1", Name: "Ana"}, record.RefTo("u2")}
	out, err := json.Marshal(in)
	require.NoError(t, err)

	var back record.Refs
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, in, back)
	require.True(t, back.Contains("u2"))
	require.False(t, back.Contains("u9"))
}

func TestRef_RejectsOtherShapes(t *testing.T) {
	var r record.Ref
	err := json.Unmarshal([]byte(`42`), &r)
	require.ErrorIs(t, err, record.ErrInvalidRef)
}

func TestRequireOneOf(t *testing.T) {
	type status string
	require.NoError(t, record.RequireOneOf[status]("status", "", "Active"))
	require.NoError(t, record.RequireOneOf[status]("status", "Active", "Active", "Completed"))
	require.ErrorIs(t, record.RequireOneOf[status]("status", "active", "Active"), record.ErrInvalidInput)
	require.ErrorIs(t, record.RequireText("name", "  "), record.ErrInvalidInput)
}

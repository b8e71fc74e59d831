package coach

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
)

func TestPrettyJSON_Deterministic(t *testing.T) {
	got, err := PrettyJSON(`{"b":1,"a":{"d":[1,2],"c":"한글 <tag>"},"score":1.50}`)
	require.NoError(t, err)

	want := `{
  "a": {
    "c": "한글 <tag>",
    "d": [
      1,
      2
    ]
  },
  "b": 1,
  "score": 1.50
}`
	assert.Equal(t, want, got)

	again, err := PrettyJSON(got)
	require.NoError(t, err)
	assert.Equal(t, got, again, "pretty output is a fixed point")
}

func TestPrettyJSON_RoundTrip(t *testing.T) {
	inputs := []string{
		`{"assignment_title":"HW3","requirements":["a","b"],"deadline":"11/01"}`,
		`{"project_title":"팀","milestones":[{"name":"M1","due":"2주차","deliverables":[]}],"risks":null}`,
		`{"nested":{"deep":{"n":-3.25e2,"ok":true}}}`,
	}
	for _, in := range inputs {
		out, err := PrettyJSON(in)
		require.NoError(t, err)

		var before, after any
		require.NoError(t, json.Unmarshal([]byte(in), &before))
		require.NoError(t, json.Unmarshal([]byte(out), &after))
		assert.Equal(t, before, after)
	}
}

func TestPrettyJSON_Rejects(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":1} trailing`, `not json`} {
		_, err := PrettyJSON(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestSchemas_Compile(t *testing.T) {
	for _, s := range []*llm.Schema{AssignmentSchema, ProjectSchema} {
		_, err := llm.CompileSchema(s)
		require.NoError(t, err, s.Name)
	}
}

func TestSchemas_Fields(t *testing.T) {
	props := func(s *llm.Schema) []string {
		var keys []string
		for k := range s.Definition["properties"].(map[string]any) {
			keys = append(keys, k)
		}
		return keys
	}
	assert.ElementsMatch(t, []string{
		"assignment_title", "goal", "requirements", "deliverables",
		"rubric", "deadline", "constraints", "tools_required",
	}, props(AssignmentSchema))
	assert.ElementsMatch(t, []string{
		"project_title", "project_goal", "milestones", "roles_suggested",
		"evaluation_criteria", "constraints", "risks",
	}, props(ProjectSchema))

	assert.Same(t, AssignmentSchema, SchemaFor(Assignment))
	assert.Same(t, ProjectSchema, SchemaFor(Project))
	assert.Nil(t, SchemaFor(SchemaKind(9)))
}

func TestParseKinds(t *testing.T) {
	k, err := ParseSchemaKind("project")
	require.NoError(t, err)
	assert.Equal(t, Project, k)
	_, err = ParseSchemaKind("essay")
	assert.Error(t, err)

	c, err := ParseCoachKind("assignment")
	require.NoError(t, err)
	assert.Equal(t, AssignmentCoach, c)
	_, err = ParseCoachKind("")
	assert.Error(t, err)
}

func TestFallbackExtractionPrompt(t *testing.T) {
	ko, err := NewPrompts(LocaleKO)
	require.NoError(t, err)
	out, err := ko.FallbackExtractionPrompt(AssignmentSchema, "문서 본문")
	require.NoError(t, err)
	assert.Contains(t, out, "근거 부족")
	assert.Contains(t, out, "문서 본문")
	assert.Contains(t, out, `"tools_required":{"items":{"type":"string"},"type":"array"}`)

	en, err := NewPrompts(LocaleEN)
	require.NoError(t, err)
	out, err = en.FallbackExtractionPrompt(ProjectSchema, "body")
	require.NoError(t, err)
	assert.Contains(t, out, "insufficient evidence")
	assert.Contains(t, out, `"milestones"`)
	assert.Equal(t, "You extract information from documents precisely and answer only in JSON.", en.FallbackSystem())
}

func TestPrompts_EmbedInputVerbatim(t *testing.T) {
	p, err := NewPrompts(LocaleEN)
	require.NoError(t, err)

	in := "{\n  \"goal\": \"<b>&</b>\"\n}"
	out, err := p.AssignmentCoachPrompt(in)
	require.NoError(t, err)
	assert.Contains(t, out, in)

	out, err = p.PMCoachPrompt(in, 5, "6 weeks")
	require.NoError(t, err)
	assert.Contains(t, out, in)
	assert.Contains(t, out, "Team size: 5")
	assert.Contains(t, out, "Duration: 6 weeks")

	out, err = p.ReviewerPrompt(in, "draft & notes")
	require.NoError(t, err)
	assert.Contains(t, out, in)
	assert.Contains(t, out, "draft & notes")

	again, err := p.ReviewerPrompt(in, "draft & notes")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestPrompts_MessagesComplete(t *testing.T) {
	keys := []MessageKey{MsgNoDocument, MsgNoAssignment, MsgNoProject, MsgEmptyDraft, MsgTeamSize, MsgEmptyParse}
	for _, locale := range []Locale{LocaleKO, LocaleEN} {
		p, err := NewPrompts(locale)
		require.NoError(t, err)
		for _, k := range keys {
			assert.NotEmpty(t, p.Message(k), "locale %s key %d", locale, k)
		}
		assert.NotEmpty(t, p.CoachSystem())
		assert.NotEmpty(t, p.DefaultDuration())
	}

	_, err := NewPrompts("de")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantKind    ResultKind
		wantContent string
	}{
		{"object", `{"goal":"g"}`, Structured, `{"goal":"g"}`},
		{"fenced", "```json\n{\"goal\":\"g\"}\n```", Structured, `{"goal":"g"}`},
		{"bare fence", "```\n{\"goal\":\"g\"}\n```", Structured, `{"goal":"g"}`},
		{"array is raw", `["a","b"]`, RawText, `["a","b"]`},
		{"prose", "The goal is g.", RawText, "The goal is g."},
		{"truncated", `{"goal":`, RawText, `{"goal":`},
		{"empty", "", RawText, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(tt.content, SourceFallback, AssignmentSchema)
			assert.Equal(t, tt.wantKind, r.Kind)
			assert.Equal(t, tt.wantContent, r.Content)
			assert.Equal(t, SourceFallback, r.Source)
		})
	}
}

func TestClassify_Conforms(t *testing.T) {
	ok := Classify(`{"requirements":["a"]}`, SourceExtract, AssignmentSchema)
	assert.True(t, ok.Conforms)

	bad := Classify(`{"requirements":"not a list"}`, SourceExtract, AssignmentSchema)
	assert.Equal(t, Structured, bad.Kind, "non-conforming JSON is still structured")
	assert.False(t, bad.Conforms)
}

func TestExtractionResult_DisplayAndPromptJSON(t *testing.T) {
	s := Classify(`{"b":"둘","a":"하나"}`, SourceExtract, AssignmentSchema)
	assert.Equal(t, "{\n  \"a\": \"하나\",\n  \"b\": \"둘\"\n}", s.Display())
	assert.Equal(t, s.Display(), s.PromptJSON())

	r := RawResult("line1\nline2 <x>", SourceFallback)
	assert.Equal(t, "line1\nline2 <x>", r.Display())
	assert.Equal(t, `"line1\nline2 <x>"`, r.PromptJSON())
	assert.True(t, strings.HasPrefix(r.PromptJSON(), `"`))
}

func TestState_Slots(t *testing.T) {
	var st State
	assert.Equal(t, SlotEmpty, st.Status(Assignment))
	assert.Equal(t, SlotEmpty, st.Status(Project))

	st.setSlot(Project, RawResult("x", SourceFallback))
	assert.Equal(t, SlotRawText, st.Status(Project))
	assert.Nil(t, st.Slot(Assignment))

	st.setSlot(Assignment, Classify(`{}`, SourceExtract, AssignmentSchema))
	assert.Equal(t, SlotStructured, st.Status(Assignment))
}

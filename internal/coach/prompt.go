package coach

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Jiyoung0219/doc2plan-coach/internal/llm"
)

// Locale selects the language of prompts and user-facing messages.
type Locale string

const (
	LocaleKO Locale = "ko"
	LocaleEN Locale = "en"
)

// ParseLocale accepts "ko" and "en"; empty means "ko".
func ParseLocale(s string) (Locale, error) {
	switch Locale(s) {
	case "", LocaleKO:
		return LocaleKO, nil
	case LocaleEN:
		return LocaleEN, nil
	default:
		return "", fmt.Errorf("unsupported locale %q", s)
	}
}

// MessageKey identifies a user-facing validation message.
type MessageKey int

const (
	MsgNoDocument MessageKey = iota
	MsgNoAssignment
	MsgNoProject
	MsgEmptyDraft
	MsgTeamSize
	MsgEmptyParse
)

type catalog struct {
	coachSystem     string
	fallbackSystem  string
	defaultDuration string
	messages        map[MessageKey]string

	fallback   *template.Template
	assignment *template.Template
	pm         *template.Template
	reviewer   *template.Template
}

var catalogs = map[Locale]*catalog{
	LocaleKO: {
		coachSystem: "너는 대학생의 개인 과제와 팀 프로젝트를 돕는 학습 코치다. " +
			"주어진 문서 정보에 근거해 구체적이고 바로 실행할 수 있는 조언을 한국어로 제시한다. " +
			"문서에 없는 내용은 지어내지 말고 가정이라고 밝힌다.",
		fallbackSystem:  "너는 문서에서 정보를 정확히 추출해 JSON으로만 답한다.",
		defaultDuration: "4주",
		messages: map[MessageKey]string{
			MsgNoDocument:   "먼저 PDF를 업로드하세요.",
			MsgNoAssignment: "먼저 과제 JSON을 추출하세요.",
			MsgNoProject:    "먼저 프로젝트 JSON을 추출하세요.",
			MsgEmptyDraft:   "초안을 입력하세요.",
			MsgTeamSize:     fmt.Sprintf("팀 인원은 %d명 이상 %d명 이하로 입력하세요.", MinTeamSize, MaxTeamSize),
			MsgEmptyParse:   "문서 분석 결과가 비어 있습니다.",
		},
		fallback: template.Must(template.New("fallback").Parse(`아래 문서 내용을 읽고 JSON 스키마의 각 필드를 채워줘.
- 문서에서 근거를 찾을 수 없는 필드는 "근거 부족"으로 적어.
- 설명 없이 JSON만 출력해.

[스키마]
{{.Schema}}

[문서]
{{.Document}}
`)),
		assignment: template.Must(template.New("assignment").Parse(`다음은 과제 안내문에서 추출한 정보다.

[과제 JSON]
{{.Assignment}}

아래 세 가지를 작성해줘.
1. 제출 전 체크리스트: 요구사항과 제출물을 하나도 빠뜨리지 말고 확인 항목으로 정리
2. 단계별 실행 계획: 마감일까지 해야 할 일을 순서대로, 단계마다 예상 소요 시간 포함
3. 루브릭 자가 점검: 평가 기준마다 스스로 확인할 질문 1~2개
`)),
		pm: template.Must(template.New("pm").Parse(`다음은 팀 프로젝트 안내문에서 추출한 정보다.

[프로젝트 JSON]
{{.Project}}

팀 인원: {{.TeamSize}}명
진행 기간: {{.Duration}}

아래 세 가지를 작성해줘.
1. 역할 분담: 팀 인원에 맞춘 역할과 각 역할의 책임, 담당 산출물
2. 주차별 일정: 진행 기간 안에 마일스톤을 배치한 주 단위 계획
3. 리스크 관리표: 예상 리스크, 발생 가능성, 영향, 대응 방안
`)),
		reviewer: template.Must(template.New("reviewer").Parse(`다음은 과제의 평가 기준이다.

[과제 기준 JSON]
{{.Criteria}}

다음은 학생이 작성한 초안이다.

[초안]
{{.Draft}}

평가 기준 항목마다 충족 / 부분 충족 / 미충족 중 하나로 판정하고, 근거와 구체적인 보완 방법을 적어줘.
마지막에 가장 먼저 고쳐야 할 세 가지를 우선순위대로 정리해줘.
`)),
	},
	LocaleEN: {
		coachSystem: "You are a study coach helping university students with individual assignments and team projects. " +
			"Ground every recommendation in the document information you are given and make it concrete and actionable. " +
			"Do not invent facts the document does not contain; label assumptions as such.",
		fallbackSystem:  "You extract information from documents precisely and answer only in JSON.",
		defaultDuration: "4 weeks",
		messages: map[MessageKey]string{
			MsgNoDocument:   "Upload a PDF first.",
			MsgNoAssignment: "Extract the assignment JSON first.",
			MsgNoProject:    "Extract the project JSON first.",
			MsgEmptyDraft:   "Enter a draft to review.",
			MsgTeamSize:     fmt.Sprintf("Team size must be between %d and %d.", MinTeamSize, MaxTeamSize),
			MsgEmptyParse:   "The document parse result is empty.",
		},
		fallback: template.Must(template.New("fallback").Parse(`Read the document below and fill in every field of the JSON schema.
- Write "insufficient evidence" for any field the document does not support.
- Output JSON only, with no explanation.

[Schema]
{{.Schema}}

[Document]
{{.Document}}
`)),
		assignment: template.Must(template.New("assignment").Parse(`The following was extracted from an assignment brief.

[Assignment JSON]
{{.Assignment}}

Write the following.
1. Submission checklist: every requirement and deliverable as a check item
2. Step-by-step plan: the work in order up to the deadline, with an estimated effort per step
3. Rubric self-check: one or two questions to ask yourself per grading criterion
`)),
		pm: template.Must(template.New("pm").Parse(`The following was extracted from a team project brief.

[Project JSON]
{{.Project}}

Team size: {{.TeamSize}}
Duration: {{.Duration}}

Write the following.
1. Roles: roles sized to the team, with responsibilities and owned deliverables
2. Weekly schedule: the milestones laid out week by week within the duration
3. Risk register: expected risks with likelihood, impact and mitigation
`)),
		reviewer: template.Must(template.New("reviewer").Parse(`These are the assignment's evaluation criteria.

[Criteria JSON]
{{.Criteria}}

This is the student's draft.

[Draft]
{{.Draft}}

For each criterion, judge the draft as met, partially met or not met, and give the evidence and a concrete fix.
Finish with the three most important fixes in priority order.
`)),
	},
}

// Prompts renders the prompt templates for one locale. Rendering is pure
// substitution.
type Prompts struct {
	locale Locale
	c      *catalog
}

// NewPrompts returns the templates for locale.
func NewPrompts(locale Locale) (*Prompts, error) {
	c, ok := catalogs[locale]
	if !ok {
		return nil, fmt.Errorf("unsupported locale %q", locale)
	}
	return &Prompts{locale: locale, c: c}, nil
}

// Locale returns the prompt locale.
func (p *Prompts) Locale() Locale { return p.locale }

// CoachSystem is the persona used for coaching and review.
func (p *Prompts) CoachSystem() string { return p.c.coachSystem }

// FallbackSystem is the JSON-only instruction used for chat extraction.
func (p *Prompts) FallbackSystem() string { return p.c.fallbackSystem }

// DefaultDuration is the project duration used when none is given.
func (p *Prompts) DefaultDuration() string { return p.c.defaultDuration }

// Message returns a localized validation message.
func (p *Prompts) Message(key MessageKey) string { return p.c.messages[key] }

// FallbackExtractionPrompt asks the model to fill schema from the parsed
// document text.
func (p *Prompts) FallbackExtractionPrompt(schema *llm.Schema, parsedText string) (string, error) {
	return render(p.c.fallback, map[string]any{
		"Schema":   compactJSON(schema.Definition),
		"Document": parsedText,
	})
}

// AssignmentCoachPrompt asks for a checklist, a step plan and a rubric
// self-check.
func (p *Prompts) AssignmentCoachPrompt(assignmentJSON string) (string, error) {
	return render(p.c.assignment, map[string]any{"Assignment": assignmentJSON})
}

// PMCoachPrompt asks for roles, a weekly schedule and a risk register.
func (p *Prompts) PMCoachPrompt(projectJSON string, teamSize int, duration string) (string, error) {
	return render(p.c.pm, map[string]any{
		"Project":  projectJSON,
		"TeamSize": teamSize,
		"Duration": duration,
	})
}

// ReviewerPrompt asks for criterion-by-criterion feedback on a draft.
func (p *Prompts) ReviewerPrompt(criteriaJSON, draft string) (string, error) {
	return render(p.c.reviewer, map[string]any{
		"Criteria": criteriaJSON,
		"Draft":    draft,
	})
}

func render(t *template.Template, data map[string]any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}

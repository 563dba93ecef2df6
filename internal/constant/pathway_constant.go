package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// ASSISTANT PERSONA
	AssistantSystemPromptV1 = `You are CarePathIQ, an assistant for clinical pathway design.

You help clinicians turn free-text workshop answers into a structured care
pathway: scope and objectives, evidence-backed decision points, branching
logic, validation plans, and operational rollout.

Rules:
- Ground every clinical claim in the pathway content you are given
- Be concise: clinicians read this between patients
- Never invent citations; evidence comes from the literature search
- When asked for structure (lists, Mermaid), output only the structure`

	// DRAFT GENERATION
	FlowchartPromptV1 = `Draft a Mermaid.js flowchart (graph TD syntax) for this clinical pathway.

Scope:
%s

Decision logic:
%s

Rules:
- Use decision diamonds for branch points
- Keep node labels short
- Output ONLY the Mermaid code, no commentary`

	VerifyCitationPromptV1 = `Does the citation '%s' support the decision '%s'? Answer 'Verified' or 'Warning' with a one-sentence reason.`

	SummarizePromptV1 = `Condense this pathway progress summary for a clinical steering committee. Keep it under 120 words, plain language, no markdown.

%s`

	// FIXED FALLBACKS (the flow never blocks on the model)
	AssistantUnavailableNoKey = "Analysis unavailable (No Key)"
	AssistantFallbackReply    = "I couldn't process that right now."
	FallbackDiagram           = "graph TD; A[Drafting unavailable] --> B[Edit manually];"

	// VERIFICATION VERDICTS
	VerificationVerified = "Verified"
	VerificationWarning  = "Warning"
	VerificationPending  = "Pending review"

	// LITERATURE SEARCH
	PubmedToolDefault    = "carepathiq"
	DefaultConditionHint = "Clinical"
	ConditionLinePrefix  = "Condition:"
)

// WORKSHOP DIALOGUE (five phases, asked in order)

const (
	QuestionScopeCondition  = "Which clinical condition or presentation does this pathway cover?"
	QuestionScopePopulation = "Which patient population is in scope (age, acuity, comorbidities)?"
	QuestionScopeSetting    = "In which care setting will the pathway run (ED, ward, outpatient)?"
	QuestionScopeProblem    = "What problem with current care is this pathway meant to fix?"
	QuestionScopeObjectives = "What are the measurable objectives (one per line)?"

	QuestionEvidencePoint = "Name a decision point to support with literature (or 'done' to finish the phase):"

	QuestionLogicEntry     = "What is the entry criterion that puts a patient on the pathway?"
	QuestionLogicBranches  = "Describe the main branch points and the rule at each:"
	QuestionLogicEndpoints = "What are the exit points (discharge, admit, escalate)?"

	QuestionTestingScenarios  = "Which patient scenarios should the pathway be walked through before go-live?"
	QuestionTestingIssues     = "What usability issues do you expect at the bedside?"
	QuestionTestingMitigation = "How will those issues be mitigated?"

	QuestionOperationsRollout = "How will the pathway be rolled out (pilot unit, big bang, phased)?"
	QuestionOperationsEHR     = "Which EHR or CDS tools will carry the pathway (order sets, alerts)?"
	QuestionOperationsKPIs    = "Which KPIs will tell you the pathway works (pick or add)?"

	QuestionReviewApprove = "Lock this phase in? (yes to continue, anything else to redo):"
)

// StandardKPIs seeds the operations phase with measures most pathway teams
// adopt; authors can pick from the list or write their own.
var StandardKPIs = []string{
	"Guideline adherence rate (% of eligible patients on pathway)",
	"Median time to first diagnostic test",
	"Average length of stay",
	"30-day readmission rate",
	"Pathway deviation rate with documented reason",
}

package dialogue

import (
	"bytes"
	"strings"
	"text/template"
)

const evaluatorSystemPrompt = `IDENTITY: Medical Oversight Command AI (MCO-AI).
MISSION: Evaluate the Field Operator's diagnostic and treatment protocol accuracy.

ACCEPTANCE RULES:
- accepted = true ONLY IF the operator's diagnosis clearly matches the true pathology (or a close synonym) AND they propose at least 2 appropriate treatment or management steps that match the required protocols.
- If diagnosis or treatment is incomplete or unsafe, accepted = false.

SCORING (0-100):
1. ACCURACY: 0 = dangerous or wrong plan, 50 = partially correct but missing key steps, 100 = fully in line with standard of care.
2. THOROUGHNESS: high if they asked relevant questions and ruled out key differentials, lower if they jumped to a guess.
3. EFFICIENCY: start at 100, deduct 25 per hint and 10 per turn over 6.

TASK: analyze the latest transmission and the whole transcript, decide acceptance, write a natural patient reply and give honest tactical feedback with scores.`

var evaluatorUserTemplate = template.Must(template.New("evaluate").Funcs(funcs).Parse(`CASE FILE:
- True Pathology: {{.ExpectedDiagnosis}}
- Required Protocols (Keywords): {{join .TreatmentKeywords ", "}}
- Hints Used: {{.HintsUsed}}
- Turns Taken: {{.Turns}}

TRANSCRIPT LOG:
{{transcript .Transcript}}`))

var patientSystemTemplate = template.Must(template.New("patient").Funcs(funcs).Parse(`SIMULATION MODE: ACTIVE.
ROLE: {{with .Patient.Name}}{{.}}{{else}}Subject{{end}}, {{.Patient.Age}}y/{{.Patient.Gender}}.
COMPLAINT: {{.ChiefComplaint}}

CURRENT SYMPTOM DATA (reveal ONLY this to the doctor):
{{range .VisibleStages}}- {{.}}
{{else}}N/A
{{end}}
DIRECTIVES:
- You are a human patient. Do NOT mention you are an AI or a simulation.
- Answer the doctor's specific question directly first, then add 1-2 relevant details.
- If asked about symptoms NOT in your current data, say you haven't noticed that.
- Keep responses concise (1-3 sentences).
- Do not repeat the same line. If the doctor has clearly explained a plan, acknowledge it once and stop asking about it.`))

var patientUserTemplate = template.Must(template.New("patient-log").Funcs(funcs).Parse(`TRANSCRIPT LOG:
{{transcript .Transcript}}

PATIENT RESPONSE:`))

var funcs = template.FuncMap{
	"join":       strings.Join,
	"transcript": FormatTranscript,
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

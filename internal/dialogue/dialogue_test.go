package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/llm"
)

const acceptedVerdict = `{"accepted":true,"patient_reply":"Thank you, doctor.","short_feedback":"Clean thrombolysis protocol.","score_accuracy":95,"score_thoroughness":80,"score_efficiency":75}`

func strokeEvaluate() EvaluateRequest {
	return EvaluateRequest{
		CaseID:            "neuro_5_stroke",
		ExpectedDiagnosis: "acute ischemic stroke",
		TreatmentKeywords: []string{"alteplase", "blood pressure"},
		HintsUsed:         1,
		Turns:             4,
		Transcript: []Turn{
			{Speaker: SpeakerOperator, Text: "When did the weakness start?"},
			{Speaker: SpeakerPatient, Text: "About an hour ago."},
			{Speaker: SpeakerOperator, Text: "My impression is a stroke, we will start alteplase."},
		},
	}
}

func TestEvaluate_Accepted(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(acceptedVerdict))
	c := NewLLM(mock, DefaultConfig())

	ev, err := c.Evaluate(context.Background(), strokeEvaluate())
	require.NoError(t, err)
	assert.True(t, ev.Accepted)
	assert.Equal(t, "Thank you, doctor.", ev.PatientReply)
	assert.Equal(t, 95, ev.Accuracy)
	assert.Equal(t, 80, ev.Thoroughness)
	assert.Equal(t, 75, ev.Efficiency)

	call := mock.LastCall()
	require.NotNil(t, call.Schema)
	assert.Equal(t, EvaluationSchema.Name, call.Schema.Name)
	prompt := call.Messages[0].Content
	assert.Contains(t, prompt, "True Pathology: acute ischemic stroke")
	assert.Contains(t, prompt, "Required Protocols (Keywords): alteplase, blood pressure")
	assert.Contains(t, prompt, "Hints Used: 1")
	assert.Contains(t, prompt, "DOCTOR (OPERATOR): When did the weakness start?")
	assert.Contains(t, prompt, "PATIENT (SUBJECT): About an hour ago.")
}

func TestEvaluate_FencedResponseRecovered(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Here you go:\n```json\n" + acceptedVerdict + "\n```"))
	c := NewLLM(mock, DefaultConfig())

	ev, err := c.Evaluate(context.Background(), strokeEvaluate())
	require.NoError(t, err)
	assert.True(t, ev.Accepted)
}

func TestEvaluate_Malformed(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"prose only", llm.MockText("The plan looks fine to me.")},
		{"missing fields", llm.MockJSON(`{"accepted":true}`)},
		{"score out of range", llm.MockJSON(`{"accepted":true,"patient_reply":"ok","short_feedback":"ok","score_accuracy":140,"score_thoroughness":80,"score_efficiency":75}`)},
		{"provider down", llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLLM(llm.NewMockProvider(tt.resp), DefaultConfig())
			ev, err := c.Evaluate(context.Background(), strokeEvaluate())
			assert.Error(t, err)
			assert.Nil(t, ev)
		})
	}
}

func TestSimulate_PromptDisclosesOnlyVisibleStages(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("  My arm feels heavy.  "))
	c := NewLLM(mock, DefaultConfig())

	reply, err := c.Simulate(context.Background(), SimulateRequest{
		CaseID:         "neuro_5_stroke",
		Patient:        cases.Patient{Name: "Ravi", Age: 67, Gender: "M"},
		ChiefComplaint: "Sudden weakness",
		VisibleStages:  []string{"Right arm weakness"},
		Transcript:     []Turn{{Speaker: SpeakerOperator, Text: "What happened?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "My arm feels heavy.", reply)

	call := mock.LastCall()
	assert.Nil(t, call.Schema)
	assert.Contains(t, call.System, "ROLE: Ravi, 67y/M.")
	assert.Contains(t, call.System, "- Right arm weakness")
	assert.Contains(t, call.Messages[0].Content, "DOCTOR (OPERATOR): What happened?")
}

func TestSimulate_NoStages(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Hello."))
	c := NewLLM(mock, DefaultConfig())

	_, err := c.Simulate(context.Background(), SimulateRequest{})
	require.NoError(t, err)
	call := mock.LastCall()
	assert.Contains(t, call.System, "ROLE: Subject")
	assert.Contains(t, call.System, "N/A")
}

func TestLooksLikePlan(t *testing.T) {
	kws := []string{"alteplase", "blood pressure"}
	tests := []struct {
		text string
		want bool
	}{
		{"My impression is a stroke", true},
		{"I SUSPECT meningitis", true},
		{"We will start fluids", true},
		{"give alteplase now", true},
		{"keep an eye on Blood Pressure", true},
		{"Where does it hurt?", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikePlan(tt.text, kws), tt.text)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"```\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"Sure! {\"a\":1} Hope that helps.", `{"a":1}`, true},
		{"no object here", "", false},
	}
	for _, tt := range tests {
		got, ok := extractJSON(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestOffline(t *testing.T) {
	var c Offline
	_, err := c.Evaluate(context.Background(), strokeEvaluate())
	assert.True(t, errors.Is(err, ErrOffline))

	reply, err := c.Simulate(context.Background(), SimulateRequest{VisibleStages: []string{"first", " second "}})
	require.NoError(t, err)
	assert.Equal(t, "second", reply)

	reply, err = c.Simulate(context.Background(), SimulateRequest{})
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript([]Turn{
		{Speaker: SpeakerOperator, Text: "hi"},
		{Speaker: "system", Text: "ignored"},
		{Speaker: SpeakerPatient, Text: "hello"},
	})
	assert.Equal(t, "DOCTOR (OPERATOR): hi\nPATIENT (SUBJECT): hello", got)
	assert.False(t, strings.HasSuffix(got, "\n"))
}

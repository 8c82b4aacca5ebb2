package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/agentflow/internal/model"
)

func TestDecodeEvent_Add(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"add","agent":{"id":"a1","owner_id":"o1","name":"worker","parent_id":"o1"}}`))
	assert.NoError(t, err)

	add, ok := ev.(AddEvent)
	assert.True(t, ok)
	assert.Equal(t, "a1", add.Agent.ID)
	assert.Equal(t, "o1", add.Agent.ParentID)
}

func TestDecodeEvent_AddWithoutAgentFails(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"op":"add"}`))
	assert.Error(t, err)
}

func TestDecodeEvent_Remove(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"remove","id":"a1"}`))
	assert.NoError(t, err)
	assert.Equal(t, RemoveEvent{ID: "a1"}, ev)

	_, err = DecodeEvent([]byte(`{"op":"remove"}`))
	assert.Error(t, err)
}

func TestDecodeEvent_Update(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"update","agent":{"id":"a1","status":"running"}}`))
	assert.NoError(t, err)

	up, ok := ev.(UpdateEvent)
	assert.True(t, ok)
	assert.Equal(t, model.StatusRunning, up.Agent.Status)
}

func TestDecodeEvent_StatusUpdate(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"status_update","agent_id":"a1","status":"done","timestamp":"t1"}`))
	assert.NoError(t, err)
	assert.Equal(t, StatusEvent{AgentID: "a1", Status: model.StatusDone, Timestamp: "t1"}, ev)
}

func TestDecodeEvent_StatusUpdateNestedAgentID(t *testing.T) {
	// Some producers put the id inside the agent object instead.
	ev, err := DecodeEvent([]byte(`{"op":"status_update","agent":{"id":"a2"},"status":"error"}`))
	assert.NoError(t, err)
	assert.Equal(t, StatusEvent{AgentID: "a2", Status: model.StatusError}, ev)
}

func TestDecodeEvent_StatusUpdateDefaultsToIdle(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"status_update","agent_id":"a1"}`))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusIdle, ev.(StatusEvent).Status)
}

func TestDecodeEvent_Progress(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"progress","agent_id":"a1","progress":0.5,"step":"indexing"}`))
	assert.NoError(t, err)

	p := ev.(ProgressEvent)
	assert.InDelta(t, 0.5, p.Progress, 1e-9)
	assert.Equal(t, "indexing", p.Step)
}

func TestDecodeEvent_ProgressNumericString(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"progress","agent_id":"a1","progress":"0.75"}`))
	assert.NoError(t, err)
	assert.InDelta(t, 0.75, ev.(ProgressEvent).Progress, 1e-9)
}

func TestDecodeEvent_ProgressGarbageDroppedSilently(t *testing.T) {
	for _, payload := range []string{
		`{"op":"progress","agent_id":"a1","progress":"abc"}`,
		`{"op":"progress","agent_id":"a1","progress":"NaN"}`,
		`{"op":"progress","agent_id":"a1","progress":"Infinity"}`,
		`{"op":"progress","agent_id":"a1"}`,
		`{"op":"progress","agent_id":"a1","progress":{"v":1}}`,
	} {
		_, err := DecodeEvent([]byte(payload))
		assert.ErrorIs(t, err, errDroppedEvent, payload)
	}
}

func TestDecodeEvent_DecisionLog(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"op":"decision_log","agent_id":"a1","entry":{"choice":"expand"},"timestamp":"t3"}`))
	assert.NoError(t, err)

	d := ev.(DecisionEvent)
	assert.Equal(t, "a1", d.AgentID)
	assert.JSONEq(t, `{"choice":"expand"}`, string(d.Entry))
	assert.Equal(t, "t3", d.Timestamp)
}

func TestDecodeEvent_DecisionLogWithoutEntryKeepsWholePayload(t *testing.T) {
	raw := `{"op":"decision_log","agent_id":"a1","reason":"inline"}`
	ev, err := DecodeEvent([]byte(raw))
	assert.NoError(t, err)
	assert.JSONEq(t, raw, string(ev.(DecisionEvent).Entry))
}

func TestDecodeEvent_UnknownOp(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"op":"reboot"}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errDroppedEvent)
}

func TestDecodeEvent_MalformedJSON(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"op":"add",`))
	assert.Error(t, err)
}

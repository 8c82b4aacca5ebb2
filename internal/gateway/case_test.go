package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeKey(t *testing.T) {
	assert.Equal(t, "owner_agent_id", ToSnakeKey("ownerAgentId"))
	assert.Equal(t, "user_input", ToSnakeKey("userInput"))
	assert.Equal(t, "plain", ToSnakeKey("plain"))
}

func TestToCamelKey(t *testing.T) {
	assert.Equal(t, "ownerAgentId", ToCamelKey("owner_agent_id"))
	assert.Equal(t, "lastUpdated", ToCamelKey("last_updated"))
	assert.Equal(t, "plain", ToCamelKey("plain"))
}

func TestCaseConversion_RoundTripsKeys(t *testing.T) {
	for _, key := range []string{"parent_id", "owner_agent_id", "status", "x2_value"} {
		assert.Equal(t, key, ToSnakeKey(ToCamelKey(key)), key)
	}
}

func TestToCamel_RecursesThroughObjectsAndArrays(t *testing.T) {
	in := map[string]any{
		"agent_list": []any{
			map[string]any{"parent_id": "p1", "decision_logs": []any{map[string]any{"created_at": "t"}}},
		},
		"total_count": float64(1),
	}

	out := ToCamel(in).(map[string]any)
	list := out["agentList"].([]any)
	first := list[0].(map[string]any)
	assert.Equal(t, "p1", first["parentId"])

	logs := first["decisionLogs"].([]any)
	assert.Equal(t, "t", logs[0].(map[string]any)["createdAt"])
	assert.Equal(t, float64(1), out["totalCount"])
}

func TestToSnake_LeavesValuesUntouched(t *testing.T) {
	in := map[string]any{"userInput": "keepMyCamelValue"}
	out := ToSnake(in).(map[string]any)
	assert.Equal(t, "keepMyCamelValue", out["user_input"])
}

func TestConvert_ScalarsPassThrough(t *testing.T) {
	assert.Equal(t, "x", ToCamel("x"))
	assert.Equal(t, float64(3), ToSnake(float64(3)))
	assert.Nil(t, ToCamel(nil))
}

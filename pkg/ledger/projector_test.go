package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateProjector_UserLifecycle(t *testing.T) {
	p := NewStateProjector(nil)

	events := []*EventRecord{
		{EventID: "e1", EventType: "USER_CREATED", Payload: map[string]any{"userId": "u1", "username": "ada"}},
		{EventID: "e2", EventType: "USER_RENAMED", Payload: map[string]any{"newUsername": "ada-lovelace"}},
		{EventID: "e3", EventType: "USER_DEACTIVATED", Payload: map[string]any{}},
	}

	state := p.project(events)
	assert.Equal(t, "ada-lovelace", state["username"])
	assert.Equal(t, false, state["isActive"])
	assert.Equal(t, uint64(3), state["version"])
}

func TestStateProjector_ProductAndStock(t *testing.T) {
	p := NewStateProjector(nil)

	events := []*EventRecord{
		{EventID: "e1", EventType: "PRODUCT_ADDED", Payload: map[string]any{"productId": "p1", "name": "widget", "price": 9.99, "stock": 10.0}},
		{EventID: "e2", EventType: "STOCK_INCREMENTED", Payload: map[string]any{"amount": 5.0}},
		{EventID: "e3", EventType: "STOCK_DECREMENTED", Payload: map[string]any{"amount": 2.0}},
	}

	state := p.project(events)
	assert.Equal(t, 13.0, state["stock"])
	assert.Equal(t, uint64(3), state["version"])
}

func TestStateProjector_OrderLifecycle(t *testing.T) {
	p := NewStateProjector(nil)
	events := []*EventRecord{
		{EventID: "e1", EventType: "ORDER_CREATED", Payload: map[string]any{"orderId": "o1"}},
		{EventID: "e2", EventType: "ORDER_CONFIRMED", Payload: map[string]any{}},
		{EventID: "e3", EventType: "ORDER_SHIPPED", Payload: map[string]any{}},
	}
	state := p.project(events)
	assert.Equal(t, "SHIPPED", state["status"])
}

func TestStateProjector_UnregisteredEventTypeSkipped(t *testing.T) {
	p := NewStateProjector(nil)
	events := []*EventRecord{
		{EventID: "e1", EventType: "USER_CREATED", Payload: map[string]any{"username": "ada"}},
		{EventID: "e2", EventType: "SOME_UNKNOWN_EVENT", Payload: map[string]any{}},
	}
	state := p.project(events)
	assert.Equal(t, "ada", state["username"])
	assert.Equal(t, uint64(1), state["version"])
}

func TestStateProjector_RegisterReducer_Override(t *testing.T) {
	p := NewStateProjector(nil)
	p.RegisterReducer("CUSTOM_EVENT", func(state, payload map[string]any, eventType string) map[string]any {
		next := cloneState(state)
		next["custom"] = true
		return next
	})

	state := p.project([]*EventRecord{{EventID: "e1", EventType: "CUSTOM_EVENT", Payload: map[string]any{}}})
	assert.Equal(t, true, state["custom"])
}

func TestNumberField_DefensiveDefaults(t *testing.T) {
	assert.Equal(t, 0.0, numberField(map[string]any{}, "missing"))
	assert.Equal(t, 0.0, numberField(map[string]any{"x": "not a number"}, "x"))
	assert.Equal(t, 5.0, numberField(map[string]any{"x": 5}, "x"))
	assert.Equal(t, 5.0, numberField(map[string]any{"x": int64(5)}, "x"))
}

func TestBumpVersion_MissingOrWrongType(t *testing.T) {
	assert.Equal(t, uint64(1), bumpVersion(map[string]any{}))
	assert.Equal(t, uint64(1), bumpVersion(map[string]any{"version": "not a uint64"}))
	assert.Equal(t, uint64(6), bumpVersion(map[string]any{"version": uint64(5)}))
}

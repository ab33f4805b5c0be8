package ledger

import "log/slog"

// Reducer folds a payload into entity state. Reducers are pure: given
// the same (state, payload, eventType) they return the same result and
// never mutate their inputs.
type Reducer func(state map[string]any, payload map[string]any, eventType string) map[string]any

// reducerRegistry maps event type to its reducer. Adapted from the
// teacher's generic registry.Registry[K,V]: here specialized to
// string keys and Reducer values since a single ledger process only
// ever needs one projector, not a generic container.
type reducerRegistry struct {
	reducers map[string]Reducer
}

func newReducerRegistry() *reducerRegistry {
	return &reducerRegistry{reducers: make(map[string]Reducer)}
}

func (r *reducerRegistry) register(eventType string, fn Reducer) {
	r.reducers[eventType] = fn
}

func (r *reducerRegistry) get(eventType string) (Reducer, bool) {
	fn, ok := r.reducers[eventType]
	return fn, ok
}

// StateProjector folds an entity's events, replayed in causal order,
// into its current or historical state.
type StateProjector struct {
	registry *reducerRegistry
	log      *slog.Logger
}

// NewStateProjector returns a projector with the default reducer
// catalogue registered, per the Glossary's "Default event catalogue".
func NewStateProjector(log *slog.Logger) *StateProjector {
	if log == nil {
		log = slog.Default()
	}
	p := &StateProjector{registry: newReducerRegistry(), log: log}
	registerDefaultReducers(p.registry)
	return p
}

// RegisterReducer overrides or adds a reducer for eventType.
func (p *StateProjector) RegisterReducer(eventType string, fn Reducer) {
	p.registry.register(eventType, fn)
}

// project folds orderedEvents (already filtered to one entity, already
// in cause-before-effect order) into final state. Unregistered event
// types are skipped with a warning, per §4.7 step 3.
func (p *StateProjector) project(orderedEvents []*EventRecord) map[string]any {
	state := map[string]any{}
	for _, ev := range orderedEvents {
		reducer, ok := p.registry.get(ev.EventType)
		if !ok {
			p.log.Warn("ledger: no reducer registered for event type, skipping",
				"eventType", ev.EventType, "eventId", ev.EventID)
			continue
		}
		state = reducer(state, ev.Payload, ev.EventType)
	}
	return state
}

// registerDefaultReducers installs the fixed catalogue of user,
// product, and order lifecycle reducers named in the Glossary. Each
// bumps a "version" counter and defensively defaults missing or
// wrongly typed numeric/bool fields to zero/false, per §9.
func registerDefaultReducers(reg *reducerRegistry) {
	reg.register("USER_CREATED", func(state, payload map[string]any, _ string) map[string]any {
		next := map[string]any{
			"userId":   payload["userId"],
			"username": stringField(payload, "username"),
			"isActive": true,
			"version":  uint64(1),
		}
		return next
	})

	reg.register("USER_RENAMED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["username"] = stringField(payload, "newUsername")
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("USER_DEACTIVATED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["isActive"] = false
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("USER_REACTIVATED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["isActive"] = true
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("PRODUCT_ADDED", func(state, payload map[string]any, _ string) map[string]any {
		return map[string]any{
			"productId": payload["productId"],
			"name":      stringField(payload, "name"),
			"price":     numberField(payload, "price"),
			"stock":     numberField(payload, "stock"),
			"version":   uint64(1),
		}
	})

	reg.register("PRODUCT_UPDATED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		if v, ok := payload["name"]; ok {
			next["name"] = v
		}
		if _, ok := payload["price"]; ok {
			next["price"] = numberField(payload, "price")
		}
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("STOCK_INCREMENTED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["stock"] = numberField(state, "stock") + numberField(payload, "amount")
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("STOCK_DECREMENTED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["stock"] = numberField(state, "stock") - numberField(payload, "amount")
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("ORDER_CREATED", func(state, payload map[string]any, _ string) map[string]any {
		return map[string]any{
			"orderId": payload["orderId"],
			"status":  "CREATED",
			"version": uint64(1),
		}
	})

	reg.register("ORDER_CONFIRMED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["status"] = "CONFIRMED"
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("ORDER_SHIPPED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["status"] = "SHIPPED"
		next["version"] = bumpVersion(state)
		return next
	})

	reg.register("ORDER_CANCELLED", func(state, payload map[string]any, _ string) map[string]any {
		next := cloneState(state)
		next["status"] = "CANCELLED"
		next["version"] = bumpVersion(state)
		return next
	})
}

func cloneState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

func bumpVersion(state map[string]any) uint64 {
	v, ok := state["version"].(uint64)
	if !ok {
		return 1
	}
	return v + 1
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

// numberField defensively defaults a missing or wrongly typed numeric
// field to zero, per §9's STOCK_INCREMENTED example. JSON numbers
// decode as float64; accept that and plain int for payloads built
// in-process.
func numberField(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

package graph

// This file is the branching semantics table: for every node kind, which
// named exit slots exist and how an unconnected slot resolves at compile
// time. It is an explicit switch over the kind rather than a registry so
// that the easily-miscounted per-kind rules stay in one place.

// SlotNames returns the named exit slots of a node, in render order. Kinds
// with a single implicit exit return just the default slot. Router slots
// are the node's current route names and change as the route table is
// edited.
func SlotNames(n *Node) []string {
	switch n.kind() {
	case KindStart:
		return []string{HandleDefault}
	case KindEnd:
		return nil
	case KindConditionCheck:
		return []string{HandleOnSuccess, HandleOnFailure}
	case KindStartLoop:
		return []string{HandleLoopBody, HandleOnSuccess, HandleOnFailure}
	case KindRouter:
		return n.Data.RouteTable().Names()
	default:
		return []string{HandleDefault, HandleOnFailure}
	}
}

// resolveBranching rewrites data's branching fields from the node's
// outgoing connections (slot name → target). data is the compiler's own
// copy and is mutated in place.
//
// The per-kind policies differ deliberately:
//
//   - condition_check and start_loop reset every unconnected slot to the
//     terminal sentinel; their slots are exhaustive by construction.
//   - The router preserves a route's existing target unless an edge
//     overrides it, so temporarily disconnecting a route does not lose the
//     name it pointed at.
//   - Every other kind resolves its default slot (falling back to the
//     sentinel) and only emits on_failure when a failure edge exists or
//     the field was already present; it is never defaulted to the sentinel.
func resolveBranching(kind NodeKind, data NodeData, conns map[string]string) {
	switch kind {
	case KindStart, KindEnd:
		// No branching fields.

	case KindConditionCheck:
		data[FieldOnSuccess] = resolveOrEnd(conns, HandleOnSuccess)
		data[FieldOnFailure] = resolveOrEnd(conns, HandleOnFailure)

	case KindStartLoop:
		data[FieldLoopBody] = resolveOrEnd(conns, HandleLoopBody)
		data[FieldOnSuccess] = resolveOrEnd(conns, HandleOnSuccess)
		data[FieldOnFailure] = resolveOrEnd(conns, HandleOnFailure)

	case KindRouter:
		routes := data.RouteTable().Clone()
		for _, name := range routes.Names() {
			if target, ok := conns[name]; ok {
				routes = routes.Set(name, normalizeTarget(target))
			}
		}
		data[FieldRoutes] = routes

	default:
		data[FieldOnSuccess] = resolveOrEnd(conns, HandleDefault)
		if target, ok := conns[HandleOnFailure]; ok {
			data[FieldOnFailure] = normalizeTarget(target)
		} else if existing, ok := data[FieldOnFailure].(string); ok {
			data[FieldOnFailure] = normalizeTarget(existing)
		}
	}
}

func resolveOrEnd(conns map[string]string, slot string) string {
	if target, ok := conns[slot]; ok {
		return normalizeTarget(target)
	}
	return TerminalTarget
}

// normalizeTarget maps a connection to the reserved end node onto the
// terminal sentinel the runtime understands.
func normalizeTarget(target string) string {
	if target == EndNodeID {
		return TerminalTarget
	}
	return target
}

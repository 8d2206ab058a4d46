package callgraph

import "strings"

// resolveLocked maps a raw call-site name to a registered qualified name.
// The caller must hold b.mu. Resolution is attempted in order:
//
//  1. verbatim qualified name, then the caller's namespace prefixed to it
//  2. the caller's class scope (namespace::class::name)
//  3. the caller's namespace scope (namespace::name)
//  4. the bare name at global scope
//  5. a unique bare-name match anywhere in the registry
//
// When every strategy fails the raw name is returned unchanged and the
// second result is false.
func (b *Builder) resolveLocked(caller *Function, raw string) (string, bool) {
	name := normalizeCallee(raw)

	if strings.Contains(name, "::") {
		if _, ok := b.functions[name]; ok {
			return name, true
		}
		if caller != nil && caller.Namespace != "" {
			candidate := caller.Namespace + "::" + name
			if _, ok := b.functions[candidate]; ok {
				return candidate, true
			}
		}
		// fall through with the trailing segment
		name = name[strings.LastIndex(name, "::")+2:]
	}

	if caller != nil {
		if caller.Class != "" {
			candidate := Qualify(caller.Namespace, caller.Class, name)
			if _, ok := b.functions[candidate]; ok {
				return candidate, true
			}
		}
		if caller.Namespace != "" {
			candidate := Qualify(caller.Namespace, "", name)
			if _, ok := b.functions[candidate]; ok {
				return candidate, true
			}
		}
	}

	if _, ok := b.functions[name]; ok {
		return name, true
	}

	if candidates := b.byName[name]; len(candidates) == 1 {
		return candidates[0], true
	}

	return strings.TrimSpace(raw), false
}

// normalizeCallee reduces a call-site expression to a lookup name. Member
// access chains keep only their final segment; this-> qualifies the
// caller's own class and is dropped.
func normalizeCallee(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimPrefix(name, "this->")
	name = strings.ReplaceAll(name, "->", ".")
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSpace(name)
}

package route

// ParameterBinding associates a handler parameter with the segment that
// supplies its value.
type ParameterBinding struct {
	Param              string // Handler parameter name, equal to the capture name
	Index              int    // Segment index in the route
	Option             string // Long form when the segment is an option, empty otherwise
	Type               string // Effective type: segment constraint, then handler type
	RequiresConversion bool   // Type is set and is not "string"
	Optional           bool   // The value may be absent at runtime
	List               bool   // Catch-all or repeated option
	Flag               bool   // Boolean flag, binds presence
}

// Bindings derives the parameter bindings of r.
//
// When the handler declares parameters, bindings follow handler order and
// every handler parameter must be supplied by a capture (or be optional).
// Without handler metadata, bindings follow segment order.
func Bindings(r *Route) ([]ParameterBinding, []Diagnostic) {
	captures := captureBindings(r)
	handler := r.Handler()
	if len(handler.Params) == 0 {
		return captures, nil
	}

	var diags []Diagnostic
	byName := make(map[string]ParameterBinding, len(captures))
	for _, b := range captures {
		byName[b.Param] = b
	}

	bindings := make([]ParameterBinding, 0, len(handler.Params))
	used := make(map[string]bool, len(handler.Params))
	for _, hp := range handler.Params {
		b, ok := byName[hp.Name]
		if !ok {
			if !hp.Optional {
				diags = append(diags, bindingDiag(r, SeverityError,
					"handler %s parameter %q is not captured by the pattern", handler.Name, hp.Name))
			}
			bindings = append(bindings, ParameterBinding{
				Param:              hp.Name,
				Index:              -1,
				Type:               hp.Type,
				RequiresConversion: needsConversion(hp.Type),
				Optional:           true,
			})
			continue
		}
		used[hp.Name] = true

		switch {
		case b.Flag:
			// presence binds as bool regardless of the declared type
		case b.Type == "":
			b.Type = hp.Type
			b.RequiresConversion = needsConversion(hp.Type)
		case hp.Type != "" && hp.Type != b.Type:
			diags = append(diags, bindingDiag(r, SeverityError,
				"parameter %q is constrained to %s but handler %s declares %s", hp.Name, b.Type, handler.Name, hp.Type))
		}
		if b.Optional && !hp.Optional {
			diags = append(diags, bindingDiag(r, SeverityWarning,
				"parameter %q is optional in the pattern but required by handler %s", hp.Name, handler.Name))
		}
		bindings = append(bindings, b)
	}

	for _, b := range captures {
		if !used[b.Param] {
			diags = append(diags, bindingDiag(r, SeverityWarning,
				"capture %q is not a parameter of handler %s", b.Param, handler.Name))
		}
	}

	return bindings, diags
}

func captureBindings(r *Route) []ParameterBinding {
	var out []ParameterBinding
	for i, seg := range r.segments {
		switch s := seg.(type) {
		case Parameter:
			out = append(out, ParameterBinding{
				Param:              s.Name,
				Index:              i,
				Type:               s.Type,
				RequiresConversion: needsConversion(s.Type),
				Optional:           s.Optional || s.CatchAll,
				List:               s.CatchAll,
			})
		case Option:
			b := ParameterBinding{
				Param:    s.ParameterName(),
				Index:    i,
				Option:   s.Long,
				Optional: s.Optional,
				Flag:     s.Value == nil,
			}
			if s.Value != nil {
				b.Type = s.Value.Type
				b.RequiresConversion = needsConversion(s.Value.Type)
				b.Optional = s.Omittable()
				b.List = s.Value.CatchAll
			}
			out = append(out, b)
		}
	}
	return out
}

func needsConversion(typ string) bool {
	return typ != "" && typ != "string"
}

func bindingDiag(r *Route, sev Severity, template string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     CodeBinding,
		Template: template,
		Args:     args,
		Pattern:  r.pattern,
		Source:   r.source,
	}
}

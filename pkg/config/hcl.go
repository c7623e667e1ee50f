package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/goliatone/go-formbind/pkg/rules"
)

type hclFile struct {
	Forms []*hclForm `hcl:"form,block"`
}

type hclForm struct {
	Name       string            `hcl:"name,label"`
	Model      string            `hcl:"model"`
	ValidateOn []string          `hcl:"validate_on,optional"`
	Validators hcl.Expression    `hcl:"validators,optional"`
	Errors     hcl.Expression    `hcl:"errors,optional"`
	Messages   map[string]string `hcl:"messages,optional"`
	Initial    hcl.Expression    `hcl:"initial,optional"`
}

// LoadHCL parses HCL form definitions:
//
//	form "signup" {
//	  model       = "user"
//	  validate_on = ["change"]
//	  validators = {
//	    email    = [rules.required, rules.email]
//	    password = { present = rules.required, long = rule("minLength", 8) }
//	    ""       = expr("plan != \"\"")
//	  }
//	}
//
// `rules.<name>` resolves to every rule registered in reg; `rule(name, arg)`
// and `expr(source)` build parameterised and expression rules.
func LoadHCL(data []byte, source string, reg *rules.Registry) ([]Definition, error) {
	if reg == nil {
		reg = rules.Default()
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, sourceName(source))
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %w", sourceLabel(source), diags)
	}

	evalCtx := evalContext(reg)
	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %w", sourceLabel(source), diags)
	}

	defs := make([]Definition, 0, len(parsed.Forms))
	for _, raw := range parsed.Forms {
		def := Definition{
			Name:       raw.Name,
			Model:      raw.Model,
			ValidateOn: raw.ValidateOn,
			Messages:   raw.Messages,
			Source:     source,
		}
		var err error
		if def.Validators, err = decodeSpecs(raw.Validators, evalCtx); err != nil {
			return nil, fmt.Errorf("config: form %q validators: %w", raw.Name, err)
		}
		if def.Errors, err = decodeSpecs(raw.Errors, evalCtx); err != nil {
			return nil, fmt.Errorf("config: form %q errors: %w", raw.Name, err)
		}
		if def.Initial, err = decodeInitial(raw.Initial, evalCtx); err != nil {
			return nil, fmt.Errorf("config: form %q initial: %w", raw.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func sourceName(source string) string {
	if source == "" {
		return "inline.hcl"
	}
	return source
}

func evalContext(reg *rules.Registry) *hcl.EvalContext {
	names := make(map[string]cty.Value)
	for _, name := range reg.Names() {
		names[name] = cty.StringVal(name)
	}
	rulesVal := cty.EmptyObjectVal
	if len(names) > 0 {
		rulesVal = cty.ObjectVal(names)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"rules": rulesVal},
		Functions: map[string]function.Function{
			"rule": ruleFunc,
			"expr": exprFunc,
		},
	}
}

var ruleFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
		{Name: "arg", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(args[0].AsString() + ":" + args[1].AsString()), nil
	},
})

var exprFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "source", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(rules.ExprPrefix + args[0].AsString()), nil
	},
})

func decodeSpecs(expr hcl.Expression, ctx *hcl.EvalContext) (map[string]RuleSpec, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object of field rules, got %s", val.Type().FriendlyName())
	}

	out := make(map[string]RuleSpec)
	for field, rv := range val.AsValueMap() {
		spec, err := ruleSpecFromCty(rv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		out[field] = spec
	}
	return out, nil
}

func ruleSpecFromCty(val cty.Value) (RuleSpec, error) {
	ty := val.Type()
	switch {
	case val.IsNull():
		return RuleSpec{}, nil
	case ty == cty.String:
		return RuleSpec{Rules: splitRules(val.AsString())}, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var list []string
		for _, item := range val.AsValueSlice() {
			if item.Type() != cty.String || item.IsNull() {
				return RuleSpec{}, fmt.Errorf("rule lists must contain strings")
			}
			list = append(list, item.AsString())
		}
		return RuleSpec{Rules: list}, nil
	case ty.IsObjectType() || ty.IsMapType():
		named := make(map[string]string)
		for name, item := range val.AsValueMap() {
			if item.Type() != cty.String || item.IsNull() {
				return RuleSpec{}, fmt.Errorf("check %q must be a rule string", name)
			}
			named[name] = item.AsString()
		}
		return RuleSpec{Named: named}, nil
	default:
		return RuleSpec{}, fmt.Errorf("unsupported rule value of type %s", ty.FriendlyName())
	}
}

func decodeInitial(expr hcl.Expression, ctx *hcl.EvalContext) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}
	out, _ := ctyToGo(val).(map[string]any)
	return out, nil
}

func ctyToGo(val cty.Value) any {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString()
	case ty == cty.Bool:
		return val.True()
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		if f == float64(int64(f)) {
			return int(f)
		}
		return f
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for _, item := range val.AsValueSlice() {
			out = append(out, ctyToGo(item))
		}
		return out
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for key, item := range val.AsValueMap() {
			out[key] = ctyToGo(item)
		}
		return out
	default:
		return nil
	}
}

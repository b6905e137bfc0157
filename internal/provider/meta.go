package provider

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// metaToAPI converts the dynamic `meta` attribute into the opaque key/value
// mapping the API expects. Both an HCL object/map and a JSON-encoded string
// are accepted, so practitioners can pass jsonencode(...) output or inline
// objects interchangeably.
func metaToAPI(meta types.Dynamic, diags *diag.Diagnostics) map[string]interface{} {
	if meta.IsNull() || meta.IsUnknown() {
		return nil
	}

	switch val := meta.UnderlyingValue().(type) {
	case types.String:
		if val.IsNull() || val.IsUnknown() {
			return nil
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(val.ValueString()), &m); err != nil {
			diags.AddError(
				"Invalid meta value",
				fmt.Sprintf("meta was provided as a string, but it's not valid JSON: %s", err),
			)
			return nil
		}
		return m
	case types.Object:
		if val.IsNull() || val.IsUnknown() {
			return nil
		}
		return attributesToGo(val.Attributes(), diags)
	case types.Map:
		if val.IsNull() || val.IsUnknown() {
			return nil
		}
		return attributesToGo(val.Elements(), diags)
	default:
		diags.AddError(
			"Invalid meta value",
			fmt.Sprintf("meta must be an object, a map, or a JSON-encoded string, got %T", meta.UnderlyingValue()),
		)
		return nil
	}
}

func attributesToGo(attrs map[string]attr.Value, diags *diag.Diagnostics) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for name, attrVal := range attrs {
		goVal, err := attrValueToGo(attrVal)
		if err != nil {
			diags.AddError("Invalid meta value", fmt.Sprintf("meta attribute %q: %s", name, err))
			return nil
		}
		out[name] = goVal
	}
	return out
}

func attrValueToGo(v attr.Value) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.IsUnknown() {
		return nil, fmt.Errorf("value is not yet known")
	}

	switch val := v.(type) {
	case types.String:
		return val.ValueString(), nil
	case types.Bool:
		return val.ValueBool(), nil
	case types.Int64:
		return val.ValueInt64(), nil
	case types.Float64:
		return val.ValueFloat64(), nil
	case types.Number:
		bf := val.ValueBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case types.Object:
		out := make(map[string]interface{}, len(val.Attributes()))
		for name, attrVal := range val.Attributes() {
			goVal, err := attrValueToGo(attrVal)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", name, err)
			}
			out[name] = goVal
		}
		return out, nil
	case types.Map:
		out := make(map[string]interface{}, len(val.Elements()))
		for name, elemVal := range val.Elements() {
			goVal, err := attrValueToGo(elemVal)
			if err != nil {
				return nil, fmt.Errorf("element %q: %w", name, err)
			}
			out[name] = goVal
		}
		return out, nil
	case types.List:
		return elementsToGo(val.Elements())
	case types.Set:
		return elementsToGo(val.Elements())
	case types.Tuple:
		return elementsToGo(val.Elements())
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func elementsToGo(elems []attr.Value) ([]interface{}, error) {
	out := make([]interface{}, 0, len(elems))
	for i, elemVal := range elems {
		goVal, err := attrValueToGo(elemVal)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, goVal)
	}
	return out, nil
}

package provider

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
)

func TestMetaToAPI(t *testing.T) {
	tests := []struct {
		name          string
		input         types.Dynamic
		expectedMap   map[string]interface{}
		expectError   bool
		errorContains string
	}{
		{
			name:        "nil dynamic value",
			input:       types.DynamicNull(),
			expectedMap: nil,
			expectError: false,
		},
		{
			name:        "unknown dynamic value",
			input:       types.DynamicUnknown(),
			expectedMap: nil,
			expectError: false,
		},
		{
			name:  "valid JSON string with mixed types",
			input: types.DynamicValue(types.StringValue(`{"plan":"free","seats":5,"beta":true}`)),
			expectedMap: map[string]interface{}{
				"plan":  "free",
				"seats": float64(5),
				"beta":  true,
			},
			expectError: false,
		},
		{
			name:          "invalid JSON string",
			input:         types.DynamicValue(types.StringValue(`{invalid json}`)),
			expectedMap:   nil,
			expectError:   true,
			errorContains: "meta was provided as a string, but it's not valid JSON",
		},
		{
			name:        "null string value",
			input:       types.DynamicValue(basetypes.NewStringNull()),
			expectedMap: nil,
			expectError: false,
		},
		{
			name:          "empty string value",
			input:         types.DynamicValue(types.StringValue("")),
			expectedMap:   nil,
			expectError:   true,
			errorContains: "meta was provided as a string, but it's not valid JSON",
		},
		{
			name:        "empty JSON string",
			input:       types.DynamicValue(types.StringValue(`{}`)),
			expectedMap: map[string]interface{}{},
			expectError: false,
		},
		{
			name: "HCL object with string values",
			input: types.DynamicValue(types.ObjectValueMust(
				map[string]attr.Type{
					"environment": types.StringType,
					"team":        types.StringType,
				},
				map[string]attr.Value{
					"environment": types.StringValue("production"),
					"team":        types.StringValue("billing"),
				},
			)),
			expectedMap: map[string]interface{}{
				"environment": "production",
				"team":        "billing",
			},
			expectError: false,
		},
		{
			name: "HCL object with mixed types",
			input: types.DynamicValue(types.ObjectValueMust(
				map[string]attr.Type{
					"weight":  types.Float64Type,
					"seats":   types.Int64Type,
					"trusted": types.BoolType,
				},
				map[string]attr.Value{
					"weight":  types.Float64Value(0.7),
					"seats":   types.Int64Value(1000),
					"trusted": types.BoolValue(true),
				},
			)),
			expectedMap: map[string]interface{}{
				"weight":  0.7,
				"seats":   int64(1000),
				"trusted": true,
			},
			expectError: false,
		},
		{
			name: "HCL map with string values",
			input: types.DynamicValue(types.MapValueMust(
				types.StringType,
				map[string]attr.Value{
					"key1": types.StringValue("value1"),
					"key2": types.StringValue("value2"),
				},
			)),
			expectedMap: map[string]interface{}{
				"key1": "value1",
				"key2": "value2",
			},
			expectError: false,
		},
		{
			name: "null HCL object",
			input: types.DynamicValue(types.ObjectNull(
				map[string]attr.Type{
					"key": types.StringType,
				},
			)),
			expectedMap: nil,
			expectError: false,
		},
		{
			name: "HCL object with nested objects",
			input: types.DynamicValue(types.ObjectValueMust(
				map[string]attr.Type{
					"billing": types.ObjectType{AttrTypes: map[string]attr.Type{
						"tier": types.StringType,
					}},
				},
				map[string]attr.Value{
					"billing": types.ObjectValueMust(
						map[string]attr.Type{
							"tier": types.StringType,
						},
						map[string]attr.Value{
							"tier": types.StringValue("enterprise"),
						},
					),
				},
			)),
			expectedMap: map[string]interface{}{
				"billing": map[string]interface{}{
					"tier": "enterprise",
				},
			},
			expectError: false,
		},
		{
			name: "HCL object with list values",
			input: types.DynamicValue(types.ObjectValueMust(
				map[string]attr.Type{
					"scopes": types.ListType{ElemType: types.StringType},
				},
				map[string]attr.Value{
					"scopes": types.ListValueMust(types.StringType, []attr.Value{
						types.StringValue("read"),
						types.StringValue("write"),
					}),
				},
			)),
			expectedMap: map[string]interface{}{
				"scopes": []interface{}{"read", "write"},
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diag.Diagnostics
			result := metaToAPI(tt.input, &diags)

			if tt.expectError {
				if !diags.HasError() {
					t.Errorf("expected error but got none")
				}
				if tt.errorContains != "" {
					found := false
					for _, d := range diags.Errors() {
						if strings.Contains(d.Summary(), tt.errorContains) || strings.Contains(d.Detail(), tt.errorContains) {
							found = true
							break
						}
					}
					if !found {
						t.Errorf("expected error containing %q, but got: %v", tt.errorContains, diags.Errors())
					}
				}
			} else {
				if diags.HasError() {
					t.Errorf("unexpected error: %v", diags.Errors())
				}
			}

			if !reflect.DeepEqual(result, tt.expectedMap) {
				t.Errorf("result = %v, want %v", result, tt.expectedMap)
			}
		})
	}
}

package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

// rfc3339Validator validates that a string attribute holds an RFC3339
// timestamp. The validators package has no timestamp primitive.
type rfc3339Validator struct{}

var _ validator.String = rfc3339Validator{}

func (rfc3339Validator) Description(_ context.Context) string {
	return "value must be a valid RFC3339 timestamp, e.g. 2027-01-02T15:04:05Z"
}

func (v rfc3339Validator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

func (rfc3339Validator) ValidateString(ctx context.Context, req validator.StringRequest, resp *validator.StringResponse) {
	if req.ConfigValue.IsNull() || req.ConfigValue.IsUnknown() {
		return
	}
	if _, err := time.Parse(time.RFC3339, req.ConfigValue.ValueString()); err != nil {
		resp.Diagnostics.AddAttributeError(
			req.Path,
			"Invalid RFC3339 Timestamp",
			fmt.Sprintf("Attribute %s must be a valid RFC3339 timestamp, got %q: %s", req.Path, req.ConfigValue.ValueString(), err),
		)
	}
}

// IsRFC3339 returns a validator asserting the string parses as RFC3339.
func IsRFC3339() validator.String {
	return rfc3339Validator{}
}

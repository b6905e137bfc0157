package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-testing/helper/acctest"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"

	"terraform-provider-keymint/internal/keymintclient"
)

func ratelimitObject(t *testing.T, rlType string, limit, refillRate, refillInterval int64) types.Object {
	t.Helper()
	return types.ObjectValueMust(ratelimitAttributeTypes(), map[string]attr.Value{
		"type":            types.StringValue(rlType),
		"limit":           types.Int64Value(limit),
		"refill_rate":     types.Int64Value(refillRate),
		"refill_interval": types.Int64Value(refillInterval),
	})
}

func marshalCreate(t *testing.T, plan KeyResourceModel) map[string]json.RawMessage {
	t.Helper()
	var diags diag.Diagnostics
	payload := buildKeyCreate(context.Background(), plan, &diags)
	if diags.HasError() {
		t.Fatalf("buildKeyCreate diagnostics: %v", diags.Errors())
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshaling payload: %v", err)
	}
	return fields
}

func minimalKeyPlan() KeyResourceModel {
	return KeyResourceModel{
		APIID:     types.StringValue("api_1"),
		Bytes:     types.Int64Value(16),
		Prefix:    types.StringNull(),
		OwnerID:   types.StringNull(),
		Meta:      types.DynamicNull(),
		ExpiresAt: types.StringNull(),
		Ratelimit: types.ObjectNull(ratelimitAttributeTypes()),
	}
}

// An absent ratelimit block must not produce a ratelimit member in the
// payload, no matter what was previously entered.
func TestBuildKeyCreateDropsAbsentRatelimit(t *testing.T) {
	fields := marshalCreate(t, minimalKeyPlan())
	if _, present := fields["ratelimit"]; present {
		t.Error("ratelimit must be absent from the payload when the block is not set")
	}
}

// An absent expires_at must not produce an expires member in the payload.
func TestBuildKeyCreateDropsAbsentExpiration(t *testing.T) {
	fields := marshalCreate(t, minimalKeyPlan())
	if _, present := fields["expires"]; present {
		t.Error("expires must be absent from the payload when expires_at is not set")
	}
}

func TestBuildKeyCreateEmptyOwnerIsAbsent(t *testing.T) {
	plan := minimalKeyPlan()
	plan.OwnerID = types.StringValue("")
	fields := marshalCreate(t, plan)
	if _, present := fields["ownerId"]; present {
		t.Error("an empty owner_id must be sent as absent, not as an empty string")
	}
}

func TestBuildKeyCreateRatelimitShape(t *testing.T) {
	plan := minimalKeyPlan()
	plan.Ratelimit = ratelimitObject(t, "fast", 100, 10, 1000)

	fields := marshalCreate(t, plan)
	raw, present := fields["ratelimit"]
	if !present {
		t.Fatal("ratelimit missing from payload")
	}

	want := `{"type":"fast","limit":100,"refillRate":10,"refillInterval":1000}`
	if string(raw) != want {
		t.Errorf("ratelimit = %s, want %s", raw, want)
	}
}

func TestBuildKeyCreateExpiresEpochMillis(t *testing.T) {
	plan := minimalKeyPlan()
	plan.ExpiresAt = types.StringValue("2027-01-01T00:00:00Z")

	fields := marshalCreate(t, plan)
	if string(fields["expires"]) != "1798761600000" {
		t.Errorf("expires = %s, want 1798761600000", fields["expires"])
	}
}

func TestBuildKeyCreateFullPayload(t *testing.T) {
	plan := minimalKeyPlan()
	plan.Prefix = types.StringValue("prod")
	plan.OwnerID = types.StringValue("acct_9")
	plan.Meta = types.DynamicValue(types.ObjectValueMust(
		map[string]attr.Type{"plan": types.StringType},
		map[string]attr.Value{"plan": types.StringValue("enterprise")},
	))

	var diags diag.Diagnostics
	payload := buildKeyCreate(context.Background(), plan, &diags)
	if diags.HasError() {
		t.Fatalf("buildKeyCreate diagnostics: %v", diags.Errors())
	}

	if payload.APIID != "api_1" || payload.Bytes != 16 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Prefix == nil || *payload.Prefix != "prod" {
		t.Errorf("prefix = %v", payload.Prefix)
	}
	if payload.OwnerID == nil || *payload.OwnerID != "acct_9" {
		t.Errorf("ownerId = %v", payload.OwnerID)
	}
	if payload.Meta["plan"] != "enterprise" {
		t.Errorf("meta = %v", payload.Meta)
	}
}

func TestRatelimitFromAPI(t *testing.T) {
	var diags diag.Diagnostics

	if obj := ratelimitFromAPI(nil, &diags); !obj.IsNull() {
		t.Error("nil API ratelimit must map to a null object")
	}

	obj := ratelimitFromAPI(&keymintclient.Ratelimit{
		Type:           "consistent",
		Limit:          50,
		RefillRate:     5,
		RefillInterval: 2000,
	}, &diags)
	if diags.HasError() {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}

	want := ratelimitObject(t, "consistent", 50, 5, 2000)
	if !obj.Equal(want) {
		t.Errorf("object = %v, want %v", obj, want)
	}
}

// --- Acceptance tests ---

const testAccKeyResourcePrefix = "tf-acc-test-key-"

func TestAccKeyResource(t *testing.T) {
	if os.Getenv("KEYMINT_ROOT_KEY") == "" || os.Getenv("KEYMINT_API_ENDPOINT") == "" {
		t.Skip("KEYMINT_ROOT_KEY and KEYMINT_API_ENDPOINT must be set for acceptance tests")
		return
	}

	rName := acctest.RandStringFromCharSet(10, acctest.CharSetAlphaNum)
	apiName := fmt.Sprintf("%s%s-api", testAccKeyResourcePrefix, rName)
	keyResourceFullName := "keymint_key.test"

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			// --- Step 1: Create key (minimal) ---
			{
				Config: testAccKeyResourceConfigBasic(apiName),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttrSet(keyResourceFullName, "id"),
					resource.TestCheckResourceAttrSet(keyResourceFullName, "key"),
					resource.TestCheckResourceAttrSet(keyResourceFullName, "start"),
					resource.TestCheckResourceAttrSet(keyResourceFullName, "created_at"),
					resource.TestCheckResourceAttr(keyResourceFullName, "bytes", "16"),
					resource.TestCheckNoResourceAttr(keyResourceFullName, "ratelimit"),
				),
			},
			// --- Step 2: Add ratelimit and owner ---
			{
				Config: testAccKeyResourceConfigRatelimited(apiName),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr(keyResourceFullName, "owner_id", "acct_acceptance"),
					resource.TestCheckResourceAttr(keyResourceFullName, "ratelimit.type", "fast"),
					resource.TestCheckResourceAttr(keyResourceFullName, "ratelimit.limit", "100"),
					resource.TestCheckResourceAttr(keyResourceFullName, "ratelimit.refill_rate", "10"),
					resource.TestCheckResourceAttr(keyResourceFullName, "ratelimit.refill_interval", "1000"),
				),
			},
			// --- Step 3: Import (secret is not recoverable) ---
			{
				ResourceName:            keyResourceFullName,
				ImportState:             true,
				ImportStateVerify:       true,
				ImportStateVerifyIgnore: []string{"key", "verification_command", "bytes", "prefix", "meta", "expires_at"},
			},
		},
	})
}

func TestAccKeyResourceRejectsInvalidInput(t *testing.T) {
	if os.Getenv("KEYMINT_ROOT_KEY") == "" || os.Getenv("KEYMINT_API_ENDPOINT") == "" {
		t.Skip("KEYMINT_ROOT_KEY and KEYMINT_API_ENDPOINT must be set for acceptance tests")
		return
	}

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: `
resource "keymint_key" "invalid" {
  api_id = "api_placeholder"
  bytes  = 0
}
`,
				ExpectError: regexp.MustCompile(`value must be at least 1`),
			},
			{
				Config: `
resource "keymint_key" "invalid" {
  api_id = "api_placeholder"
  bytes  = 16
  prefix = "abcdefghi"
}
`,
				ExpectError: regexp.MustCompile(`string length must be at most 8`),
			},
			{
				Config: `
resource "keymint_key" "invalid" {
  api_id     = "api_placeholder"
  bytes      = 16
  expires_at = "not-a-timestamp"
}
`,
				ExpectError: regexp.MustCompile(`Invalid RFC3339 Timestamp`),
			},
			{
				Config: `
resource "keymint_key" "invalid" {
  api_id = "api_placeholder"
  bytes  = 16
  ratelimit = {
    type            = "turbo"
    limit           = 100
    refill_rate     = 10
    refill_interval = 1000
  }
}
`,
				ExpectError: regexp.MustCompile(`value must be one of`),
			},
		},
	})
}

func testAccKeyResourceConfigBasic(apiName string) string {
	return fmt.Sprintf(`
resource "keymint_api" "test" {
  name = %[1]q
}

resource "keymint_key" "test" {
  api_id = keymint_api.test.id
  bytes  = 16
  prefix = "acc"
}
`, apiName)
}

func testAccKeyResourceConfigRatelimited(apiName string) string {
	return fmt.Sprintf(`
resource "keymint_api" "test" {
  name = %[1]q
}

resource "keymint_key" "test" {
  api_id   = keymint_api.test.id
  bytes    = 16
  prefix   = "acc"
  owner_id = "acct_acceptance"

  ratelimit = {
    limit           = 100
    refill_rate     = 10
    refill_interval = 1000
  }
}
`, apiName)
}

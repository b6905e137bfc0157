package provider

import (
	"fmt"
	"os"
	"testing"

	"github.com/hashicorp/terraform-plugin-testing/helper/acctest"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/knownvalue"
	"github.com/hashicorp/terraform-plugin-testing/statecheck"
	"github.com/hashicorp/terraform-plugin-testing/tfjsonpath"
	"github.com/hashicorp/terraform-plugin-testing/tfversion"
)

// TestAccKeyEphemeralResource creates an ephemeral key and echoes the
// secret into state to assert it was produced. Ephemeral resources require
// Terraform 1.10 or later.
func TestAccKeyEphemeralResource(t *testing.T) {
	if os.Getenv("KEYMINT_ROOT_KEY") == "" || os.Getenv("KEYMINT_API_ENDPOINT") == "" {
		t.Skip("KEYMINT_ROOT_KEY and KEYMINT_API_ENDPOINT must be set for acceptance tests")
		return
	}

	rName := acctest.RandStringFromCharSet(10, acctest.CharSetAlphaNum)
	apiName := fmt.Sprintf("tf-acc-test-ephemeral-%s", rName)

	resource.Test(t, resource.TestCase{
		PreCheck: func() { testAccPreCheck(t) },
		TerraformVersionChecks: []tfversion.TerraformVersionCheck{
			tfversion.SkipBelow(tfversion.Version1_10_0),
		},
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactoriesWithEcho,
		Steps: []resource.TestStep{
			{
				Config: testAccKeyEphemeralResourceConfig(apiName),
				ConfigStateChecks: []statecheck.StateCheck{
					statecheck.ExpectKnownValue("echo.key_test", tfjsonpath.New("data"), knownvalue.NotNull()),
				},
			},
		},
	})
}

func testAccKeyEphemeralResourceConfig(apiName string) string {
	return fmt.Sprintf(`
resource "keymint_api" "test" {
  name = %[1]q
}

ephemeral "keymint_key" "test" {
  api_id = keymint_api.test.id
  bytes  = 16
  prefix = "eph"
}

provider "echo" {
  data = ephemeral.keymint_key.test.key
}

resource "echo" "key_test" {}
`, apiName)
}

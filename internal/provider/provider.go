package provider

import (
	"context"
	"os"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/ephemeral"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-keymint/internal/keymintclient"
)

// Ensure KeymintProvider satisfies various provider interfaces.
var _ provider.Provider = &KeymintProvider{}
var _ provider.ProviderWithFunctions = &KeymintProvider{}
var _ provider.ProviderWithEphemeralResources = &KeymintProvider{}

// KeymintProvider defines the provider implementation.
type KeymintProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// KeymintProviderModel describes the provider data model.
type KeymintProviderModel struct {
	APIEndpoint types.String `tfsdk:"api_endpoint"`
	RootKey     types.String `tfsdk:"root_key"`
}

func (p *KeymintProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "keymint"
	resp.Version = p.version
}

func (p *KeymintProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Terraform provider for the Keymint API key service.",
		Attributes: map[string]schema.Attribute{
			"api_endpoint": schema.StringAttribute{
				MarkdownDescription: "The endpoint for the Keymint API. Can also be set via KEYMINT_API_ENDPOINT environment variable.",
				Optional:            true,
			},
			"root_key": schema.StringAttribute{
				MarkdownDescription: "The root key for the Keymint API. Can also be set via KEYMINT_ROOT_KEY environment variable.",
				Optional:            true,
				Sensitive:           true,
			},
		},
	}
}

func (p *KeymintProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data KeymintProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	// Read configuration from environment variables if not set in config
	if data.APIEndpoint.IsNull() || data.APIEndpoint.ValueString() == "" {
		envEndpoint := os.Getenv("KEYMINT_API_ENDPOINT")
		if envEndpoint != "" {
			data.APIEndpoint = types.StringValue(envEndpoint)
			tflog.Debug(ctx, "Using KEYMINT_API_ENDPOINT from environment variable")
		}
	}

	if data.RootKey.IsNull() || data.RootKey.ValueString() == "" {
		envRootKey := os.Getenv("KEYMINT_ROOT_KEY")
		if envRootKey != "" {
			data.RootKey = types.StringValue(envRootKey)
			tflog.Debug(ctx, "Using KEYMINT_ROOT_KEY from environment variable")
		}
	}

	// Validate required configuration
	if data.APIEndpoint.IsNull() || data.APIEndpoint.ValueString() == "" {
		resp.Diagnostics.AddError(
			"Missing API Endpoint Configuration",
			"The provider cannot be configured without an API endpoint. "+
				"Set the api_endpoint attribute in the provider configuration or use the KEYMINT_API_ENDPOINT environment variable.",
		)
	}

	if data.RootKey.IsNull() || data.RootKey.ValueString() == "" {
		resp.Diagnostics.AddError(
			"Missing Root Key Configuration",
			"The provider cannot be configured without a root key. "+
				"Set the root_key attribute in the provider configuration or use the KEYMINT_ROOT_KEY environment variable.",
		)
	}

	if resp.Diagnostics.HasError() {
		return
	}

	tflog.Info(ctx, "Configuring Keymint API client")
	tflog.Debug(ctx, "Keymint API Endpoint: "+data.APIEndpoint.ValueString())
	// Do not log the root key, even at debug level.

	client, err := keymintclient.NewClient(data.APIEndpoint.ValueString(), data.RootKey.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Failed to create Keymint API client", err.Error())
		return
	}

	resp.DataSourceData = client
	resp.ResourceData = client
	resp.EphemeralResourceData = client
	tflog.Info(ctx, "Keymint API client configured successfully")
}

func (p *KeymintProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewAPIResource,
		NewKeyResource,
	}
}

func (p *KeymintProvider) EphemeralResources(ctx context.Context) []func() ephemeral.EphemeralResource {
	return []func() ephemeral.EphemeralResource{
		NewKeyEphemeralResource,
	}
}

func (p *KeymintProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewKeysDataSource,
	}
}

func (p *KeymintProvider) Functions(ctx context.Context) []func() function.Function {
	return []func() function.Function{
		NewVerificationCommandFunction,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &KeymintProvider{
			version: version,
		}
	}
}

package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/ephemeral"
	"github.com/hashicorp/terraform-plugin-framework/ephemeral/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-keymint/internal/keymintclient"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ ephemeral.EphemeralResource = &KeyEphemeralResource{}

func NewKeyEphemeralResource() ephemeral.EphemeralResource {
	return &KeyEphemeralResource{}
}

// KeyEphemeralResource creates a key whose secret exists only for the
// duration of the Terraform run. Nothing is written to state or plan files;
// once the run ends the secret is gone and cannot be retrieved again. The
// key itself keeps existing server-side and shows up in the keymint_keys
// listing as metadata.
type KeyEphemeralResource struct {
	client *keymintclient.Client
}

// KeyEphemeralResourceModel describes the ephemeral resource data model.
type KeyEphemeralResourceModel struct {
	APIID     types.String  `tfsdk:"api_id"`
	Bytes     types.Int64   `tfsdk:"bytes"`
	Prefix    types.String  `tfsdk:"prefix"`
	OwnerID   types.String  `tfsdk:"owner_id"`
	Meta      types.Dynamic `tfsdk:"meta"`
	ExpiresAt types.String  `tfsdk:"expires_at"`
	ID        types.String  `tfsdk:"id"`
	Key       types.String  `tfsdk:"key"`
}

func (r *KeyEphemeralResource) Metadata(ctx context.Context, req ephemeral.MetadataRequest, resp *ephemeral.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_key"
}

func (r *KeyEphemeralResource) Schema(ctx context.Context, req ephemeral.SchemaRequest, resp *ephemeral.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Creates a Keymint key and exposes the secret for the duration of the run only. " +
			"The secret is never persisted to state; when the run ends it is discarded and cannot be retrieved again.",
		Attributes: map[string]schema.Attribute{
			"api_id": schema.StringAttribute{
				Required:            true,
				MarkdownDescription: "The API (key namespace) the key is issued under.",
				Validators:          []validator.String{stringvalidator.LengthAtLeast(1)},
			},
			"bytes": schema.Int64Attribute{
				Required:            true,
				MarkdownDescription: "Entropy of the generated key in bytes. Must be positive.",
				Validators:          []validator.Int64{int64validator.AtLeast(1)},
			},
			"prefix": schema.StringAttribute{
				Optional:            true,
				MarkdownDescription: "Human-readable prefix prepended to the generated key. Maximum 8 characters.",
				Validators:          []validator.String{stringvalidator.LengthAtMost(8)},
			},
			"owner_id": schema.StringAttribute{
				Optional:            true,
				MarkdownDescription: "External identifier to associate with the key.",
			},
			"meta": schema.DynamicAttribute{
				Optional:            true,
				MarkdownDescription: "Opaque metadata stored with the key. Accepts an HCL object/map or a JSON-encoded string.",
			},
			"expires_at": schema.StringAttribute{
				Optional:            true,
				MarkdownDescription: "RFC3339 timestamp at which the key stops verifying. Omit for a non-expiring key.",
				Validators:          []validator.String{IsRFC3339()},
			},
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "The unique identifier of the key. This is not the secret.",
			},
			"key": schema.StringAttribute{
				Computed:            true,
				Sensitive:           true,
				MarkdownDescription: "The plaintext secret, available for this run only.",
			},
		},
	}
}

func (r *KeyEphemeralResource) Configure(ctx context.Context, req ephemeral.ConfigureRequest, resp *ephemeral.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}
	client, ok := req.ProviderData.(*keymintclient.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Ephemeral Resource Configure Type",
			fmt.Sprintf("Expected *keymintclient.Client, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}
	r.client = client
}

func (r *KeyEphemeralResource) Open(ctx context.Context, req ephemeral.OpenRequest, resp *ephemeral.OpenResponse) {
	var data KeyEphemeralResourceModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	createPayload := keymintclient.KeyCreateRequest{
		APIID: data.APIID.ValueString(),
		Bytes: data.Bytes.ValueInt64(),
	}
	if !data.Prefix.IsNull() && !data.Prefix.IsUnknown() && data.Prefix.ValueString() != "" {
		prefix := data.Prefix.ValueString()
		createPayload.Prefix = &prefix
	}
	if !data.OwnerID.IsNull() && !data.OwnerID.IsUnknown() && data.OwnerID.ValueString() != "" {
		ownerID := data.OwnerID.ValueString()
		createPayload.OwnerID = &ownerID
	}
	createPayload.Meta = metaToAPI(data.Meta, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}
	createPayload.Expires = expiresToEpochMillis(data.ExpiresAt, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	tflog.Debug(ctx, fmt.Sprintf("Creating ephemeral key under API %s", data.APIID.ValueString()))

	created, err := r.client.CreateKey(ctx, createPayload)
	if err != nil {
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to create key, got error: %s", err))
		return
	}

	data.ID = types.StringValue(created.KeyID)
	data.Key = types.StringValue(created.Key)

	tflog.Info(ctx, fmt.Sprintf("Ephemeral key created with ID: %s", created.KeyID))
	resp.Diagnostics.Append(resp.Result.Set(ctx, &data)...)
}

package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-keymint/internal/keymintclient"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &KeysDataSource{}

func NewKeysDataSource() datasource.DataSource {
	return &KeysDataSource{}
}

// KeysDataSource lists the key metadata of an API. Secrets are never part of
// the listing; `start` is the only key material exposed.
type KeysDataSource struct {
	client *keymintclient.Client
}

// KeysDataSourceModel describes the data source data model.
type KeysDataSourceModel struct {
	APIID types.String       `tfsdk:"api_id"`
	Keys  []KeyMetadataModel `tfsdk:"keys"`
	Total types.Int64        `tfsdk:"total"`
}

// KeyMetadataModel is one entry in the listing.
type KeyMetadataModel struct {
	ID        types.String `tfsdk:"id"`
	Start     types.String `tfsdk:"start"`
	OwnerID   types.String `tfsdk:"owner_id"`
	CreatedAt types.String `tfsdk:"created_at"`
	ExpiresAt types.String `tfsdk:"expires_at"`
}

func (d *KeysDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_keys"
}

func (d *KeysDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Lists the metadata of all keys issued under an API. The secrets themselves are not retrievable.",
		Attributes: map[string]schema.Attribute{
			"api_id": schema.StringAttribute{
				Required:            true,
				MarkdownDescription: "The API whose keys should be listed.",
			},
			"total": schema.Int64Attribute{
				Computed:            true,
				MarkdownDescription: "Total number of keys under the API.",
			},
			"keys": schema.ListNestedAttribute{
				Computed:            true,
				MarkdownDescription: "Key metadata entries.",
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"id": schema.StringAttribute{
							Computed:            true,
							MarkdownDescription: "The unique identifier of the key.",
						},
						"start": schema.StringAttribute{
							Computed:            true,
							MarkdownDescription: "The first characters of the key, safe to display.",
						},
						"owner_id": schema.StringAttribute{
							Computed:            true,
							MarkdownDescription: "External identifier associated with the key, if any.",
						},
						"created_at": schema.StringAttribute{
							Computed:            true,
							MarkdownDescription: "Creation timestamp of the key (RFC3339).",
						},
						"expires_at": schema.StringAttribute{
							Computed:            true,
							MarkdownDescription: "Expiration timestamp of the key (RFC3339), null for non-expiring keys.",
						},
					},
				},
			},
		},
	}
}

func (d *KeysDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}
	client, ok := req.ProviderData.(*keymintclient.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *keymintclient.Client, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}
	d.client = client
}

func (d *KeysDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data KeysDataSourceModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	apiID := data.APIID.ValueString()
	tflog.Debug(ctx, fmt.Sprintf("Listing keys for API %s", apiID))

	list, err := d.client.ListKeys(ctx, apiID)
	if err != nil {
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to list keys for API %s, got error: %s", apiID, err))
		return
	}

	data.Total = types.Int64Value(list.Total)
	data.Keys = make([]KeyMetadataModel, 0, len(list.Keys))
	for _, key := range list.Keys {
		entry := KeyMetadataModel{
			ID:        types.StringValue(key.ID),
			Start:     types.StringValue(key.Start),
			CreatedAt: types.StringValue(time.UnixMilli(key.CreatedAt).UTC().Format(time.RFC3339)),
			OwnerID:   types.StringNull(),
			ExpiresAt: types.StringNull(),
		}
		if key.OwnerID != nil {
			entry.OwnerID = types.StringValue(*key.OwnerID)
		}
		if key.Expires != nil {
			entry.ExpiresAt = types.StringValue(time.UnixMilli(*key.Expires).UTC().Format(time.RFC3339))
		}
		data.Keys = append(data.Keys, entry)
	}

	tflog.Debug(ctx, fmt.Sprintf("Listed %d keys for API %s", len(data.Keys), apiID))
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

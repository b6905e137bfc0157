package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-keymint/internal/keymintclient"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &APIResource{}
var _ resource.ResourceWithImportState = &APIResource{}

func NewAPIResource() resource.Resource {
	return &APIResource{}
}

// APIResource defines the resource implementation.
type APIResource struct {
	client *keymintclient.Client
}

// APIResourceModel describes the resource data model.
type APIResourceModel struct {
	ID        types.String `tfsdk:"id"`
	Name      types.String `tfsdk:"name"`
	CreatedAt types.String `tfsdk:"created_at"`
}

func mapAPIToModel(api *keymintclient.API, model *APIResourceModel) {
	model.ID = types.StringValue(api.ID)
	model.Name = types.StringValue(api.Name)
	model.CreatedAt = types.StringValue(time.UnixMilli(api.CreatedAt).UTC().Format(time.RFC3339))
}

func (r *APIResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_api"
}

func (r *APIResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages a Keymint API, the namespace keys are issued under. Deleting an API revokes all of its keys.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "The unique identifier of the API.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				Required:            true,
				MarkdownDescription: "The name of the API. Must be at least 1 character long.",
				Validators:          []validator.String{stringvalidator.LengthAtLeast(1)},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"created_at": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "Creation timestamp of the API (RFC3339).",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *APIResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}
	client, ok := req.ProviderData.(*keymintclient.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *keymintclient.Client, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}
	r.client = client
}

func (r *APIResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data APIResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	tflog.Debug(ctx, fmt.Sprintf("Creating API with name: %s", data.Name.ValueString()))

	created, err := r.client.CreateAPI(ctx, keymintclient.APICreateRequest{
		Name: data.Name.ValueString(),
	})
	if err != nil {
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to create API, got error: %s", err))
		return
	}

	mapAPIToModel(created, &data)
	tflog.Info(ctx, fmt.Sprintf("API created successfully with ID: %s", created.ID))
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *APIResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data APIResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	apiID := data.ID.ValueString()
	tflog.Debug(ctx, fmt.Sprintf("Reading API with ID: %s", apiID))

	api, err := r.client.GetAPI(ctx, apiID)
	if err != nil {
		if errors.Is(err, keymintclient.ErrNotFound) {
			tflog.Warn(ctx, fmt.Sprintf("API with ID %s not found, removing from state", apiID))
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to read API %s, got error: %s", apiID, err))
		return
	}

	mapAPIToModel(api, &data)
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *APIResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	// name requires replacement; there are no updatable attributes.
	var plan APIResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}
	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *APIResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data APIResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	apiID := data.ID.ValueString()
	tflog.Debug(ctx, fmt.Sprintf("Deleting API with ID: %s", apiID))

	err := r.client.DeleteAPI(ctx, apiID)
	if err != nil {
		if errors.Is(err, keymintclient.ErrNotFound) {
			tflog.Warn(ctx, fmt.Sprintf("API with ID %s already deleted, removing from state", apiID))
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to delete API %s, got error: %s", apiID, err))
		return
	}

	tflog.Info(ctx, fmt.Sprintf("API with ID %s deleted successfully", apiID))
}

func (r *APIResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	resource.ImportStatePassthroughID(ctx, path.Root("id"), req, resp)
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/int64planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringdefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"terraform-provider-keymint/internal/keymintclient"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &KeyResource{}
var _ resource.ResourceWithImportState = &KeyResource{}

func NewKeyResource() resource.Resource {
	return &KeyResource{}
}

// KeyResource defines the resource implementation.
type KeyResource struct {
	client *keymintclient.Client
}

// KeyResourceModel describes the resource data model.
type KeyResourceModel struct {
	ID                  types.String  `tfsdk:"id"`
	APIID               types.String  `tfsdk:"api_id"`
	Bytes               types.Int64   `tfsdk:"bytes"`
	Prefix              types.String  `tfsdk:"prefix"`
	OwnerID             types.String  `tfsdk:"owner_id"`
	Meta                types.Dynamic `tfsdk:"meta"`
	ExpiresAt           types.String  `tfsdk:"expires_at"`
	Ratelimit           types.Object  `tfsdk:"ratelimit"`
	Key                 types.String  `tfsdk:"key"`
	Start               types.String  `tfsdk:"start"`
	VerificationCommand types.String  `tfsdk:"verification_command"`
	CreatedAt           types.String  `tfsdk:"created_at"`
}

// RatelimitModel describes the nested ratelimit block.
type RatelimitModel struct {
	Type           types.String `tfsdk:"type"`
	Limit          types.Int64  `tfsdk:"limit"`
	RefillRate     types.Int64  `tfsdk:"refill_rate"`
	RefillInterval types.Int64  `tfsdk:"refill_interval"`
}

func ratelimitAttributeTypes() map[string]attr.Type {
	return map[string]attr.Type{
		"type":            types.StringType,
		"limit":           types.Int64Type,
		"refill_rate":     types.Int64Type,
		"refill_interval": types.Int64Type,
	}
}

func (r *KeyResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_key"
}

func (r *KeyResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages a Keymint key. The generated secret is returned by the service exactly once, " +
			"at creation; it is held in state (sensitive) and cannot be retrieved again. " +
			"Changing `api_id`, `bytes` or `prefix` forces a new key.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "The unique identifier of the key. This is not the secret.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"api_id": schema.StringAttribute{
				Required:            true,
				MarkdownDescription: "The API (key namespace) the key is issued under.",
				Validators:          []validator.String{stringvalidator.LengthAtLeast(1)},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"bytes": schema.Int64Attribute{
				Required:            true,
				MarkdownDescription: "Entropy of the generated key in bytes. Must be positive.",
				Validators:          []validator.Int64{int64validator.AtLeast(1)},
				PlanModifiers: []planmodifier.Int64{
					int64planmodifier.RequiresReplace(),
				},
			},
			"prefix": schema.StringAttribute{
				Optional:            true,
				MarkdownDescription: "Human-readable prefix prepended to the generated key for identification. Maximum 8 characters.",
				Validators:          []validator.String{stringvalidator.LengthAtMost(8)},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"owner_id": schema.StringAttribute{
				Optional:            true,
				MarkdownDescription: "External identifier to associate with the key, e.g. a user or workspace ID.",
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
			"ratelimit": schema.SingleNestedAttribute{
				Optional:            true,
				MarkdownDescription: "Request-throttling policy attached to the key. Omit the block to issue an unthrottled key.",
				Attributes: map[string]schema.Attribute{
					"type": schema.StringAttribute{
						Optional:            true,
						Computed:            true,
						Default:             stringdefault.StaticString("fast"),
						MarkdownDescription: "Algorithm variant. `fast` favors latency, `consistent` checks the limit on every verification. Defaults to `fast`.",
						Validators: []validator.String{
							stringvalidator.OneOf("consistent", "fast"),
						},
					},
					"limit": schema.Int64Attribute{
						Required:            true,
						MarkdownDescription: "Maximum number of requests in a burst.",
						Validators:          []validator.Int64{int64validator.AtLeast(1)},
					},
					"refill_rate": schema.Int64Attribute{
						Required:            true,
						MarkdownDescription: "Tokens restored per refill interval.",
						Validators:          []validator.Int64{int64validator.AtLeast(1)},
					},
					"refill_interval": schema.Int64Attribute{
						Required:            true,
						MarkdownDescription: "Refill interval in milliseconds.",
						Validators:          []validator.Int64{int64validator.AtLeast(1)},
					},
				},
			},
			"key": schema.StringAttribute{
				Computed:            true,
				Sensitive:           true,
				MarkdownDescription: "The plaintext secret. Only available at creation; the service never returns it again.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"start": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "The first characters of the key, safe to display for identification.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"verification_command": schema.StringAttribute{
				Computed:            true,
				Sensitive:           true,
				MarkdownDescription: "Ready-to-run curl command verifying the key against the configured endpoint.",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"created_at": schema.StringAttribute{
				Computed:            true,
				MarkdownDescription: "Creation timestamp of the key (RFC3339).",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *KeyResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

// buildKeyCreate shapes the planned values into the outgoing request.
// Disabled optional sections are left nil so they stay absent from the wire
// payload; an empty owner_id is treated the same as an absent one.
func buildKeyCreate(ctx context.Context, plan KeyResourceModel, diags *diag.Diagnostics) keymintclient.KeyCreateRequest {
	create := keymintclient.KeyCreateRequest{
		APIID: plan.APIID.ValueString(),
		Bytes: plan.Bytes.ValueInt64(),
	}

	if !plan.Prefix.IsNull() && !plan.Prefix.IsUnknown() && plan.Prefix.ValueString() != "" {
		prefix := plan.Prefix.ValueString()
		create.Prefix = &prefix
	}
	if !plan.OwnerID.IsNull() && !plan.OwnerID.IsUnknown() && plan.OwnerID.ValueString() != "" {
		ownerID := plan.OwnerID.ValueString()
		create.OwnerID = &ownerID
	}

	create.Meta = metaToAPI(plan.Meta, diags)
	if diags.HasError() {
		return create
	}

	create.Expires = expiresToEpochMillis(plan.ExpiresAt, diags)
	if diags.HasError() {
		return create
	}

	create.Ratelimit = ratelimitToAPI(ctx, plan.Ratelimit, diags)
	return create
}

func expiresToEpochMillis(expiresAt types.String, diags *diag.Diagnostics) *int64 {
	if expiresAt.IsNull() || expiresAt.IsUnknown() || expiresAt.ValueString() == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, expiresAt.ValueString())
	if err != nil {
		// The schema validator already rejects this at plan time.
		diags.AddError("Invalid expires_at value", fmt.Sprintf("expires_at must be RFC3339, got %q: %s", expiresAt.ValueString(), err))
		return nil
	}
	millis := t.UnixMilli()
	return &millis
}

func ratelimitToAPI(ctx context.Context, ratelimit types.Object, diags *diag.Diagnostics) *keymintclient.Ratelimit {
	if ratelimit.IsNull() || ratelimit.IsUnknown() {
		return nil
	}

	var rlModel RatelimitModel
	respDiags := ratelimit.As(ctx, &rlModel, basetypes.ObjectAsOptions{})
	diags.Append(respDiags...)
	if diags.HasError() {
		return nil
	}

	return &keymintclient.Ratelimit{
		Type:           rlModel.Type.ValueString(),
		Limit:          rlModel.Limit.ValueInt64(),
		RefillRate:     rlModel.RefillRate.ValueInt64(),
		RefillInterval: rlModel.RefillInterval.ValueInt64(),
	}
}

func ratelimitFromAPI(apiRatelimit *keymintclient.Ratelimit, diags *diag.Diagnostics) types.Object {
	if apiRatelimit == nil {
		return types.ObjectNull(ratelimitAttributeTypes())
	}
	obj, objDiags := types.ObjectValue(ratelimitAttributeTypes(), map[string]attr.Value{
		"type":            types.StringValue(apiRatelimit.Type),
		"limit":           types.Int64Value(apiRatelimit.Limit),
		"refill_rate":     types.Int64Value(apiRatelimit.RefillRate),
		"refill_interval": types.Int64Value(apiRatelimit.RefillInterval),
	})
	diags.Append(objDiags...)
	return obj
}

func (r *KeyResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data KeyResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	tflog.Debug(ctx, fmt.Sprintf("Creating key under API %s", data.APIID.ValueString()))

	createPayload := buildKeyCreate(ctx, data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	created, err := r.client.CreateKey(ctx, createPayload)
	if err != nil {
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to create key, got error: %s", err))
		return
	}

	data.ID = types.StringValue(created.KeyID)
	data.Key = types.StringValue(created.Key)
	data.VerificationCommand = types.StringValue(verificationCommand(r.client.BaseURL.String(), created.Key))

	// The create response deliberately carries only the id and the secret;
	// fetch the metadata the service derived (start, created_at).
	keyMeta, err := r.client.GetKey(ctx, created.KeyID)
	if err != nil {
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Key %s was created but reading it back failed: %s", created.KeyID, err))
		return
	}
	data.Start = types.StringValue(keyMeta.Start)
	data.CreatedAt = types.StringValue(time.UnixMilli(keyMeta.CreatedAt).UTC().Format(time.RFC3339))

	tflog.Info(ctx, fmt.Sprintf("Key created successfully with ID: %s", created.KeyID))
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *KeyResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data KeyResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	keyID := data.ID.ValueString()
	tflog.Debug(ctx, fmt.Sprintf("Reading key with ID: %s", keyID))

	key, err := r.client.GetKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, keymintclient.ErrNotFound) {
			tflog.Warn(ctx, fmt.Sprintf("Key with ID %s not found, removing from state", keyID))
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to read key %s, got error: %s", keyID, err))
		return
	}

	data.APIID = types.StringValue(key.APIID)
	data.Start = types.StringValue(key.Start)
	data.CreatedAt = types.StringValue(time.UnixMilli(key.CreatedAt).UTC().Format(time.RFC3339))
	if key.OwnerID != nil {
		data.OwnerID = types.StringValue(*key.OwnerID)
	} else {
		data.OwnerID = types.StringNull()
	}
	data.Ratelimit = ratelimitFromAPI(key.Ratelimit, &resp.Diagnostics)
	// The secret never comes back from the API; whatever the state holds
	// (the created value, or null after import) is kept as is. meta and
	// expires_at are also kept: the service stores meta as JSON and expires
	// as epoch milliseconds, neither of which round-trips to the exact
	// configured representation.

	tflog.Debug(ctx, fmt.Sprintf("Successfully read key with ID: %s", keyID))
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *KeyResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan KeyResourceModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	var state KeyResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	keyID := state.ID.ValueString() // ID comes from state, not plan
	tflog.Debug(ctx, fmt.Sprintf("Updating key with ID: %s", keyID))

	updatePayload := keymintclient.KeyUpdateRequest{}
	if !plan.OwnerID.IsNull() && !plan.OwnerID.IsUnknown() && plan.OwnerID.ValueString() != "" {
		ownerID := plan.OwnerID.ValueString()
		updatePayload.OwnerID = &ownerID
	}
	updatePayload.Meta = metaToAPI(plan.Meta, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}
	updatePayload.Expires = expiresToEpochMillis(plan.ExpiresAt, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}
	updatePayload.Ratelimit = ratelimitToAPI(ctx, plan.Ratelimit, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	if _, err := r.client.UpdateKey(ctx, keyID, updatePayload); err != nil {
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to update key %s, got error: %s", keyID, err))
		return
	}

	// Computed attributes are carried over from state by UseStateForUnknown;
	// the plan already holds the secret, start and created_at.
	tflog.Info(ctx, fmt.Sprintf("Key updated successfully with ID: %s", keyID))
	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *KeyResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data KeyResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	keyID := data.ID.ValueString()
	tflog.Debug(ctx, fmt.Sprintf("Revoking key with ID: %s", keyID))

	err := r.client.RevokeKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, keymintclient.ErrNotFound) {
			tflog.Warn(ctx, fmt.Sprintf("Key with ID %s already revoked, removing from state", keyID))
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError("Client Error", fmt.Sprintf("Unable to revoke key %s, got error: %s", keyID, err))
		return
	}

	tflog.Info(ctx, fmt.Sprintf("Key with ID %s revoked successfully", keyID))
}

func (r *KeyResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	resource.ImportStatePassthroughID(ctx, path.Root("id"), req, resp)
	resp.Diagnostics.AddWarning(
		"Secret Not Recoverable",
		"The plaintext secret of an imported key is not recoverable; the service returns it exactly once at creation. "+
			"The `key` and `verification_command` attributes will be null for this resource.",
	)
}

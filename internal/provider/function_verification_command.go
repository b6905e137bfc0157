package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/function"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ function.Function = &VerificationCommandFunction{}

func NewVerificationCommandFunction() function.Function {
	return &VerificationCommandFunction{}
}

// VerificationCommandFunction renders a ready-to-run curl command verifying
// a key against a Keymint endpoint.
type VerificationCommandFunction struct{}

func (f *VerificationCommandFunction) Metadata(ctx context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "verification_command"
}

func (f *VerificationCommandFunction) Definition(ctx context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:             "Render a curl command that verifies a key",
		MarkdownDescription: "Returns a ready-to-run curl command that verifies the given key against the given Keymint endpoint. The result interpolates the secret; treat it as sensitive.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "endpoint",
				MarkdownDescription: "Base URL of the Keymint API.",
			},
			function.StringParameter{
				Name:                "key",
				MarkdownDescription: "The plaintext key to verify.",
			},
		},
		Return: function.StringReturn{},
	}
}

func (f *VerificationCommandFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var endpoint, key string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &endpoint, &key))
	if resp.Error != nil {
		return
	}

	resp.Error = function.ConcatFuncErrors(resp.Error, resp.Result.Set(ctx, verificationCommand(endpoint, key)))
}

// verificationCommand builds the curl invocation shown to practitioners
// after a key is created.
func verificationCommand(endpoint, key string) string {
	return fmt.Sprintf(
		`curl -s -X POST %s/v1/keys/verify -H 'Content-Type: application/json' -d '{"key":"%s"}'`,
		strings.TrimSuffix(endpoint, "/"),
		key,
	)
}

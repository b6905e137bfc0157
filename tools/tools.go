//go:build tools

package tools

import (
	// Copyright header automation
	_ "github.com/hashicorp/copywrite"
	// Documentation generation
	_ "github.com/hashicorp/terraform-plugin-docs/cmd/tfplugindocs"
)

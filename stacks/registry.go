// Package stacks registers every CDKTF stack in the archive under its config name.
package stacks

import (
	"sort"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	"github.com/stackatlas/stackatlas/internal/stackbase"
	"github.com/stackatlas/stackatlas/stacks/audit"
	"github.com/stackatlas/stackatlas/stacks/cicd"
	"github.com/stackatlas/stackatlas/stacks/payment"
	"github.com/stackatlas/stackatlas/stacks/upload"
	"github.com/stackatlas/stackatlas/stacks/zerotrust"
)

// Builder constructs one stack for one environment. Every stack in the
// archive has this shape; environment-specific knobs ride on the Props.
type Builder func(scope constructs.Construct, id string, props *stackbase.Props) cdktf.TerraformStack

// Builders maps the stack names used in config.yaml to their constructors.
var Builders = map[string]Builder{
	"payment":   payment.NewPaymentStack,
	"upload":    upload.NewUploadStack,
	"audit":     audit.NewAuditStack,
	"cicd":      cicd.NewCicdStack,
	"zerotrust": zerotrust.NewZeroTrustStack,
}

// Names returns the registered stack names, sorted.
func Names() []string {
	names := make([]string, 0, len(Builders))
	for n := range Builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

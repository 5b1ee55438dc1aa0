// -------------------------------------------------------------------------------------------------
// Shared plumbing for the CDKTF stacks in the archive: provider setup, remote state backend,
// tag conversion, route helpers, and the escape hatch for resources without typed bindings.
// -------------------------------------------------------------------------------------------------
package stackbase

import (
	"fmt"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	awsprovider "github.com/cdktf/cdktf-provider-aws-go/aws/v19/provider"
	awsroute "github.com/cdktf/cdktf-provider-aws-go/aws/v19/route"

	"github.com/stackatlas/stackatlas/internal/appconfig"
)

// Props is the uniform input of every stack constructor in the archive.
type Props struct {
	Env appconfig.Environment
}

// -------------------------------------------------------------------------------------------------
// Interfaces for Provider Creation (for testability)
// -------------------------------------------------------------------------------------------------

// ProviderFactory defines an interface for creating AWS providers.
type ProviderFactory interface {
	Create(scope constructs.Construct, name, alias string, env appconfig.Environment) awsprovider.AwsProvider
}

// RealProviderFactory is the production implementation of ProviderFactory.
type RealProviderFactory struct{}

// Create creates a new AWS provider with the environment's region, deploy role,
// and default tags. An empty alias yields the default (unaliased) provider.
func (f *RealProviderFactory) Create(scope constructs.Construct, name, alias string, env appconfig.Environment) awsprovider.AwsProvider {
	cfg := &awsprovider.AwsProviderConfig{
		Region: jsii.String(env.Region),
		DefaultTags: &[]*awsprovider.AwsProviderDefaultTags{{
			Tags: JsiiTags(env.Tags),
		}},
	}
	if alias != "" {
		cfg.Alias = jsii.String(alias)
	}
	if env.DeployRoleArn != "" {
		cfg.AssumeRole = &[]*awsprovider.AwsProviderAssumeRole{{
			RoleArn: jsii.String(env.DeployRoleArn),
		}}
	}
	return awsprovider.NewAwsProvider(scope, jsii.String(name), cfg)
}

// NewDefaultProvider creates the single unaliased provider used by most stacks.
func NewDefaultProvider(stack cdktf.TerraformStack, env appconfig.Environment) awsprovider.AwsProvider {
	factory := &RealProviderFactory{}
	return factory.Create(stack, "AWS", "", env)
}

// -------------------------------------------------------------------------------------------------
// Remote State
// -------------------------------------------------------------------------------------------------

// ConfigureBackend wires the stack to the environment's S3 state bucket.
// State keys are "<stack>/<environment>/terraform.tfstate". Environments
// without a state bucket keep the local backend, which is what tests use.
func ConfigureBackend(stack cdktf.TerraformStack, env appconfig.Environment, stackSlug string) {
	if env.StateBucket == "" {
		return
	}
	cdktf.NewS3Backend(stack, &cdktf.S3BackendConfig{
		Bucket:  jsii.String(env.StateBucket),
		Key:     jsii.String(fmt.Sprintf("%s/%s/terraform.tfstate", stackSlug, env.Name)),
		Region:  jsii.String(env.Region),
		Encrypt: jsii.Bool(true),
	})
}

// -------------------------------------------------------------------------------------------------
// Tag and Output Helpers
// -------------------------------------------------------------------------------------------------

// JsiiTags converts a plain tag map into the pointer map the bindings expect.
func JsiiTags(tags map[string]string) *map[string]*string {
	out := make(map[string]*string, len(tags))
	for k, v := range tags {
		out[k] = jsii.String(v)
	}
	return &out
}

// Output creates a Terraform output on the stack.
func Output(stack cdktf.TerraformStack, name string, value interface{}) {
	cdktf.NewTerraformOutput(stack, jsii.String(name), &cdktf.TerraformOutputConfig{
		Value: value,
	})
}

// -------------------------------------------------------------------------------------------------
// Route and Escape Hatch Helpers
// -------------------------------------------------------------------------------------------------

// CreateRoute creates a route in a given route table for a VPC peering connection.
func CreateRoute(
	stack cdktf.TerraformStack,
	name string,
	routeTableID *string,
	destCidr *string,
	peeringID *string,
	provider cdktf.TerraformProvider,
	dependsOn []cdktf.ITerraformDependable,
) awsroute.Route {
	cfg := &awsroute.RouteConfig{
		RouteTableId:           routeTableID,
		DestinationCidrBlock:   destCidr,
		VpcPeeringConnectionId: peeringID,
		Provider:               provider,
	}
	if len(dependsOn) > 0 {
		cfg.DependsOn = &dependsOn
	}
	return awsroute.NewRoute(stack, jsii.String(name), cfg)
}

// NewRawResource declares a resource through the generic escape hatch. Used for
// resource types whose typed bindings are awkward (renamed classes, deeply
// nested blocks); attribute paths may be dotted to address nested arguments.
func NewRawResource(
	stack cdktf.TerraformStack,
	id string,
	terraformType string,
	provider cdktf.TerraformProvider,
	attrs map[string]interface{},
	dependsOn []cdktf.ITerraformDependable,
) cdktf.TerraformResource {
	cfg := &cdktf.TerraformResourceConfig{
		TerraformResourceType: jsii.String(terraformType),
		Provider:              provider,
	}
	if len(dependsOn) > 0 {
		cfg.DependsOn = &dependsOn
	}
	res := cdktf.NewTerraformResource(stack, jsii.String(id), cfg)
	for k, v := range attrs {
		res.AddOverride(jsii.String(k), v)
	}
	return res
}

// -------------------------------------------------------------------------------------------------
// Zero-Trust Networking Stack: a VPC with no internet gateway, private subnets reaching AWS
// services only through VPC endpoints, flow logs on everything, and an optional peering
// connection into a hub VPC with a spoke-side route toward the hub CIDR.
// -------------------------------------------------------------------------------------------------
package zerotrust

import (
	"fmt"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/cloudwatchloggroup"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/dataawsavailabilityzones"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/dataawsvpc"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/flowlog"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrole"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrolepolicy"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/routetable"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/routetableassociation"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/securitygroup"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/subnet"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/vpc"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/vpcendpoint"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/vpcpeeringconnection"

	"github.com/stackatlas/stackatlas/internal/naming"
	"github.com/stackatlas/stackatlas/internal/stackbase"
)

const subnetCount = 2

// NewZeroTrustStack declares the zero-trust networking demo stack for one environment.
func NewZeroTrustStack(scope constructs.Construct, id string, props *stackbase.Props) cdktf.TerraformStack {
	env := props.Env
	stack := cdktf.NewTerraformStack(scope, &id)
	provider := stackbase.NewDefaultProvider(stack, env)
	stackbase.ConfigureBackend(stack, env, "zerotrust")

	vpcCidr := cdktf.NewTerraformVariable(stack, jsii.String("vpc_cidr"), &cdktf.TerraformVariableConfig{
		Type:        jsii.String("string"),
		Description: jsii.String("CIDR block of the isolated VPC"),
		Default:     jsii.String("10.40.0.0/16"),
	})

	azs := dataawsavailabilityzones.NewDataAwsAvailabilityZones(stack, jsii.String("Azs"), &dataawsavailabilityzones.DataAwsAvailabilityZonesConfig{
		State:    jsii.String("available"),
		Provider: provider,
	})

	// --- Isolated VPC. No internet gateway, no NAT; endpoints are the only way out ---
	isolated := vpc.NewVpc(stack, jsii.String("IsolatedVpc"), &vpc.VpcConfig{
		CidrBlock:          vpcCidr.StringValue(),
		EnableDnsSupport:   jsii.Bool(true),
		EnableDnsHostnames: jsii.Bool(true),
		Tags: stackbase.JsiiTags(map[string]string{
			"Name": naming.Resource("zerotrust", env.Suffix),
		}),
		Provider: provider,
	})

	rt := routetable.NewRouteTable(stack, jsii.String("PrivateRouteTable"), &routetable.RouteTableConfig{
		VpcId: isolated.Id(),
		Tags: stackbase.JsiiTags(map[string]string{
			"Name": naming.Resource("zerotrust-private", env.Suffix),
		}),
		Provider: provider,
	})

	var subnets []subnet.Subnet
	for i := 0; i < subnetCount; i++ {
		sn := subnet.NewSubnet(stack, jsii.String(fmt.Sprintf("PrivateSubnet%d", i)), &subnet.SubnetConfig{
			VpcId:            isolated.Id(),
			CidrBlock:        cdktf.Fn_Cidrsubnet(vpcCidr.StringValue(), jsii.Number(8), jsii.Number(float64(i))),
			AvailabilityZone: cdktf.Token_AsString(cdktf.Fn_Element(azs.Names(), jsii.Number(float64(i))), nil),
			Tags: stackbase.JsiiTags(map[string]string{
				"Name": fmt.Sprintf("%s-%d", naming.Resource("zerotrust-private", env.Suffix), i),
			}),
			Provider: provider,
		})
		routetableassociation.NewRouteTableAssociation(stack, jsii.String(fmt.Sprintf("PrivateSubnetRta%d", i)), &routetableassociation.RouteTableAssociationConfig{
			SubnetId:     sn.Id(),
			RouteTableId: rt.Id(),
			Provider:     provider,
		})
		subnets = append(subnets, sn)
	}

	// --- Intra-VPC TLS only ---
	endpointSg := securitygroup.NewSecurityGroup(stack, jsii.String("EndpointSg"), &securitygroup.SecurityGroupConfig{
		Name:        jsii.String(naming.Resource("zerotrust-endpoints", env.Suffix)),
		Description: jsii.String("TLS from inside the VPC to interface endpoints"),
		VpcId:       isolated.Id(),
		Ingress: &[]*securitygroup.SecurityGroupIngress{{
			FromPort:    jsii.Number(443),
			ToPort:      jsii.Number(443),
			Protocol:    jsii.String("tcp"),
			CidrBlocks:  &[]*string{vpcCidr.StringValue()},
			Description: jsii.String("HTTPS from VPC"),
		}},
		Egress: &[]*securitygroup.SecurityGroupEgress{{
			FromPort:    jsii.Number(443),
			ToPort:      jsii.Number(443),
			Protocol:    jsii.String("tcp"),
			CidrBlocks:  &[]*string{vpcCidr.StringValue()},
			Description: jsii.String("HTTPS within VPC"),
		}},
		Provider: provider,
	})

	// --- Endpoints: S3 through the route table, the rest as interface endpoints ---
	vpcendpoint.NewVpcEndpoint(stack, jsii.String("S3Endpoint"), &vpcendpoint.VpcEndpointConfig{
		VpcId:           isolated.Id(),
		ServiceName:     jsii.String(fmt.Sprintf("com.amazonaws.%s.s3", env.Region)),
		VpcEndpointType: jsii.String("Gateway"),
		RouteTableIds:   &[]*string{rt.Id()},
		Provider:        provider,
	})

	subnetIDs := make([]*string, 0, len(subnets))
	for _, sn := range subnets {
		subnetIDs = append(subnetIDs, sn.Id())
	}
	for _, svc := range []string{"ssm", "logs", "sts"} {
		vpcendpoint.NewVpcEndpoint(stack, jsii.String(naming.LogicalID(svc, "endpoint")), &vpcendpoint.VpcEndpointConfig{
			VpcId:             isolated.Id(),
			ServiceName:       jsii.String(fmt.Sprintf("com.amazonaws.%s.%s", env.Region, svc)),
			VpcEndpointType:   jsii.String("Interface"),
			SubnetIds:         &subnetIDs,
			SecurityGroupIds:  &[]*string{endpointSg.Id()},
			PrivateDnsEnabled: jsii.Bool(true),
			Provider:          provider,
		})
	}

	// --- Flow logs on the whole VPC ---
	addFlowLogs(stack, provider, env.Suffix, isolated)

	// --- Optional hub peering. Routes are added on the spoke side only; the hub account
	// manages its own return routes ---
	if env.HubVpcID != "" {
		hub := dataawsvpc.NewDataAwsVpc(stack, jsii.String("HubVpc"), &dataawsvpc.DataAwsVpcConfig{
			Id:       jsii.String(env.HubVpcID),
			Provider: provider,
		})
		peering := vpcpeeringconnection.NewVpcPeeringConnection(stack, jsii.String("HubPeering"), &vpcpeeringconnection.VpcPeeringConnectionConfig{
			VpcId:      isolated.Id(),
			PeerVpcId:  hub.Id(),
			AutoAccept: jsii.Bool(true),
			Tags: stackbase.JsiiTags(map[string]string{
				"Name":     fmt.Sprintf("Connection to %s", env.HubVpcID),
				"SpokeVpc": naming.Resource("zerotrust", env.Suffix),
			}),
			Provider: provider,
		})
		stackbase.CreateRoute(
			stack,
			"SpokeToHubRoute",
			rt.Id(),
			hub.CidrBlock(),
			peering.Id(),
			provider,
			[]cdktf.ITerraformDependable{peering},
		)
		stackbase.Output(stack, "HubPeeringConnectionId", peering.Id())
	}

	stackbase.Output(stack, "VpcId", isolated.Id())
	stackbase.Output(stack, "PrivateRouteTableId", rt.Id())
	stackbase.Output(stack, "PrivateSubnetIds", &subnetIDs)
	return stack
}

// addFlowLogs wires VPC flow logs into a dedicated CloudWatch log group.
func addFlowLogs(stack cdktf.TerraformStack, provider cdktf.TerraformProvider, suffix string, isolated vpc.Vpc) {
	logGroup := cloudwatchloggroup.NewCloudwatchLogGroup(stack, jsii.String("FlowLogGroup"), &cloudwatchloggroup.CloudwatchLogGroupConfig{
		Name:            jsii.String(naming.Resource("zerotrust-flow-logs", suffix)),
		RetentionInDays: jsii.Number(90),
		Provider:        provider,
	})

	role := iamrole.NewIamRole(stack, jsii.String("FlowLogRole"), &iamrole.IamRoleConfig{
		Name: jsii.String(naming.Resource("zerotrust-flow-logs", suffix)),
		AssumeRolePolicy: jsii.String(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "vpc-flow-logs.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`),
		Provider: provider,
	})
	iamrolepolicy.NewIamRolePolicy(stack, jsii.String("FlowLogPolicy"), &iamrolepolicy.IamRolePolicyConfig{
		Name: jsii.String("flow-log-delivery"),
		Role: role.Id(),
		Policy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{{
				"Effect":   "Allow",
				"Action":   []string{"logs:CreateLogStream", "logs:PutLogEvents", "logs:DescribeLogStreams"},
				"Resource": fmt.Sprintf("%s:*", *logGroup.Arn()),
			}},
		}),
		Provider: provider,
	})

	flowlog.NewFlowLog(stack, jsii.String("VpcFlowLog"), &flowlog.FlowLogConfig{
		VpcId:              isolated.Id(),
		TrafficType:        jsii.String("ALL"),
		LogDestinationType: jsii.String("cloud-watch-logs"),
		LogDestination:     logGroup.Arn(),
		IamRoleArn:         role.Arn(),
		Provider:           provider,
	})
}

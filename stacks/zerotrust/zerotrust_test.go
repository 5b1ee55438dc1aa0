package zerotrust_test

import (
	"testing"

	"github.com/hashicorp/terraform-cdk-go/cdktf"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/stackatlas/stackatlas/internal/appconfig"
	"github.com/stackatlas/stackatlas/internal/stackbase"
	"github.com/stackatlas/stackatlas/stacks/zerotrust"
)

func synthStack(t *testing.T, hubVpcID string) string {
	t.Helper()
	app := cdktf.Testing_App(nil)
	stack := zerotrust.NewZeroTrustStack(app, "zerotrust-test", &stackbase.Props{Env: appconfig.Environment{
		Name:     "test",
		Suffix:   "test",
		Region:   "us-west-2",
		HubVpcID: hubVpcID,
		Tags:     map[string]string{"Environment": "test", "ManagedBy": "cdktf"},
	}})
	return *cdktf.Testing_Synth(stack, nil)
}

func TestZeroTrustStackHasNoInternetGateway(t *testing.T) {
	synth := synthStack(t, "")

	assert.False(t, gjson.Get(synth, "resource.aws_internet_gateway").Exists())
	assert.False(t, gjson.Get(synth, "resource.aws_nat_gateway").Exists())
}

func TestZeroTrustStackSubnetsAndRouting(t *testing.T) {
	synth := synthStack(t, "")

	assert.Len(t, gjson.Get(synth, "resource.aws_subnet").Map(), 2)
	assert.Len(t, gjson.Get(synth, "resource.aws_route_table").Map(), 1)
	assert.Len(t, gjson.Get(synth, "resource.aws_route_table_association").Map(), 2)
}

func TestZeroTrustStackEndpoints(t *testing.T) {
	synth := synthStack(t, "")

	endpoints := gjson.Get(synth, "resource.aws_vpc_endpoint").Map()
	assert.Len(t, endpoints, 4)

	s3 := endpoints["S3Endpoint"]
	assert.Equal(t, "Gateway", s3.Get("vpc_endpoint_type").String())
	assert.Equal(t, "com.amazonaws.us-west-2.s3", s3.Get("service_name").String())

	ssm := endpoints["SsmEndpoint"]
	assert.Equal(t, "Interface", ssm.Get("vpc_endpoint_type").String())
	assert.True(t, ssm.Get("private_dns_enabled").Bool())
}

func TestZeroTrustStackSecurityGroupTlsOnly(t *testing.T) {
	synth := synthStack(t, "")

	sg := gjson.Get(synth, "resource.aws_security_group.EndpointSg")
	assert.Equal(t, float64(443), sg.Get("ingress.0.from_port").Float())
	assert.Equal(t, float64(443), sg.Get("ingress.0.to_port").Float())
	assert.Equal(t, "tcp", sg.Get("ingress.0.protocol").String())
	assert.Equal(t, float64(443), sg.Get("egress.0.to_port").Float())
}

func TestZeroTrustStackFlowLogs(t *testing.T) {
	synth := synthStack(t, "")

	flow := gjson.Get(synth, "resource.aws_flow_log.VpcFlowLog")
	assert.Equal(t, "ALL", flow.Get("traffic_type").String())
	assert.Equal(t, "cloud-watch-logs", flow.Get("log_destination_type").String())
}

func TestZeroTrustStackHubPeering(t *testing.T) {
	// No hub configured, no peering declared.
	synth := synthStack(t, "")
	assert.False(t, gjson.Get(synth, "resource.aws_vpc_peering_connection").Exists())
	assert.False(t, gjson.Get(synth, "data.aws_vpc").Exists())

	synth = synthStack(t, "vpc-0hub")
	peering := gjson.Get(synth, "resource.aws_vpc_peering_connection.HubPeering")
	assert.True(t, peering.Exists())
	assert.True(t, peering.Get("auto_accept").Bool())

	route := gjson.Get(synth, "resource.aws_route.SpokeToHubRoute")
	assert.True(t, route.Exists())
	assert.NotEmpty(t, route.Get("vpc_peering_connection_id").String())
	assert.True(t, gjson.Get(synth, "output.HubPeeringConnectionId").Exists())
}

func TestZeroTrustStackCidrVariable(t *testing.T) {
	synth := synthStack(t, "")

	variable := gjson.Get(synth, "variable.vpc_cidr")
	assert.Equal(t, "10.40.0.0/16", variable.Get("default").String())
}

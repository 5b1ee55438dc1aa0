package stackbase_test

import (
	"testing"

	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/stackatlas/stackatlas/internal/appconfig"
	"github.com/stackatlas/stackatlas/internal/stackbase"
)

func testEnv() appconfig.Environment {
	return appconfig.Environment{
		Name:          "test",
		Suffix:        "test",
		Region:        "us-west-2",
		DeployRoleArn: "arn:aws:iam::123456789012:role/deploy",
		Tags:          map[string]string{"Environment": "test"},
	}
}

func TestJsiiTags(t *testing.T) {
	tags := stackbase.JsiiTags(map[string]string{"A": "1", "B": "2"})

	assert.Len(t, *tags, 2)
	assert.Equal(t, "1", *(*tags)["A"])
	assert.Equal(t, "2", *(*tags)["B"])
}

func TestProviderCarriesRoleAndDefaultTags(t *testing.T) {
	app := cdktf.Testing_App(nil)
	stack := cdktf.NewTerraformStack(app, jsii.String("provider-test"))
	stackbase.NewDefaultProvider(stack, testEnv())
	synth := *cdktf.Testing_Synth(stack, nil)

	prov := gjson.Get(synth, "provider.aws.0")
	assert.Equal(t, "us-west-2", prov.Get("region").String())
	assert.Equal(t, "arn:aws:iam::123456789012:role/deploy", prov.Get("assume_role.0.role_arn").String())
	assert.Equal(t, "test", prov.Get("default_tags.0.tags.Environment").String())
}

func TestNewRawResourceDottedOverrides(t *testing.T) {
	app := cdktf.Testing_App(nil)
	stack := cdktf.NewTerraformStack(app, jsii.String("raw-test"))
	provider := stackbase.NewDefaultProvider(stack, testEnv())
	stackbase.NewRawResource(stack, "Demo", "aws_s3_bucket_versioning", provider, map[string]interface{}{
		"bucket": "b",
		"versioning_configuration.status": "Enabled",
	}, nil)
	synth := *cdktf.Testing_Synth(stack, nil)

	res := gjson.Get(synth, "resource.aws_s3_bucket_versioning.Demo")
	assert.Equal(t, "b", res.Get("bucket").String())
	assert.Equal(t, "Enabled", res.Get("versioning_configuration.status").String())
}

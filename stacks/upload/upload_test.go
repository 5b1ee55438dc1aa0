package upload_test

import (
	"testing"

	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/stackatlas/stackatlas/internal/appconfig"
	"github.com/stackatlas/stackatlas/internal/stackbase"
	"github.com/stackatlas/stackatlas/stacks/upload"
)

func synthStack(t *testing.T) string {
	t.Helper()
	app := cdktf.Testing_App(nil)
	stack := upload.NewUploadStack(app, "upload-test", &stackbase.Props{Env: appconfig.Environment{
		Name:   "test",
		Suffix: "test",
		Region: "us-west-2",
		Tags:   map[string]string{"Environment": "test", "ManagedBy": "cdktf"},
	}})
	return *cdktf.Testing_Synth(stack, nil)
}

func TestUploadStackResourceCounts(t *testing.T) {
	synth := synthStack(t)

	assert.Len(t, gjson.Get(synth, "resource.aws_s3_bucket").Map(), 1)
	assert.Len(t, gjson.Get(synth, "resource.aws_sqs_queue").Map(), 1)
	assert.Len(t, gjson.Get(synth, "resource.aws_dynamodb_table").Map(), 1)
	assert.Len(t, gjson.Get(synth, "resource.aws_lambda_function").Map(), 1)
	assert.Len(t, gjson.Get(synth, "resource.aws_s3_bucket_notification").Map(), 1)
	assert.Len(t, gjson.Get(synth, "resource.aws_s3_bucket_versioning").Map(), 1)
}

func TestUploadStackBucketLockedDown(t *testing.T) {
	synth := synthStack(t)

	assert.True(t, *cdktf.Testing_ToHaveResourceWithProperties(jsii.String(synth), jsii.String("aws_s3_bucket"), &map[string]interface{}{
		"bucket": "upload-landing-test",
	}))

	pab := gjson.Get(synth, "resource.aws_s3_bucket_public_access_block.LandingBucketPab")
	for _, field := range []string{"block_public_acls", "block_public_policy", "ignore_public_acls", "restrict_public_buckets"} {
		assert.True(t, pab.Get(field).Bool(), "expected %s to be true", field)
	}

	versioning := gjson.Get(synth, "resource.aws_s3_bucket_versioning.LandingBucketVersioning")
	assert.Equal(t, "Enabled", versioning.Get("versioning_configuration.status").String())

	sse := gjson.Get(synth, "resource.aws_s3_bucket_server_side_encryption_configuration.LandingBucketEncryption")
	assert.Equal(t, "aws:kms", sse.Get("rule.0.apply_server_side_encryption_by_default.sse_algorithm").String())
}

func TestUploadStackNotificationFansIntoQueue(t *testing.T) {
	synth := synthStack(t)

	notification := gjson.Get(synth, "resource.aws_s3_bucket_notification.LandingBucketNotification")
	assert.Equal(t, "s3:ObjectCreated:*", notification.Get("queue.0.events.0").String())

	// The queue policy must exist before S3 can deliver, hence the dependency.
	deps := notification.Get("depends_on")
	assert.True(t, deps.Exists())

	policy := gjson.Get(synth, "resource.aws_sqs_queue_policy.UploadEventsPolicy.policy")
	assert.Contains(t, policy.String(), "s3.amazonaws.com")
}

func TestUploadStackMetadataTtl(t *testing.T) {
	synth := synthStack(t)

	table := gjson.Get(synth, "resource.aws_dynamodb_table.UploadMetadata")
	assert.Equal(t, "upload-metadata-test", table.Get("name").String())
	assert.Equal(t, "expires_at", table.Get("ttl.attribute_name").String())
	assert.True(t, table.Get("ttl.enabled").Bool())
}

func TestUploadStackOutputs(t *testing.T) {
	synth := synthStack(t)

	for _, out := range []string{"LandingBucketName", "UploadEventsQueueUrl", "MetadataTableName", "ScannerFunctionName"} {
		assert.True(t, gjson.Get(synth, "output."+out).Exists(), "missing output %s", out)
	}
}

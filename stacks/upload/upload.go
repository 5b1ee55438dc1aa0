// -------------------------------------------------------------------------------------------------
// File Upload Pipeline Stack: a locked-down landing bucket that fans object-created events into
// SQS, a Lambda scanner draining the queue, and a DynamoDB table recording upload metadata.
// -------------------------------------------------------------------------------------------------
package upload

import (
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/cloudwatchloggroup"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/dynamodbtable"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrole"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrolepolicy"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/lambdaeventsourcemapping"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/lambdafunction"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/s3bucket"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/s3bucketpublicaccessblock"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/sqsqueue"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/sqsqueuepolicy"

	"github.com/stackatlas/stackatlas/internal/naming"
	"github.com/stackatlas/stackatlas/internal/stackbase"
)

const lambdaAssumeRolePolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "lambda.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`

// NewUploadStack declares the file upload pipeline stack for one environment.
func NewUploadStack(scope constructs.Construct, id string, props *stackbase.Props) cdktf.TerraformStack {
	env := props.Env
	stack := cdktf.NewTerraformStack(scope, &id)
	provider := stackbase.NewDefaultProvider(stack, env)
	stackbase.ConfigureBackend(stack, env, "upload")

	// --- Landing bucket. Versioned, encrypted, never public ---
	bucketName := naming.Resource("upload-landing", env.Suffix)
	bucket := s3bucket.NewS3Bucket(stack, jsii.String("LandingBucket"), &s3bucket.S3BucketConfig{
		Bucket:   jsii.String(bucketName),
		Provider: provider,
	})
	s3bucketpublicaccessblock.NewS3BucketPublicAccessBlock(stack, jsii.String("LandingBucketPab"), &s3bucketpublicaccessblock.S3BucketPublicAccessBlockConfig{
		Bucket:                bucket.Id(),
		BlockPublicAcls:       jsii.Bool(true),
		BlockPublicPolicy:     jsii.Bool(true),
		IgnorePublicAcls:      jsii.Bool(true),
		RestrictPublicBuckets: jsii.Bool(true),
		Provider:              provider,
	})

	// --- Versioning and encryption live in their own resources since provider v4; the typed
	// classes carry renamed identifiers, so these go through the escape hatch ---
	stackbase.NewRawResource(stack, "LandingBucketVersioning", "aws_s3_bucket_versioning", provider, map[string]interface{}{
		"bucket": bucket.Id(),
		"versioning_configuration.status": "Enabled",
	}, nil)
	stackbase.NewRawResource(stack, "LandingBucketEncryption", "aws_s3_bucket_server_side_encryption_configuration", provider, map[string]interface{}{
		"bucket": bucket.Id(),
		"rule": []map[string]interface{}{{
			"apply_server_side_encryption_by_default": map[string]interface{}{
				"sse_algorithm": "aws:kms",
			},
			"bucket_key_enabled": true,
		}},
	}, nil)

	// --- Event queue fed by the bucket ---
	events := sqsqueue.NewSqsQueue(stack, jsii.String("UploadEvents"), &sqsqueue.SqsQueueConfig{
		Name:                     jsii.String(naming.Resource("upload-events", env.Suffix)),
		VisibilityTimeoutSeconds: jsii.Number(120),
		MessageRetentionSeconds:  jsii.Number(86400),
		Provider:                 provider,
	})

	queuePolicy := sqsqueuepolicy.NewSqsQueuePolicy(stack, jsii.String("UploadEventsPolicy"), &sqsqueuepolicy.SqsQueuePolicyConfig{
		QueueUrl: events.Id(),
		Policy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{{
				"Effect":    "Allow",
				"Principal": map[string]interface{}{"Service": "s3.amazonaws.com"},
				"Action":    "sqs:SendMessage",
				"Resource":  events.Arn(),
				"Condition": map[string]interface{}{
					"ArnEquals": map[string]interface{}{"aws:SourceArn": bucket.Arn()},
				},
			}},
		}),
		Provider: provider,
	})

	stackbase.NewRawResource(stack, "LandingBucketNotification", "aws_s3_bucket_notification", provider, map[string]interface{}{
		"bucket": bucket.Id(),
		"queue": []map[string]interface{}{{
			"queue_arn": events.Arn(),
			"events":    []string{"s3:ObjectCreated:*"},
		}},
	}, []cdktf.ITerraformDependable{queuePolicy})

	// --- Upload metadata table ---
	metadata := dynamodbtable.NewDynamodbTable(stack, jsii.String("UploadMetadata"), &dynamodbtable.DynamodbTableConfig{
		Name:        jsii.String(naming.Resource("upload-metadata", env.Suffix)),
		BillingMode: jsii.String("PAY_PER_REQUEST"),
		HashKey:     jsii.String("object_key"),
		Attribute: &[]*dynamodbtable.DynamodbTableAttribute{
			{Name: jsii.String("object_key"), Type: jsii.String("S")},
		},
		Ttl: &dynamodbtable.DynamodbTableTtl{
			AttributeName: jsii.String("expires_at"),
			Enabled:       jsii.Bool(true),
		},
		Provider: provider,
	})

	// --- Scanner function ---
	functionName := naming.Resource("upload-scanner", env.Suffix)
	role := newScannerRole(stack, provider, env.Suffix, bucket, events, metadata)

	logGroup := cloudwatchloggroup.NewCloudwatchLogGroup(stack, jsii.String("ScannerLogs"), &cloudwatchloggroup.CloudwatchLogGroupConfig{
		Name:            jsii.String("/aws/lambda/" + functionName),
		RetentionInDays: jsii.Number(14),
		Provider:        provider,
	})

	fn := lambdafunction.NewLambdaFunction(stack, jsii.String("Scanner"), &lambdafunction.LambdaFunctionConfig{
		FunctionName:  jsii.String(functionName),
		Role:          role.Arn(),
		Runtime:       jsii.String("provided.al2023"),
		Handler:       jsii.String("bootstrap"),
		Architectures: jsii.Strings("arm64"),
		Filename:      jsii.String("assets/upload-scanner.zip"),
		Timeout:       jsii.Number(120),
		MemorySize:    jsii.Number(512),
		Environment: &lambdafunction.LambdaFunctionEnvironment{
			Variables: &map[string]*string{
				"LANDING_BUCKET": bucket.Bucket(),
				"METADATA_TABLE": metadata.Name(),
			},
		},
		DependsOn: &[]cdktf.ITerraformDependable{logGroup},
		Provider:  provider,
	})

	lambdaeventsourcemapping.NewLambdaEventSourceMapping(stack, jsii.String("EventsToScanner"), &lambdaeventsourcemapping.LambdaEventSourceMappingConfig{
		EventSourceArn: events.Arn(),
		FunctionName:   fn.Arn(),
		BatchSize:      jsii.Number(5),
		Provider:       provider,
	})

	stackbase.Output(stack, "LandingBucketName", bucket.Bucket())
	stackbase.Output(stack, "UploadEventsQueueUrl", events.Url())
	stackbase.Output(stack, "MetadataTableName", metadata.Name())
	stackbase.Output(stack, "ScannerFunctionName", fn.FunctionName())
	return stack
}

func newScannerRole(
	stack cdktf.TerraformStack,
	provider cdktf.TerraformProvider,
	suffix string,
	bucket s3bucket.S3Bucket,
	events sqsqueue.SqsQueue,
	metadata dynamodbtable.DynamodbTable,
) iamrole.IamRole {
	role := iamrole.NewIamRole(stack, jsii.String("ScannerRole"), &iamrole.IamRoleConfig{
		Name:             jsii.String(naming.Resource("upload-scanner", suffix)),
		AssumeRolePolicy: jsii.String(lambdaAssumeRolePolicy),
		Provider:         provider,
	})

	iamrolepolicy.NewIamRolePolicy(stack, jsii.String("ScannerPolicy"), &iamrolepolicy.IamRolePolicyConfig{
		Name: jsii.String("scanner-access"),
		Role: role.Id(),
		Policy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{
				{
					"Effect":   "Allow",
					"Action":   []string{"logs:CreateLogStream", "logs:PutLogEvents"},
					"Resource": "arn:aws:logs:*:*:*",
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"s3:GetObject", "s3:GetObjectTagging", "s3:PutObjectTagging"},
					"Resource": cdktf.Fn_Join(jsii.String(""), &[]*string{bucket.Arn(), jsii.String("/*")}),
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"sqs:ReceiveMessage", "sqs:DeleteMessage", "sqs:GetQueueAttributes"},
					"Resource": events.Arn(),
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"dynamodb:PutItem", "dynamodb:UpdateItem"},
					"Resource": metadata.Arn(),
				},
			},
		}),
		Provider: provider,
	})
	return role
}

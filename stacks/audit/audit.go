// -------------------------------------------------------------------------------------------------
// Compliance Auditing Stack: an org-wide CloudTrail delivering to a locked log bucket and a
// CloudWatch log group, an AWS Config recorder, and an SNS topic for compliance alerts.
// -------------------------------------------------------------------------------------------------
package audit

import (
	"fmt"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/cloudtrail"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/cloudwatchloggroup"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/dataawscalleridentity"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrole"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrolepolicy"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrolepolicyattachment"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/s3bucket"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/s3bucketpolicy"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/s3bucketpublicaccessblock"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/snstopic"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/snstopicsubscription"

	"github.com/stackatlas/stackatlas/internal/naming"
	"github.com/stackatlas/stackatlas/internal/stackbase"
)

// NewAuditStack declares the compliance auditing stack for one environment.
func NewAuditStack(scope constructs.Construct, id string, props *stackbase.Props) cdktf.TerraformStack {
	env := props.Env
	stack := cdktf.NewTerraformStack(scope, &id)
	provider := stackbase.NewDefaultProvider(stack, env)
	stackbase.ConfigureBackend(stack, env, "audit")

	caller := dataawscalleridentity.NewDataAwsCallerIdentity(stack, jsii.String("Caller"), &dataawscalleridentity.DataAwsCallerIdentityConfig{
		Provider: provider,
	})

	// --- Trail log bucket. CloudTrail writes, nobody reads without the audit role ---
	logBucket := s3bucket.NewS3Bucket(stack, jsii.String("TrailBucket"), &s3bucket.S3BucketConfig{
		Bucket:   jsii.String(naming.Resource("audit-trail-logs", env.Suffix)),
		Provider: provider,
	})
	s3bucketpublicaccessblock.NewS3BucketPublicAccessBlock(stack, jsii.String("TrailBucketPab"), &s3bucketpublicaccessblock.S3BucketPublicAccessBlockConfig{
		Bucket:                logBucket.Id(),
		BlockPublicAcls:       jsii.Bool(true),
		BlockPublicPolicy:     jsii.Bool(true),
		IgnorePublicAcls:      jsii.Bool(true),
		RestrictPublicBuckets: jsii.Bool(true),
		Provider:              provider,
	})

	bucketPolicy := s3bucketpolicy.NewS3BucketPolicy(stack, jsii.String("TrailBucketPolicy"), &s3bucketpolicy.S3BucketPolicyConfig{
		Bucket: logBucket.Id(),
		Policy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{
				{
					"Sid":       "AWSCloudTrailAclCheck",
					"Effect":    "Allow",
					"Principal": map[string]interface{}{"Service": "cloudtrail.amazonaws.com"},
					"Action":    "s3:GetBucketAcl",
					"Resource":  logBucket.Arn(),
				},
				{
					"Sid":       "AWSCloudTrailWrite",
					"Effect":    "Allow",
					"Principal": map[string]interface{}{"Service": "cloudtrail.amazonaws.com"},
					"Action":    "s3:PutObject",
					"Resource":  fmt.Sprintf("%s/AWSLogs/%s/*", *logBucket.Arn(), *caller.AccountId()),
					"Condition": map[string]interface{}{
						"StringEquals": map[string]interface{}{"s3:x-amz-acl": "bucket-owner-full-control"},
					},
				},
			},
		}),
		Provider: provider,
	})

	// --- CloudWatch delivery for near-real-time queries on trail events ---
	trailLogs := cloudwatchloggroup.NewCloudwatchLogGroup(stack, jsii.String("TrailLogGroup"), &cloudwatchloggroup.CloudwatchLogGroupConfig{
		Name:            jsii.String(naming.Resource("audit-trail", env.Suffix)),
		RetentionInDays: jsii.Number(365),
		Provider:        provider,
	})

	deliveryRole := iamrole.NewIamRole(stack, jsii.String("TrailDeliveryRole"), &iamrole.IamRoleConfig{
		Name: jsii.String(naming.Resource("audit-trail-delivery", env.Suffix)),
		AssumeRolePolicy: jsii.String(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "cloudtrail.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`),
		Provider: provider,
	})
	iamrolepolicy.NewIamRolePolicy(stack, jsii.String("TrailDeliveryPolicy"), &iamrolepolicy.IamRolePolicyConfig{
		Name: jsii.String("trail-log-delivery"),
		Role: deliveryRole.Id(),
		Policy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{{
				"Effect":   "Allow",
				"Action":   []string{"logs:CreateLogStream", "logs:PutLogEvents"},
				"Resource": fmt.Sprintf("%s:*", *trailLogs.Arn()),
			}},
		}),
		Provider: provider,
	})

	trail := cloudtrail.NewCloudtrail(stack, jsii.String("Trail"), &cloudtrail.CloudtrailConfig{
		Name:                       jsii.String(naming.Resource("audit-trail", env.Suffix)),
		S3BucketName:               logBucket.Id(),
		IncludeGlobalServiceEvents: jsii.Bool(true),
		IsMultiRegionTrail:         jsii.Bool(true),
		EnableLogFileValidation:    jsii.Bool(true),
		CloudWatchLogsGroupArn:     jsii.String(fmt.Sprintf("%s:*", *trailLogs.Arn())),
		CloudWatchLogsRoleArn:      deliveryRole.Arn(),
		DependsOn:                  &[]cdktf.ITerraformDependable{bucketPolicy},
		Provider:                   provider,
	})

	// --- AWS Config recorder. The recorder and delivery channel classes carry renamed
	// identifiers in the bindings, so both go through the escape hatch ---
	configRole := iamrole.NewIamRole(stack, jsii.String("ConfigRecorderRole"), &iamrole.IamRoleConfig{
		Name: jsii.String(naming.Resource("audit-config-recorder", env.Suffix)),
		AssumeRolePolicy: jsii.String(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "config.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`),
		Provider: provider,
	})
	iamrolepolicyattachment.NewIamRolePolicyAttachment(stack, jsii.String("ConfigRecorderManagedPolicy"), &iamrolepolicyattachment.IamRolePolicyAttachmentConfig{
		Role:      configRole.Name(),
		PolicyArn: jsii.String("arn:aws:iam::aws:policy/service-role/AWS_ConfigRole"),
		Provider:  provider,
	})

	recorder := stackbase.NewRawResource(stack, "ConfigRecorder", "aws_config_configuration_recorder", provider, map[string]interface{}{
		"name":     naming.Resource("audit-recorder", env.Suffix),
		"role_arn": configRole.Arn(),
		"recording_group.all_supported":                 true,
		"recording_group.include_global_resource_types": true,
	}, nil)
	stackbase.NewRawResource(stack, "ConfigDeliveryChannel", "aws_config_delivery_channel", provider, map[string]interface{}{
		"name":           naming.Resource("audit-delivery", env.Suffix),
		"s3_bucket_name": logBucket.Id(),
	}, []cdktf.ITerraformDependable{recorder})

	// --- Alerting ---
	alerts := snstopic.NewSnsTopic(stack, jsii.String("ComplianceAlerts"), &snstopic.SnsTopicConfig{
		Name:     jsii.String(naming.Resource("compliance-alerts", env.Suffix)),
		Provider: provider,
	})
	if env.AlertEmail != "" {
		snstopicsubscription.NewSnsTopicSubscription(stack, jsii.String("ComplianceAlertsEmail"), &snstopicsubscription.SnsTopicSubscriptionConfig{
			TopicArn: alerts.Arn(),
			Protocol: jsii.String("email"),
			Endpoint: jsii.String(env.AlertEmail),
			Provider: provider,
		})
	}

	stackbase.Output(stack, "TrailArn", trail.Arn())
	stackbase.Output(stack, "TrailBucketName", logBucket.Bucket())
	stackbase.Output(stack, "ComplianceAlertsTopicArn", alerts.Arn())
	stackbase.Output(stack, "AuditAccountId", caller.AccountId())
	return stack
}

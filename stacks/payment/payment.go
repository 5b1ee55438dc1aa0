// -------------------------------------------------------------------------------------------------
// Payment Processing Stack: SQS-fed Lambda processor with a DynamoDB ledger, customer-managed
// KMS encryption, a dead letter queue, and SNS settlement notifications.
// -------------------------------------------------------------------------------------------------
package payment

import (
	"fmt"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/cloudwatchloggroup"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/dynamodbtable"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrole"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrolepolicy"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/kmsalias"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/kmskey"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/lambdaeventsourcemapping"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/lambdafunction"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/snstopic"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/sqsqueue"

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

// NewPaymentStack declares the payment processing stack for one environment.
func NewPaymentStack(scope constructs.Construct, id string, props *stackbase.Props) cdktf.TerraformStack {
	env := props.Env
	stack := cdktf.NewTerraformStack(scope, &id)
	provider := stackbase.NewDefaultProvider(stack, env)
	stackbase.ConfigureBackend(stack, env, "payment")

	// --- Encryption key shared by the ledger table and the event queues ---
	key := kmskey.NewKmsKey(stack, jsii.String("PaymentKey"), &kmskey.KmsKeyConfig{
		Description:          jsii.String("Payment processing data key"),
		DeletionWindowInDays: jsii.Number(14),
		EnableKeyRotation:    jsii.Bool(true),
		Provider:             provider,
	})
	kmsalias.NewKmsAlias(stack, jsii.String("PaymentKeyAlias"), &kmsalias.KmsAliasConfig{
		Name:        jsii.String("alias/" + naming.Resource("payments", env.Suffix)),
		TargetKeyId: key.KeyId(),
		Provider:    provider,
	})

	// --- Payment ledger ---
	table := dynamodbtable.NewDynamodbTable(stack, jsii.String("PaymentLedger"), &dynamodbtable.DynamodbTableConfig{
		Name:        jsii.String(naming.Resource("payment-ledger", env.Suffix)),
		BillingMode: jsii.String("PAY_PER_REQUEST"),
		HashKey:     jsii.String("payment_id"),
		RangeKey:    jsii.String("created_at"),
		Attribute: &[]*dynamodbtable.DynamodbTableAttribute{
			{Name: jsii.String("payment_id"), Type: jsii.String("S")},
			{Name: jsii.String("created_at"), Type: jsii.String("S")},
			{Name: jsii.String("customer_id"), Type: jsii.String("S")},
		},
		GlobalSecondaryIndex: &[]*dynamodbtable.DynamodbTableGlobalSecondaryIndex{{
			Name:           jsii.String("by-customer"),
			HashKey:        jsii.String("customer_id"),
			RangeKey:       jsii.String("created_at"),
			ProjectionType: jsii.String("ALL"),
		}},
		PointInTimeRecovery: &dynamodbtable.DynamodbTablePointInTimeRecovery{
			Enabled: jsii.Bool(true),
		},
		ServerSideEncryption: &dynamodbtable.DynamodbTableServerSideEncryption{
			Enabled:   jsii.Bool(true),
			KmsKeyArn: key.Arn(),
		},
		Provider: provider,
	})

	// --- Event queues. Failed payments land on the DLQ after five attempts ---
	dlq := sqsqueue.NewSqsQueue(stack, jsii.String("PaymentDlq"), &sqsqueue.SqsQueueConfig{
		Name:                    jsii.String(naming.Resource("payment-events-dlq", env.Suffix)),
		MessageRetentionSeconds: jsii.Number(1209600),
		KmsMasterKeyId:          key.KeyId(),
		Provider:                provider,
	})
	queue := sqsqueue.NewSqsQueue(stack, jsii.String("PaymentQueue"), &sqsqueue.SqsQueueConfig{
		Name:                     jsii.String(naming.Resource("payment-events", env.Suffix)),
		VisibilityTimeoutSeconds: jsii.Number(90),
		MessageRetentionSeconds:  jsii.Number(345600),
		KmsMasterKeyId:           key.KeyId(),
		RedrivePolicy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"deadLetterTargetArn": dlq.Arn(),
			"maxReceiveCount":     5,
		}),
		Provider: provider,
	})

	// --- Processor function ---
	role := newProcessorRole(stack, provider, env.Suffix, table, queue, dlq, key)
	functionName := naming.Resource("payment-processor", env.Suffix)

	logGroup := cloudwatchloggroup.NewCloudwatchLogGroup(stack, jsii.String("ProcessorLogs"), &cloudwatchloggroup.CloudwatchLogGroupConfig{
		Name:            jsii.String("/aws/lambda/" + functionName),
		RetentionInDays: jsii.Number(30),
		Provider:        provider,
	})

	notifications := snstopic.NewSnsTopic(stack, jsii.String("SettlementTopic"), &snstopic.SnsTopicConfig{
		Name:           jsii.String(naming.Resource("payment-settlements", env.Suffix)),
		KmsMasterKeyId: key.KeyId(),
		Provider:       provider,
	})

	fn := lambdafunction.NewLambdaFunction(stack, jsii.String("Processor"), &lambdafunction.LambdaFunctionConfig{
		FunctionName:  jsii.String(functionName),
		Role:          role.Arn(),
		Runtime:       jsii.String("provided.al2023"),
		Handler:       jsii.String("bootstrap"),
		Architectures: jsii.Strings("arm64"),
		Filename:      jsii.String("assets/payment-processor.zip"),
		Timeout:       jsii.Number(60),
		MemorySize:    jsii.Number(256),
		Environment: &lambdafunction.LambdaFunctionEnvironment{
			Variables: &map[string]*string{
				"LEDGER_TABLE":       table.Name(),
				"SETTLEMENT_TOPIC":   notifications.Arn(),
				"ENVIRONMENT_SUFFIX": jsii.String(env.Suffix),
			},
		},
		DeadLetterConfig: &lambdafunction.LambdaFunctionDeadLetterConfig{
			TargetArn: dlq.Arn(),
		},
		DependsOn: &[]cdktf.ITerraformDependable{logGroup},
		Provider:  provider,
	})

	lambdaeventsourcemapping.NewLambdaEventSourceMapping(stack, jsii.String("QueueToProcessor"), &lambdaeventsourcemapping.LambdaEventSourceMappingConfig{
		EventSourceArn: queue.Arn(),
		FunctionName:   fn.Arn(),
		BatchSize:      jsii.Number(10),
		Enabled:        jsii.Bool(true),
		Provider:       provider,
	})

	stackbase.Output(stack, "LedgerTableName", table.Name())
	stackbase.Output(stack, "PaymentQueueUrl", queue.Url())
	stackbase.Output(stack, "PaymentDlqUrl", dlq.Url())
	stackbase.Output(stack, "SettlementTopicArn", notifications.Arn())
	stackbase.Output(stack, "ProcessorFunctionName", fn.FunctionName())
	return stack
}

// newProcessorRole creates the execution role scoped to exactly the resources the
// processor touches: its log streams, the ledger table, the event queues, the
// settlement topic key, nothing else.
func newProcessorRole(
	stack cdktf.TerraformStack,
	provider cdktf.TerraformProvider,
	suffix string,
	table dynamodbtable.DynamodbTable,
	queue sqsqueue.SqsQueue,
	dlq sqsqueue.SqsQueue,
	key kmskey.KmsKey,
) iamrole.IamRole {
	role := iamrole.NewIamRole(stack, jsii.String("ProcessorRole"), &iamrole.IamRoleConfig{
		Name:             jsii.String(naming.Resource("payment-processor", suffix)),
		AssumeRolePolicy: jsii.String(lambdaAssumeRolePolicy),
		Provider:         provider,
	})

	iamrolepolicy.NewIamRolePolicy(stack, jsii.String("ProcessorPolicy"), &iamrolepolicy.IamRolePolicyConfig{
		Name: jsii.String("processor-access"),
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
					"Action":   []string{"dynamodb:PutItem", "dynamodb:UpdateItem", "dynamodb:GetItem", "dynamodb:Query"},
					"Resource": []interface{}{table.Arn(), fmt.Sprintf("%s/index/*", *table.Arn())},
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"sqs:ReceiveMessage", "sqs:DeleteMessage", "sqs:GetQueueAttributes"},
					"Resource": queue.Arn(),
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"sqs:SendMessage"},
					"Resource": dlq.Arn(),
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"kms:Decrypt", "kms:GenerateDataKey"},
					"Resource": key.Arn(),
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"sns:Publish"},
					"Resource": fmt.Sprintf("arn:aws:sns:*:*:payment-settlements-%s", suffix),
				},
			},
		}),
		Provider: provider,
	})
	return role
}

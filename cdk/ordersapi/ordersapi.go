// -------------------------------------------------------------------------------------------------
// Orders API Stack (AWS CDK): a serverless order intake API. API Gateway fronts a Lambda
// handler backed by a DynamoDB table; failed invocations drain to a dead letter queue.
// -------------------------------------------------------------------------------------------------
package ordersapi

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/stackatlas/stackatlas/internal/naming"
)

// OrdersApiStackProps carries the environment parameterization for the stack.
type OrdersApiStackProps struct {
	awscdk.StackProps
	EnvironmentSuffix string
	Tags              map[string]string
}

// Placeholder handler; the real artifact is swapped in by the release pipeline.
const handlerCode = `import json

def handler(event, context):
    return {"statusCode": 200, "body": json.dumps({"ok": True})}
`

// NewOrdersApiStack declares the orders API stack for one environment.
func NewOrdersApiStack(scope constructs.Construct, id string, props *OrdersApiStackProps) awscdk.Stack {
	var sprops awscdk.StackProps
	suffix := ""
	if props != nil {
		sprops = props.StackProps
		suffix = props.EnvironmentSuffix
	}
	stack := awscdk.NewStack(scope, &id, &sprops)

	if props != nil {
		for k, v := range props.Tags {
			awscdk.Tags_Of(stack).Add(jsii.String(k), jsii.String(v), nil)
		}
	}

	table := awsdynamodb.NewTable(stack, jsii.String("OrdersTable"), &awsdynamodb.TableProps{
		TableName: jsii.String(naming.Resource("orders", suffix)),
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("order_id"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("created_at"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		BillingMode:         awsdynamodb.BillingMode_PAY_PER_REQUEST,
		PointInTimeRecovery: jsii.Bool(true),
		RemovalPolicy:       awscdk.RemovalPolicy_DESTROY,
	})

	dlq := awssqs.NewQueue(stack, jsii.String("OrdersDlq"), &awssqs.QueueProps{
		QueueName:       jsii.String(naming.Resource("orders-dlq", suffix)),
		RetentionPeriod: awscdk.Duration_Days(jsii.Number(14)),
	})

	handler := awslambda.NewFunction(stack, jsii.String("OrdersHandler"), &awslambda.FunctionProps{
		FunctionName: jsii.String(naming.Resource("orders-api", suffix)),
		Runtime:      awslambda.Runtime_PYTHON_3_12(),
		Handler:      jsii.String("index.handler"),
		Code:         awslambda.Code_FromInline(jsii.String(handlerCode)),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(30)),
		MemorySize:   jsii.Number(256),
		Environment: &map[string]*string{
			"ORDERS_TABLE": table.TableName(),
		},
		DeadLetterQueue: dlq,
	})
	table.GrantReadWriteData(handler)

	api := awsapigateway.NewLambdaRestApi(stack, jsii.String("OrdersEndpoint"), &awsapigateway.LambdaRestApiProps{
		Handler:     handler,
		RestApiName: jsii.String(naming.Resource("orders", suffix)),
		DeployOptions: &awsapigateway.StageOptions{
			StageName: jsii.String("live"),
		},
	})

	awscdk.NewCfnOutput(stack, jsii.String("OrdersApiUrl"), &awscdk.CfnOutputProps{
		Value: api.Url(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("OrdersTableName"), &awscdk.CfnOutputProps{
		Value: table.TableName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("OrdersHandlerName"), &awscdk.CfnOutputProps{
		Value: handler.FunctionName(),
	})

	return stack
}

// -------------------------------------------------------------------------------------------------
// AWS CDK entrypoint for the CloudFormation-targeted stacks in the archive. Kept separate from
// the CDKTF app; the two frameworks synthesize to different engines from the same config file.
// -------------------------------------------------------------------------------------------------
package main

import (
	"os"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/stackatlas/stackatlas/cdk/ordersapi"
	"github.com/stackatlas/stackatlas/internal/appconfig"
	"github.com/stackatlas/stackatlas/internal/naming"
)

func main() {
	defer jsii.Close()
	log.SetHandler(clihandler.Default)

	configPath := os.Getenv("STACK_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}

	envName := os.Getenv("STACK_ENV")
	if envName == "" {
		envName = "dev"
	}
	env, err := appconfig.Select(cfg, envName)
	if err != nil {
		log.WithError(err).Fatal("selecting environment")
	}

	app := awscdk.NewApp(nil)

	ordersapi.NewOrdersApiStack(app, naming.LogicalID("orders-api", env.Name), &ordersapi.OrdersApiStackProps{
		StackProps: awscdk.StackProps{
			Env: &awscdk.Environment{
				Account: jsii.String(env.AccountID),
				Region:  jsii.String(env.Region),
			},
		},
		EnvironmentSuffix: env.Suffix,
		Tags:              env.Tags,
	})

	app.Synth(nil)
}

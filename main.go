// -------------------------------------------------------------------------------------------------
// CDKTF synthesis entrypoint for the stack archive. Loads config.yaml, selects the environment
// named by STACK_ENV, and synthesizes every stack that environment enables. Planning and apply
// are the engine's job; this program only emits the Terraform JSON.
// -------------------------------------------------------------------------------------------------
package main

import (
	"os"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	"github.com/stackatlas/stackatlas/internal/appconfig"
	"github.com/stackatlas/stackatlas/internal/stackbase"
	"github.com/stackatlas/stackatlas/stacks"
)

func main() {
	log.SetHandler(clihandler.Default)

	configPath := os.Getenv("STACK_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}
	if err := appconfig.Validate(cfg, stacks.Names()); err != nil {
		log.WithError(err).Fatal("validating config")
	}

	envName := os.Getenv("STACK_ENV")
	if envName == "" {
		envName = "dev"
	}
	env, err := appconfig.Select(cfg, envName)
	if err != nil {
		log.WithError(err).Fatal("selecting environment")
	}
	if len(env.Stacks) == 0 {
		log.WithField("environment", envName).Fatal("no stacks enabled for environment")
	}

	app := cdktf.NewApp(nil)
	for _, name := range env.Stacks {
		id := name + "-" + env.Name
		stacks.Builders[name](app, id, &stackbase.Props{Env: env})
		log.WithField("stack", id).Info("registered stack")
	}
	app.Synth()
}

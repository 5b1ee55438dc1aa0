// -------------------------------------------------------------------------------------------------
// Environment configuration for the stack archive. One YAML file declares every deployable
// environment (suffix, region, tags, remote state location) and the stacks it enables.
// -------------------------------------------------------------------------------------------------
package appconfig

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/stackatlas/stackatlas/internal/naming"
)

// -------------------------------------------------------------------------------------------------
// Struct Definitions
// -------------------------------------------------------------------------------------------------

// Environment is the fully resolved configuration handed to every stack constructor.
type Environment struct {
	Name          string            // Logical environment name (dev, staging, prod).
	Suffix        string            // Suffix appended to every resource name.
	Region        string            // AWS region for the default provider.
	AccountID     string            // Account ID, derived from the deploy role ARN.
	DeployRoleArn string            // IAM role assumed by the provider.
	StateBucket   string            // S3 bucket holding remote Terraform state.
	AlertEmail    string            // Subscription endpoint for alert topics.
	HubVpcID      string            // Optional hub VPC for peering demos.
	Tags          map[string]string // Tag dictionary applied to every resource.
	Stacks        []string          // Stacks deployed in this environment.
}

// YAMLEnvironment represents one environment entry in the YAML file.
type YAMLEnvironment struct {
	Suffix        string            `yaml:"suffix"`                  // Resource name suffix.
	Region        string            `yaml:"region"`                  // AWS region.
	DeployRoleArn string            `yaml:"deploy_role_arn"`         // IAM role ARN.
	StateBucket   string            `yaml:"state_bucket"`            // Remote state bucket.
	AlertEmail    string            `yaml:"alert_email,omitempty"`   // Optional alert email.
	HubVpcID      string            `yaml:"hub_vpc_id,omitempty"`    // Optional hub VPC ID.
	Tags          map[string]string `yaml:"tags,omitempty"`          // Environment tags.
	Stacks        []string          `yaml:"stacks"`                  // Enabled stack names.
}

// YAMLConfig holds the structure of the YAML configuration file.
type YAMLConfig struct {
	Project      string                     `yaml:"project"`      // Project name, used in default tags.
	Environments map[string]YAMLEnvironment `yaml:"environments"` // Map of environment names to definitions.
}

// -------------------------------------------------------------------------------------------------
// Loading and Validation
// -------------------------------------------------------------------------------------------------

// Load reads and parses the YAML configuration file at the given path.
func Load(path string) (YAMLConfig, error) {
	var cfg YAMLConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against the set of registered stack names.
// Every error names the offending environment or key.
func Validate(cfg YAMLConfig, knownStacks []string) error {
	if cfg.Project == "" {
		return fmt.Errorf("config: project name is required")
	}
	if len(cfg.Environments) == 0 {
		return fmt.Errorf("config: no environments defined")
	}

	known := make(map[string]bool, len(knownStacks))
	for _, s := range knownStacks {
		known[s] = true
	}

	suffixes := map[string]string{}
	for _, name := range sortedNames(cfg.Environments) {
		env := cfg.Environments[name]
		if env.Suffix == "" {
			return fmt.Errorf("config: environment %q is missing a suffix", name)
		}
		if env.Region == "" {
			return fmt.Errorf("config: environment %q is missing a region", name)
		}
		if other, dup := suffixes[env.Suffix]; dup {
			return fmt.Errorf("config: environments %q and %q share suffix %q", other, name, env.Suffix)
		}
		suffixes[env.Suffix] = name
		if env.DeployRoleArn != "" && AccountIDFromRoleArn(env.DeployRoleArn) == "" {
			return fmt.Errorf("config: environment %q has malformed deploy_role_arn %q", name, env.DeployRoleArn)
		}
		for _, s := range env.Stacks {
			if !known[s] {
				return fmt.Errorf("config: environment %q references unknown stack %q (known: %v)", name, s, knownStacks)
			}
		}
	}
	return nil
}

// Select resolves one named environment into the Environment value used by stacks.
func Select(cfg YAMLConfig, name string) (Environment, error) {
	raw, ok := cfg.Environments[name]
	if !ok {
		return Environment{}, fmt.Errorf("unknown environment %q (known: %v)", name, sortedNames(cfg.Environments))
	}

	tags := naming.MergeTags(map[string]string{
		"Project":     cfg.Project,
		"Environment": name,
		"ManagedBy":   "cdktf",
	}, raw.Tags)

	return Environment{
		Name:          name,
		Suffix:        raw.Suffix,
		Region:        raw.Region,
		AccountID:     AccountIDFromRoleArn(raw.DeployRoleArn),
		DeployRoleArn: raw.DeployRoleArn,
		StateBucket:   raw.StateBucket,
		AlertEmail:    raw.AlertEmail,
		HubVpcID:      raw.HubVpcID,
		Tags:          tags,
		Stacks:        raw.Stacks,
	}, nil
}

// -------------------------------------------------------------------------------------------------
// ARN and Account Helpers
// -------------------------------------------------------------------------------------------------

var roleArnPattern = regexp.MustCompile(`^arn:aws:iam::(\d+):`)

// AccountIDFromRoleArn extracts the AWS account ID from a role ARN string.
// It returns the account ID as a string, or an empty string if not found.
func AccountIDFromRoleArn(roleArn string) string {
	matches := roleArnPattern.FindStringSubmatch(roleArn)
	if len(matches) == 2 {
		return matches[1]
	}
	return ""
}

func sortedNames(envs map[string]YAMLEnvironment) []string {
	names := make([]string, 0, len(envs))
	for n := range envs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

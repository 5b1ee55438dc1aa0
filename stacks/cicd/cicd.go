// -------------------------------------------------------------------------------------------------
// CI/CD Pipeline Stack: an S3-sourced CodePipeline running a CodeBuild project, with scoped
// service roles and a shared artifact bucket. Deploy approval is a manual stage.
// -------------------------------------------------------------------------------------------------
package cicd

import (
	"fmt"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/terraform-cdk-go/cdktf"

	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/codebuildproject"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/codepipeline"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrole"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/iamrolepolicy"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/s3bucket"
	"github.com/cdktf/cdktf-provider-aws-go/aws/v19/s3bucketpublicaccessblock"

	"github.com/stackatlas/stackatlas/internal/naming"
	"github.com/stackatlas/stackatlas/internal/stackbase"
)

// NewCicdStack declares the CI/CD pipeline stack for one environment.
func NewCicdStack(scope constructs.Construct, id string, props *stackbase.Props) cdktf.TerraformStack {
	env := props.Env
	stack := cdktf.NewTerraformStack(scope, &id)
	provider := stackbase.NewDefaultProvider(stack, env)
	stackbase.ConfigureBackend(stack, env, "cicd")

	// --- Artifact bucket shared by source, build, and deploy stages ---
	artifacts := s3bucket.NewS3Bucket(stack, jsii.String("ArtifactBucket"), &s3bucket.S3BucketConfig{
		Bucket:   jsii.String(naming.Resource("pipeline-artifacts", env.Suffix)),
		Provider: provider,
	})
	s3bucketpublicaccessblock.NewS3BucketPublicAccessBlock(stack, jsii.String("ArtifactBucketPab"), &s3bucketpublicaccessblock.S3BucketPublicAccessBlockConfig{
		Bucket:                artifacts.Id(),
		BlockPublicAcls:       jsii.Bool(true),
		BlockPublicPolicy:     jsii.Bool(true),
		IgnorePublicAcls:      jsii.Bool(true),
		RestrictPublicBuckets: jsii.Bool(true),
		Provider:              provider,
	})
	stackbase.NewRawResource(stack, "ArtifactBucketVersioning", "aws_s3_bucket_versioning", provider, map[string]interface{}{
		"bucket": artifacts.Id(),
		"versioning_configuration.status": "Enabled",
	}, nil)

	// --- Build project ---
	buildRole := newServiceRole(stack, provider, "BuildRole", naming.Resource("pipeline-build", env.Suffix), "codebuild.amazonaws.com")
	iamrolepolicy.NewIamRolePolicy(stack, jsii.String("BuildRolePolicy"), &iamrolepolicy.IamRolePolicyConfig{
		Name: jsii.String("build-access"),
		Role: buildRole.Id(),
		Policy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{
				{
					"Effect":   "Allow",
					"Action":   []string{"logs:CreateLogGroup", "logs:CreateLogStream", "logs:PutLogEvents"},
					"Resource": "arn:aws:logs:*:*:*",
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"s3:GetObject", "s3:GetObjectVersion", "s3:PutObject"},
					"Resource": fmt.Sprintf("%s/*", *artifacts.Arn()),
				},
			},
		}),
		Provider: provider,
	})

	build := codebuildproject.NewCodebuildProject(stack, jsii.String("BuildProject"), &codebuildproject.CodebuildProjectConfig{
		Name:         jsii.String(naming.Resource("pipeline-build", env.Suffix)),
		Description:  jsii.String("Builds and tests the release artifact"),
		ServiceRole:  buildRole.Arn(),
		BuildTimeout: jsii.Number(30),
		Artifacts: &codebuildproject.CodebuildProjectArtifacts{
			Type: jsii.String("CODEPIPELINE"),
		},
		Environment: &codebuildproject.CodebuildProjectEnvironment{
			ComputeType: jsii.String("BUILD_GENERAL1_SMALL"),
			Image:       jsii.String("aws/codebuild/standard:7.0"),
			Type:        jsii.String("LINUX_CONTAINER"),
		},
		Source: &codebuildproject.CodebuildProjectSource{
			Type: jsii.String("CODEPIPELINE"),
		},
		Provider: provider,
	})

	// --- Pipeline ---
	pipelineRole := newServiceRole(stack, provider, "PipelineRole", naming.Resource("pipeline", env.Suffix), "codepipeline.amazonaws.com")
	iamrolepolicy.NewIamRolePolicy(stack, jsii.String("PipelineRolePolicy"), &iamrolepolicy.IamRolePolicyConfig{
		Name: jsii.String("pipeline-access"),
		Role: pipelineRole.Id(),
		Policy: cdktf.Fn_Jsonencode(map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{
				{
					"Effect":   "Allow",
					"Action":   []string{"s3:GetObject", "s3:GetObjectVersion", "s3:GetBucketVersioning", "s3:PutObject"},
					"Resource": []interface{}{artifacts.Arn(), fmt.Sprintf("%s/*", *artifacts.Arn())},
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"codebuild:BatchGetBuilds", "codebuild:StartBuild"},
					"Resource": build.Arn(),
				},
			},
		}),
		Provider: provider,
	})

	pipeline := codepipeline.NewCodepipeline(stack, jsii.String("Pipeline"), &codepipeline.CodepipelineConfig{
		Name:    jsii.String(naming.Resource("release-pipeline", env.Suffix)),
		RoleArn: pipelineRole.Arn(),
		ArtifactStore: &[]*codepipeline.CodepipelineArtifactStore{{
			Location: artifacts.Bucket(),
			Type:     jsii.String("S3"),
		}},
		Stage: &[]*codepipeline.CodepipelineStage{
			{
				Name: jsii.String("Source"),
				Action: &[]*codepipeline.CodepipelineStageAction{{
					Name:            jsii.String("Source"),
					Category:        jsii.String("Source"),
					Owner:           jsii.String("AWS"),
					Provider:        jsii.String("S3"),
					Version:         jsii.String("1"),
					OutputArtifacts: jsii.Strings("source_output"),
					Configuration: &map[string]*string{
						"S3Bucket":             artifacts.Bucket(),
						"S3ObjectKey":          jsii.String("source/release.zip"),
						"PollForSourceChanges": jsii.String("false"),
					},
				}},
			},
			{
				Name: jsii.String("Build"),
				Action: &[]*codepipeline.CodepipelineStageAction{{
					Name:            jsii.String("Build"),
					Category:        jsii.String("Build"),
					Owner:           jsii.String("AWS"),
					Provider:        jsii.String("CodeBuild"),
					Version:         jsii.String("1"),
					InputArtifacts:  jsii.Strings("source_output"),
					OutputArtifacts: jsii.Strings("build_output"),
					Configuration: &map[string]*string{
						"ProjectName": build.Name(),
					},
				}},
			},
			{
				Name: jsii.String("Approve"),
				Action: &[]*codepipeline.CodepipelineStageAction{{
					Name:     jsii.String("ManualApproval"),
					Category: jsii.String("Approval"),
					Owner:    jsii.String("AWS"),
					Provider: jsii.String("Manual"),
					Version:  jsii.String("1"),
				}},
			},
		},
		Provider: provider,
	})

	stackbase.Output(stack, "PipelineName", pipeline.Name())
	stackbase.Output(stack, "BuildProjectName", build.Name())
	stackbase.Output(stack, "ArtifactBucketName", artifacts.Bucket())
	return stack
}

func newServiceRole(stack cdktf.TerraformStack, provider cdktf.TerraformProvider, id, name, service string) iamrole.IamRole {
	return iamrole.NewIamRole(stack, jsii.String(id), &iamrole.IamRoleConfig{
		Name: jsii.String(name),
		AssumeRolePolicy: jsii.String(fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": %q},
      "Action": "sts:AssumeRole"
    }
  ]
}`, service)),
		Provider: provider,
	})
}

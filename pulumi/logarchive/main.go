// -------------------------------------------------------------------------------------------------
// Log Archive Stack (Pulumi): a private network, an archive bucket, an inventory table, and an
// ingest queue for shipping audit logs out of production accounts. Resource groups mirror the
// CDKTF stacks: flat declarations, suffix-parameterized names, exported identifiers.
// -------------------------------------------------------------------------------------------------
package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/dynamodb"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/s3"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/sqs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

type networkResources struct {
	Vpc            *ec2.Vpc
	PrivateSubnet1 *ec2.Subnet
	PrivateSubnet2 *ec2.Subnet
}

type archiveResources struct {
	Bucket *s3.BucketV2
	Table  *dynamodb.Table
	Queue  *sqs.Queue
}

// namedTags copies the shared tag map and adds the Name tag. VPCs and subnets
// have no name attribute of their own, so the suffix rides on the tag.
func namedTags(tags pulumi.StringMap, name string) pulumi.StringMap {
	out := pulumi.StringMap{"Name": pulumi.String(name)}
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func createNetworkResources(ctx *pulumi.Context, suffix string, tags pulumi.StringMap) (*networkResources, error) {
	vpc, err := ec2.NewVpc(ctx, "logArchiveVpc", &ec2.VpcArgs{
		CidrBlock:          pulumi.String("10.60.0.0/16"),
		EnableDnsSupport:   pulumi.Bool(true),
		EnableDnsHostnames: pulumi.Bool(true),
		Tags:               namedTags(tags, "log-archive-"+suffix),
	})
	if err != nil {
		return nil, err
	}

	subnet1, err := ec2.NewSubnet(ctx, "logArchivePrivate1", &ec2.SubnetArgs{
		VpcId:     vpc.ID(),
		CidrBlock: pulumi.String("10.60.1.0/24"),
		Tags:      namedTags(tags, "log-archive-private1-"+suffix),
	})
	if err != nil {
		return nil, err
	}
	subnet2, err := ec2.NewSubnet(ctx, "logArchivePrivate2", &ec2.SubnetArgs{
		VpcId:     vpc.ID(),
		CidrBlock: pulumi.String("10.60.2.0/24"),
		Tags:      namedTags(tags, "log-archive-private2-"+suffix),
	})
	if err != nil {
		return nil, err
	}

	return &networkResources{Vpc: vpc, PrivateSubnet1: subnet1, PrivateSubnet2: subnet2}, nil
}

func createArchiveResources(ctx *pulumi.Context, suffix string, tags pulumi.StringMap) (*archiveResources, error) {
	bucket, err := s3.NewBucketV2(ctx, "logArchiveBucket", &s3.BucketV2Args{
		Bucket: pulumi.String("log-archive-" + suffix),
		Tags:   tags,
	})
	if err != nil {
		return nil, err
	}

	table, err := dynamodb.NewTable(ctx, "logInventoryTable", &dynamodb.TableArgs{
		Name:        pulumi.String("log-inventory-" + suffix),
		BillingMode: pulumi.String("PAY_PER_REQUEST"),
		HashKey:     pulumi.String("object_key"),
		Attributes: dynamodb.TableAttributeArray{
			&dynamodb.TableAttributeArgs{
				Name: pulumi.String("object_key"),
				Type: pulumi.String("S"),
			},
		},
		Tags: tags,
	})
	if err != nil {
		return nil, err
	}

	queue, err := sqs.NewQueue(ctx, "logIngestQueue", &sqs.QueueArgs{
		Name:                    pulumi.String("log-ingest-" + suffix),
		MessageRetentionSeconds: pulumi.Int(86400),
		Tags:                    tags,
	})
	if err != nil {
		return nil, err
	}

	return &archiveResources{Bucket: bucket, Table: table, Queue: queue}, nil
}

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		conf := config.New(ctx, "")
		suffix := conf.Get("environmentSuffix")
		if suffix == "" {
			suffix = "dev"
		}
		tags := pulumi.StringMap{
			"Environment": pulumi.String(suffix),
			"ManagedBy":   pulumi.String("pulumi"),
		}

		network, err := createNetworkResources(ctx, suffix, tags)
		if err != nil {
			return err
		}
		archive, err := createArchiveResources(ctx, suffix, tags)
		if err != nil {
			return err
		}

		ctx.Export("vpcId", network.Vpc.ID())
		ctx.Export("privateSubnet1Id", network.PrivateSubnet1.ID())
		ctx.Export("privateSubnet2Id", network.PrivateSubnet2.ID())
		ctx.Export("archiveBucketName", archive.Bucket.Bucket)
		ctx.Export("inventoryTableName", archive.Table.Name)
		ctx.Export("ingestQueueUrl", archive.Queue.Url)

		return nil
	})
}

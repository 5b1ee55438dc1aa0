package main

import (
	"sync"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
)

type mocks int

func (mocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	return args.Name + "_id", args.Inputs, nil
}

func (mocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	return args.Args, nil
}

func TestLogArchiveNaming(t *testing.T) {
	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		tags := pulumi.StringMap{"Environment": pulumi.String("test")}

		archive, err := createArchiveResources(ctx, "test", tags)
		assert.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		pulumi.All(archive.Bucket.Bucket, archive.Table.Name, archive.Queue.Name).ApplyT(func(all []interface{}) error {
			defer wg.Done()
			assert.Equal(t, "log-archive-test", all[0].(string))
			assert.Equal(t, "log-inventory-test", all[1].(string))
			assert.Equal(t, "log-ingest-test", all[2].(string))
			return nil
		})
		wg.Wait()
		return nil
	}, pulumi.WithMocks("logarchive", "test", mocks(0)))
	assert.NoError(t, err)
}

func TestLogArchiveNetworkStaysPrivate(t *testing.T) {
	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		tags := pulumi.StringMap{"Environment": pulumi.String("test")}

		network, err := createNetworkResources(ctx, "test", tags)
		assert.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		pulumi.All(network.Vpc.CidrBlock, network.PrivateSubnet1.CidrBlock, network.PrivateSubnet2.CidrBlock).ApplyT(func(all []interface{}) error {
			defer wg.Done()
			assert.Equal(t, "10.60.0.0/16", all[0].(string))
			assert.Equal(t, "10.60.1.0/24", all[1].(string))
			assert.Equal(t, "10.60.2.0/24", all[2].(string))
			return nil
		})
		wg.Wait()
		return nil
	}, pulumi.WithMocks("logarchive", "test", mocks(0)))
	assert.NoError(t, err)
}

func TestLogArchiveNetworkNameTagsCarrySuffix(t *testing.T) {
	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		tags := pulumi.StringMap{"Environment": pulumi.String("test")}

		network, err := createNetworkResources(ctx, "test", tags)
		assert.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		pulumi.All(network.Vpc.Tags, network.PrivateSubnet1.Tags, network.PrivateSubnet2.Tags).ApplyT(func(all []interface{}) error {
			defer wg.Done()
			vpcTags := all[0].(map[string]string)
			assert.Equal(t, "log-archive-test", vpcTags["Name"])
			assert.Equal(t, "test", vpcTags["Environment"])
			assert.Equal(t, "log-archive-private1-test", all[1].(map[string]string)["Name"])
			assert.Equal(t, "log-archive-private2-test", all[2].(map[string]string)["Name"])
			return nil
		})
		wg.Wait()
		return nil
	}, pulumi.WithMocks("logarchive", "test", mocks(0)))
	assert.NoError(t, err)
}

func TestLogArchiveTableBillingMode(t *testing.T) {
	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		tags := pulumi.StringMap{}

		archive, err := createArchiveResources(ctx, "test", tags)
		assert.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		pulumi.All(archive.Table.BillingMode, archive.Table.HashKey).ApplyT(func(all []interface{}) error {
			defer wg.Done()
			assert.Equal(t, "PAY_PER_REQUEST", *all[0].(*string))
			assert.Equal(t, "object_key", all[1].(string))
			return nil
		})
		wg.Wait()
		return nil
	}, pulumi.WithMocks("logarchive", "test", mocks(0)))
	assert.NoError(t, err)
}

package infrastructure

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
)

// ResolvePlacement returns the VPC and subnet to launch into. The subnet must
// be configured and must belong to the VPC; a mismatch is reported, never
// corrected.
func (r *Resolver) ResolvePlacement(ctx context.Context, settings *config.Settings) (vpcID, subnetID string, err error) {
	vpcID = settings.VpcID
	if vpcID == "" {
		vpcID, err = r.defaultVpc(ctx)
		if err != nil {
			return "", "", err
		}
		r.observer.Printf("Using default VPC %s", vpcID)
	}

	subnetID = settings.SubnetID
	if subnetID == "" {
		return "", "", &ResolutionError{
			Kind:    KindNotConfigured,
			Message: "subnet not configured; run 'ec2-cli config init' to select one",
		}
	}

	if err := r.validateSubnet(ctx, subnetID, vpcID); err != nil {
		return "", "", err
	}
	return vpcID, subnetID, nil
}

func (r *Resolver) defaultVpc(ctx context.Context) (string, error) {
	out, err := r.network.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		Filters: []ec2types.Filter{
			{Name: awsv2.String("is-default"), Values: []string{"true"}},
		},
	})
	if err != nil {
		return "", aws.NewAPIError("EC2", "DescribeVpcs", err)
	}
	for _, vpc := range out.Vpcs {
		if id := awsv2.ToString(vpc.VpcId); id != "" {
			return id, nil
		}
	}
	return "", &ResolutionError{
		Kind:    KindNoDefaultNetwork,
		Message: "no default VPC found in this region; configure vpc_id with 'ec2-cli config init'",
	}
}

func (r *Resolver) validateSubnet(ctx context.Context, subnetID, vpcID string) error {
	out, err := r.network.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		SubnetIds: []string{subnetID},
	})
	if err != nil {
		if aws.IsNotFound(err) {
			return &ResolutionError{Kind: KindSubnetNotFound, Message: fmt.Sprintf("subnet %s not found", subnetID), Err: err}
		}
		return aws.NewAPIError("EC2", "DescribeSubnets", err)
	}
	if len(out.Subnets) == 0 {
		return &ResolutionError{Kind: KindSubnetNotFound, Message: fmt.Sprintf("subnet %s not found", subnetID)}
	}

	actual := awsv2.ToString(out.Subnets[0].VpcId)
	if actual != vpcID {
		return &ResolutionError{
			Kind:    KindSubnetMismatch,
			Message: fmt.Sprintf("subnet %s is in VPC %s, not %s", subnetID, actual, vpcID),
		}
	}
	return nil
}

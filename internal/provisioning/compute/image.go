package compute

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/profile"
)

const defaultRootDevice = "/dev/xvda"

// ImageParameter returns the SSM public parameter that tracks the latest
// image of family for arch.
func ImageParameter(family, arch string) (string, error) {
	switch family {
	case profile.ImageAmazonLinux2023:
		switch arch {
		case profile.ArchX86_64:
			return "/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-default-x86_64", nil
		case profile.ArchARM64:
			return "/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-default-arm64", nil
		}
	case profile.ImageUbuntu2404:
		switch arch {
		case profile.ArchX86_64:
			return "/aws/service/canonical/ubuntu/server/24.04/stable/current/amd64/hvm/ebs-gp3/ami-id", nil
		case profile.ArchARM64:
			return "/aws/service/canonical/ubuntu/server/24.04/stable/current/arm64/hvm/ebs-gp3/ami-id", nil
		}
	default:
		return "", fmt.Errorf("unsupported image family %q", family)
	}
	return "", fmt.Errorf("unsupported architecture %q for image family %s", arch, family)
}

// ResolveImage returns the image id for ami. An explicit id is used as is;
// a family is resolved through its SSM public parameter.
func ResolveImage(ctx context.Context, params aws.ParameterAPI, ami profile.AMIConfig) (string, error) {
	if ami.ID != "" {
		return ami.ID, nil
	}

	name, err := ImageParameter(ami.Family, ami.Architecture)
	if err != nil {
		return "", err
	}
	out, err := params.GetParameter(ctx, &ssm.GetParameterInput{Name: awsv2.String(name)})
	if err != nil {
		return "", aws.NewAPIError("SSM", "GetParameter", err)
	}
	if out.Parameter == nil || awsv2.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("SSM parameter %s has no value", name)
	}
	return awsv2.ToString(out.Parameter.Value), nil
}

// RootDeviceName returns the root device of imageID so the root volume
// mapping replaces the image's own root volume.
func RootDeviceName(ctx context.Context, api aws.InstanceAPI, imageID string) (string, error) {
	out, err := api.DescribeImages(ctx, &ec2.DescribeImagesInput{ImageIds: []string{imageID}})
	if err != nil {
		return "", aws.NewAPIError("EC2", "DescribeImages", err)
	}
	if len(out.Images) == 0 {
		return "", fmt.Errorf("image %s not found", imageID)
	}
	if name := awsv2.ToString(out.Images[0].RootDeviceName); name != "" {
		return name, nil
	}
	return defaultRootDevice, nil
}

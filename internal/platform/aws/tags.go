package aws

import (
	"sort"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/imamik/ec2-cli/internal/util/naming"
)

const (
	// ManagedTagKey marks every resource ec2-cli creates.
	ManagedTagKey   = "ec2-cli:managed"
	ManagedTagValue = "true"

	// NameTagKey stores the operator-chosen instance name.
	NameTagKey = "ec2-cli:name"

	// AWSNameTag is the console display name.
	AWSNameTag = "Name"
)

// StandardTags returns the tags every instance carries.
func StandardTags(name string) map[string]string {
	return map[string]string{
		ManagedTagKey: ManagedTagValue,
		NameTagKey:    name,
		AWSNameTag:    naming.DisplayName(name),
	}
}

// MergeTags combines the standard tags with operator custom tags. On key
// collision the standard tag wins unless allowOverride is set.
func MergeTags(name string, custom map[string]string, allowOverride bool) map[string]string {
	merged := StandardTags(name)
	for k, v := range custom {
		if _, standard := merged[k]; standard && !allowOverride {
			continue
		}
		merged[k] = v
	}
	return merged
}

// EC2Tags converts a tag map into EC2 tags sorted by key.
func EC2Tags(tags map[string]string) []ec2types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ec2types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, ec2types.Tag{Key: awsv2.String(k), Value: awsv2.String(tags[k])})
	}
	return out
}

// TagValue looks up a tag on an EC2 resource.
func TagValue(tags []ec2types.Tag, key string) string {
	for _, t := range tags {
		if awsv2.ToString(t.Key) == key {
			return awsv2.ToString(t.Value)
		}
	}
	return ""
}

// IAMManagedTags returns the marker tag for IAM resources.
func IAMManagedTags() []iamtypes.Tag {
	return []iamtypes.Tag{{Key: awsv2.String(ManagedTagKey), Value: awsv2.String(ManagedTagValue)}}
}

// ManagedFilter selects instances launched by ec2-cli.
func ManagedFilter() ec2types.Filter {
	return ec2types.Filter{
		Name:   awsv2.String("tag:" + ManagedTagKey),
		Values: []string{ManagedTagValue},
	}
}

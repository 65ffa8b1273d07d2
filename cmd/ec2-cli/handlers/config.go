package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/charmbracelet/huh"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/platform/aws"
	"github.com/imamik/ec2-cli/internal/util/prerequisites"
)

// ConfigInitOptions are the flags of the config init command. Empty fields
// are prompted for on a terminal.
type ConfigInitOptions struct {
	VpcID    string
	SubnetID string
	Username string
}

// Factory function variables for config - can be replaced in tests.
var (
	checkPrerequisites = prerequisites.CheckDefault
)

// ConfigInit handles the config init command.
//
// It checks the client tools, verifies credentials, and records the
// Username tag and network placement in the settings document.
func ConfigInit(ctx context.Context, opts ConfigInitOptions) error {
	results := checkPrerequisites()
	for _, r := range results.Results {
		if r.Found {
			log.Printf("Found %s: %s", r.Tool.Name, r.Path)
		} else {
			log.Printf("Missing %s: %s (%s)", r.Tool.Name, r.Tool.Description, r.Tool.InstallURL)
		}
	}
	if err := results.Error(); err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	sess, err := establishSession(ctx, settingsRegion(settings))
	if err != nil {
		return err
	}
	log.Printf("Authenticated as %s", sess)
	if globals.Region != "" {
		settings.Region = globals.Region
	}

	interactive := isInteractive()

	username := opts.Username
	if username == "" && interactive {
		username, err = promptInput(ctx, "Username",
			"Tagged on every instance you launch so others can tell whose it is",
			func(v string) error {
				if strings.TrimSpace(v) == "" {
					return errors.New("username cannot be empty")
				}
				return config.ValidateTagValue(v)
			})
		if err != nil {
			return err
		}
	}
	if username != "" {
		if err := settings.SetTag(config.UsernameTagKey, strings.TrimSpace(username)); err != nil {
			return err
		}
	}
	if !settings.HasUsernameTag() {
		return errors.New("a Username is required; pass --username")
	}

	if opts.VpcID != "" {
		settings.VpcID = opts.VpcID
	} else if interactive {
		vpc, err := selectVpc(ctx, sess.EC2)
		if err != nil {
			return err
		}
		settings.VpcID = vpc
	}

	if opts.SubnetID != "" {
		settings.SubnetID = opts.SubnetID
	} else if interactive {
		subnet, err := selectSubnet(ctx, sess.EC2, settings.VpcID)
		if err != nil {
			return err
		}
		settings.SubnetID = subnet
	}
	if settings.SubnetID == "" {
		return errors.New("a subnet is required; pass --subnet")
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if err := saveSettings(settings); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, successStyle.Render("Settings saved to "+config.SettingsPath()))
	return nil
}

// selectVpc prompts for a VPC. The empty value keeps the default VPC.
func selectVpc(ctx context.Context, api aws.NetworkAPI) (string, error) {
	out, err := api.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{})
	if err != nil {
		return "", aws.NewAPIError("EC2", "DescribeVpcs", err)
	}

	options := []huh.Option[string]{huh.NewOption("Default VPC", "")}
	for _, vpc := range out.Vpcs {
		id := awsv2.ToString(vpc.VpcId)
		label := id
		if name := aws.TagValue(vpc.Tags, aws.AWSNameTag); name != "" {
			label = fmt.Sprintf("%s (%s)", id, name)
		}
		if awsv2.ToBool(vpc.IsDefault) {
			label += " [default]"
		}
		options = append(options, huh.NewOption(label, id))
	}
	return promptSelect(ctx, "VPC", options)
}

// selectSubnet prompts for a subnet of vpcID, or of the default VPC when
// vpcID is empty.
func selectSubnet(ctx context.Context, api aws.NetworkAPI, vpcID string) (string, error) {
	filter := ec2types.Filter{Name: awsv2.String("vpc-id"), Values: []string{vpcID}}
	if vpcID == "" {
		filter = ec2types.Filter{Name: awsv2.String("default-for-az"), Values: []string{"true"}}
	}
	out, err := api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{Filters: []ec2types.Filter{filter}})
	if err != nil {
		return "", aws.NewAPIError("EC2", "DescribeSubnets", err)
	}
	if len(out.Subnets) == 0 {
		return "", fmt.Errorf("no subnets found; pass --subnet")
	}

	subnets := out.Subnets
	sort.Slice(subnets, func(i, j int) bool {
		return awsv2.ToString(subnets[i].SubnetId) < awsv2.ToString(subnets[j].SubnetId)
	})
	options := make([]huh.Option[string], 0, len(subnets))
	for _, s := range subnets {
		id := awsv2.ToString(s.SubnetId)
		label := fmt.Sprintf("%s (%s, %s)", id, awsv2.ToString(s.AvailabilityZone), awsv2.ToString(s.CidrBlock))
		if name := aws.TagValue(s.Tags, aws.AWSNameTag); name != "" {
			label += " " + name
		}
		options = append(options, huh.NewOption(label, id))
	}
	return promptSelect(ctx, "Subnet", options)
}

// ConfigShow handles the config show command.
func ConfigShow(output string) error {
	if err := ValidateOutput(output); err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if handled, err := writeStructured(output, settings); handled {
		return err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString(" " + dimStyle.Render(config.SettingsPath()) + "\n")
	line := func(label, value string) {
		if value == "" {
			value = dimStyle.Render("(not set)")
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-20s", label+":")), value))
	}
	line("Region", settings.Region)
	line("VPC", settings.VpcID)
	line("Subnet", settings.SubnetID)
	line("Allow tag override", fmt.Sprintf("%t", settings.AllowTagOverride))
	b.WriteString("\n" + headerStyle.Render("Tags") + "\n")
	if len(settings.Tags) == 0 {
		b.WriteString("  " + dimStyle.Render("(none)") + "\n")
	}
	for _, k := range settings.SortedTagKeys() {
		b.WriteString(fmt.Sprintf("  %s = %s\n", k, settings.Tags[k]))
	}
	_, _ = fmt.Fprint(stdout, b.String())
	return nil
}

// ConfigTagSet handles the config tags set command.
func ConfigTagSet(key, value string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := settings.SetTag(key, value); err != nil {
		return err
	}
	if err := saveSettings(settings); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Set tag %s=%s\n", key, value)
	return nil
}

// ConfigTagList handles the config tags list command.
func ConfigTagList(output string) error {
	if err := ValidateOutput(output); err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if handled, err := writeStructured(output, settings.Tags); handled {
		return err
	}
	if len(settings.Tags) == 0 {
		_, _ = fmt.Fprintln(stdout, dimStyle.Render("No custom tags configured."))
		return nil
	}
	rows := make([][]string, 0, len(settings.Tags))
	for _, k := range settings.SortedTagKeys() {
		rows = append(rows, []string{k, settings.Tags[k]})
	}
	_, _ = fmt.Fprint(stdout, renderTable([]string{"KEY", "VALUE"}, rows, nil))
	return nil
}

// ConfigTagRemove handles the config tags remove command.
func ConfigTagRemove(key string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if _, ok := settings.RemoveTag(key); !ok {
		return fmt.Errorf("tag %q is not set", key)
	}
	if err := saveSettings(settings); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Removed tag %s\n", key)
	if key == config.UsernameTagKey {
		_, _ = fmt.Fprintln(stdout, warningStyle.Render("Instances will launch without a Username tag until you set one again."))
	}
	return nil
}

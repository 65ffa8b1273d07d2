package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/ec2-cli/internal/platform/aws"
)

// InstanceSummary is one row of the list command.
type InstanceSummary struct {
	Name       string    `json:"name"`
	InstanceID string    `json:"instance_id"`
	Profile    string    `json:"profile,omitempty"`
	Region     string    `json:"region"`
	CreatedAt  time.Time `json:"created_at"`
	State      string    `json:"state,omitempty"`
	// Tracked is false for managed instances missing from state.
	Tracked bool `json:"tracked"`
}

// List handles the list command.
//
// Without all it prints the state document. With all it also queries the
// region for instances carrying the managed tag that state does not know.
func List(ctx context.Context, all bool, output string) error {
	if err := ValidateOutput(output); err != nil {
		return err
	}

	entries, err := newStateStore().ListInstances(ctx)
	if err != nil {
		return err
	}

	rows := make([]InstanceSummary, 0, len(entries))
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.InstanceID] = true
		rows = append(rows, InstanceSummary{
			Name:       e.Name,
			InstanceID: e.InstanceID,
			Profile:    e.Profile,
			Region:     e.Region,
			CreatedAt:  e.CreatedAt,
			Tracked:    true,
		})
	}

	if all {
		settings, err := loadValidSettings()
		if err != nil {
			return err
		}
		sess, err := establishSession(ctx, settingsRegion(settings))
		if err != nil {
			return err
		}
		var untracked []InstanceSummary
		err = runStep(ctx, fmt.Sprintf("Searching %s for managed instances...", sess.Region), func(ctx context.Context) error {
			found, derr := discoverManaged(ctx, sess.EC2, sess.Region, known)
			untracked = found
			return derr
		})
		if err != nil {
			return err
		}
		rows = append(rows, untracked...)
	}

	if handled, err := writeStructured(output, rows); handled {
		return err
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(stdout, dimStyle.Render("No instances. Launch one with 'ec2-cli up'."))
		return nil
	}
	_, _ = fmt.Fprint(stdout, renderList(rows))
	return nil
}

// discoverManaged lists live managed instances whose IDs are not in known.
func discoverManaged(ctx context.Context, api aws.InstanceAPI, region string, known map[string]bool) ([]InstanceSummary, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			aws.ManagedFilter(),
			{
				Name:   awsv2.String("instance-state-name"),
				Values: []string{"pending", "running", "stopping", "stopped", "shutting-down"},
			},
		},
	}

	var found []InstanceSummary
	paginator := ec2.NewDescribeInstancesPaginator(api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, aws.NewAPIError("EC2", "DescribeInstances", err)
		}
		for _, r := range page.Reservations {
			for _, inst := range r.Instances {
				id := awsv2.ToString(inst.InstanceId)
				if known[id] {
					continue
				}
				s := InstanceSummary{
					Name:       aws.TagValue(inst.Tags, aws.NameTagKey),
					InstanceID: id,
					Region:     region,
				}
				if inst.State != nil {
					s.State = string(inst.State.Name)
				}
				if inst.LaunchTime != nil {
					s.CreatedAt = inst.LaunchTime.UTC()
				}
				found = append(found, s)
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].InstanceID < found[j].InstanceID })
	return found, nil
}

func renderList(rows []InstanceSummary) string {
	headers := []string{"NAME", "INSTANCE ID", "PROFILE", "REGION", "CREATED", "TRACKED"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		tracked := "yes"
		if !r.Tracked {
			tracked = "no (" + r.State + ")"
		}
		cells = append(cells, []string{r.Name, r.InstanceID, r.Profile, r.Region, created, tracked})
	}
	return renderTable(headers, cells, func(col int, v string) string {
		if col == 5 && v != "yes" {
			return warningStyle.Render(v)
		}
		return v
	})
}

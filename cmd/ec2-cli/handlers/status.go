package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"

	"github.com/imamik/ec2-cli/internal/provisioning/readiness"
	"github.com/imamik/ec2-cli/internal/state"
)

// Status values for things EC2 or SSM cannot report on.
const (
	statusNotFound      = "not found"
	statusNotRegistered = "not registered"
	statusUnknown       = "unknown"
)

// InstanceStatus is the recorded and live view of one instance.
type InstanceStatus struct {
	Name         string     `json:"name"`
	InstanceID   string     `json:"instance_id"`
	Profile      string     `json:"profile"`
	Region       string     `json:"region"`
	CreatedAt    time.Time  `json:"created_at"`
	State        string     `json:"state"`
	AgentStatus  string     `json:"agent_status"`
	InstanceType string     `json:"instance_type,omitempty"`
	PrivateIP    string     `json:"private_ip,omitempty"`
	PublicIP     string     `json:"public_ip,omitempty"`
	LaunchTime   *time.Time `json:"launch_time,omitempty"`
}

// Status handles the status command.
func Status(ctx context.Context, name, output string) error {
	if err := ValidateOutput(output); err != nil {
		return err
	}
	workDir, err := getWorkDir()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	name, err = state.ResolveInstanceName(workDir, name)
	if err != nil {
		return err
	}

	rec, err := lookupRecord(ctx, newStateStore(), name)
	if err != nil {
		return err
	}

	sess, err := establishSession(ctx, rec.Region)
	if err != nil {
		return err
	}

	st := &InstanceStatus{
		Name:        name,
		InstanceID:  rec.InstanceID,
		Profile:     rec.Profile,
		Region:      rec.Region,
		CreatedAt:   rec.CreatedAt,
		State:       statusUnknown,
		AgentStatus: statusUnknown,
	}

	err = runStep(ctx, fmt.Sprintf("Fetching status of %s...", name), func(ctx context.Context) error {
		inst, err := readiness.DescribeInstance(ctx, sess.EC2, rec.InstanceID)
		switch {
		case readiness.IsInstanceGone(err):
			st.State = statusNotFound
			st.AgentStatus = statusNotRegistered
			return nil
		case err != nil:
			return err
		}
		st.State = readiness.InstanceState(inst)
		st.InstanceType = string(inst.InstanceType)
		st.PrivateIP = awsv2.ToString(inst.PrivateIpAddress)
		st.PublicIP = awsv2.ToString(inst.PublicIpAddress)
		st.LaunchTime = inst.LaunchTime

		ping, err := readiness.AgentPingStatus(ctx, sess.SSM, rec.InstanceID)
		if err != nil {
			log.Printf("Warning: failed to query SSM agent: %v", err)
			return nil
		}
		if ping == "" {
			ping = statusNotRegistered
		}
		st.AgentStatus = ping
		return nil
	})
	if err != nil {
		return err
	}

	if handled, err := writeStructured(output, st); handled {
		return err
	}
	_, _ = fmt.Fprint(stdout, renderStatus(st))
	return nil
}

func renderStatus(st *InstanceStatus) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(st.Name))
	b.WriteString("\n")

	line := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label+":")), value))
	}
	line("Instance ID", st.InstanceID)
	line("State", stateStyle(st.State).Render(st.State))
	line("SSM agent", stateStyle(st.AgentStatus).Render(st.AgentStatus))
	line("Profile", st.Profile)
	line("Region", st.Region)
	line("Type", st.InstanceType)
	line("Private IP", st.PrivateIP)
	line("Public IP", st.PublicIP)
	line("Created", st.CreatedAt.Local().Format(time.RFC3339))
	if st.LaunchTime != nil {
		line("Launched", st.LaunchTime.Local().Format(time.RFC3339))
	}
	return b.String()
}

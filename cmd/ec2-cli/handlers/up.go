package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/imamik/ec2-cli/internal/profile"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/provisioning/compute"
	"github.com/imamik/ec2-cli/internal/provisioning/infrastructure"
	"github.com/imamik/ec2-cli/internal/provisioning/readiness"
	"github.com/imamik/ec2-cli/internal/state"
	"github.com/imamik/ec2-cli/internal/userdata"
	"github.com/imamik/ec2-cli/internal/util/naming"
)

// UpOptions are the flags of the up command.
type UpOptions struct {
	Profile string
	Name    string
	Link    bool
}

// Factory function variables for up - can be replaced in tests.
var (
	// newUpPhases returns the phases that bring an instance up.
	newUpPhases = func() []Provisioner {
		return []Provisioner{
			infrastructure.NewProvisioner(),
			compute.NewProvisioner(),
			readiness.NewProvisioner(),
		}
	}

	generateInstanceName = naming.GenerateInstanceName
)

// Up handles the up command.
//
// It resolves placement and the shared permission binding, launches an
// instance from the selected profile and waits until it is reachable
// through Session Manager. An instance that launched is recorded in state
// even when a readiness wait fails, so status and destroy can reach it.
func Up(ctx context.Context, opts UpOptions) error {
	settings, err := loadValidSettings()
	if err != nil {
		return err
	}
	if !settings.HasUsernameTag() {
		log.Printf("Warning: no Username tag configured; run 'ec2-cli config init' to set one")
	}

	workDir, err := getWorkDir()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	profileName := opts.Profile
	if profileName == "" {
		profileName = profile.DefaultName
	}
	prof, err := newProfileLoader(workDir).Load(profileName)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = generateInstanceName()
	}
	if err := naming.ValidateInstanceName(name); err != nil {
		return err
	}

	store := newStateStore()
	existing, err := store.GetInstance(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("instance %q already exists (%s in %s); destroy it first or choose another name",
			name, existing.InstanceID, existing.Region)
	}

	bootstrap, err := userdata.Generate(prof, userdata.ProjectName(workDir))
	if err != nil {
		return fmt.Errorf("failed to generate user data: %w", err)
	}

	sess, err := establishSession(ctx, settingsRegion(settings))
	if err != nil {
		return err
	}
	log.Printf("Launching %s with profile %s in %s", name, prof.Name, sess)

	pCtx := newProvisioningContext(ctx, sess, settings, prof, name)
	pCtx.Bootstrap = bootstrap
	pCtx.Observer = newObserver().WithFields(map[string]string{"instance": name})

	phases := make([]provisioning.Phase, 0, 3)
	for _, p := range newUpPhases() {
		phases = append(phases, p)
	}
	runErr := provisioning.NewPipeline(phases...).Run(pCtx)

	id := pCtx.Result.InstanceID
	if id != "" {
		if _, err := store.AddInstance(ctx, name, id, prof.Name, sess.Region); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("instance %s launched but not recorded: %w", id, err))
		} else if opts.Link {
			if err := state.WriteLink(workDir, name); err != nil {
				log.Printf("Warning: failed to link instance: %v", err)
			}
		}
	}
	writeMetrics(pCtx.Metrics)

	if runErr != nil {
		if id != "" {
			log.Printf("Instance %s is recorded as %s; inspect it with 'ec2-cli status %s' or remove it with 'ec2-cli destroy %s'",
				id, name, name, name)
		}
		return runErr
	}

	printUpSummary(name, id, sess.Region, prof)
	return nil
}

func printUpSummary(name, id, region string, prof *profile.Profile) {
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintln(stdout, successStyle.Render(fmt.Sprintf("Instance %s is ready", name)))
	_, _ = fmt.Fprintf(stdout, "  %s %s\n", labelStyle.Render("Instance ID:"), id)
	_, _ = fmt.Fprintf(stdout, "  %s %s\n", labelStyle.Render("Region:     "), region)
	_, _ = fmt.Fprintf(stdout, "  %s %s (%s)\n", labelStyle.Render("Profile:    "), prof.Name, prof.Instance.Type)
	_, _ = fmt.Fprintf(stdout, "  %s %s\n", labelStyle.Render("User:       "), prof.LoginUser())
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintln(stdout, dimStyle.Render("Connect with:"))
	_, _ = fmt.Fprintf(stdout, "  aws ssm start-session --target %s --region %s\n", id, region)
}

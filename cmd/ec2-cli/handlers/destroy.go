package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/ec2-cli/internal/config"
	"github.com/imamik/ec2-cli/internal/provisioning"
	"github.com/imamik/ec2-cli/internal/provisioning/destroy"
	"github.com/imamik/ec2-cli/internal/state"
)

// DestroyOptions are the flags of the destroy command.
type DestroyOptions struct {
	// Name falls back to the instance linked to the working directory.
	Name  string
	Force bool
}

// Factory function variables for destroy - can be replaced in tests.
var (
	// newDestroyProvisioner creates a new destroy provisioner.
	newDestroyProvisioner = func(store *state.Store, workDir string) Provisioner {
		return destroy.NewProvisioner(store, workDir)
	}
)

// Destroy handles the destroy command.
//
// It terminates the instance in the region it was launched in, waits for
// termination, and forgets it in state. The shared role and instance
// profile are left in place for later launches.
func Destroy(ctx context.Context, opts DestroyOptions) error {
	workDir, err := getWorkDir()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	name, err := state.ResolveInstanceName(workDir, opts.Name)
	if err != nil {
		return err
	}

	store := newStateStore()
	rec, err := lookupRecord(ctx, store, name)
	if err != nil {
		return err
	}

	if !opts.Force {
		if !isInteractive() {
			return fmt.Errorf("refusing to destroy %s without confirmation; pass --force", name)
		}
		ok, err := promptConfirm(ctx, fmt.Sprintf("Terminate %s (%s in %s)?", name, rec.InstanceID, rec.Region))
		if err != nil {
			return err
		}
		if !ok {
			log.Printf("Aborted; %s was not destroyed", name)
			return nil
		}
	}

	// Teardown only needs the recorded region, so broken settings must not block it.
	settings, err := loadSettings()
	if err != nil {
		log.Printf("Warning: ignoring settings: %v", err)
		settings = &config.Settings{}
	}
	sess, err := establishSession(ctx, rec.Region)
	if err != nil {
		return err
	}

	pCtx := newProvisioningContext(ctx, sess, settings, nil, name)
	pCtx.Observer = newObserver().WithFields(map[string]string{"instance": name})
	pCtx.Result.InstanceID = rec.InstanceID

	err = provisioning.NewPipeline(newDestroyProvisioner(store, workDir)).Run(pCtx)
	writeMetrics(pCtx.Metrics)
	if err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	log.Printf("Instance %s (%s) destroyed", name, rec.InstanceID)
	return nil
}

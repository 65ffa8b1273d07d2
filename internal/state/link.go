package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/ec2-cli/internal/config"
)

const linkFileName = "instance"

// LinkPath returns the path of the instance link in dir.
func LinkPath(dir string) string {
	return filepath.Join(dir, config.LocalDirName, linkFileName)
}

// WriteLink links dir to the instance name.
func WriteLink(dir, name string) error {
	path := LinkPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", config.LocalDirName, err)
	}
	// #nosec G306
	if err := os.WriteFile(path, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write instance link: %w", err)
	}
	return nil
}

// ReadLink returns the instance linked to dir, or "" when there is none.
func ReadLink(dir string) (string, error) {
	// #nosec G304
	data, err := os.ReadFile(LinkPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read instance link: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// RemoveLink deletes the link in dir if it points at name, and reports
// whether it did.
func RemoveLink(dir, name string) (bool, error) {
	linked, err := ReadLink(dir)
	if err != nil || linked == "" || linked != name {
		return false, err
	}
	if err := os.Remove(LinkPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to remove instance link: %w", err)
	}
	return true, nil
}

// ResolveInstanceName returns name when given, otherwise the instance
// linked to dir. The link is not read when name is set.
func ResolveInstanceName(dir, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	linked, err := ReadLink(dir)
	if err != nil {
		return "", err
	}
	if linked == "" {
		return "", &NotFoundError{}
	}
	return linked, nil
}

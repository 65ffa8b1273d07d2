package handlers

import (
	"fmt"
	"os"

	"github.com/imamik/ec2-cli/internal/profile"
)

// ProfileList handles the profile list command.
func ProfileList(output string) error {
	if err := ValidateOutput(output); err != nil {
		return err
	}
	workDir, err := getWorkDir()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	infos, err := newProfileLoader(workDir).List()
	if err != nil {
		return err
	}
	if handled, err := writeStructured(output, infos); handled {
		return err
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, string(info.Source), info.Path})
	}
	_, _ = fmt.Fprint(stdout, renderTable([]string{"NAME", "SOURCE", "PATH"}, rows, nil))
	return nil
}

// ProfileShow handles the profile show command. It prints the profile as
// it will be used, with defaults applied.
func ProfileShow(name string) error {
	workDir, err := getWorkDir()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	loader := newProfileLoader(workDir)

	p, err := loader.Load(name)
	if err != nil {
		return err
	}
	path, source, err := loader.Path(p.Name)
	if err != nil {
		return err
	}

	data, err := profile.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to render profile: %w", err)
	}

	origin := string(source)
	if path != "" {
		origin = fmt.Sprintf("%s (%s)", path, source)
	}
	_, _ = fmt.Fprintln(stdout, dimStyle.Render("# "+origin))
	_, _ = fmt.Fprint(stdout, string(data))
	return nil
}

// ProfileValidate handles the profile validate command. The argument is a
// profile file path when such a file exists, otherwise a profile name.
func ProfileValidate(nameOrPath string) error {
	var (
		p   *profile.Profile
		err error
	)
	if info, statErr := os.Stat(nameOrPath); statErr == nil && !info.IsDir() {
		p, err = profile.LoadFile(nameOrPath)
		if err == nil {
			err = p.Validate()
		}
	} else {
		workDir, wdErr := getWorkDir()
		if wdErr != nil {
			return fmt.Errorf("failed to determine working directory: %w", wdErr)
		}
		p, err = newProfileLoader(workDir).Load(nameOrPath)
	}
	if err != nil {
		return fmt.Errorf("profile %s is invalid: %w", nameOrPath, err)
	}

	name := p.Name
	if name == "" {
		name = nameOrPath
	}
	_, _ = fmt.Fprintln(stdout, successStyle.Render(fmt.Sprintf("Profile %s is valid", name)))
	return nil
}

package userdata

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/imamik/ec2-cli/internal/profile"
)

// ReadyMarker is touched in the login user's home once bootstrap finishes.
const ReadyMarker = ".ec2-cli-ready"

// maxUserDataBytes is the EC2 limit on raw user data.
const maxUserDataBytes = 16 * 1024

//go:embed templates/bootstrap.sh.tmpl
var templatesFS embed.FS

var bootstrapTemplate = template.Must(template.ParseFS(templatesFS, "templates/bootstrap.sh.tmpl"))

type envVar struct {
	Key   string
	Value string
}

type rustData struct {
	Channel    string
	Components string
}

type templateData struct {
	User           string
	Home           string
	SystemPackages string
	Rust           *rustData
	CargoPackages  []string
	Environment    []envVar
	Project        string
	ReadyMarker    string
}

// Generate renders the bootstrap script for p. project names the bare git
// repository to prepare; an empty project skips the repository setup.
func Generate(p *profile.Profile, project string) (string, error) {
	if project != "" && !projectPattern.MatchString(project) {
		return "", fmt.Errorf("invalid project name %q", project)
	}

	user := p.LoginUser()
	data := templateData{
		User:           user,
		Home:           "/home/" + user,
		SystemPackages: strings.Join(p.Packages.System, " "),
		Project:        project,
		ReadyMarker:    ReadyMarker,
	}
	if p.Packages.Rust.Enabled {
		data.Rust = &rustData{
			Channel:    p.Packages.Rust.Channel,
			Components: strings.Join(p.Packages.Rust.Components, " "),
		}
		data.CargoPackages = p.Packages.Cargo
	}

	keys := make([]string, 0, len(p.Environment))
	for k := range p.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data.Environment = append(data.Environment, envVar{Key: k, Value: p.Environment[k]})
	}

	var buf bytes.Buffer
	if err := bootstrapTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render bootstrap script: %w", err)
	}
	if buf.Len() > maxUserDataBytes {
		return "", fmt.Errorf("bootstrap script is %d bytes, EC2 allows at most %d", buf.Len(), maxUserDataBytes)
	}
	return buf.String(), nil
}

// Encode returns script in the base64 form RunInstances expects.
func Encode(script string) string {
	return base64.StdEncoding.EncodeToString([]byte(script))
}

var (
	projectPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	projectInvalid = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// ProjectName derives a git repository name from a working directory.
// Characters that are unsafe in a shell word are replaced with '-'.
func ProjectName(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	name := strings.Trim(projectInvalid.ReplaceAllString(base, "-"), "-.")
	if !projectPattern.MatchString(name) {
		return ""
	}
	return name
}

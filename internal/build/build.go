// Package build holds values set at link time with -ldflags "-X".
package build

import "time"

const Name = "x-deskwm"

var (
	commit  = ""
	date    = ""
	version = "dev"
	repoURL = ""
)

var Current Build

func init() {
	date, _ := time.Parse(time.RFC3339, date)

	Current = Build{
		Name:    Name,
		Version: version,
		Commit:  commit,
		Date:    date,
		RepoURL: repoURL,
	}
	if repoURL != "" && commit != "" {
		Current.CommitURL = repoURL + "/tree/" + commit
	}
}

type Build struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	RepoURL   string    `json:"repoUrl,omitempty"`
	CommitURL string    `json:"commitUrl,omitempty"`
}

func (b Build) String() string {
	if b.Commit == "" {
		return b.Name + " " + b.Version
	}
	return b.Name + " " + b.Version + " (" + b.Commit + ")"
}

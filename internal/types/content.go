package types

// ContentModule and ContentSection are the owned composition of a
// ContentArtifact. They are not tables of their own: an artifact stores its
// ordered module list as a JSON column and the whole tree lives and dies with
// the artifact row.

type ContentModule struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Order       int              `json:"order"`
	Sections    []ContentSection `json:"sections"`
	Resources   []string         `json:"resources,omitempty"`
}

type ContentSection struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	ContentType     string `json:"content_type"` // text|interactive|exercise
	Order           int    `json:"order"`
	DurationMinutes int    `json:"duration_minutes"`
}

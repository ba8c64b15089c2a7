package models

// Exercise is one wellness exercise from the YAML catalog. Routine
// steps reference exercises by ID through Step.Game; the reference is
// opaque to the engine and only resolved by the SPA.
type Exercise struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	Kind            string   `yaml:"kind" json:"kind"` // breathing | focus | gratitude | sleep
	DefaultDuration int      `yaml:"default_duration" json:"default_duration"` // minutes
	Icon            string   `yaml:"icon" json:"icon"`
	Tags            []string `yaml:"tags" json:"tags,omitempty"`
}

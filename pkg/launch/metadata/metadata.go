// Package metadata decodes version metadata documents and resolves
// inheritance chains into a single launchable description.
package metadata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/provide-io/craftlaunch/pkg/launch/rules"
)

// VersionMetadata is a version document. After Resolve it is fully merged:
// InheritsFrom is empty and MainClass and Libraries are populated.
type VersionMetadata struct {
	ID                 string       `json:"id"`
	InheritsFrom       string       `json:"inheritsFrom,omitempty"`
	Type               string       `json:"type,omitempty"`
	MainClass          string       `json:"mainClass,omitempty"`
	Jar                string       `json:"jar,omitempty"`
	Assets             string       `json:"assets,omitempty"`
	AssetIndex         *AssetIndex  `json:"assetIndex,omitempty"`
	JavaVersion        *JavaVersion `json:"javaVersion,omitempty"`
	Libraries          []Library    `json:"libraries,omitempty"`
	Arguments          Arguments    `json:"arguments,omitempty"`
	MinecraftArguments string       `json:"minecraftArguments,omitempty"`
}

// AssetIndex describes the asset index file of a version.
type AssetIndex struct {
	ID        string `json:"id"`
	URL       string `json:"url,omitempty"`
	SHA1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
}

// JavaVersion is the runtime a version requires.
type JavaVersion struct {
	Component    string `json:"component,omitempty"`
	MajorVersion int    `json:"majorVersion"`
}

// Arguments holds the JVM and game argument templates.
type Arguments struct {
	JVM  []ArgumentTemplate `json:"jvm,omitempty"`
	Game []ArgumentTemplate `json:"game,omitempty"`
}

// ArgumentTemplate is either a literal or a rule-guarded block of literals.
// Which one is decided when the document is decoded.
type ArgumentTemplate struct {
	Literal     string
	Conditional *ConditionalArgument
}

// ConditionalArgument is included only when its rules allow it.
type ConditionalArgument struct {
	Rules  []rules.Rule
	Values []string
}

// Literal returns a literal template.
func Literal(s string) ArgumentTemplate {
	return ArgumentTemplate{Literal: s}
}

// Conditional returns a rule-guarded template.
func Conditional(r []rules.Rule, values ...string) ArgumentTemplate {
	return ArgumentTemplate{Conditional: &ConditionalArgument{Rules: r, Values: values}}
}

// IsConditional reports whether the template is a rule-guarded block.
func (t ArgumentTemplate) IsConditional() bool {
	return t.Conditional != nil
}

type conditionalJSON struct {
	Rules []rules.Rule    `json:"rules"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts a JSON string or a {"rules", "value"} object whose
// value is a string or an array of strings.
func (t *ArgumentTemplate) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		*t = ArgumentTemplate{}
		return json.Unmarshal(data, &t.Literal)
	}

	var raw conditionalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("argument template: %w", err)
	}

	values, err := decodeValue(raw.Value)
	if err != nil {
		return fmt.Errorf("argument template value: %w", err)
	}
	*t = Conditional(raw.Rules, values...)
	return nil
}

// MarshalJSON writes the template back in document form.
func (t ArgumentTemplate) MarshalJSON() ([]byte, error) {
	if t.Conditional == nil {
		return json.Marshal(t.Literal)
	}
	var value any = t.Conditional.Values
	if len(t.Conditional.Values) == 1 {
		value = t.Conditional.Values[0]
	}
	return json.Marshal(struct {
		Rules []rules.Rule `json:"rules"`
		Value any          `json:"value"`
	}{t.Conditional.Rules, value})
}

func decodeValue(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing value")
	}
	if strings.HasPrefix(strings.TrimSpace(string(raw)), `"`) {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}

// Launchable reports whether the document can be launched without a parent.
func (m *VersionMetadata) Launchable() bool {
	return m.MainClass != "" && len(m.Libraries) > 0
}

// RequiredJavaMajor returns the runtime major version the document asks for,
// defaulting to 8 for documents that predate the javaVersion field.
func (m *VersionMetadata) RequiredJavaMajor() int {
	if m.JavaVersion == nil || m.JavaVersion.MajorVersion == 0 {
		return 8
	}
	return m.JavaVersion.MajorVersion
}

// ClientJarID returns the version identifier whose client archive is launched.
func (m *VersionMetadata) ClientJarID() string {
	if m.Jar != "" {
		return m.Jar
	}
	return m.ID
}

// AssetIndexID returns the asset index identifier, falling back to the
// asset-group tag.
func (m *VersionMetadata) AssetIndexID() string {
	if m.AssetIndex != nil && m.AssetIndex.ID != "" {
		return m.AssetIndex.ID
	}
	return m.Assets
}

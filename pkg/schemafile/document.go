package schemafile

// documentFile is the on-disk shape of one form schema.
type documentFile struct {
	ID     string      `json:"id" yaml:"id"`
	Fields []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Name              string            `json:"name" yaml:"name"`
	Kind              string            `json:"kind" yaml:"kind"`
	Label             string            `json:"label,omitempty" yaml:"label,omitempty"`
	HelperText        string            `json:"helperText,omitempty" yaml:"helperText,omitempty"`
	Placeholder       string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Default           any               `json:"default,omitempty" yaml:"default,omitempty"`
	ColumnSpan        int               `json:"columnSpan,omitempty" yaml:"columnSpan,omitempty"`
	Required          bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Disabled          bool              `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Readonly          bool              `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Hidden            bool              `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	HiddenWhen        string            `json:"hiddenWhen,omitempty" yaml:"hiddenWhen,omitempty"`
	VisibleWhen       string            `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	Rules             []string          `json:"rules,omitempty" yaml:"rules,omitempty"`
	Messages          map[string]string `json:"messages,omitempty" yaml:"messages,omitempty"`
	Live              *liveFile         `json:"live,omitempty" yaml:"live,omitempty"`
	Lazy              bool              `json:"lazy,omitempty" yaml:"lazy,omitempty"`
	Options           *optionsFile      `json:"options,omitempty" yaml:"options,omitempty"`
	DependsOn         []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	AfterStateUpdated string            `json:"afterStateUpdated,omitempty" yaml:"afterStateUpdated,omitempty"`
	Props             map[string]any    `json:"props,omitempty" yaml:"props,omitempty"`
	Schema            []fieldFile       `json:"schema,omitempty" yaml:"schema,omitempty"`
	Blocks            []blockFile       `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

type liveFile struct {
	Debounce int `json:"debounce,omitempty" yaml:"debounce,omitempty"`
}

type blockFile struct {
	Name     string      `json:"name" yaml:"name"`
	Label    string      `json:"label,omitempty" yaml:"label,omitempty"`
	Icon     string      `json:"icon,omitempty" yaml:"icon,omitempty"`
	MaxItems int         `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Schema   []fieldFile `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// optionsFile declares exactly one option source.
type optionsFile struct {
	Static       []optionFile      `json:"static,omitempty" yaml:"static,omitempty"`
	Map          map[string]string `json:"map,omitempty" yaml:"map,omitempty"`
	Relationship *relationshipFile `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Computed     *functionFile     `json:"computed,omitempty" yaml:"computed,omitempty"`
	Expression   *expressionFile   `json:"expression,omitempty" yaml:"expression,omitempty"`
}

type optionFile struct {
	Value    string `json:"value" yaml:"value"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Group    string `json:"group,omitempty" yaml:"group,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

type relationshipFile struct {
	Entity    string `json:"entity" yaml:"entity"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Key       string `json:"key,omitempty" yaml:"key,omitempty"`
	Modifier  string `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	LabelFunc string `json:"labelFunc,omitempty" yaml:"labelFunc,omitempty"`
}

type functionFile struct {
	Function  string   `json:"function" yaml:"function"`
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

type expressionFile struct {
	Source    string   `json:"source" yaml:"source"`
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

package expression

// OperatorMode selects what adding a variable puts on the canvas.
type OperatorMode string

const (
	// OperatorModeDefault adds the bare symbol.
	OperatorModeDefault OperatorMode = "default"
	// OperatorModeVariable adds the variable's comparison.
	OperatorModeVariable OperatorMode = "variable"
	// OperatorModeVariableExpression also expands reference variables.
	OperatorModeVariableExpression OperatorMode = "variableExpre"
)

// Themes
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// PaletteItem names one operator or function button.
type PaletteItem struct {
	Name string `json:"name" yaml:"name"`
}

// Settings is the host configuration of a workspace.
type Settings struct {
	Expression         string        `json:"expression"`
	Operators          []PaletteItem `json:"operators"`
	Funcs              []PaletteItem `json:"funcs"`
	Variables          Variables     `json:"variables"`
	OperatorMode       OperatorMode  `json:"operatorMode"`
	Locale             string        `json:"locale"`
	HiddenLocalePicker bool          `json:"hiddenLocalePicker"`
	HiddenExpression   bool          `json:"hiddenExpression"`
	Theme              string        `json:"theme"`
	Constants          []string      `json:"constants"`
}

// PaletteNames returns the names of the items.
func PaletteNames(items []PaletteItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

// HasItem reports whether items contains name.
func HasItem(items []PaletteItem, name string) bool {
	for _, item := range items {
		if item.Name == name {
			return true
		}
	}
	return false
}

// Clone copies the slices so the result can be changed independently.
func (s Settings) Clone() Settings {
	c := s
	c.Operators = append([]PaletteItem(nil), s.Operators...)
	c.Funcs = append([]PaletteItem(nil), s.Funcs...)
	c.Variables = append(Variables(nil), s.Variables...)
	c.Constants = append([]string(nil), s.Constants...)
	return c
}

// WithDefaults fills empty fields from defaults.
func (s Settings) WithDefaults(defaults Settings) Settings {
	if s.Operators == nil {
		s.Operators = append([]PaletteItem(nil), defaults.Operators...)
	}
	if s.Funcs == nil {
		s.Funcs = append([]PaletteItem(nil), defaults.Funcs...)
	}
	if s.Variables == nil {
		s.Variables = append(Variables(nil), defaults.Variables...)
	}
	if s.Constants == nil {
		s.Constants = append([]string(nil), defaults.Constants...)
	}
	if s.OperatorMode == "" {
		s.OperatorMode = defaults.OperatorMode
	}
	if s.OperatorMode == "" {
		s.OperatorMode = OperatorModeDefault
	}
	if s.Locale == "" {
		s.Locale = defaults.Locale
	}
	if s.Theme == "" {
		s.Theme = defaults.Theme
	}
	if s.Theme == "" {
		s.Theme = ThemeLight
	}
	return s
}

// SettingsPatch carries the settings a partial update sends. Nil fields are
// left as they are.
type SettingsPatch struct {
	Expression         *string        `json:"expression"`
	Operators          *[]PaletteItem `json:"operators"`
	Funcs              *[]PaletteItem `json:"funcs"`
	Variables          *Variables     `json:"variables"`
	OperatorMode       *OperatorMode  `json:"operatorMode"`
	Locale             *string        `json:"locale"`
	HiddenLocalePicker *bool          `json:"hiddenLocalePicker"`
	HiddenExpression   *bool          `json:"hiddenExpression"`
	Theme              *string        `json:"theme"`
	Constants          *[]string      `json:"constants"`
}

// Merge returns s with the fields set in p replaced.
func (s Settings) Merge(p SettingsPatch) Settings {
	s = s.Clone()
	if p.Expression != nil {
		s.Expression = *p.Expression
	}
	if p.Operators != nil {
		s.Operators = append([]PaletteItem{}, (*p.Operators)...)
	}
	if p.Funcs != nil {
		s.Funcs = append([]PaletteItem{}, (*p.Funcs)...)
	}
	if p.Variables != nil {
		s.Variables = append(Variables{}, (*p.Variables)...)
	}
	if p.OperatorMode != nil {
		s.OperatorMode = *p.OperatorMode
	}
	if p.Locale != nil {
		s.Locale = *p.Locale
	}
	if p.HiddenLocalePicker != nil {
		s.HiddenLocalePicker = *p.HiddenLocalePicker
	}
	if p.HiddenExpression != nil {
		s.HiddenExpression = *p.HiddenExpression
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Constants != nil {
		s.Constants = append([]string{}, (*p.Constants)...)
	}
	return s
}

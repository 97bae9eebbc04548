package catalog

// Option is one entry of a fixed option list (purchase company, element,
// factor). Values are compared verbatim, never parsed.
type Option struct {
	Value string `mapstructure:"value" json:"value"`
	Label string `mapstructure:"label" json:"label"`
}

// Options is an ordered option list.
type Options []Option

// Label returns the label of the option whose value equals value.
func (o Options) Label(value string) (string, bool) {
	for _, opt := range o {
		if opt.Value == value {
			return opt.Label, true
		}
	}
	return "", false
}
